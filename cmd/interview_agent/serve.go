package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-assistant/internal/server"
)

var (
	servePort       int
	serveDBURL      string
	serveSQLitePath string
	servePrecision  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for resume extraction, interview sessions, and the candidate collection.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	serveCmd.Flags().StringVar(&serveSQLitePath, "sqlite", "", "Path to an embedded SQLite store (used when no database URL is set)")
	serveCmd.Flags().DurationVar(&servePrecision, "timer-precision", 0, "Countdown commit interval (default 100ms)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	databaseURL := serveDBURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	// Get API key from environment
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	cfg := server.Config{
		Port:           servePort,
		DatabaseURL:    databaseURL,
		SQLitePath:     serveSQLitePath,
		APIKey:         apiKey,
		TimerPrecision: servePrecision,
	}

	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
