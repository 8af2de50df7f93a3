// Package main provides the entry point for the Interview Assistant CLI and
// HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interview_agent",
	Short: "AI-powered interview assistant",
	Long:  "Interview Assistant extracts candidate profiles from resumes, runs timed six-question AI interviews with per-answer evaluation, and maintains a searchable candidate collection via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
