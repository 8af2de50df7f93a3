package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-assistant/internal/observability"
	"github.com/jonathan/interview-assistant/internal/search"
)

var candidatesCommand = &cobra.Command{
	Use:   "candidates",
	Short: "Search and list interviewed candidates",
	Long:  `Lists the candidate collection with optional fuzzy search (--query) and sorting (--sort name|score|date, --order asc|desc).`,
	RunE:  runCandidatesCmd,
}

var (
	candQuery       string
	candSort        string
	candOrder       string
	candDatabaseURL string
	candSQLitePath  string
)

func init() {
	candidatesCommand.Flags().StringVarP(&candQuery, "query", "q", "", "Fuzzy search over name, email, position, and skills")
	candidatesCommand.Flags().StringVar(&candSort, "sort", "date", "Sort key: name, score, or date")
	candidatesCommand.Flags().StringVar(&candOrder, "order", "desc", "Sort order: asc or desc")
	candidatesCommand.Flags().StringVar(&candDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	candidatesCommand.Flags().StringVar(&candSQLitePath, "sqlite", "", "Path to an embedded SQLite store")
	rootCmd.AddCommand(candidatesCommand)
}

func runCandidatesCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	key := search.SortKey(candSort)
	switch key {
	case search.SortByName, search.SortByScore, search.SortByDate:
	default:
		return fmt.Errorf("invalid --sort %q: must be name, score, or date", candSort)
	}
	order := search.SortOrder(candOrder)
	switch order {
	case search.Ascending, search.Descending:
	default:
		return fmt.Errorf("invalid --order %q: must be asc or desc", candOrder)
	}

	databaseURL := candDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	st, err := openStore(ctx, databaseURL, candSQLitePath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	candidates, err := st.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}

	index := search.NewIndex(0)
	results := index.Search(candidates, candQuery, key, order)

	observability.NewPrinter(os.Stdout).PrintCandidateList(results)
	return nil
}
