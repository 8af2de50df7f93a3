package main

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-assistant/internal/store"
)

// defaultSQLitePath keeps CLI sessions durable without any configuration.
const defaultSQLitePath = "interviews.db"

// openStore selects the persistence backend: PostgreSQL when a URL is given,
// otherwise an embedded SQLite file.
func openStore(ctx context.Context, databaseURL, sqlitePath string) (store.Store, error) {
	if databaseURL != "" {
		pg, err := store.ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare database schema: %w", err)
		}
		return pg, nil
	}

	if sqlitePath == "" {
		sqlitePath = defaultSQLitePath
	}
	sq, err := store.OpenSQLite(ctx, sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	if err := sq.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
	}
	return sq, nil
}
