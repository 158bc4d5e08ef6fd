package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the tables the sort shell reads and writes.
// catalog.* is owned by the shop; only sorting.* is written here.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS catalog`,
	`CREATE SCHEMA IF NOT EXISTS sorting`,
	`CREATE TABLE IF NOT EXISTS catalog.items (
		item_id     TEXT PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		brand       TEXT,
		price       NUMERIC(12, 2)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog.grouping_items (
		grouping_id TEXT NOT NULL,
		item_id     TEXT NOT NULL REFERENCES catalog.items (item_id),
		PRIMARY KEY (grouping_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog.item_stock (
		item_id     TEXT NOT NULL REFERENCES catalog.items (item_id),
		location    TEXT NOT NULL,
		quantity    INTEGER NOT NULL,
		PRIMARY KEY (item_id, location)
	)`,
	`CREATE TABLE IF NOT EXISTS sorting.grouping_orders (
		grouping_id  TEXT PRIMARY KEY,
		version      INTEGER NOT NULL,
		current      JSONB NOT NULL,
		previous     JSONB,
		profile_hash TEXT NOT NULL DEFAULT '',
		strategy     TEXT NOT NULL DEFAULT '',
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sorting.item_positions (
		grouping_id TEXT NOT NULL,
		item_id     TEXT NOT NULL,
		position    INTEGER NOT NULL,
		PRIMARY KEY (grouping_id, item_id)
	)`,
}

// EnsureSchema creates missing schemas and tables (idempotent)
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i, err)
		}
	}
	return nil
}
