package database_test

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/database"
)

// Example connects, prepares the sorting tables and writes inside a transaction
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}

	// Positions of one grouping are replaced atomically
	err = database.WithTx(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sorting.item_positions WHERE grouping_id = $1`, "shoes"); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO sorting.item_positions (grouping_id, item_id, position) VALUES ($1, $2, $3)`, "shoes", "a1", 0)
		return err
	})
	if err != nil {
		log.Fatalf("Write failed: %v", err)
	}
}
