package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/pkg/database"
)

// Repository implements contracts.OrderSink on PostgreSQL
// ⭐ SSOT: 정렬 결과 저장/되돌리기는 여기서만
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository creates a new ordering repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// Save archives the current assignment and installs a new one
func (r *Repository) Save(ctx context.Context, groupingID string, assignment contracts.SortAssignment, meta contracts.RunMeta) (*contracts.OrderRecord, error) {
	if err := assignment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment for %s: %w", groupingID, err)
	}

	var saved *contracts.OrderRecord
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rec, err := lockRecord(ctx, tx, groupingID)
		if errors.Is(err, contracts.ErrNotFound) {
			rec = &contracts.OrderRecord{GroupingID: groupingID}
		} else if err != nil {
			return err
		}

		rec.Advance(assignment.Clone(), meta, r.now())

		if err := writeRecord(ctx, tx, rec); err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// Undo swaps current and previous; a second undo restores the first
func (r *Repository) Undo(ctx context.Context, groupingID string) (*contracts.OrderRecord, error) {
	var restored *contracts.OrderRecord
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		rec, err := lockRecord(ctx, tx, groupingID)
		if err != nil {
			return err
		}

		if err := rec.Undo(r.now()); err != nil {
			return fmt.Errorf("undo %s: %w", groupingID, err)
		}

		if err := writeRecord(ctx, tx, rec); err != nil {
			return err
		}
		restored = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return restored, nil
}

// Get reads the record of a grouping
func (r *Repository) Get(ctx context.Context, groupingID string) (*contracts.OrderRecord, error) {
	query := `
		SELECT grouping_id, version, current, previous, profile_hash, strategy, updated_at
		FROM sorting.grouping_orders
		WHERE grouping_id = $1
	`
	return scanRecord(r.pool.QueryRow(ctx, query, groupingID), groupingID)
}

func lockRecord(ctx context.Context, tx pgx.Tx, groupingID string) (*contracts.OrderRecord, error) {
	query := `
		SELECT grouping_id, version, current, previous, profile_hash, strategy, updated_at
		FROM sorting.grouping_orders
		WHERE grouping_id = $1
		FOR UPDATE
	`
	return scanRecord(tx.QueryRow(ctx, query, groupingID), groupingID)
}

func scanRecord(row pgx.Row, groupingID string) (*contracts.OrderRecord, error) {
	var (
		rec      contracts.OrderRecord
		current  []byte
		previous []byte
	)

	err := row.Scan(&rec.GroupingID, &rec.Version, &current, &previous,
		&rec.ProfileHash, &rec.Strategy, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrNotFound, groupingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order record: %w", err)
	}

	if err := json.Unmarshal(current, &rec.Current); err != nil {
		return nil, fmt.Errorf("failed to decode current order: %w", err)
	}
	if previous != nil {
		if err := json.Unmarshal(previous, &rec.Previous); err != nil {
			return nil, fmt.Errorf("failed to decode previous order: %w", err)
		}
	}

	return &rec, nil
}

// writeRecord upserts the record and rewrites item_positions from Current
func writeRecord(ctx context.Context, tx pgx.Tx, rec *contracts.OrderRecord) error {
	current, err := json.Marshal(rec.Current)
	if err != nil {
		return fmt.Errorf("failed to encode current order: %w", err)
	}

	var previous []byte
	if rec.Previous != nil {
		if previous, err = json.Marshal(rec.Previous); err != nil {
			return fmt.Errorf("failed to encode previous order: %w", err)
		}
	}

	upsert := `
		INSERT INTO sorting.grouping_orders (
			grouping_id, version, current, previous, profile_hash, strategy, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (grouping_id) DO UPDATE SET
			version = EXCLUDED.version,
			current = EXCLUDED.current,
			previous = EXCLUDED.previous,
			profile_hash = EXCLUDED.profile_hash,
			strategy = EXCLUDED.strategy,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.Exec(ctx, upsert, rec.GroupingID, rec.Version, current, previous,
		rec.ProfileHash, rec.Strategy, rec.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save order record: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM sorting.item_positions WHERE grouping_id = $1", rec.GroupingID); err != nil {
		return fmt.Errorf("failed to clear positions: %w", err)
	}

	batch := &pgx.Batch{}
	for _, id := range rec.Current.OrderedIDs() {
		batch.Queue(
			"INSERT INTO sorting.item_positions (grouping_id, item_id, position) VALUES ($1, $2, $3)",
			rec.GroupingID, id, rec.Current[id],
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write positions: %w", err)
	}

	return nil
}
