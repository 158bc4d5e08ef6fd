package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/shelforder/internal/contracts"
)

// DBBrandLookup resolves brands from catalog.items
type DBBrandLookup struct {
	pool *pgxpool.Pool
}

// NewDBBrandLookup creates a database backed brand lookup
func NewDBBrandLookup(pool *pgxpool.Pool) *DBBrandLookup {
	return &DBBrandLookup{pool: pool}
}

// LookupBrands returns a brand for every requested id.
// Unknown ids and NULL/blank brands map to contracts.NoBrand.
func (l *DBBrandLookup) LookupBrands(ctx context.Context, itemIDs []string) (map[string]string, error) {
	brands := make(map[string]string, len(itemIDs))
	if len(itemIDs) == 0 {
		return brands, nil
	}

	query := `
		SELECT item_id, COALESCE(TRIM(brand), '')
		FROM catalog.items
		WHERE item_id = ANY($1)
	`

	rows, err := l.pool.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, brand string
		if err := rows.Scan(&id, &brand); err != nil {
			return nil, err
		}
		brands[id] = brand
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return FillMissing(brands, itemIDs), nil
}

// FillMissing substitutes contracts.NoBrand for absent or blank brands
func FillMissing(brands map[string]string, itemIDs []string) map[string]string {
	if brands == nil {
		brands = make(map[string]string, len(itemIDs))
	}
	for _, id := range itemIDs {
		if brands[id] == "" {
			brands[id] = contracts.NoBrand
		}
	}
	return brands
}

// ApplyBrands sets Item.Brand from a lookup result
func ApplyBrands(items []contracts.Item, brands map[string]string) {
	for i := range items {
		if b, ok := brands[items[i].ID]; ok && b != "" {
			items[i].Brand = b
		} else {
			items[i].Brand = contracts.NoBrand
		}
	}
}

// ItemIDs returns the ids of items in order
func ItemIDs(items []contracts.Item) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
