package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/shelforder/internal/contracts"
)

// Repository implements contracts.CatalogSource
// ⭐ SSOT: 카탈로그 조회는 여기서만 (읽기 전용)
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new catalog repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// stockRow is one (item, location) quantity
type stockRow struct {
	ItemID   string
	Location string
	Quantity int
}

// ListItems loads the items of a grouping with price and stock.
// Brands are left empty; they come from a contracts.BrandLookup.
func (r *Repository) ListItems(ctx context.Context, groupingID string) ([]contracts.Item, error) {
	query := `
		SELECT i.item_id, i.title, i.price::float8
		FROM catalog.grouping_items gi
		JOIN catalog.items i ON i.item_id = gi.item_id
		WHERE gi.grouping_id = $1
		ORDER BY i.item_id
	`

	rows, err := r.pool.Query(ctx, query, groupingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []contracts.Item
	for rows.Next() {
		var item contracts.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return items, nil
	}

	stock, err := r.listStock(ctx, groupingID)
	if err != nil {
		return nil, err
	}

	attachStock(items, stock)
	return items, nil
}

func (r *Repository) listStock(ctx context.Context, groupingID string) ([]stockRow, error) {
	query := `
		SELECT s.item_id, s.location, s.quantity
		FROM catalog.item_stock s
		JOIN catalog.grouping_items gi ON gi.item_id = s.item_id
		WHERE gi.grouping_id = $1
	`

	rows, err := r.pool.Query(ctx, query, groupingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	defer rows.Close()

	var stock []stockRow
	for rows.Next() {
		var s stockRow
		if err := rows.Scan(&s.ItemID, &s.Location, &s.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stock = append(stock, s)
	}
	return stock, rows.Err()
}

// attachStock fills StockByLocation; rows of unknown items are dropped
func attachStock(items []contracts.Item, stock []stockRow) {
	index := make(map[string]int, len(items))
	for i := range items {
		index[items[i].ID] = i
	}

	for _, s := range stock {
		i, ok := index[s.ItemID]
		if !ok {
			continue
		}
		if items[i].StockByLocation == nil {
			items[i].StockByLocation = make(map[string]int)
		}
		items[i].StockByLocation[s.Location] += s.Quantity
	}
}

// ListGroupings returns every grouping id that has items
func (r *Repository) ListGroupings(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT grouping_id
		FROM catalog.grouping_items
		ORDER BY grouping_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groupings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
