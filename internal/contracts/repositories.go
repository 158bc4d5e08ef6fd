package contracts

import "context"

// ⭐ SSOT: 외부 협력자 인터페이스 정의는 여기서만

// CatalogSource supplies the items of a grouping
type CatalogSource interface {
	ListItems(ctx context.Context, groupingID string) ([]Item, error)
	ListGroupings(ctx context.Context) ([]string, error)
}

// BrandLookup resolves item ids to brand labels.
// Ids missing from the result get NoBrand.
type BrandLookup interface {
	LookupBrands(ctx context.Context, itemIDs []string) (map[string]string, error)
}

// OrderSink persists assignments and owns the undo swap
type OrderSink interface {
	Save(ctx context.Context, groupingID string, assignment SortAssignment, meta RunMeta) (*OrderRecord, error)
	Undo(ctx context.Context, groupingID string) (*OrderRecord, error)
	Get(ctx context.Context, groupingID string) (*OrderRecord, error)
}
