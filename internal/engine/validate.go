package engine

import (
	"math"

	"github.com/wonny/shelforder/internal/contracts"
)

// validateItems fails on the first malformed item.
// Missing prices and unknown locations are not errors.
func validateItems(items []contracts.Item) error {
	seen := make(map[string]struct{}, len(items))

	for i := range items {
		item := &items[i]

		if item.ID == "" {
			return &contracts.ItemError{ItemID: item.ID, Field: "id", Message: "empty id"}
		}
		if _, dup := seen[item.ID]; dup {
			return &contracts.ItemError{ItemID: item.ID, Field: "id", Message: "duplicate id"}
		}
		seen[item.ID] = struct{}{}

		if item.Price != nil {
			p := *item.Price
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return &contracts.ItemError{ItemID: item.ID, Field: "price", Message: "not a finite number"}
			}
			if p < 0 {
				return &contracts.ItemError{ItemID: item.ID, Field: "price", Message: "negative price"}
			}
		}

		for loc, qty := range item.StockByLocation {
			if qty < 0 {
				return &contracts.ItemError{
					ItemID:  item.ID,
					Field:   "stock_by_location." + loc,
					Message: "negative quantity",
				}
			}
		}
	}

	return nil
}
