package contracts

import (
	"sort"
	"strings"
)

// RankKey totally orders items of one run. Lower sorts first.
// ID breaks ties so equal scores still sort reproducibly.
type RankKey struct {
	Value int    `json:"value"`
	ID    string `json:"id"`
}

// Compare returns -1, 0 or +1 comparing k to o lexicographically
func (k RankKey) Compare(o RankKey) int {
	switch {
	case k.Value < o.Value:
		return -1
	case k.Value > o.Value:
		return 1
	}
	return strings.Compare(k.ID, o.ID)
}

// Less reports whether k sorts before o
func (k RankKey) Less(o RankKey) bool {
	return k.Compare(o) < 0
}

// ScoredItem is the unit the alternator consumes
// ⭐ SSOT: Scorer → Alternator 전달 타입
type ScoredItem struct {
	ID       string         `json:"id"`
	Brand    string         `json:"brand"`
	Title    string         `json:"title,omitempty"`
	Key      RankKey        `json:"key"`
	HasStock bool           `json:"has_stock"`
	Detail   ScoreBreakdown `json:"detail"`
}

// ScoreBreakdown keeps the parts of a value score for diagnostics
type ScoreBreakdown struct {
	DeliveryRank     int     `json:"delivery_rank"`
	PricePenalty     int     `json:"price_penalty"`
	Price            float64 `json:"price"`
	StockedLocations int     `json:"stocked_locations"`
	SlowOnly         bool    `json:"slow_only"` // 느린 창고 단독 재고 페널티 적용
}

// RankLess orders by (no stock last, RankKey ascending)
func RankLess(a, b *ScoredItem) bool {
	if a.HasStock != b.HasStock {
		return a.HasStock
	}
	return a.Key.Less(b.Key)
}

// SortByRank sorts items in place into alternator input order
func SortByRank(items []ScoredItem) {
	sort.Slice(items, func(i, j int) bool {
		return RankLess(&items[i], &items[j])
	})
}

// DistinctBrands counts distinct brand labels
func DistinctBrands(items []ScoredItem) int {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		seen[items[i].Brand] = struct{}{}
	}
	return len(seen)
}

// IDs returns item ids in slice order
func IDs(items []ScoredItem) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
