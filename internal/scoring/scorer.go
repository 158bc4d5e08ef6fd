package scoring

import (
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/rankconfig"
)

// Scorer converts item attributes into a RankKey
// ⭐ SSOT: 점수 계산 로직은 여기서만
type Scorer struct {
	profile *rankconfig.Profile
	ranks   map[string]int
	tracer  Tracer
}

// NewScorer creates a scorer for a validated profile
func NewScorer(profile *rankconfig.Profile) *Scorer {
	ranks := make(map[string]int, len(profile.Locations))
	for _, loc := range profile.Locations {
		ranks[loc.Name] = loc.Rank
	}

	return &Scorer{
		profile: profile,
		ranks:   ranks,
	}
}

// WithTracer attaches a hook that sees every scoring decision
func (s *Scorer) WithTracer(t Tracer) *Scorer {
	s.tracer = t
	return s
}

// Score computes the rank key and stock flag for one item.
// Input is assumed validated (no negative quantities or prices).
func (s *Scorer) Score(item *contracts.Item) contracts.ScoredItem {
	delivery := s.profile.OutOfStockRank
	stocked := 0
	anyStock := false
	slowStocked := false

	for loc, qty := range item.StockByLocation {
		if qty <= 0 {
			continue
		}
		anyStock = true

		// 알 수 없는 창고는 재고 여부에만 반영, 순위와 단독 판정에서는 제외
		rank, ok := s.ranks[loc]
		if !ok {
			continue
		}
		stocked++

		if s.profile.SlowLocation != nil && loc == s.profile.SlowLocation.Location {
			slowStocked = true
		}
		if rank < delivery {
			delivery = rank
		}
	}

	// 느린 창고 "단독" 재고일 때만 페널티 (다른 창고와 함께면 미적용)
	slowOnly := stocked == 1 && slowStocked
	if slowOnly {
		delivery = s.profile.SlowLocation.Penalty
	}

	price := item.PriceOrZero()
	penalty := s.pricePenalty(price)

	scored := contracts.ScoredItem{
		ID:       item.ID,
		Brand:    item.BrandLabel(),
		Title:    item.Title,
		HasStock: anyStock,
		Key: contracts.RankKey{
			Value: delivery + penalty,
			ID:    item.ID,
		},
		Detail: contracts.ScoreBreakdown{
			DeliveryRank:     delivery,
			PricePenalty:     penalty,
			Price:            price,
			StockedLocations: stocked,
			SlowOnly:         slowOnly,
		},
	}

	if s.tracer != nil {
		s.tracer.TraceScore(item, &scored)
	}

	return scored
}

// ScoreAll scores items in input order
func (s *Scorer) ScoreAll(items []contracts.Item) []contracts.ScoredItem {
	scored := make([]contracts.ScoredItem, len(items))
	for i := range items {
		scored[i] = s.Score(&items[i])
	}
	return scored
}

// pricePenalty returns the first matching tier penalty.
// Validated profiles always end with an unbounded tier.
func (s *Scorer) pricePenalty(price float64) int {
	for _, tier := range s.profile.PriceTiers {
		if tier.Matches(price) {
			return tier.Penalty
		}
	}
	return 0
}
