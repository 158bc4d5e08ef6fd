package rankconfig

// Profile is the scoring configuration of the sort engine.
// Slices instead of maps keep Hash reproducible and the YAML ordered.
type Profile struct {
	Meta             Meta          `yaml:"meta" json:"meta"`
	Locations        []Location    `yaml:"locations" json:"locations"`
	PriorityLocation string        `yaml:"priority_location" json:"priority_location"` // 재고 시 모든 조건보다 우선
	SlowLocation     *SlowLocation `yaml:"slow_location" json:"slow_location"`
	PriceTiers       []PriceTier   `yaml:"price_tiers" json:"price_tiers"`
	OutOfStockRank   int           `yaml:"out_of_stock_rank" json:"out_of_stock_rank"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID string `yaml:"profile_id" json:"profile_id"`
	Version   string `yaml:"version" json:"version"`
}

// Location is a stock location and its fulfillment rank (lower = faster)
type Location struct {
	Name string `yaml:"name" json:"name"`
	Rank int    `yaml:"rank" json:"rank"`
}

// SlowLocation replaces the delivery rank when an item is stocked
// at this location and nowhere else
type SlowLocation struct {
	Location string `yaml:"location" json:"location"`
	Penalty  int    `yaml:"penalty" json:"penalty"`
}

// PriceTier matches prices below UpTo (or at UpTo when Inclusive).
// Only the last tier may leave UpTo unset; it catches everything above.
type PriceTier struct {
	UpTo      *float64 `yaml:"up_to,omitempty" json:"up_to,omitempty"`
	Inclusive bool     `yaml:"inclusive,omitempty" json:"inclusive,omitempty"`
	Penalty   int      `yaml:"penalty" json:"penalty"`
}

// Matches reports whether price falls in this tier's upper bound
func (t PriceTier) Matches(price float64) bool {
	if t.UpTo == nil {
		return true
	}
	if t.Inclusive {
		return price <= *t.UpTo
	}
	return price < *t.UpTo
}

// LocationRank returns the configured rank of a location
func (p *Profile) LocationRank(name string) (int, bool) {
	for _, loc := range p.Locations {
		if loc.Name == name {
			return loc.Rank, true
		}
	}
	return 0, false
}

// PenaltyRange returns the smallest and largest tier penalty
func (p *Profile) PenaltyRange() (lo, hi int) {
	for i, t := range p.PriceTiers {
		if i == 0 || t.Penalty < lo {
			lo = t.Penalty
		}
		if i == 0 || t.Penalty > hi {
			hi = t.Penalty
		}
	}
	return lo, hi
}

func bound(v float64) *float64 {
	return &v
}

// Default returns the built-in profile
//
//	price < 70         → +10  (저가: 수익성 낮음)
//	70 ≤ price < 150   → -2   (중가 부스트)
//	150 ≤ price ≤ 200  →  0
//	200 < price ≤ 300  → +5
//	price > 300        → +15
func Default() *Profile {
	return &Profile{
		Meta: Meta{
			ProfileID: "default",
			Version:   "v1",
		},
		Locations: []Location{
			{Name: "store", Rank: -1000},
			{Name: "warehouse", Rank: 1},
			{Name: "partner", Rank: 5},
			{Name: "supplier", Rank: 10},
		},
		PriorityLocation: "store",
		SlowLocation: &SlowLocation{
			Location: "supplier",
			Penalty:  50,
		},
		PriceTiers: []PriceTier{
			{UpTo: bound(70), Penalty: 10},
			{UpTo: bound(150), Penalty: -2},
			{UpTo: bound(200), Inclusive: true, Penalty: 0},
			{UpTo: bound(300), Inclusive: true, Penalty: 5},
			{Penalty: 15},
		},
		OutOfStockRank: 1000,
	}
}
