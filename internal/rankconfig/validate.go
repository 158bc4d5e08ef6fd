package rankconfig

import (
	"fmt"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
// Beyond shape checks it enforces the ordering guarantees of the profile:
// priority stock beats everything regardless of price, and slow-only
// stock sits between fast stock and no stock regardless of price.
func Validate(p *Profile) error {
	// === Locations ===
	if len(p.Locations) == 0 {
		return ValidationError{"locations", "at least one location required"}
	}
	seen := make(map[string]bool, len(p.Locations))
	for i, loc := range p.Locations {
		if loc.Name == "" {
			return ValidationError{fmt.Sprintf("locations[%d].name", i), "required"}
		}
		if seen[loc.Name] {
			return ValidationError{fmt.Sprintf("locations[%d].name", i), fmt.Sprintf("duplicate location %q", loc.Name)}
		}
		seen[loc.Name] = true
	}

	// === Price tiers ===
	if len(p.PriceTiers) == 0 {
		return ValidationError{"price_tiers", "at least one tier required"}
	}
	last := len(p.PriceTiers) - 1
	for i, tier := range p.PriceTiers {
		field := fmt.Sprintf("price_tiers[%d]", i)
		if i == last {
			if tier.UpTo != nil {
				return ValidationError{field + ".up_to", "last tier must be unbounded"}
			}
			continue
		}
		if tier.UpTo == nil {
			return ValidationError{field + ".up_to", "only the last tier may be unbounded"}
		}
		if i == 0 && !tier.Matches(0) {
			return ValidationError{field + ".up_to", "first tier must include price 0"}
		}
		if i > 0 && *tier.UpTo <= *p.PriceTiers[i-1].UpTo {
			return ValidationError{field + ".up_to", "bounds must be strictly increasing"}
		}
	}
	lo, hi := p.PenaltyRange()
	spread := hi - lo

	// === Priority location ===
	if p.PriorityLocation != "" {
		prioRank, ok := p.LocationRank(p.PriorityLocation)
		if !ok {
			return ValidationError{"priority_location", fmt.Sprintf("unknown location %q", p.PriorityLocation)}
		}
		for _, loc := range p.Locations {
			if loc.Name == p.PriorityLocation {
				continue
			}
			if prioRank+spread >= loc.Rank {
				return ValidationError{
					Field:   "priority_location",
					Message: fmt.Sprintf("rank %d must beat %q (rank %d) by more than the price penalty spread %d", prioRank, loc.Name, loc.Rank, spread),
				}
			}
		}
	}

	maxRank := p.Locations[0].Rank
	for _, loc := range p.Locations {
		if loc.Rank > maxRank {
			maxRank = loc.Rank
		}
	}

	// === Slow location ===
	if s := p.SlowLocation; s != nil {
		if _, ok := p.LocationRank(s.Location); !ok {
			return ValidationError{"slow_location.location", fmt.Sprintf("unknown location %q", s.Location)}
		}
		if s.Location == p.PriorityLocation {
			return ValidationError{"slow_location.location", "must differ from priority_location"}
		}
		for _, loc := range p.Locations {
			if loc.Name == s.Location {
				continue
			}
			if s.Penalty-spread <= loc.Rank {
				return ValidationError{
					Field:   "slow_location.penalty",
					Message: fmt.Sprintf("penalty %d must exceed %q (rank %d) by more than the price penalty spread %d", s.Penalty, loc.Name, loc.Rank, spread),
				}
			}
		}
		if s.Penalty >= p.OutOfStockRank {
			return ValidationError{"slow_location.penalty", fmt.Sprintf("must be < out_of_stock_rank=%d", p.OutOfStockRank)}
		}
	}

	// === Out of stock ===
	if p.OutOfStockRank <= maxRank {
		return ValidationError{"out_of_stock_rank", fmt.Sprintf("must be > every location rank (max %d)", maxRank)}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	if p.PriorityLocation == "" {
		warnings = append(warnings, Warning{
			Code:    "NO_PRIORITY_LOCATION",
			Message: "no priority location: store stock does not override price",
		})
	}

	if p.SlowLocation == nil {
		warnings = append(warnings, Warning{
			Code:    "NO_SLOW_LOCATION",
			Message: "no slow location penalty: supplier-only stock ranks by location rank",
		})
	}

	if len(p.PriceTiers) == 1 {
		warnings = append(warnings, Warning{
			Code:    "FLAT_PRICE",
			Message: "single price tier: price does not influence rank",
		})
	}

	return warnings
}
