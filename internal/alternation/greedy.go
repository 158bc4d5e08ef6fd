package alternation

import (
	"context"

	"github.com/wonny/shelforder/internal/contracts"
)

// Lookahead is how many upcoming candidates each step may consider
const Lookahead = 3

// Greedy takes the best-ranked item unless it repeats the previous brand,
// in which case it pulls the first different brand from the next
// Lookahead items. With no such item in the window rank wins.
// ⭐ SSOT: 기본 브랜드 교차 알고리즘
type Greedy struct {
	lookahead int
}

// NewGreedy creates the default greedy strategy
func NewGreedy() *Greedy {
	return &Greedy{lookahead: Lookahead}
}

// Name returns the strategy name
func (g *Greedy) Name() string {
	return StrategyGreedy
}

// Alternate runs exactly len(ranked) steps; O(N·Lookahead) scans plus
// slice splices, fine for category sizes.
func (g *Greedy) Alternate(ctx context.Context, ranked []contracts.ScoredItem) ([]contracts.ScoredItem, error) {
	if contracts.DistinctBrands(ranked) < 2 {
		return nil, contracts.ErrNotApplicable
	}

	remaining := make([]contracts.ScoredItem, len(ranked))
	copy(remaining, ranked)
	out := make([]contracts.ScoredItem, 0, len(ranked))

	lastBrand := ""
	hasLast := false

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate := 0
		if hasLast {
			window := min(g.lookahead, len(remaining))
			for i := 0; i < window; i++ {
				if remaining[i].Brand != lastBrand {
					candidate = i
					break
				}
			}
		}

		picked := remaining[candidate]
		// splice (뒤 원소들이 한 칸씩 당겨짐), swap 아님
		remaining = append(remaining[:candidate], remaining[candidate+1:]...)
		out = append(out, picked)

		lastBrand = picked.Brand
		hasLast = true
	}

	return out, nil
}
