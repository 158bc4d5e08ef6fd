package alternation

import (
	"context"
	"math/rand"
	"strings"

	"github.com/wonny/shelforder/internal/contracts"
)

// RoundRobin is the legacy strategy: items are bucketed by brand and then
// by title group (first word of the title), groups are shuffled within
// each brand, and brands take turns contributing one whole group.
// Output depends on rng; seed it to reproduce a run.
type RoundRobin struct {
	rng *rand.Rand
}

// NewRoundRobin creates the legacy strategy with an explicit random source
func NewRoundRobin(rng *rand.Rand) *RoundRobin {
	return &RoundRobin{rng: rng}
}

// Name returns the strategy name
func (r *RoundRobin) Name() string {
	return StrategyRoundRobin
}

type brandBucket struct {
	brand  string
	groups [][]contracts.ScoredItem
}

// Alternate visits brands in order of first appearance in ranked.
// Items keep their rank order inside a group.
func (r *RoundRobin) Alternate(ctx context.Context, ranked []contracts.ScoredItem) ([]contracts.ScoredItem, error) {
	if contracts.DistinctBrands(ranked) < 2 {
		return nil, contracts.ErrNotApplicable
	}

	buckets := bucketize(ranked)

	for _, b := range buckets {
		r.rng.Shuffle(len(b.groups), func(i, j int) {
			b.groups[i], b.groups[j] = b.groups[j], b.groups[i]
		})
	}

	out := make([]contracts.ScoredItem, 0, len(ranked))
	for len(out) < len(ranked) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, b := range buckets {
			if len(b.groups) == 0 {
				continue
			}
			out = append(out, b.groups[0]...)
			b.groups = b.groups[1:]
		}
	}

	return out, nil
}

func bucketize(ranked []contracts.ScoredItem) []*brandBucket {
	var buckets []*brandBucket
	byBrand := make(map[string]*brandBucket)
	groupIndex := make(map[string]map[string]int)

	for _, item := range ranked {
		b, ok := byBrand[item.Brand]
		if !ok {
			b = &brandBucket{brand: item.Brand}
			byBrand[item.Brand] = b
			groupIndex[item.Brand] = make(map[string]int)
			buckets = append(buckets, b)
		}

		key := GroupKey(item.Title)
		idx, ok := groupIndex[item.Brand][key]
		if !ok {
			idx = len(b.groups)
			groupIndex[item.Brand][key] = idx
			b.groups = append(b.groups, nil)
		}
		b.groups[idx] = append(b.groups[idx], item)
	}

	return buckets
}

// GroupKey is the lower-cased first whitespace-delimited token of a title
func GroupKey(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
