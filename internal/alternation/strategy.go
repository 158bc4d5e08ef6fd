package alternation

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/wonny/shelforder/internal/contracts"
)

// Strategy names
const (
	StrategyGreedy     = "greedy"
	StrategyRoundRobin = "round_robin"
)

// Strategy reorders a rank-sorted list to spread brands out.
// Implementations return contracts.ErrNotApplicable when the input has
// fewer than 2 distinct brands, and never drop or duplicate items.
type Strategy interface {
	Name() string
	Alternate(ctx context.Context, ranked []contracts.ScoredItem) ([]contracts.ScoredItem, error)
}

// New returns the named strategy.
// rng is only used by the round-robin strategy and may be nil otherwise.
func New(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case StrategyGreedy:
		return NewGreedy(), nil
	case StrategyRoundRobin:
		if rng == nil {
			return nil, fmt.Errorf("%s requires a random source", name)
		}
		return NewRoundRobin(rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownStrategy, name)
	}
}

// Names lists registered strategies, default first
func Names() []string {
	return []string{StrategyGreedy, StrategyRoundRobin}
}

// IsRandomized reports whether the strategy's output depends on the rng
func IsRandomized(name string) bool {
	return name == StrategyRoundRobin
}
