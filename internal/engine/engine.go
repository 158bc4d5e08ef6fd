package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/shelforder/internal/alternation"
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/rankconfig"
	"github.com/wonny/shelforder/internal/scoring"
	"github.com/wonny/shelforder/pkg/logger"
)

// Engine turns the items of one grouping into display positions.
// It is a pure function of its inputs: no I/O, no shared state.
// ⭐ SSOT: Validate → Score → Rank → Alternate 순서는 여기서만
type Engine struct {
	scorer      *scoring.Scorer
	strategy    alternation.Strategy
	profileHash string
	logger      *logger.Logger
}

// New creates an engine for a validated profile and a strategy
func New(profile *rankconfig.Profile, strategy alternation.Strategy, log *logger.Logger) (*Engine, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("strategy is required")
	}

	hash, err := rankconfig.Hash(profile)
	if err != nil {
		return nil, fmt.Errorf("hash profile: %w", err)
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Engine{
		scorer:      scoring.NewScorer(profile),
		strategy:    strategy,
		profileHash: hash,
		logger:      log,
	}, nil
}

// WithTracer attaches a scoring trace hook
func (e *Engine) WithTracer(t scoring.Tracer) *Engine {
	e.scorer.WithTracer(t)
	return e
}

// ProfileHash identifies the scoring profile in run records
func (e *Engine) ProfileHash() string {
	return e.profileHash
}

// StrategyName returns the alternation strategy in use
func (e *Engine) StrategyName() string {
	return e.strategy.Name()
}

// Meta describes this engine for the persistence sink
func (e *Engine) Meta() contracts.RunMeta {
	return contracts.RunMeta{
		ProfileHash: e.profileHash,
		Strategy:    e.strategy.Name(),
	}
}

// Run computes the assignment for one grouping.
// Empty input and single-brand input are outcomes, not errors; in both
// cases the result carries no Assignment.
func (e *Engine) Run(ctx context.Context, groupingID string, items []contracts.Item) (*contracts.RunResult, error) {
	result := &contracts.RunResult{
		GroupingID:  groupingID,
		Strategy:    e.strategy.Name(),
		ProfileHash: e.profileHash,
	}

	log := e.logger.WithField("grouping_id", groupingID)

	// VALIDATE
	start := time.Now()
	if err := validateItems(items); err != nil {
		return nil, fmt.Errorf("%s: %w", contracts.StageValidate, err)
	}
	result.Stages = append(result.Stages, stageResult(contracts.StageValidate, len(items), len(items), start))

	if len(items) == 0 {
		result.Outcome = contracts.OutcomeEmpty
		log.Debug("Grouping is empty")
		return result, nil
	}

	// SCORE
	start = time.Now()
	scored := e.scorer.ScoreAll(items)
	result.Stages = append(result.Stages, stageResult(contracts.StageScore, len(items), len(scored), start))

	// RANK
	start = time.Now()
	contracts.SortByRank(scored)
	result.Ranked = scored
	result.Stages = append(result.Stages, stageResult(contracts.StageRank, len(scored), len(scored), start))

	// ALTERNATE
	start = time.Now()
	final, err := e.strategy.Alternate(ctx, scored)
	if err != nil {
		if errors.Is(err, contracts.ErrNotApplicable) {
			result.Outcome = contracts.OutcomeNotApplicable
			log.WithFields(map[string]interface{}{
				"items":  len(scored),
				"brands": contracts.DistinctBrands(scored),
			}).Debug("Alternation not applicable")
			return result, nil
		}
		return nil, fmt.Errorf("%s: %w", contracts.StageAlternate, err)
	}
	result.Stages = append(result.Stages, stageResult(contracts.StageAlternate, len(scored), len(final), start))

	assignment := contracts.NewSortAssignment(contracts.IDs(final))
	if len(assignment) != len(items) {
		return nil, fmt.Errorf("%s: strategy %s returned %d items, want %d",
			contracts.StageAlternate, e.strategy.Name(), len(assignment), len(items))
	}
	if err := assignment.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", contracts.StageAlternate, err)
	}

	result.Outcome = contracts.OutcomeSorted
	result.Final = final
	result.Assignment = assignment

	log.WithFields(map[string]interface{}{
		"items":    len(final),
		"brands":   contracts.DistinctBrands(final),
		"moved":    result.Moved(),
		"strategy": result.Strategy,
	}).Debug("Grouping sorted")

	return result, nil
}

func stageResult(stage contracts.Stage, in, out int, start time.Time) contracts.StageResult {
	return contracts.StageResult{
		Stage:       stage,
		InputCount:  in,
		OutputCount: out,
		Duration:    time.Since(start),
	}
}
