package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wonny/shelforder/internal/alternation"
	"github.com/wonny/shelforder/internal/catalog"
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/engine"
	"github.com/wonny/shelforder/internal/rankconfig"
	"github.com/wonny/shelforder/internal/scoring"
	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/logger"
	"github.com/wonny/shelforder/pkg/redis"
)

// ErrNoDiagnostics: no run of the grouping has been recorded yet
var ErrNoDiagnostics = errors.New("no diagnostics recorded for grouping")

// Deps are the collaborators of a Runner
type Deps struct {
	Catalog   contracts.CatalogSource
	Brands    contracts.BrandLookup
	Sink      contracts.OrderSink
	Locker    *redis.Locker
	Cache     *redis.Cache
	Publisher Publisher // optional
}

// Runner drives the engine for one grouping or for all of them
// ⭐ SSOT: 로드 → 엔진 → 저장 → 진단 흐름은 여기서만
type Runner struct {
	deps    Deps
	profile *rankconfig.Profile
	cfg     config.SortConfig
	logger  *logger.Logger
	seed    func() int64
	now     func() time.Time

	// 캐시 비활성 시에도 최근 진단은 조회 가능
	mu   sync.RWMutex
	last map[string]*Diagnostics
}

// New creates a runner
func New(deps Deps, profile *rankconfig.Profile, cfg config.SortConfig, log *logger.Logger) *Runner {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.BulkRate <= 0 {
		cfg.BulkRate = 5
	}
	if cfg.Strategy == "" {
		cfg.Strategy = alternation.StrategyGreedy
	}

	return &Runner{
		deps:    deps,
		profile: profile,
		cfg:     cfg,
		logger:  log,
		seed:    func() int64 { return time.Now().UnixNano() },
		now:     time.Now,
		last:    make(map[string]*Diagnostics),
	}
}

// WithSeed fixes the seed source of randomized strategies
func (r *Runner) WithSeed(seed func() int64) *Runner {
	r.seed = seed
	return r
}

// Config returns the effective sort settings
func (r *Runner) Config() config.SortConfig {
	return r.cfg
}

// RunGrouping sorts one grouping under its run lock
func (r *Runner) RunGrouping(ctx context.Context, groupingID string, opts Options) (*Report, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"grouping_id": groupingID,
		"dry_run":     opts.DryRun,
	})

	release, err := r.lock(ctx, groupingID)
	if err != nil {
		return nil, err
	}
	defer release()

	eng, seed, err := r.newEngine(opts.Strategy, log)
	if err != nil {
		return nil, err
	}

	// LOAD
	items, err := r.load(ctx, groupingID)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", contracts.StageLoad, groupingID, err)
	}

	result, err := eng.Run(ctx, groupingID, items)
	if err != nil {
		return nil, fmt.Errorf("grouping %s: %w", groupingID, err)
	}

	report := &Report{Result: result, DryRun: opts.DryRun, Seed: seed}

	// PERSIST
	if result.Outcome == contracts.OutcomeSorted && !opts.DryRun {
		start := time.Now()
		rec, err := r.deps.Sink.Save(ctx, groupingID, result.Assignment, eng.Meta())
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", contracts.StagePersist, groupingID, err)
		}
		report.Record = rec
		result.Stages = append(result.Stages, contracts.StageResult{
			Stage:       contracts.StagePersist,
			InputCount:  len(result.Assignment),
			OutputCount: len(rec.Current),
			Duration:    time.Since(start),
		})
	}

	r.storeDiagnostics(ctx, NewDiagnostics(report, r.now()), log)

	ev := Event{
		Type:       EventGroupingSorted,
		GroupingID: groupingID,
		Outcome:    result.Outcome,
		DryRun:     opts.DryRun,
		At:         r.now(),
	}
	if report.Record != nil {
		ev.Version = report.Record.Version
	}
	r.publish(ev)

	fields := map[string]interface{}{
		"outcome":  result.Outcome,
		"items":    len(items),
		"strategy": result.Strategy,
		"moved":    result.Moved(),
	}
	if alternation.IsRandomized(result.Strategy) {
		fields["seed"] = seed
	}
	log.WithFields(fields).Info("Grouping run completed")

	return report, nil
}

// Undo restores the previous assignment under the run lock
func (r *Runner) Undo(ctx context.Context, groupingID string) (*contracts.OrderRecord, error) {
	release, err := r.lock(ctx, groupingID)
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := r.deps.Sink.Undo(ctx, groupingID)
	if err != nil {
		return nil, err
	}

	// 진단은 되돌린 실행을 설명하므로 폐기
	r.dropDiagnostics(ctx, groupingID)

	r.publish(Event{
		Type:       EventGroupingUndone,
		GroupingID: groupingID,
		Version:    rec.Version,
		At:         r.now(),
	})

	r.logger.WithFields(map[string]interface{}{
		"grouping_id": groupingID,
		"version":     rec.Version,
	}).Info("Grouping order restored")

	return rec, nil
}

// Order returns the persisted record of a grouping
func (r *Runner) Order(ctx context.Context, groupingID string) (*contracts.OrderRecord, error) {
	return r.deps.Sink.Get(ctx, groupingID)
}

// Diagnostics returns the debug view of the latest run
func (r *Runner) Diagnostics(ctx context.Context, groupingID string) (*Diagnostics, error) {
	if r.deps.Cache != nil {
		var d Diagnostics
		found, err := r.deps.Cache.Get(ctx, redis.DiagnosticsKey(groupingID), &d)
		if err != nil {
			return nil, err
		}
		if found {
			return &d, nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.last[groupingID]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoDiagnostics, groupingID)
}

// newEngine builds the engine for one run; seed is 0 for greedy
func (r *Runner) newEngine(strategyName string, log *logger.Logger) (*engine.Engine, int64, error) {
	if strategyName == "" {
		strategyName = r.cfg.Strategy
	}

	var (
		seed int64
		rng  *rand.Rand
	)
	if alternation.IsRandomized(strategyName) {
		seed = r.seed()
		rng = rand.New(rand.NewSource(seed))
	}

	strategy, err := alternation.New(strategyName, rng)
	if err != nil {
		return nil, 0, err
	}

	eng, err := engine.New(r.profile, strategy, log)
	if err != nil {
		return nil, 0, err
	}
	if r.cfg.Trace {
		eng.WithTracer(scoring.NewLogTracer(log))
	}

	return eng, seed, nil
}

func (r *Runner) load(ctx context.Context, groupingID string) ([]contracts.Item, error) {
	items, err := r.deps.Catalog.ListItems(ctx, groupingID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || r.deps.Brands == nil {
		return items, nil
	}

	brands, err := r.deps.Brands.LookupBrands(ctx, catalog.ItemIDs(items))
	if err != nil {
		return nil, fmt.Errorf("brand lookup: %w", err)
	}
	catalog.ApplyBrands(items, brands)

	return items, nil
}

// lock takes the grouping run lock; the returned func releases it
func (r *Runner) lock(ctx context.Context, groupingID string) (func(), error) {
	name := "sort:" + groupingID

	token, ok, err := r.deps.Locker.Acquire(ctx, name, r.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrRunInProgress, groupingID)
	}

	return func() {
		// 요청 ctx 취소와 무관하게 해제
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.deps.Locker.Release(releaseCtx, name, token); err != nil {
			r.logger.WithError(err).WithField("grouping_id", groupingID).Warn("Failed to release run lock")
		}
	}, nil
}

func (r *Runner) storeDiagnostics(ctx context.Context, d *Diagnostics, log *logger.Logger) {
	r.mu.Lock()
	r.last[d.GroupingID] = d
	r.mu.Unlock()

	if r.deps.Cache == nil {
		return
	}
	if err := r.deps.Cache.Set(ctx, redis.DiagnosticsKey(d.GroupingID), d, redis.TTLLong); err != nil {
		log.WithError(err).Warn("Failed to cache diagnostics")
	}
}

func (r *Runner) dropDiagnostics(ctx context.Context, groupingID string) {
	r.mu.Lock()
	delete(r.last, groupingID)
	r.mu.Unlock()

	if r.deps.Cache == nil {
		return
	}
	if err := r.deps.Cache.Delete(ctx, redis.DiagnosticsKey(groupingID)); err != nil {
		r.logger.WithError(err).WithField("grouping_id", groupingID).Warn("Failed to drop diagnostics")
	}
}

func (r *Runner) publish(ev Event) {
	if r.deps.Publisher != nil {
		r.deps.Publisher.Publish(ev)
	}
}
