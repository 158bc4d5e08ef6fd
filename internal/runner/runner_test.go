package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/shelforder/internal/alternation"
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/ordering"
	"github.com/wonny/shelforder/internal/rankconfig"
	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/logger"
	"github.com/wonny/shelforder/pkg/redis"
)

type fakeCatalog struct {
	mu    sync.Mutex
	items map[string][]contracts.Item
	err   error
}

func (f *fakeCatalog) ListItems(_ context.Context, groupingID string) ([]contracts.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	src := f.items[groupingID]
	out := make([]contracts.Item, len(src))
	copy(out, src)
	return out, nil
}

func (f *fakeCatalog) ListGroupings(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.items {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeCatalog) set(groupingID string, items []contracts.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[groupingID] = items
}

type fakeBrands map[string]string

func (f fakeBrands) LookupBrands(_ context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if b, ok := f[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	runner  *Runner
	catalog *fakeCatalog
	sink    *ordering.MemorySink
	locker  *redis.Locker
	events  *recorder
}

func stocked(id string, price float64) contracts.Item {
	return contracts.Item{
		ID:              id,
		Title:           id + " model",
		Price:           contracts.Price(price),
		StockByLocation: map[string]int{"warehouse": 1},
	}
}

func newFixture(t *testing.T, cfg config.SortConfig) *fixture {
	t.Helper()

	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	f := &fixture{
		catalog: &fakeCatalog{items: map[string][]contracts.Item{
			"mixed": {stocked("a1", 100), stocked("a2", 100), stocked("b1", 100)},
			"solo":  {stocked("s1", 100), stocked("s2", 50)},
			"empty": {},
		}},
		sink:   ordering.NewMemorySink(),
		locker: redis.NewLocker(client, "test"),
		events: &recorder{},
	}

	brands := fakeBrands{"a1": "A", "a2": "A", "b1": "B", "s1": "S", "s2": "S"}

	if cfg.BulkRate == 0 {
		cfg.BulkRate = 1000
	}

	f.runner = New(Deps{
		Catalog:   f.catalog,
		Brands:    brands,
		Sink:      f.sink,
		Locker:    f.locker,
		Cache:     redis.NewCache(client, "test"),
		Publisher: f.events,
	}, rankconfig.Default(), cfg, logger.Nop())

	return f
}

func TestRunGrouping_SortsAndPersists(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	ctx := context.Background()

	report, err := f.runner.RunGrouping(ctx, "mixed", Options{})
	require.NoError(t, err)

	assert.Equal(t, contracts.OutcomeSorted, report.Result.Outcome)
	require.True(t, report.Persisted())
	assert.Equal(t, 1, report.Record.Version)
	assert.Equal(t, []string{"a1", "b1", "a2"}, report.Record.Current.OrderedIDs())
	assert.Equal(t, alternation.StrategyGreedy, report.Record.Strategy)

	last := report.Result.Stages[len(report.Result.Stages)-1]
	assert.Equal(t, contracts.StagePersist, last.Stage)

	rec, err := f.runner.Order(ctx, "mixed")
	require.NoError(t, err)
	assert.Equal(t, report.Record.Current, rec.Current)

	diag, err := f.runner.Diagnostics(ctx, "mixed")
	require.NoError(t, err)
	assert.Equal(t, contracts.OutcomeSorted, diag.Outcome)
	require.Len(t, diag.Items, 3)
	assert.Equal(t, "a1", diag.Items[0].ID)
	assert.Equal(t, 0, diag.Items[0].RankPosition)
	assert.Equal(t, 2, diag.Items[1].FinalPosition) // a2 ranked 2nd, shown 3rd

	assert.Equal(t, []string{EventGroupingSorted}, f.events.types())
}

func TestRunGrouping_DryRunDoesNotPersist(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	ctx := context.Background()

	report, err := f.runner.RunGrouping(ctx, "mixed", Options{DryRun: true})
	require.NoError(t, err)

	assert.False(t, report.Persisted())
	assert.NotNil(t, report.Result.Assignment)

	_, err = f.sink.Get(ctx, "mixed")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	diag, err := f.runner.Diagnostics(ctx, "mixed")
	require.NoError(t, err)
	assert.True(t, diag.DryRun)
}

func TestRunGrouping_OutcomesSkipPersistence(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	ctx := context.Background()

	report, err := f.runner.RunGrouping(ctx, "solo", Options{})
	require.NoError(t, err)
	assert.Equal(t, contracts.OutcomeNotApplicable, report.Result.Outcome)
	assert.False(t, report.Persisted())

	diag, err := f.runner.Diagnostics(ctx, "solo")
	require.NoError(t, err)
	for _, item := range diag.Items {
		assert.Equal(t, -1, item.FinalPosition)
	}

	report, err = f.runner.RunGrouping(ctx, "empty", Options{})
	require.NoError(t, err)
	assert.Equal(t, contracts.OutcomeEmpty, report.Result.Outcome)
	assert.False(t, report.Persisted())
}

func TestRunGrouping_MissingBrandUsesSentinel(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	f.catalog.set("partial", []contracts.Item{stocked("a1", 100), stocked("x9", 100)})

	report, err := f.runner.RunGrouping(context.Background(), "partial", Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, contracts.OutcomeSorted, report.Result.Outcome)
	brands := map[string]string{}
	for _, s := range report.Result.Ranked {
		brands[s.ID] = s.Brand
	}
	assert.Equal(t, contracts.NoBrand, brands["x9"])
}

func TestRunGrouping_LockHeld(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	ctx := context.Background()

	token, ok, err := f.locker.Acquire(ctx, "sort:mixed", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.runner.RunGrouping(ctx, "mixed", Options{})
	assert.ErrorIs(t, err, contracts.ErrRunInProgress)

	_, err = f.runner.Undo(ctx, "mixed")
	assert.ErrorIs(t, err, contracts.ErrRunInProgress)

	require.NoError(t, f.locker.Release(ctx, "sort:mixed", token))

	_, err = f.runner.RunGrouping(ctx, "mixed", Options{})
	assert.NoError(t, err)
}

func TestRunGrouping_ReleasesLockOnFailure(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	f.catalog.set("bad", []contracts.Item{{ID: "p", Brand: "A", Price: contracts.Price(-5)}})
	ctx := context.Background()

	_, err := f.runner.RunGrouping(ctx, "bad", Options{})
	var itemErr *contracts.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "p", itemErr.ItemID)

	_, ok, err := f.locker.Acquire(ctx, "sort:bad", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunGrouping_CatalogError(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	f.catalog.err = errors.New("db down")

	_, err := f.runner.RunGrouping(context.Background(), "mixed", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(contracts.StageLoad))
}

func TestRunGrouping_StrategyOverride(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	f.runner.WithSeed(func() int64 { return 42 })
	ctx := context.Background()

	report, err := f.runner.RunGrouping(ctx, "mixed", Options{Strategy: alternation.StrategyRoundRobin, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(42), report.Seed)
	assert.Equal(t, alternation.StrategyRoundRobin, report.Result.Strategy)

	again, err := f.runner.RunGrouping(ctx, "mixed", Options{Strategy: alternation.StrategyRoundRobin, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, report.Result.Assignment, again.Result.Assignment)

	_, err = f.runner.RunGrouping(ctx, "mixed", Options{Strategy: "zigzag"})
	assert.ErrorIs(t, err, contracts.ErrUnknownStrategy)
}

func TestUndo(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	ctx := context.Background()

	_, err := f.runner.Undo(ctx, "mixed")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	first, err := f.runner.RunGrouping(ctx, "mixed", Options{})
	require.NoError(t, err)

	// a1 moves to a dearer price tier
	f.catalog.set("mixed", []contracts.Item{stocked("a1", 160), stocked("a2", 100), stocked("b1", 100)})
	second, err := f.runner.RunGrouping(ctx, "mixed", Options{})
	require.NoError(t, err)
	require.NotEqual(t, first.Record.Current, second.Record.Current)

	_, err = f.runner.Diagnostics(ctx, "mixed")
	require.NoError(t, err)

	rec, err := f.runner.Undo(ctx, "mixed")
	require.NoError(t, err)
	assert.Equal(t, first.Record.Current, rec.Current)
	assert.Equal(t, 3, rec.Version)

	// diagnostics described the undone run
	_, err = f.runner.Diagnostics(ctx, "mixed")
	assert.ErrorIs(t, err, ErrNoDiagnostics)

	assert.Equal(t, []string{EventGroupingSorted, EventGroupingSorted, EventGroupingUndone}, f.events.types())
}

func TestDiagnostics_Missing(t *testing.T) {
	f := newFixture(t, config.SortConfig{})

	_, err := f.runner.Diagnostics(context.Background(), "never")
	assert.ErrorIs(t, err, ErrNoDiagnostics)
}

func TestRunAll(t *testing.T) {
	f := newFixture(t, config.SortConfig{Excluded: []string{"skip-me"}})
	f.catalog.set("skip-me", []contracts.Item{stocked("a1", 1), stocked("b1", 1)})
	f.catalog.set("bad", []contracts.Item{{ID: "", Brand: "A"}})

	summary, err := f.runner.RunAll(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, []string{"mixed"}, summary.Sorted)
	assert.Equal(t, []string{"solo"}, summary.NotApplicable)
	assert.Equal(t, []string{"empty"}, summary.Empty)
	assert.Equal(t, []string{"skip-me"}, summary.Skipped)
	require.Contains(t, summary.Failed, "bad")
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

	_, err = f.sink.Get(context.Background(), "skip-me")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	types := f.events.types()
	assert.Equal(t, EventBulkFinished, types[len(types)-1])
}

func TestRunAll_Cancelled(t *testing.T) {
	f := newFixture(t, config.SortConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.RunAll(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
