package ordering

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/database"
)

var meta = contracts.RunMeta{ProfileHash: "h1", Strategy: "greedy"}

// exerciseSink runs the same undo scenario against any sink
func exerciseSink(t *testing.T, sink contracts.OrderSink, grouping string) {
	ctx := context.Background()

	_, err := sink.Get(ctx, grouping)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = sink.Undo(ctx, grouping)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	first := contracts.NewSortAssignment([]string{"a", "b", "c"})
	rec, err := sink.Save(ctx, grouping, first, meta)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, first, rec.Current)
	assert.Nil(t, rec.Previous)

	// nothing to restore yet
	_, err = sink.Undo(ctx, grouping)
	assert.ErrorIs(t, err, contracts.ErrNoPrevious)

	second := contracts.NewSortAssignment([]string{"c", "a", "b"})
	rec, err = sink.Save(ctx, grouping, second, contracts.RunMeta{ProfileHash: "h2", Strategy: "round_robin"})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, second, rec.Current)
	assert.Equal(t, first, rec.Previous)
	assert.Equal(t, "round_robin", rec.Strategy)

	rec, err = sink.Undo(ctx, grouping)
	require.NoError(t, err)
	assert.Equal(t, first, rec.Current)
	assert.Equal(t, second, rec.Previous)
	assert.Equal(t, 3, rec.Version)

	// undo again is a redo
	rec, err = sink.Undo(ctx, grouping)
	require.NoError(t, err)
	assert.Equal(t, second, rec.Current)

	got, err := sink.Get(ctx, grouping)
	require.NoError(t, err)
	assert.Equal(t, second, got.Current)
	assert.Equal(t, 4, got.Version)

	_, err = sink.Save(ctx, grouping, contracts.SortAssignment{"a": 0, "b": 0}, meta)
	assert.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	exerciseSink(t, NewMemorySink(), "g1")
}

func TestMemorySink_ReturnsCopies(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	_, err := sink.Save(ctx, "g", contracts.NewSortAssignment([]string{"a", "b"}), meta)
	require.NoError(t, err)

	got, err := sink.Get(ctx, "g")
	require.NoError(t, err)
	got.Current["a"] = 99

	again, err := sink.Get(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Current["a"])
}

func TestRepository_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.EnsureSchema(ctx))

	grouping := fmt.Sprintf("test-order-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM sorting.item_positions WHERE grouping_id = $1", grouping)
		_, _ = db.Pool.Exec(ctx, "DELETE FROM sorting.grouping_orders WHERE grouping_id = $1", grouping)
	})

	exerciseSink(t, NewRepository(db.Pool), grouping)

	var positions int
	require.NoError(t, db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM sorting.item_positions WHERE grouping_id = $1", grouping).Scan(&positions))
	assert.Equal(t, 3, positions)

	var firstItem string
	require.NoError(t, db.Pool.QueryRow(ctx,
		"SELECT item_id FROM sorting.item_positions WHERE grouping_id = $1 AND position = 0", grouping).Scan(&firstItem))
	assert.Equal(t, "c", firstItem)
}
