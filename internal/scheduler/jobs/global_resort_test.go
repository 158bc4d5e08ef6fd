package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/shelforder/internal/runner"
	"github.com/wonny/shelforder/pkg/logger"
)

type fakeBulk struct {
	summary *runner.Summary
	err     error
	calls   int
}

func (f *fakeBulk) RunAll(context.Context, runner.Options) (*runner.Summary, error) {
	f.calls++
	return f.summary, f.err
}

func TestGlobalResortJob(t *testing.T) {
	bulk := &fakeBulk{summary: &runner.Summary{Total: 2, Failed: map[string]string{"g": "boom"}}}
	job := NewGlobalResortJob(bulk, "", logger.Nop())

	assert.Equal(t, "global_resort", job.Name())
	assert.Equal(t, "0 30 3 * * *", job.Schedule())

	// per-grouping failures do not fail the job
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, bulk.calls)
}

func TestGlobalResortJob_ListingFails(t *testing.T) {
	bulk := &fakeBulk{err: errors.New("db down")}
	job := NewGlobalResortJob(bulk, "0 0 1 * * *", logger.Nop())

	assert.Equal(t, "0 0 1 * * *", job.Schedule())
	assert.Error(t, job.Run(context.Background()))
}
