package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/shelforder/internal/runner"
	"github.com/wonny/shelforder/pkg/logger"
)

// BulkRunner is the part of runner.Runner the job needs
type BulkRunner interface {
	RunAll(ctx context.Context, opts runner.Options) (*runner.Summary, error)
}

// GlobalResortJob re-sorts every grouping not on the exclusion list
type GlobalResortJob struct {
	runner   BulkRunner
	schedule string
	logger   *logger.Logger
}

// NewGlobalResortJob creates the nightly re-sort job
func NewGlobalResortJob(r BulkRunner, schedule string, log *logger.Logger) *GlobalResortJob {
	return &GlobalResortJob{
		runner:   r,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *GlobalResortJob) Name() string {
	return "global_resort"
}

// Schedule returns the cron schedule (default 03:30:00 daily)
func (j *GlobalResortJob) Schedule() string {
	if j.schedule == "" {
		return "0 30 3 * * *"
	}
	return j.schedule
}

// Run sorts all groupings.
// Per-grouping failures are logged but do not fail the job; retrying
// would only re-run the groupings that already succeeded.
func (j *GlobalResortJob) Run(ctx context.Context) error {
	summary, err := j.runner.RunAll(ctx, runner.Options{})
	if err != nil {
		return fmt.Errorf("global resort: %w", err)
	}

	if len(summary.Failed) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"failed": len(summary.Failed),
			"total":  summary.Total,
		}).Warn("Global resort finished with failures")
	}

	return nil
}
