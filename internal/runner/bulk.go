package runner

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/time/rate"

	"github.com/wonny/shelforder/pkg/redis"
)

// RunAll sorts every grouping not on the exclusion list.
// Failures are collected in the summary; only listing groupings or
// context cancellation abort the run.
func (r *Runner) RunAll(ctx context.Context, opts Options) (*Summary, error) {
	summary := newSummary(opts.DryRun, r.now())

	groupings, err := r.deps.Catalog.ListGroupings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groupings: %w", err)
	}
	sort.Strings(groupings)
	summary.Total = len(groupings)

	log := r.logger.WithFields(map[string]interface{}{
		"groupings": len(groupings),
		"dry_run":   opts.DryRun,
		"rate":      r.cfg.BulkRate,
	})
	log.Info("Bulk sort started")

	limiter := rate.NewLimiter(rate.Limit(r.cfg.BulkRate), 1)

	for _, id := range groupings {
		if r.cfg.IsExcluded(id) {
			summary.Skipped = append(summary.Skipped, id)
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return summary, err
		}

		report, err := r.RunGrouping(ctx, id, opts)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed[id] = err.Error()
			r.logger.WithError(err).WithField("grouping_id", id).Warn("Grouping run failed")
			continue
		}
		summary.record(id, report.Result.Outcome)
	}

	summary.FinishedAt = r.now()

	if r.deps.Cache != nil {
		key := redis.BulkSummaryKey(summary.StartedAt.Format("2006-01-02"))
		if err := r.deps.Cache.Set(ctx, key, summary, redis.TTLDaily); err != nil {
			log.WithError(err).Warn("Failed to cache bulk summary")
		}
	}

	r.publish(Event{Type: EventBulkFinished, Summary: summary, DryRun: opts.DryRun, At: summary.FinishedAt})

	log.WithFields(map[string]interface{}{
		"sorted":         len(summary.Sorted),
		"not_applicable": len(summary.NotApplicable),
		"empty":          len(summary.Empty),
		"skipped":        len(summary.Skipped),
		"failed":         len(summary.Failed),
		"duration":       summary.FinishedAt.Sub(summary.StartedAt),
	}).Info("Bulk sort completed")

	return summary, nil
}
