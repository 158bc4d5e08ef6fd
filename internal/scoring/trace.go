package scoring

import (
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/pkg/logger"
)

// Tracer receives every scoring decision.
// Attach one for debugging; the scorer has no other side effects.
type Tracer interface {
	TraceScore(item *contracts.Item, scored *contracts.ScoredItem)
}

// LogTracer writes scoring decisions at debug level
type LogTracer struct {
	logger *logger.Logger
}

// NewLogTracer creates a tracer bound to a (usually grouping-scoped) logger
func NewLogTracer(log *logger.Logger) *LogTracer {
	return &LogTracer{logger: log}
}

// TraceScore logs the score breakdown of one item
func (t *LogTracer) TraceScore(item *contracts.Item, scored *contracts.ScoredItem) {
	if !t.logger.DebugEnabled() {
		return
	}

	t.logger.WithFields(map[string]interface{}{
		"item_id":           scored.ID,
		"brand":             scored.Brand,
		"has_stock":         scored.HasStock,
		"stocked_locations": scored.Detail.StockedLocations,
		"delivery_rank":     scored.Detail.DeliveryRank,
		"slow_only":         scored.Detail.SlowOnly,
		"price":             scored.Detail.Price,
		"price_missing":     item.Price == nil,
		"price_penalty":     scored.Detail.PricePenalty,
		"value_score":       scored.Key.Value,
	}).Debug("Item scored")
}

// TracerFunc adapts a function to Tracer
type TracerFunc func(item *contracts.Item, scored *contracts.ScoredItem)

// TraceScore calls f
func (f TracerFunc) TraceScore(item *contracts.Item, scored *contracts.ScoredItem) {
	f(item, scored)
}
