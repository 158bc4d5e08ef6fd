package runner

import (
	"time"

	"github.com/wonny/shelforder/internal/contracts"
)

// Options tune one run
type Options struct {
	DryRun   bool   `json:"dry_run"`
	Strategy string `json:"strategy,omitempty"` // empty = configured default
}

// Report is the outcome of RunGrouping
type Report struct {
	Result *contracts.RunResult   `json:"result"`
	Record *contracts.OrderRecord `json:"record,omitempty"` // nil unless persisted
	DryRun bool                   `json:"dry_run"`
	Seed   int64                  `json:"seed,omitempty"` // randomized strategies only
}

// Persisted reports whether the run wrote a new assignment
func (r *Report) Persisted() bool {
	return r.Record != nil
}

// DiagnosticItem is one row of the debug view
type DiagnosticItem struct {
	ID            string  `json:"id"`
	Brand         string  `json:"brand"`
	HasStock      bool    `json:"has_stock"`
	ValueScore    int     `json:"value_score"`
	DeliveryRank  int     `json:"delivery_rank"`
	PricePenalty  int     `json:"price_penalty"`
	Price         float64 `json:"price"`
	SlowOnly      bool    `json:"slow_only"`
	RankPosition  int     `json:"rank_position"`
	FinalPosition int     `json:"final_position"` // -1 when nothing was assigned
}

// Diagnostics is the cached debug view of the latest run of a grouping
type Diagnostics struct {
	GroupingID  string                  `json:"grouping_id"`
	Outcome     contracts.Outcome       `json:"outcome"`
	Strategy    string                  `json:"strategy"`
	ProfileHash string                  `json:"profile_hash"`
	Seed        int64                   `json:"seed,omitempty"`
	DryRun      bool                    `json:"dry_run"`
	RanAt       time.Time               `json:"ran_at"`
	Moved       int                     `json:"moved"`
	Items       []DiagnosticItem        `json:"items"`
	Stages      []contracts.StageResult `json:"stages"`
}

// NewDiagnostics builds the debug view, in rank order
func NewDiagnostics(report *Report, ranAt time.Time) *Diagnostics {
	res := report.Result
	d := &Diagnostics{
		GroupingID:  res.GroupingID,
		Outcome:     res.Outcome,
		Strategy:    res.Strategy,
		ProfileHash: res.ProfileHash,
		Seed:        report.Seed,
		DryRun:      report.DryRun,
		RanAt:       ranAt,
		Moved:       res.Moved(),
		Items:       make([]DiagnosticItem, 0, len(res.Ranked)),
		Stages:      res.Stages,
	}

	for pos, s := range res.Ranked {
		final := -1
		if p, ok := res.Assignment[s.ID]; ok {
			final = p
		}
		d.Items = append(d.Items, DiagnosticItem{
			ID:            s.ID,
			Brand:         s.Brand,
			HasStock:      s.HasStock,
			ValueScore:    s.Key.Value,
			DeliveryRank:  s.Detail.DeliveryRank,
			PricePenalty:  s.Detail.PricePenalty,
			Price:         s.Detail.Price,
			SlowOnly:      s.Detail.SlowOnly,
			RankPosition:  pos,
			FinalPosition: final,
		})
	}

	return d
}

// Summary is the result of a bulk run
type Summary struct {
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
	DryRun        bool              `json:"dry_run"`
	Total         int               `json:"total"`
	Sorted        []string          `json:"sorted"`
	NotApplicable []string          `json:"not_applicable"`
	Empty         []string          `json:"empty"`
	Skipped       []string          `json:"skipped"` // exclusion list
	Failed        map[string]string `json:"failed"`  // grouping → error
}

func newSummary(dryRun bool, started time.Time) *Summary {
	return &Summary{
		StartedAt:     started,
		DryRun:        dryRun,
		Sorted:        []string{},
		NotApplicable: []string{},
		Empty:         []string{},
		Skipped:       []string{},
		Failed:        map[string]string{},
	}
}

func (s *Summary) record(groupingID string, outcome contracts.Outcome) {
	switch outcome {
	case contracts.OutcomeSorted:
		s.Sorted = append(s.Sorted, groupingID)
	case contracts.OutcomeNotApplicable:
		s.NotApplicable = append(s.NotApplicable, groupingID)
	case contracts.OutcomeEmpty:
		s.Empty = append(s.Empty, groupingID)
	}
}

// Event types
const (
	EventGroupingSorted = "grouping_sorted"
	EventGroupingUndone = "grouping_undone"
	EventBulkFinished   = "bulk_finished"
)

// Event is published after every completed run or undo
type Event struct {
	Type       string            `json:"type"`
	GroupingID string            `json:"grouping_id,omitempty"`
	Outcome    contracts.Outcome `json:"outcome,omitempty"`
	Version    int               `json:"version,omitempty"`
	DryRun     bool              `json:"dry_run,omitempty"`
	Summary    *Summary          `json:"summary,omitempty"`
	At         time.Time         `json:"at"`
}

// Publisher receives run events; it must not block
type Publisher interface {
	Publish(ev Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(ev Event)

// Publish calls f
func (f PublisherFunc) Publish(ev Event) {
	f(ev)
}
