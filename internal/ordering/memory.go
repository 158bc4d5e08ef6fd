package ordering

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/shelforder/internal/contracts"
)

// MemorySink is a process-local contracts.OrderSink.
// Used by dry-run tooling and tests; records are lost on exit.
type MemorySink struct {
	mu      sync.Mutex
	records map[string]*contracts.OrderRecord
	now     func() time.Time
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{
		records: make(map[string]*contracts.OrderRecord),
		now:     time.Now,
	}
}

// Save archives the current assignment and installs a new one
func (m *MemorySink) Save(_ context.Context, groupingID string, assignment contracts.SortAssignment, meta contracts.RunMeta) (*contracts.OrderRecord, error) {
	if err := assignment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assignment for %s: %w", groupingID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[groupingID]
	if !ok {
		rec = &contracts.OrderRecord{GroupingID: groupingID}
		m.records[groupingID] = rec
	}
	rec.Advance(assignment.Clone(), meta, m.now())

	return copyRecord(rec), nil
}

// Undo swaps current and previous
func (m *MemorySink) Undo(_ context.Context, groupingID string) (*contracts.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[groupingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrNotFound, groupingID)
	}
	if err := rec.Undo(m.now()); err != nil {
		return nil, fmt.Errorf("undo %s: %w", groupingID, err)
	}

	return copyRecord(rec), nil
}

// Get returns a copy of the record
func (m *MemorySink) Get(_ context.Context, groupingID string) (*contracts.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[groupingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contracts.ErrNotFound, groupingID)
	}
	return copyRecord(rec), nil
}

func copyRecord(rec *contracts.OrderRecord) *contracts.OrderRecord {
	out := *rec
	out.Current = rec.Current.Clone()
	out.Previous = rec.Previous.Clone()
	return &out
}
