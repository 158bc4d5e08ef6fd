package contracts

import "time"

// OrderRecord is the versioned per-grouping record behind undo.
// Current is live; Previous is what the last run (or undo) replaced.
type OrderRecord struct {
	GroupingID  string         `json:"grouping_id"`
	Version     int            `json:"version"`
	Current     SortAssignment `json:"current"`
	Previous    SortAssignment `json:"previous,omitempty"`
	ProfileHash string         `json:"profile_hash"`
	Strategy    string         `json:"strategy"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RunMeta describes which configuration produced an assignment
type RunMeta struct {
	ProfileHash string `json:"profile_hash"`
	Strategy    string `json:"strategy"`
}

// Advance installs next as current and archives the old current
func (r *OrderRecord) Advance(next SortAssignment, meta RunMeta, now time.Time) {
	r.Previous = r.Current
	r.Current = next
	r.ProfileHash = meta.ProfileHash
	r.Strategy = meta.Strategy
	r.Version++
	r.UpdatedAt = now
}

// HasPrevious reports whether Undo can restore anything
func (r *OrderRecord) HasPrevious() bool {
	return r.Previous != nil
}

// Undo swaps current and previous. Undoing twice is a redo.
func (r *OrderRecord) Undo(now time.Time) error {
	if !r.HasPrevious() {
		return ErrNoPrevious
	}
	r.Current, r.Previous = r.Previous, r.Current
	r.Version++
	r.UpdatedAt = now
	return nil
}
