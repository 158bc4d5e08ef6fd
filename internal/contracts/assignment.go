package contracts

import (
	"fmt"
	"sort"
)

// SortAssignment maps item id → 0-based display position
// ⭐ SSOT: 엔진의 유일한 영속 산출물
type SortAssignment map[string]int

// NewSortAssignment assigns positions in slice order
func NewSortAssignment(ids []string) SortAssignment {
	a := make(SortAssignment, len(ids))
	for pos, id := range ids {
		a[id] = pos
	}
	return a
}

// OrderedIDs returns item ids by ascending position
func (a SortAssignment) OrderedIDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return a[ids[i]] < a[ids[j]]
	})
	return ids
}

// Validate checks positions form a permutation of 0..N-1
func (a SortAssignment) Validate() error {
	seen := make([]bool, len(a))
	for id, pos := range a {
		if pos < 0 || pos >= len(a) {
			return fmt.Errorf("item %s: position %d out of range [0,%d)", id, pos, len(a))
		}
		if seen[pos] {
			return fmt.Errorf("item %s: position %d assigned twice", id, pos)
		}
		seen[pos] = true
	}
	return nil
}

// Clone returns an independent copy
func (a SortAssignment) Clone() SortAssignment {
	if a == nil {
		return nil
	}
	out := make(SortAssignment, len(a))
	for id, pos := range a {
		out[id] = pos
	}
	return out
}
