package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotApplicable: fewer than 2 distinct brands, alternation is skipped
	ErrNotApplicable = errors.New("alternation not applicable: fewer than 2 distinct brands")

	// ErrEmpty: the grouping has no items
	ErrEmpty = errors.New("grouping has no items")

	// ErrNoPrevious: undo requested but no previous assignment is archived
	ErrNoPrevious = errors.New("no previous order to restore")

	// ErrRunInProgress: another run holds the grouping lock
	ErrRunInProgress = errors.New("sort run already in progress for grouping")

	// ErrUnknownStrategy: alternation strategy name not registered
	ErrUnknownStrategy = errors.New("unknown alternation strategy")

	// ErrNotFound: no persisted order for the grouping
	ErrNotFound = errors.New("no order stored for grouping")
)

// ItemError reports malformed input for one item
type ItemError struct {
	ItemID  string
	Field   string
	Message string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %s: %s", e.ItemID, e.Field, e.Message)
}
