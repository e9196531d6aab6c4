package core

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when an id does not resolve to a row.
var ErrNotFound = errors.New("not found")

// TransactionPatch describes a partial transaction update. Nil fields are
// left untouched. Category and Origin use the empty string to clear.
type TransactionPatch struct {
	Date        *Date
	State       *TransactionState
	AmountCents *int64
	Category    *string
	Origin      *string
	Archived    *bool
	Description *string
}

// CategoryPatch describes a partial category update. Nil fields are left
// untouched; ParentID pointing at an empty string detaches the category to a
// root, a negative SortOrder clears the order hint.
type CategoryPatch struct {
	Name      *string
	ParentID  *string
	SortOrder *int64
}

// CategoryMove is one entry of a batch reorder: it sets a category's parent
// and sibling rank outright.
type CategoryMove struct {
	ID        string
	ParentID  *string
	SortOrder *int64
}

// StatementPatch describes a partial account-statement update. Nil fields
// are left untouched.
type StatementPatch struct {
	AccountID    *string
	Date         *Date
	BalanceCents *int64
}

// Snapshot is a precomputed pivot report persisted for one visible window.
// FromMonth/ToMonth bound the window's columns so staleness can be matched
// against touched months.
type Snapshot struct {
	WindowKey  string
	FromMonth  string
	ToMonth    string
	Payload    []byte
	Stale      bool
	ComputedAt time.Time
}

// SeriesRun pairs a recurring series with the date of its last
// instantiation. A zero LastRun means the series never ran.
type SeriesRun struct {
	Series  RecurringSeries
	LastRun Date
}
