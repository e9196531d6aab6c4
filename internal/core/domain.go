package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatePlanned TransactionState = "planned"
	StateDone    TransactionState = "done"
)

// OriginImport marks transactions created through the bulk import path.
// Imported history always counts toward past-month totals regardless of state.
const OriginImport = "import"

type (
	TransactionState string

	// Date is a calendar date without time-of-day semantics, normalized to
	// midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single dated money movement. Amount is signed:
	// negative means outflow. Category holds either a category id or, for
	// legacy rows, a category name; empty means unassigned.
	Transaction struct {
		ID          string
		Date        Date
		State       TransactionState
		Amount      Money
		Category    string
		Origin      string
		Archived    bool
		Description string
	}

	// Category is one node of the reporting hierarchy. ParentID nil means
	// root. SortOrder orders siblings ascending, nil sorts last. Children
	// lists are derived by the tree builder and never persisted.
	Category struct {
		ID        string
		Name      string
		ParentID  *string
		SortOrder *int64
	}

	// AccountStatement is an externally reported account balance on a date.
	// CreatedAt only breaks ties between statements of the same account and
	// date.
	AccountStatement struct {
		ID        string
		AccountID string
		Date      Date
		Balance   Money
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidState  = errors.New("invalid transaction state")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty category name")
	ErrEmptyAccount  = errors.New("empty account id")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. A malformed or empty value falls back
// to the supplied reference date so one bad record never aborts a whole
// report.
func ParseDate(s string, fallback time.Time) Date {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{Time: time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC)}
	}
	return Date{Time: t}
}

// MonthKey returns the YYYY-MM bucket key used by the pivot engine.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (s TransactionState) Valid() bool {
	return s == StatePlanned || s == StateDone
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.State.Valid() {
		return ErrInvalidState
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (s AccountStatement) Validate() error {
	if strings.TrimSpace(s.AccountID) == "" {
		return ErrEmptyAccount
	}
	return s.Date.Validate()
}
