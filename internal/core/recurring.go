package core

import (
	"errors"
	"strings"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type Frequency string

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// RecurringSeries is a template from which dated transactions are
// instantiated on a schedule. EndDate zero means open-ended. Instantiated
// transactions start out Planned; marking them Done stays a user action.
type RecurringSeries struct {
	ID          string
	StartDate   Date
	EndDate     Date
	Every       Frequency
	Amount      Money
	Category    string
	Description string
}

func (rs RecurringSeries) Validate() error {
	if err := rs.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !rs.EndDate.IsZero() && rs.EndDate.Before(rs.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	if !rs.Every.Valid() {
		return errors.New("invalid frequency")
	}
	if rs.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(rs.Description)) == 0 {
		return errors.New("empty description")
	}
	return nil
}
