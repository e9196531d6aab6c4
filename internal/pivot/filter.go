package pivot

import (
	"time"

	"tally/internal/core"
)

// Include reports whether a transaction counts toward realized totals
// relative to the current month.
//
// Strictly past months reflect what actually happened: done transactions plus
// all imported or archived history, never speculative planned entries. The
// current month and the future are a forecast: only planned transactions
// count there. A done transaction dated in the current or a future month is
// therefore invisible to both branches; downstream totals depend on that
// boundary, so it must not change.
//
// A transaction with a zero date is bucketed into the current month.
func Include(tx core.Transaction, currentMonthKey string, now time.Time) bool {
	key := txMonthKey(tx, now)
	if key < currentMonthKey {
		return tx.State == core.StateDone || tx.Origin == core.OriginImport || tx.Archived
	}
	return tx.State == core.StatePlanned
}

// txMonthKey returns the month bucket of a transaction's true calendar date,
// falling back to the reference time for zero dates.
func txMonthKey(tx core.Transaction, now time.Time) string {
	if tx.Date.IsZero() {
		return monthKey(now)
	}
	return tx.Date.MonthKey()
}
