package pivot

import (
	"time"

	"tally/internal/core"
)

// monthlyByKey sums the amounts of all included transactions per true
// calendar month, ignoring category entirely. Unassigned transactions, which
// the per-category rollup drops, still count here.
func monthlyByKey(txs []core.Transaction, currentMonthKey string, now time.Time) map[string]int64 {
	byKey := make(map[string]int64)
	for _, tx := range txs {
		if !Include(tx, currentMonthKey, now) {
			continue
		}
		byKey[txMonthKey(tx, now)] += tx.Amount.Cents
	}
	return byKey
}

// denseCumulative accumulates a running sum over a dense month sequence from
// `from` through `to` inclusive, zero-filling gap months. The sequence starts
// at the globally oldest qualifying month rather than the window's first
// column, so the cumulative figure stays continuous with history outside the
// visible window no matter how the window is scrolled.
func denseCumulative(byKey map[string]int64, from, to time.Time) map[string]int64 {
	cumulative := make(map[string]int64)
	if from.After(to) {
		return cumulative
	}
	var running int64
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		key := monthKey(m)
		running += byKey[key]
		cumulative[key] = running
	}
	return cumulative
}

// oldestMonth returns the first of the month for the earliest key in byKey,
// or the zero time when byKey is empty.
func oldestMonth(byKey map[string]int64) time.Time {
	oldest := ""
	for key := range byKey {
		if oldest == "" || key < oldest {
			oldest = key
		}
	}
	return parseMonthKey(oldest)
}

// projectToWindow reports the dense values at the visible columns' keys.
// Missing keys project to zero so the output always has the full window
// shape.
func projectToWindow(dense map[string]int64, cols []Column) map[string]int64 {
	out := make(map[string]int64, len(cols))
	for _, col := range cols {
		out[col.Key] = dense[col.Key]
	}
	return out
}
