// Package pivot implements the hierarchical time-bucketed aggregation engine
// behind the ledger's report: the category forest, the per-category monthly
// rollup, the flat and cumulative cash-flow totals, and the reconciliation of
// recorded account statements against the ledger.
//
// Computation is a pure function of its input snapshots: no I/O, no shared
// state, a fresh result on every call. Data quality problems never abort a
// report; they degrade to zeros or the unassigned bucket.
package pivot

import (
	"time"

	"tally/internal/core"
)

// Data is the engine's sole output, consumed by presentation as-is. All
// monetary values are signed cents. AccountBalances and BalanceDiffs are
// sparse: a missing column key means no statement exists for that month,
// which is distinct from a present zero. Every other map carries an entry for
// every visible column (and, for TotalValues, for every category).
type Data struct {
	Columns          []Column                    `json:"columns"`
	CategoryTree     []*Node                     `json:"category_tree"`
	TotalValues      map[string]map[string]int64 `json:"total_values"`
	MonthlyTotals    map[string]int64            `json:"monthly_totals"`
	CumulativeTotals map[string]int64            `json:"cumulative_totals"`
	AccountBalances  map[string]int64            `json:"account_balances"`
	BalanceDiffs     map[string]int64            `json:"balance_diffs"`
	CurrentMonthKey  string                      `json:"current_month_key"`
}

// Compute builds the full pivot report for the 12-month window anchored at
// January of visibleYear shifted by monthOffset, evaluating temporal
// inclusion against now.
func Compute(transactions []core.Transaction, categories []core.Category, statements []core.AccountStatement, visibleYear, monthOffset int, now time.Time) Data {
	cols := VisibleColumns(visibleYear, monthOffset)
	currentMonthKey := monthKey(now)

	tree := BuildTree(categories)
	refs := make([]CategoryRef, len(transactions))
	for i, tx := range transactions {
		refs[i] = tree.ResolveRef(tx.Category)
	}

	direct := directValues(transactions, refs, currentMonthKey, now)
	totalValues := rollup(tree, direct, cols)

	byKey := monthlyByKey(transactions, currentMonthKey, now)
	windowEnd := cols[len(cols)-1].Date
	from := oldestMonth(byKey)
	if from.IsZero() {
		from = cols[0].Date
	}
	cumulative := projectToWindow(denseCumulative(byKey, from, windowEnd), cols)

	balances, diffs := reconcile(statements, cols, cumulative)

	roots := tree.Roots
	if roots == nil {
		roots = []*Node{}
	}

	return Data{
		Columns:          cols,
		CategoryTree:     roots,
		TotalValues:      totalValues,
		MonthlyTotals:    projectToWindow(byKey, cols),
		CumulativeTotals: cumulative,
		AccountBalances:  balances,
		BalanceDiffs:     diffs,
		CurrentMonthKey:  currentMonthKey,
	}
}
