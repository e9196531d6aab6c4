package pivot

import (
	"time"

	"tally/internal/core"
)

// directValues buckets every included transaction's amount (cents) into its
// category's bucket for the transaction's true calendar month. Buckets are
// never clamped to the visible window: a transaction always counts in its own
// month even when that month is not displayed. Transactions whose reference
// does not resolve are dropped here; they still count in the category-
// agnostic totals.
func directValues(txs []core.Transaction, refs []CategoryRef, currentMonthKey string, now time.Time) map[string]map[string]int64 {
	direct := make(map[string]map[string]int64)
	for i, tx := range txs {
		ref := refs[i]
		if ref.Kind == RefUnassigned {
			continue
		}
		if !Include(tx, currentMonthKey, now) {
			continue
		}
		key := txMonthKey(tx, now)
		row := direct[ref.ID]
		if row == nil {
			row = make(map[string]int64)
			direct[ref.ID] = row
		}
		row[key] += tx.Amount.Cents
	}
	return direct
}

// rollup computes, for every category and every visible column, the rolled-up
// total: the category's own direct bucket plus the rollups of all of its
// descendants. The walk is post-order, so a parent's totals are never
// computed before its children's. Every category gets a row; a category with
// no transactions and no children yields an all-zero row, not an absent one.
func rollup(tree *Tree, direct map[string]map[string]int64, cols []Column) map[string]map[string]int64 {
	totals := make(map[string]map[string]int64, tree.Size())
	tree.Walk(func(n *Node) {
		row := make(map[string]int64, len(cols))
		for _, col := range cols {
			sum := direct[n.Category.ID][col.Key]
			for _, child := range n.Children {
				sum += totals[child.Category.ID][col.Key]
			}
			row[col.Key] = sum
		}
		totals[n.Category.ID] = row
	})
	return totals
}
