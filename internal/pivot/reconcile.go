package pivot

import "tally/internal/core"

// reconcile computes, per visible column, the summed latest statement balance
// across accounts and its discrepancy against the cumulative ledger total.
//
// A column with no statement in its calendar month is absent from both maps:
// a month with nothing recorded must stay distinguishable from a month where
// every account reconciled to exactly zero. Per account the statement with
// the latest date within the month wins; equal dates break the tie on the
// latest CreatedAt.
func reconcile(stmts []core.AccountStatement, cols []Column, cumulative map[string]int64) (balances, diffs map[string]int64) {
	balances = make(map[string]int64)
	diffs = make(map[string]int64)

	byMonth := make(map[string][]core.AccountStatement)
	for _, s := range stmts {
		byMonth[s.Date.MonthKey()] = append(byMonth[s.Date.MonthKey()], s)
	}

	for _, col := range cols {
		monthStmts := byMonth[col.Key]
		if len(monthStmts) == 0 {
			continue
		}
		latest := make(map[string]core.AccountStatement)
		for _, s := range monthStmts {
			cur, ok := latest[s.AccountID]
			if !ok || supersedes(s, cur) {
				latest[s.AccountID] = s
			}
		}
		var sum int64
		for _, s := range latest {
			sum += s.Balance.Cents
		}
		balances[col.Key] = sum
		diffs[col.Key] = sum - cumulative[col.Key]
	}
	return balances, diffs
}

// supersedes reports whether statement a replaces b as the month's latest for
// one account.
func supersedes(a, b core.AccountStatement) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.After(b.Date.Time)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
