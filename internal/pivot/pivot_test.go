package pivot

import (
	"testing"
	"time"

	"tally/internal/core"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func foodTree() []core.Category {
	return []core.Category{
		{ID: "F", Name: "Food"},
		{ID: "G", Name: "Groceries", ParentID: strp("F")},
	}
}

func TestComputeRollsUpDoneTransaction(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 3, 5), Amount: core.Money{Cents: -5000}, Category: "G", State: core.StateDone},
	}

	data := Compute(txs, foodTree(), nil, 2024, 0, testNow)

	if got := data.TotalValues["G"]["2024-03"]; got != -5000 {
		t.Errorf(`TotalValues["G"]["2024-03"] = %d, want -5000`, got)
	}
	if got := data.TotalValues["F"]["2024-03"]; got != -5000 {
		t.Errorf(`TotalValues["F"]["2024-03"] = %d, want -5000`, got)
	}
}

func TestComputeExcludesPastPlanned(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 3, 5), Amount: core.Money{Cents: -5000}, Category: "G", State: core.StatePlanned},
	}

	data := Compute(txs, foodTree(), nil, 2024, 0, testNow)

	if got := data.TotalValues["G"]["2024-03"]; got != 0 {
		t.Errorf(`TotalValues["G"]["2024-03"] = %d, want 0 (past planned excluded)`, got)
	}
	if got := data.TotalValues["F"]["2024-03"]; got != 0 {
		t.Errorf(`TotalValues["F"]["2024-03"] = %d, want 0 (past planned excluded)`, got)
	}
	if got := data.MonthlyTotals["2024-03"]; got != 0 {
		t.Errorf(`MonthlyTotals["2024-03"] = %d, want 0`, got)
	}
}

func TestComputeLatestStatementWins(t *testing.T) {
	stmts := []core.AccountStatement{
		{ID: "s1", AccountID: "A1", Date: core.NewDate(2024, 4, 10), Balance: core.Money{Cents: 10000}},
		{ID: "s2", AccountID: "A1", Date: core.NewDate(2024, 4, 20), Balance: core.Money{Cents: 15000}},
	}

	data := Compute(nil, nil, stmts, 2024, 0, testNow)

	got, ok := data.AccountBalances["2024-04"]
	if !ok {
		t.Fatal(`AccountBalances["2024-04"] absent, want present`)
	}
	if got != 15000 {
		t.Errorf(`AccountBalances["2024-04"] = %d, want 15000`, got)
	}
}

func TestComputeNoStatementsMeansAbsent(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 2, 1), Amount: core.Money{Cents: 1000}, State: core.StateDone},
	}

	data := Compute(txs, nil, nil, 2024, 0, testNow)

	for _, col := range data.Columns {
		if _, ok := data.AccountBalances[col.Key]; ok {
			t.Errorf("AccountBalances[%q] present, want absent", col.Key)
		}
		if _, ok := data.BalanceDiffs[col.Key]; ok {
			t.Errorf("BalanceDiffs[%q] present, want absent", col.Key)
		}
	}
}

func TestComputeStatementAbsenceVsZero(t *testing.T) {
	stmts := []core.AccountStatement{
		{ID: "s1", AccountID: "A1", Date: core.NewDate(2024, 5, 31), Balance: core.Money{Cents: 0}},
	}

	data := Compute(nil, nil, stmts, 2024, 0, testNow)

	got, ok := data.AccountBalances["2024-05"]
	if !ok {
		t.Fatal(`AccountBalances["2024-05"] absent, want present zero`)
	}
	if got != 0 {
		t.Errorf(`AccountBalances["2024-05"] = %d, want 0`, got)
	}
	if _, ok := data.AccountBalances["2024-04"]; ok {
		t.Error(`AccountBalances["2024-04"] present, want absent`)
	}
}

func TestComputeStatementTieBreakOnCreatedAt(t *testing.T) {
	day := core.NewDate(2024, 4, 20)
	stmts := []core.AccountStatement{
		{ID: "s1", AccountID: "A1", Date: day, Balance: core.Money{Cents: 100}, CreatedAt: time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)},
		{ID: "s2", AccountID: "A1", Date: day, Balance: core.Money{Cents: 200}, CreatedAt: time.Date(2024, 4, 20, 18, 0, 0, 0, time.UTC)},
	}

	data := Compute(nil, nil, stmts, 2024, 0, testNow)

	if got := data.AccountBalances["2024-04"]; got != 200 {
		t.Errorf(`AccountBalances["2024-04"] = %d, want 200 (later createdAt wins)`, got)
	}
}

func TestComputeBalancesSumAcrossAccounts(t *testing.T) {
	stmts := []core.AccountStatement{
		{ID: "s1", AccountID: "A1", Date: core.NewDate(2024, 4, 28), Balance: core.Money{Cents: 1000}},
		{ID: "s2", AccountID: "A2", Date: core.NewDate(2024, 4, 15), Balance: core.Money{Cents: -250}},
	}
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: 300}, State: core.StateDone},
	}

	data := Compute(txs, nil, stmts, 2024, 0, testNow)

	if got := data.AccountBalances["2024-04"]; got != 750 {
		t.Errorf(`AccountBalances["2024-04"] = %d, want 750`, got)
	}
	// diff = balances - cumulative; cumulative through April is 300.
	if got := data.BalanceDiffs["2024-04"]; got != 450 {
		t.Errorf(`BalanceDiffs["2024-04"] = %d, want 450`, got)
	}
}

func TestComputeCumulativeReachesBeforeWindow(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2022, 11, 5), Amount: core.Money{Cents: 10000}, State: core.StateDone},
		{Date: core.NewDate(2024, 2, 1), Amount: core.Money{Cents: -3000}, State: core.StateDone},
	}

	data := Compute(txs, nil, nil, 2024, 0, testNow)

	// The 2022 transaction is far outside the window but still seeds the
	// running sum.
	if got := data.CumulativeTotals["2024-01"]; got != 10000 {
		t.Errorf(`CumulativeTotals["2024-01"] = %d, want 10000`, got)
	}
	if got := data.CumulativeTotals["2024-02"]; got != 7000 {
		t.Errorf(`CumulativeTotals["2024-02"] = %d, want 7000`, got)
	}
	if got := data.MonthlyTotals["2024-01"]; got != 0 {
		t.Errorf(`MonthlyTotals["2024-01"] = %d, want 0`, got)
	}
}

func TestComputeCumulativeContinuity(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2023, 12, 10), Amount: core.Money{Cents: 500}, State: core.StateDone},
		{Date: core.NewDate(2024, 2, 10), Amount: core.Money{Cents: 700}, State: core.StateDone},
		{Date: core.NewDate(2024, 8, 10), Amount: core.Money{Cents: -200}, State: core.StatePlanned},
	}

	data := Compute(txs, nil, nil, 2024, 0, testNow)

	for i := 1; i < len(data.Columns); i++ {
		prev := data.Columns[i-1].Key
		cur := data.Columns[i].Key
		want := data.CumulativeTotals[prev] + data.MonthlyTotals[cur]
		if got := data.CumulativeTotals[cur]; got != want {
			t.Errorf("CumulativeTotals[%q] = %d, want %d (continuity)", cur, got, want)
		}
	}
}

func TestComputeWindowShiftInvariance(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2023, 6, 1), Amount: core.Money{Cents: 1500}, State: core.StateDone},
		{Date: core.NewDate(2024, 1, 15), Amount: core.Money{Cents: -400}, State: core.StateDone},
		{Date: core.NewDate(2024, 7, 1), Amount: core.Money{Cents: 900}, State: core.StatePlanned},
	}

	base := Compute(txs, nil, nil, 2024, 0, testNow)
	shifted := Compute(txs, nil, nil, 2024, 1, testNow)

	for _, col := range shifted.Columns {
		if _, ok := base.CumulativeTotals[col.Key]; !ok {
			continue // column outside the unshifted window
		}
		if shifted.CumulativeTotals[col.Key] != base.CumulativeTotals[col.Key] {
			t.Errorf("CumulativeTotals[%q] = %d after shift, want %d", col.Key, shifted.CumulativeTotals[col.Key], base.CumulativeTotals[col.Key])
		}
	}
}

func TestComputeRollupConservation(t *testing.T) {
	categories := []core.Category{
		{ID: "F", Name: "Food"},
		{ID: "G", Name: "Groceries", ParentID: strp("F")},
		{ID: "R", Name: "Restaurants", ParentID: strp("F")},
		{ID: "V", Name: "Veggies", ParentID: strp("G")},
	}
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: -100}, Category: "F", State: core.StateDone},
		{Date: core.NewDate(2024, 3, 2), Amount: core.Money{Cents: -200}, Category: "G", State: core.StateDone},
		{Date: core.NewDate(2024, 3, 3), Amount: core.Money{Cents: -400}, Category: "V", State: core.StateDone},
		{Date: core.NewDate(2024, 4, 3), Amount: core.Money{Cents: -800}, Category: "R", State: core.StateDone},
	}

	data := Compute(txs, categories, nil, 2024, 0, testNow)

	if got := data.TotalValues["F"]["2024-03"]; got != -700 {
		t.Errorf(`TotalValues["F"]["2024-03"] = %d, want -700`, got)
	}
	if got := data.TotalValues["G"]["2024-03"]; got != -600 {
		t.Errorf(`TotalValues["G"]["2024-03"] = %d, want -600`, got)
	}
	if got := data.TotalValues["F"]["2024-04"]; got != -800 {
		t.Errorf(`TotalValues["F"]["2024-04"] = %d, want -800`, got)
	}
	// Leaf equivalence: V rolls up only itself.
	if got := data.TotalValues["V"]["2024-03"]; got != -400 {
		t.Errorf(`TotalValues["V"]["2024-03"] = %d, want -400`, got)
	}
}

func TestComputeEmptyCategoryYieldsZeroRow(t *testing.T) {
	categories := []core.Category{{ID: "E", Name: "Empty"}}

	data := Compute(nil, categories, nil, 2024, 0, testNow)

	row, ok := data.TotalValues["E"]
	if !ok {
		t.Fatal(`TotalValues["E"] absent, want all-zero row`)
	}
	if len(row) != WindowSize {
		t.Fatalf("row has %d columns, want %d", len(row), WindowSize)
	}
	for key, v := range row {
		if v != 0 {
			t.Errorf("TotalValues[\"E\"][%q] = %d, want 0", key, v)
		}
	}
}

func TestComputeLegacyNameReference(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 3, 5), Amount: core.Money{Cents: -50}, Category: "groceries", State: core.StateDone},
	}

	data := Compute(txs, foodTree(), nil, 2024, 0, testNow)

	if got := data.TotalValues["G"]["2024-03"]; got != -50 {
		t.Errorf(`TotalValues["G"]["2024-03"] = %d, want -50 (name fallback)`, got)
	}
}

func TestComputeUnknownCategoryStillCountsInTotals(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2024, 3, 5), Amount: core.Money{Cents: -50}, Category: "no-such", State: core.StateDone},
	}

	data := Compute(txs, foodTree(), nil, 2024, 0, testNow)

	for id, row := range data.TotalValues {
		if row["2024-03"] != 0 {
			t.Errorf("TotalValues[%q][2024-03] = %d, want 0", id, row["2024-03"])
		}
	}
	if got := data.MonthlyTotals["2024-03"]; got != -50 {
		t.Errorf(`MonthlyTotals["2024-03"] = %d, want -50`, got)
	}
}

func TestComputeTransactionOutsideWindowNotClamped(t *testing.T) {
	txs := []core.Transaction{
		{Date: core.NewDate(2023, 5, 1), Amount: core.Money{Cents: -100}, Category: "G", State: core.StateDone},
	}

	data := Compute(txs, foodTree(), nil, 2024, 0, testNow)

	// The amount belongs to 2023-05, not to any visible column.
	for _, col := range data.Columns {
		if got := data.TotalValues["G"][col.Key]; got != 0 {
			t.Errorf("TotalValues[\"G\"][%q] = %d, want 0", col.Key, got)
		}
	}
	// It still seeds the cumulative baseline.
	if got := data.CumulativeTotals["2024-01"]; got != -100 {
		t.Errorf(`CumulativeTotals["2024-01"] = %d, want -100`, got)
	}
}

func TestComputeEmptyInputs(t *testing.T) {
	data := Compute(nil, nil, nil, 2024, 0, testNow)

	if len(data.Columns) != WindowSize {
		t.Fatalf("Columns = %d, want %d", len(data.Columns), WindowSize)
	}
	if data.Columns[0].Key != "2024-01" || data.Columns[11].Key != "2024-12" {
		t.Errorf("window = [%s..%s], want [2024-01..2024-12]", data.Columns[0].Key, data.Columns[11].Key)
	}
	if data.CategoryTree == nil {
		t.Error("CategoryTree is nil, want empty slice")
	}
	for _, col := range data.Columns {
		if v := data.MonthlyTotals[col.Key]; v != 0 {
			t.Errorf("MonthlyTotals[%q] = %d, want 0", col.Key, v)
		}
		if v := data.CumulativeTotals[col.Key]; v != 0 {
			t.Errorf("CumulativeTotals[%q] = %d, want 0", col.Key, v)
		}
	}
	if len(data.AccountBalances) != 0 || len(data.BalanceDiffs) != 0 {
		t.Error("reconciliation maps should be empty with no statements")
	}
	if data.CurrentMonthKey != "2024-06" {
		t.Errorf("CurrentMonthKey = %q, want 2024-06", data.CurrentMonthKey)
	}
}

func TestComputeWindowCrossesYears(t *testing.T) {
	data := Compute(nil, nil, nil, 2024, 7, testNow)

	if data.Columns[0].Key != "2024-08" {
		t.Errorf("first column = %q, want 2024-08", data.Columns[0].Key)
	}
	if data.Columns[11].Key != "2025-07" {
		t.Errorf("last column = %q, want 2025-07", data.Columns[11].Key)
	}

	back := Compute(nil, nil, nil, 2024, -3, testNow)
	if back.Columns[0].Key != "2023-10" {
		t.Errorf("first column = %q, want 2023-10", back.Columns[0].Key)
	}
}

func TestComputeColumnLabels(t *testing.T) {
	data := Compute(nil, nil, nil, 2024, 0, testNow)

	if data.Columns[2].Label != "March 2024" {
		t.Errorf("Label = %q, want %q", data.Columns[2].Label, "March 2024")
	}
	if !data.Columns[2].Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v, want first of March", data.Columns[2].Date)
	}
}
