package services

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/memstore"
)

var reportNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newReportService(store *memstore.Store) *ReportService {
	svc := NewReportService(store)
	svc.now = func() time.Time { return reportNow }
	return svc
}

func TestWindowKeyRoundTrip(t *testing.T) {
	tests := []struct {
		year   int
		offset int
	}{
		{2024, 0},
		{2024, 7},
		{2023, -3},
	}

	for _, tt := range tests {
		key := WindowKey(tt.year, tt.offset)
		year, offset, err := ParseWindowKey(key)
		if err != nil {
			t.Errorf("ParseWindowKey(%q) error = %v", key, err)
			continue
		}
		if year != tt.year || offset != tt.offset {
			t.Errorf("ParseWindowKey(%q) = (%d, %d), want (%d, %d)", key, year, offset, tt.year, tt.offset)
		}
	}

	if _, _, err := ParseWindowKey("nonsense"); err == nil {
		t.Error("ParseWindowKey(nonsense) error = nil, want error")
	}
}

func TestReportService_PivotComputesAndSnapshots(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newReportService(store)

	_, err := store.CreateTransactions(ctx, []core.Transaction{
		{Date: core.NewDate(2024, 3, 10), State: core.StateDone, Amount: core.Money{Cents: -5000}},
	})
	if err != nil {
		t.Fatalf("CreateTransactions() error = %v", err)
	}

	data, err := svc.Pivot(ctx, 2024, 0)
	if err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}
	if len(data.Columns) != 12 {
		t.Fatalf("Pivot() returned %d columns, want 12", len(data.Columns))
	}
	if got := data.MonthlyTotals["2024-03"]; got != -5000 {
		t.Errorf("MonthlyTotals[2024-03] = %d, want -5000", got)
	}

	snap, err := store.GetSnapshot(ctx, "2024:0")
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if snap.FromMonth != "2024-01" || snap.ToMonth != "2024-12" {
		t.Errorf("snapshot window = %s..%s, want 2024-01..2024-12", snap.FromMonth, snap.ToMonth)
	}
	if snap.Stale {
		t.Error("freshly saved snapshot should not be stale")
	}
}

func TestReportService_ServesFreshSnapshotWithoutRecompute(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newReportService(store)

	_, err := store.CreateTransactions(ctx, []core.Transaction{
		{Date: core.NewDate(2024, 3, 10), State: core.StateDone, Amount: core.Money{Cents: -5000}},
	})
	if err != nil {
		t.Fatalf("CreateTransactions() error = %v", err)
	}

	if _, err := svc.Pivot(ctx, 2024, 0); err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}

	// Mutate the store behind the service's back: with no invalidation the
	// persisted snapshot must still be served.
	_, err = store.CreateTransactions(ctx, []core.Transaction{
		{Date: core.NewDate(2024, 3, 11), State: core.StateDone, Amount: core.Money{Cents: -1000}},
	})
	if err != nil {
		t.Fatalf("CreateTransactions() error = %v", err)
	}

	data, err := svc.Pivot(ctx, 2024, 0)
	if err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}
	if got := data.MonthlyTotals["2024-03"]; got != -5000 {
		t.Errorf("MonthlyTotals[2024-03] = %d, want stale value -5000", got)
	}
}

func TestReportService_RecomputeStale(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newReportService(store)

	if _, err := svc.Pivot(ctx, 2024, 0); err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}

	_, err := store.CreateTransactions(ctx, []core.Transaction{
		{Date: core.NewDate(2024, 3, 10), State: core.StateDone, Amount: core.Money{Cents: -7000}},
	})
	if err != nil {
		t.Fatalf("CreateTransactions() error = %v", err)
	}
	if err := store.MarkSnapshotsStale(ctx, []string{"2024-03"}); err != nil {
		t.Fatalf("MarkSnapshotsStale() error = %v", err)
	}

	refreshed, err := svc.RecomputeStale(ctx, 10)
	if err != nil {
		t.Fatalf("RecomputeStale() error = %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("RecomputeStale() = %d, want 1", refreshed)
	}

	data, err := svc.Pivot(ctx, 2024, 0)
	if err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}
	if got := data.MonthlyTotals["2024-03"]; got != -7000 {
		t.Errorf("MonthlyTotals[2024-03] = %d, want -7000 after recompute", got)
	}

	stale, err := store.ListStaleWindows(ctx, 10)
	if err != nil {
		t.Fatalf("ListStaleWindows() error = %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("ListStaleWindows() = %v, want none after recompute", stale)
	}
}
