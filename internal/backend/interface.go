// Package backend defines the store ports the ledger runs against and the
// factory that selects a concrete implementation.
package backend

import (
	"context"

	"tally/internal/core"
)

type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	// CreateTransactions inserts N transactions in one logical call, so a
	// recurring series lands atomically from the caller's point of view.
	CreateTransactions(ctx context.Context, txs []core.Transaction) ([]string, error)
	UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) error
	UpdateTransactions(ctx context.Context, ids []string, patch core.TransactionPatch) error
	DeleteTransactions(ctx context.Context, ids []string) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (string, error)
	UpdateCategory(ctx context.Context, id string, patch core.CategoryPatch) error
	ReorderCategories(ctx context.Context, moves []core.CategoryMove) error
}

type StatementStore interface {
	ListStatements(ctx context.Context) ([]core.AccountStatement, error)
	CreateStatement(ctx context.Context, s core.AccountStatement) (string, error)
	UpdateStatement(ctx context.Context, id string, patch core.StatementPatch) error
	DeleteStatement(ctx context.Context, id string) error
}

// SnapshotStore persists precomputed pivot reports. Staleness tracking is
// exact, so serving a fresh snapshot is observably identical to recomputing.
// MarkSnapshotsStale with no month keys marks every snapshot stale; running
// balances carry forward, so a touched month stales every window ending at
// or after it.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, windowKey string) (*core.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap core.Snapshot) error
	MarkSnapshotsStale(ctx context.Context, monthKeys []string) error
	ListStaleWindows(ctx context.Context, limit int) ([]string, error)
}

// RecurringStore is the surface the recurring worker schedules from. It is
// deliberately outside Backend: the HTTP server never touches series
// directly, instantiated transactions flow through TransactionStore.
type RecurringStore interface {
	ListRecurringSeries(ctx context.Context) ([]core.SeriesRun, error)
	CreateRecurringSeries(ctx context.Context, rs core.RecurringSeries) (string, error)
	MarkSeriesRun(ctx context.Context, id string, ran core.Date) error
}

// Backend is the full store surface the HTTP server and services run
// against.
type Backend interface {
	TransactionStore
	CategoryStore
	StatementStore
	SnapshotStore
}
