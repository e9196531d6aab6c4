package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is the subset of database/sql both *sql.DB and *sql.Tx satisfy.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the raw SQL access layer. Repository methods translate
// between rows and domain types; this layer stays dumb.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID          string
	Date        string
	State       string
	AmountCents int64
	Category    string
	Origin      string
	Archived    int64
	Description string
}

type CategoryRow struct {
	ID        string
	Name      string
	ParentID  sql.NullString
	SortOrder sql.NullInt64
}

type StatementRow struct {
	ID           string
	AccountID    string
	Date         string
	BalanceCents int64
	CreatedAt    string
}

type RecurringSeriesRow struct {
	ID          string
	StartDate   string
	EndDate     sql.NullString
	Frequency   string
	AmountCents int64
	Category    string
	Description string
	LastRun     sql.NullString
}

type SnapshotRow struct {
	WindowKey  string
	FromMonth  string
	ToMonth    string
	Payload    string
	Stale      int64
	ComputedAt string
}

const listTransactions = `
SELECT id, date, state, amount_cents, category, origin, archived, description
FROM transactions
WHERE deleted = 0
ORDER BY date, id`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		var r TransactionRow
		if err := rows.Scan(&r.ID, &r.Date, &r.State, &r.AmountCents, &r.Category, &r.Origin, &r.Archived, &r.Description); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertTransaction = `
INSERT INTO transactions (id, date, state, amount_cents, category, origin, archived, description)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.Date, r.State, r.AmountCents, r.Category, r.Origin, r.Archived, r.Description)
	return err
}

const getTransaction = `
SELECT id, date, state, amount_cents, category, origin, archived, description
FROM transactions
WHERE id = ? AND deleted = 0`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	var r TransactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id).
		Scan(&r.ID, &r.Date, &r.State, &r.AmountCents, &r.Category, &r.Origin, &r.Archived, &r.Description)
	return r, err
}

const updateTransaction = `
UPDATE transactions
SET date = ?, state = ?, amount_cents = ?, category = ?, origin = ?, archived = ?, description = ?,
    updated_at = datetime('now')
WHERE id = ? AND deleted = 0`

func (q *Queries) UpdateTransaction(ctx context.Context, r TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		r.Date, r.State, r.AmountCents, r.Category, r.Origin, r.Archived, r.Description, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) SoftDeleteTransactions(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE transactions SET deleted = 1, updated_at = datetime('now') WHERE id IN (` +
		placeholders(len(ids)) + `) AND deleted = 0`
	res, err := q.db.ExecContext(ctx, query, anySlice(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listCategories = `
SELECT id, name, parent_id, sort_order
FROM categories
ORDER BY name, id`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var r CategoryRow
		if err := rows.Scan(&r.ID, &r.Name, &r.ParentID, &r.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertCategory = `
INSERT INTO categories (id, name, parent_id, sort_order)
VALUES (?, ?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, r CategoryRow) error {
	_, err := q.db.ExecContext(ctx, insertCategory, r.ID, r.Name, r.ParentID, r.SortOrder)
	return err
}

const getCategory = `
SELECT id, name, parent_id, sort_order
FROM categories
WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (CategoryRow, error) {
	var r CategoryRow
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&r.ID, &r.Name, &r.ParentID, &r.SortOrder)
	return r, err
}

const updateCategory = `
UPDATE categories
SET name = ?, parent_id = ?, sort_order = ?
WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, r CategoryRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory, r.Name, r.ParentID, r.SortOrder, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listStatements = `
SELECT id, account_id, date, balance_cents, created_at
FROM account_statements
ORDER BY date, created_at, id`

func (q *Queries) ListStatements(ctx context.Context) ([]StatementRow, error) {
	rows, err := q.db.QueryContext(ctx, listStatements)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatementRow
	for rows.Next() {
		var r StatementRow
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Date, &r.BalanceCents, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertStatement = `
INSERT INTO account_statements (id, account_id, date, balance_cents, created_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertStatement(ctx context.Context, r StatementRow) error {
	_, err := q.db.ExecContext(ctx, insertStatement, r.ID, r.AccountID, r.Date, r.BalanceCents, r.CreatedAt)
	return err
}

const getStatement = `
SELECT id, account_id, date, balance_cents, created_at
FROM account_statements
WHERE id = ?`

func (q *Queries) GetStatement(ctx context.Context, id string) (StatementRow, error) {
	var r StatementRow
	err := q.db.QueryRowContext(ctx, getStatement, id).
		Scan(&r.ID, &r.AccountID, &r.Date, &r.BalanceCents, &r.CreatedAt)
	return r, err
}

const updateStatement = `
UPDATE account_statements
SET account_id = ?, date = ?, balance_cents = ?
WHERE id = ?`

func (q *Queries) UpdateStatement(ctx context.Context, r StatementRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateStatement, r.AccountID, r.Date, r.BalanceCents, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteStatement = `DELETE FROM account_statements WHERE id = ?`

func (q *Queries) DeleteStatement(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteStatement, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecurringSeries = `
SELECT id, start_date, end_date, frequency, amount_cents, category, description, last_run
FROM recurring_series
ORDER BY created_at, id`

func (q *Queries) ListRecurringSeries(ctx context.Context) ([]RecurringSeriesRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringSeries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecurringSeriesRow
	for rows.Next() {
		var r RecurringSeriesRow
		if err := rows.Scan(&r.ID, &r.StartDate, &r.EndDate, &r.Frequency, &r.AmountCents, &r.Category, &r.Description, &r.LastRun); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertRecurringSeries = `
INSERT INTO recurring_series (id, start_date, end_date, frequency, amount_cents, category, description)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertRecurringSeries(ctx context.Context, r RecurringSeriesRow) error {
	_, err := q.db.ExecContext(ctx, insertRecurringSeries,
		r.ID, r.StartDate, r.EndDate, r.Frequency, r.AmountCents, r.Category, r.Description)
	return err
}

const updateRecurringLastRun = `
UPDATE recurring_series SET last_run = ? WHERE id = ?`

func (q *Queries) UpdateRecurringLastRun(ctx context.Context, id, lastRun string) error {
	_, err := q.db.ExecContext(ctx, updateRecurringLastRun, lastRun, id)
	return err
}

const getSnapshot = `
SELECT window_key, from_month, to_month, payload, stale, computed_at
FROM pivot_snapshots
WHERE window_key = ?`

func (q *Queries) GetSnapshot(ctx context.Context, windowKey string) (SnapshotRow, error) {
	var r SnapshotRow
	err := q.db.QueryRowContext(ctx, getSnapshot, windowKey).
		Scan(&r.WindowKey, &r.FromMonth, &r.ToMonth, &r.Payload, &r.Stale, &r.ComputedAt)
	return r, err
}

const upsertSnapshot = `
INSERT INTO pivot_snapshots (window_key, from_month, to_month, payload, stale, computed_at)
VALUES (?, ?, ?, ?, 0, datetime('now'))
ON CONFLICT(window_key) DO UPDATE SET
    from_month = excluded.from_month,
    to_month = excluded.to_month,
    payload = excluded.payload,
    stale = 0,
    computed_at = excluded.computed_at`

func (q *Queries) UpsertSnapshot(ctx context.Context, r SnapshotRow) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, r.WindowKey, r.FromMonth, r.ToMonth, r.Payload)
	return err
}

// Running balances carry forward, so a change in month M staled every
// window ending at or after M, not just windows containing M.
const markSnapshotsStaleForMonth = `
UPDATE pivot_snapshots SET stale = 1 WHERE to_month >= ?`

func (q *Queries) MarkSnapshotsStaleForMonth(ctx context.Context, monthKey string) error {
	_, err := q.db.ExecContext(ctx, markSnapshotsStaleForMonth, monthKey)
	return err
}

const markAllSnapshotsStale = `UPDATE pivot_snapshots SET stale = 1`

func (q *Queries) MarkAllSnapshotsStale(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, markAllSnapshotsStale)
	return err
}

const listStaleWindows = `
SELECT window_key FROM pivot_snapshots WHERE stale = 1 ORDER BY computed_at LIMIT ?`

func (q *Queries) ListStaleWindows(ctx context.Context, limit int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listStaleWindows, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
