package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = transactionFromRow(row)
	}
	return txs, nil
}

func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	ids := make([]string, len(txs))
	for i, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		ids[i] = t.ID
		if err := q.InsertTransaction(ctx, transactionToRow(t)); err != nil {
			return nil, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions created", "count", len(ids))
	return ids, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) error {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		return fmt.Errorf("get transaction: %w", err)
	}

	applyTransactionPatch(&row, patch)

	n, err := r.queries.UpdateTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return nil
}

func (r *SQLiteRepository) UpdateTransactions(ctx context.Context, ids []string, patch core.TransactionPatch) error {
	for _, id := range ids {
		if err := r.UpdateTransaction(ctx, id, patch); err != nil {
			return fmt.Errorf("update transaction %s: %w", id, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := r.queries.SoftDeleteTransactions(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transactions deleted", "requested", len(ids), "deleted", n)
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	cats := make([]core.Category, len(rows))
	for i, row := range rows {
		cats[i] = categoryFromRow(row)
	}
	return cats, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.queries.InsertCategory(ctx, categoryToRow(c)); err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name)
	return c.ID, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id string, patch core.CategoryPatch) error {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		return fmt.Errorf("get category: %w", err)
	}

	if patch.Name != nil {
		row.Name = *patch.Name
	}
	if patch.ParentID != nil {
		if *patch.ParentID == "" {
			row.ParentID = sql.NullString{}
		} else {
			row.ParentID = sql.NullString{String: *patch.ParentID, Valid: true}
		}
	}
	if patch.SortOrder != nil {
		if *patch.SortOrder < 0 {
			row.SortOrder = sql.NullInt64{}
		} else {
			row.SortOrder = sql.NullInt64{Int64: *patch.SortOrder, Valid: true}
		}
	}

	n, err := r.queries.UpdateCategory(ctx, row)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Category updated", "id", id)
	return nil
}

func (r *SQLiteRepository) ReorderCategories(ctx context.Context, moves []core.CategoryMove) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, m := range moves {
		row, err := q.GetCategory(ctx, m.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrNotFound
			}
			return fmt.Errorf("get category %s: %w", m.ID, err)
		}

		row.ParentID = sql.NullString{}
		if m.ParentID != nil && *m.ParentID != "" {
			row.ParentID = sql.NullString{String: *m.ParentID, Valid: true}
		}
		row.SortOrder = sql.NullInt64{}
		if m.SortOrder != nil {
			row.SortOrder = sql.NullInt64{Int64: *m.SortOrder, Valid: true}
		}

		if _, err := q.UpdateCategory(ctx, row); err != nil {
			return fmt.Errorf("move category %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}

	slog.InfoContext(ctx, "Categories reordered", "count", len(moves))
	return nil
}

func (r *SQLiteRepository) ListStatements(ctx context.Context) ([]core.AccountStatement, error) {
	rows, err := r.queries.ListStatements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}

	stmts := make([]core.AccountStatement, len(rows))
	for i, row := range rows {
		stmts[i] = statementFromRow(row)
	}
	return stmts, nil
}

func (r *SQLiteRepository) CreateStatement(ctx context.Context, s core.AccountStatement) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if err := r.queries.InsertStatement(ctx, statementToRow(s)); err != nil {
		return "", fmt.Errorf("insert statement: %w", err)
	}

	slog.InfoContext(ctx, "Statement created",
		"id", s.ID,
		"account_id", s.AccountID,
		"date", s.Date.ISO(),
		"balance_cents", s.Balance.Cents)
	return s.ID, nil
}

func (r *SQLiteRepository) UpdateStatement(ctx context.Context, id string, patch core.StatementPatch) error {
	row, err := r.queries.GetStatement(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		return fmt.Errorf("get statement: %w", err)
	}

	if patch.AccountID != nil {
		row.AccountID = *patch.AccountID
	}
	if patch.Date != nil {
		row.Date = patch.Date.ISO()
	}
	if patch.BalanceCents != nil {
		row.BalanceCents = *patch.BalanceCents
	}

	n, err := r.queries.UpdateStatement(ctx, row)
	if err != nil {
		return fmt.Errorf("update statement: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Statement updated", "id", id)
	return nil
}

func (r *SQLiteRepository) DeleteStatement(ctx context.Context, id string) error {
	n, err := r.queries.DeleteStatement(ctx, id)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Statement deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) ListRecurringSeries(ctx context.Context) ([]core.SeriesRun, error) {
	rows, err := r.queries.ListRecurringSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring series: %w", err)
	}

	out := make([]core.SeriesRun, len(rows))
	for i, row := range rows {
		out[i] = seriesRunFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateRecurringSeries(ctx context.Context, rs core.RecurringSeries) (string, error) {
	if rs.ID == "" {
		rs.ID = uuid.NewString()
	}
	row := RecurringSeriesRow{
		ID:          rs.ID,
		StartDate:   rs.StartDate.ISO(),
		Frequency:   string(rs.Every),
		AmountCents: rs.Amount.Cents,
		Category:    rs.Category,
		Description: rs.Description,
	}
	if !rs.EndDate.IsZero() {
		row.EndDate = sql.NullString{String: rs.EndDate.ISO(), Valid: true}
	}

	if err := r.queries.InsertRecurringSeries(ctx, row); err != nil {
		return "", fmt.Errorf("insert recurring series: %w", err)
	}

	slog.InfoContext(ctx, "Recurring series created",
		"id", rs.ID,
		"frequency", string(rs.Every),
		"start_date", rs.StartDate.ISO())
	return rs.ID, nil
}

func (r *SQLiteRepository) MarkSeriesRun(ctx context.Context, id string, ran core.Date) error {
	if err := r.queries.UpdateRecurringLastRun(ctx, id, ran.ISO()); err != nil {
		return fmt.Errorf("mark series run: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, windowKey string) (*core.Snapshot, error) {
	row, err := r.queries.GetSnapshot(ctx, windowKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	computedAt, _ := time.Parse(time.RFC3339, row.ComputedAt)
	return &core.Snapshot{
		WindowKey:  row.WindowKey,
		FromMonth:  row.FromMonth,
		ToMonth:    row.ToMonth,
		Payload:    []byte(row.Payload),
		Stale:      row.Stale != 0,
		ComputedAt: computedAt,
	}, nil
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, snap core.Snapshot) error {
	err := r.queries.UpsertSnapshot(ctx, SnapshotRow{
		WindowKey: snap.WindowKey,
		FromMonth: snap.FromMonth,
		ToMonth:   snap.ToMonth,
		Payload:   string(snap.Payload),
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved", "window_key", snap.WindowKey)
	return nil
}

func (r *SQLiteRepository) MarkSnapshotsStale(ctx context.Context, monthKeys []string) error {
	if len(monthKeys) == 0 {
		if err := r.queries.MarkAllSnapshotsStale(ctx); err != nil {
			return fmt.Errorf("mark all snapshots stale: %w", err)
		}
		return nil
	}
	for _, key := range monthKeys {
		if err := r.queries.MarkSnapshotsStaleForMonth(ctx, key); err != nil {
			return fmt.Errorf("mark snapshots stale for %s: %w", key, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListStaleWindows(ctx context.Context, limit int) ([]string, error) {
	keys, err := r.queries.ListStaleWindows(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list stale windows: %w", err)
	}
	return keys, nil
}

func transactionFromRow(row TransactionRow) core.Transaction {
	return core.Transaction{
		ID:          row.ID,
		Date:        core.ParseDate(row.Date, time.Now()),
		State:       core.TransactionState(row.State),
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Origin:      row.Origin,
		Archived:    row.Archived != 0,
		Description: row.Description,
	}
}

func transactionToRow(t core.Transaction) TransactionRow {
	archived := int64(0)
	if t.Archived {
		archived = 1
	}
	return TransactionRow{
		ID:          t.ID,
		Date:        t.Date.ISO(),
		State:       string(t.State),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Origin:      t.Origin,
		Archived:    archived,
		Description: t.Description,
	}
}

func applyTransactionPatch(row *TransactionRow, patch core.TransactionPatch) {
	if patch.Date != nil {
		row.Date = patch.Date.ISO()
	}
	if patch.State != nil {
		row.State = string(*patch.State)
	}
	if patch.AmountCents != nil {
		row.AmountCents = *patch.AmountCents
	}
	if patch.Category != nil {
		row.Category = *patch.Category
	}
	if patch.Origin != nil {
		row.Origin = *patch.Origin
	}
	if patch.Archived != nil {
		row.Archived = 0
		if *patch.Archived {
			row.Archived = 1
		}
	}
	if patch.Description != nil {
		row.Description = *patch.Description
	}
}

func categoryFromRow(row CategoryRow) core.Category {
	c := core.Category{
		ID:   row.ID,
		Name: row.Name,
	}
	if row.ParentID.Valid {
		parent := row.ParentID.String
		c.ParentID = &parent
	}
	if row.SortOrder.Valid {
		order := row.SortOrder.Int64
		c.SortOrder = &order
	}
	return c
}

func categoryToRow(c core.Category) CategoryRow {
	row := CategoryRow{
		ID:   c.ID,
		Name: c.Name,
	}
	if c.ParentID != nil {
		row.ParentID = sql.NullString{String: *c.ParentID, Valid: true}
	}
	if c.SortOrder != nil {
		row.SortOrder = sql.NullInt64{Int64: *c.SortOrder, Valid: true}
	}
	return row
}

func statementFromRow(row StatementRow) core.AccountStatement {
	createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)
	return core.AccountStatement{
		ID:        row.ID,
		AccountID: row.AccountID,
		Date:      core.ParseDate(row.Date, time.Now()),
		Balance:   core.Money{Cents: row.BalanceCents},
		CreatedAt: createdAt,
	}
}

func statementToRow(s core.AccountStatement) StatementRow {
	return StatementRow{
		ID:           s.ID,
		AccountID:    s.AccountID,
		Date:         s.Date.ISO(),
		BalanceCents: s.Balance.Cents,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func seriesRunFromRow(row RecurringSeriesRow) core.SeriesRun {
	sr := core.SeriesRun{
		Series: core.RecurringSeries{
			ID:          row.ID,
			StartDate:   core.ParseDate(row.StartDate, time.Now()),
			Every:       core.Frequency(row.Frequency),
			Amount:      core.Money{Cents: row.AmountCents},
			Category:    row.Category,
			Description: row.Description,
		},
	}
	if row.EndDate.Valid {
		sr.Series.EndDate = core.ParseDate(row.EndDate.String, time.Now())
	}
	if row.LastRun.Valid {
		sr.LastRun = core.ParseDate(row.LastRun.String, time.Now())
	}
	return sr
}
