package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/core"
)

// LedgerService orchestrates ledger mutations: it writes through the store,
// invalidates affected pivot snapshots and notifies the snapshot worker.
// Notification failures never fail the mutation, the periodic sweep catches
// up.
type LedgerService struct {
	store      backend.Backend
	amqpClient *amqp.Client
	cleanup    backend.CleanupFunc
}

func NewLedgerService(store backend.Backend, amqpClient *amqp.Client, cleanup backend.CleanupFunc) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
		cleanup:    cleanup,
	}
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// CreateTransactions validates and inserts a batch. Transactions without a
// state start out planned.
func (s *LedgerService) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]string, error) {
	for i := range txs {
		if txs[i].State == "" {
			txs[i].State = core.StatePlanned
		}
		if err := txs[i].Validate(); err != nil {
			return nil, fmt.Errorf("validate transaction: %w", err)
		}
	}

	ids, err := s.store.CreateTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	s.invalidate(ctx, touchedMonths(txs), "transactions_created")
	return ids, nil
}

// ImportTransactions inserts historical rows. Imported rows are stamped with
// the import origin so past-month totals count them regardless of state,
// and they default to done.
func (s *LedgerService) ImportTransactions(ctx context.Context, txs []core.Transaction) ([]string, error) {
	for i := range txs {
		txs[i].Origin = core.OriginImport
		if txs[i].State == "" {
			txs[i].State = core.StateDone
		}
		if err := txs[i].Validate(); err != nil {
			return nil, fmt.Errorf("validate imported transaction: %w", err)
		}
	}

	ids, err := s.store.CreateTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("import transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transactions imported", "count", len(ids))

	s.invalidate(ctx, touchedMonths(txs), "transactions_imported")
	return ids, nil
}

// UpdateTransaction applies a partial update. The pre-update month is not
// known here, so every snapshot is invalidated.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) error {
	if err := s.store.UpdateTransaction(ctx, id, patch); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "transaction_updated")
	return nil
}

func (s *LedgerService) UpdateTransactions(ctx context.Context, ids []string, patch core.TransactionPatch) error {
	if err := s.store.UpdateTransactions(ctx, ids, patch); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "transactions_updated")
	return nil
}

func (s *LedgerService) DeleteTransactions(ctx context.Context, ids []string) error {
	if err := s.store.DeleteTransactions(ctx, ids); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "transactions_deleted")
	return nil
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("validate category: %w", err)
	}

	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return "", err
	}

	s.invalidate(ctx, nil, "category_created")
	return id, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id string, patch core.CategoryPatch) error {
	if err := s.store.UpdateCategory(ctx, id, patch); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "category_updated")
	return nil
}

func (s *LedgerService) ReorderCategories(ctx context.Context, moves []core.CategoryMove) error {
	if err := s.store.ReorderCategories(ctx, moves); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "categories_reordered")
	return nil
}

func (s *LedgerService) ListStatements(ctx context.Context) ([]core.AccountStatement, error) {
	return s.store.ListStatements(ctx)
}

func (s *LedgerService) CreateStatement(ctx context.Context, st core.AccountStatement) (string, error) {
	if err := st.Validate(); err != nil {
		return "", fmt.Errorf("validate statement: %w", err)
	}

	id, err := s.store.CreateStatement(ctx, st)
	if err != nil {
		return "", err
	}

	s.invalidate(ctx, []string{st.Date.MonthKey()}, "statement_created")
	return id, nil
}

func (s *LedgerService) UpdateStatement(ctx context.Context, id string, patch core.StatementPatch) error {
	if err := s.store.UpdateStatement(ctx, id, patch); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "statement_updated")
	return nil
}

func (s *LedgerService) DeleteStatement(ctx context.Context, id string) error {
	if err := s.store.DeleteStatement(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, nil, "statement_deleted")
	return nil
}

// invalidate marks affected snapshots stale and notifies the worker. Both
// steps are log-and-continue: the periodic sweep recovers missed windows.
func (s *LedgerService) invalidate(ctx context.Context, months []string, reason string) {
	if err := s.store.MarkSnapshotsStale(ctx, months); err != nil {
		slog.ErrorContext(ctx, "Failed to mark snapshots stale",
			"months", months, "reason", reason, "error", err)
	}

	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerChanged(ctx, months, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger changed message",
			"months", months, "reason", reason, "error", err)
	}
}

// Close closes the store and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.cleanup != nil {
		if err := s.cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}

func touchedMonths(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	var months []string
	for _, t := range txs {
		key := t.Date.MonthKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	sort.Strings(months)
	return months
}
