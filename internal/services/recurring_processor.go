package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/backend"
	"tally/internal/core"
)

// OriginRecurring marks transactions instantiated from a recurring series.
const OriginRecurring = "recurring"

// RecurringProcessor instantiates planned transactions from recurring
// series templates.
type RecurringProcessor struct {
	recurring backend.RecurringStore
	ledger    *LedgerService
}

func NewRecurringProcessor(recurring backend.RecurringStore, ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		recurring: recurring,
		ledger:    ledger,
	}
}

// ProcessDueSeries instantiates every due occurrence of every series and
// returns how many transactions were created. One broken series never stops
// the others.
func (p *RecurringProcessor) ProcessDueSeries(ctx context.Context, now time.Time) (int, error) {
	if p.recurring == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	seriesRuns, err := p.recurring.ListRecurringSeries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring series: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring series",
		"total", len(seriesRuns),
		"processing_date", now.Format("2006-01-02"))

	created := 0

	for _, sr := range seriesRuns {
		due, err := DueOccurrences(sr.Series, sr.LastRun, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to schedule recurring series",
				"id", sr.Series.ID,
				"error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		txs := make([]core.Transaction, len(due))
		for i, date := range due {
			txs[i] = core.Transaction{
				Date:        date,
				State:       core.StatePlanned,
				Amount:      sr.Series.Amount,
				Category:    sr.Series.Category,
				Origin:      OriginRecurring,
				Description: sr.Series.Description,
			}
		}

		if _, err := p.ledger.CreateTransactions(ctx, txs); err != nil {
			slog.ErrorContext(ctx, "Failed to create transactions from recurring series",
				"id", sr.Series.ID,
				"description", sr.Series.Description,
				"error", err)
			continue
		}

		lastRun := due[len(due)-1]
		if err := p.recurring.MarkSeriesRun(ctx, sr.Series.ID, lastRun); err != nil {
			slog.ErrorContext(ctx, "Failed to update series last run",
				"id", sr.Series.ID,
				"error", err)
			// Transactions were created, the next run may duplicate them.
		}

		created += len(txs)
		slog.InfoContext(ctx, "Created transactions from recurring series",
			"id", sr.Series.ID,
			"description", sr.Series.Description,
			"amount_cents", sr.Series.Amount.Cents,
			"frequency", string(sr.Series.Every),
			"count", len(txs))
	}

	return created, nil
}

// CreateSeries validates and persists a new recurring series.
func (p *RecurringProcessor) CreateSeries(ctx context.Context, rs core.RecurringSeries) (string, error) {
	if err := rs.Validate(); err != nil {
		return "", fmt.Errorf("validate recurring series: %w", err)
	}
	return p.recurring.CreateRecurringSeries(ctx, rs)
}

// ListSeries returns every series together with its last instantiation date.
func (p *RecurringProcessor) ListSeries(ctx context.Context) ([]core.SeriesRun, error) {
	return p.recurring.ListRecurringSeries(ctx)
}
