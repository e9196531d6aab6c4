package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tally/internal/backend"
	"tally/internal/core"
	"tally/internal/pivot"
)

// ReportService serves pivot reports. Fresh persisted snapshots are returned
// as-is; anything else is recomputed from the ledger and saved back.
type ReportService struct {
	store backend.Backend
	now   func() time.Time
}

func NewReportService(store backend.Backend) *ReportService {
	return &ReportService{
		store: store,
		now:   time.Now,
	}
}

// WindowKey returns the snapshot key for a visible window.
func WindowKey(visibleYear, monthOffset int) string {
	return fmt.Sprintf("%d:%d", visibleYear, monthOffset)
}

// ParseWindowKey is the inverse of WindowKey.
func ParseWindowKey(key string) (visibleYear, monthOffset int, err error) {
	yearPart, offsetPart, ok := strings.Cut(key, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed window key: %s", key)
	}
	visibleYear, err = strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed window key year: %s", key)
	}
	monthOffset, err = strconv.Atoi(offsetPart)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed window key offset: %s", key)
	}
	return visibleYear, monthOffset, nil
}

// Pivot returns the report for one visible window, serving a fresh snapshot
// when one exists.
func (s *ReportService) Pivot(ctx context.Context, visibleYear, monthOffset int) (pivot.Data, error) {
	key := WindowKey(visibleYear, monthOffset)

	snap, err := s.store.GetSnapshot(ctx, key)
	if err == nil && !snap.Stale {
		var data pivot.Data
		if err := json.Unmarshal(snap.Payload, &data); err == nil {
			slog.DebugContext(ctx, "Serving pivot snapshot", "window_key", key)
			return data, nil
		}
		slog.WarnContext(ctx, "Failed to decode pivot snapshot, recomputing", "window_key", key)
	} else if err != nil && !errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Failed to load pivot snapshot, recomputing",
			"window_key", key, "error", err)
	}

	return s.Recompute(ctx, visibleYear, monthOffset)
}

// Recompute rebuilds the report from the ledger and persists it as the
// window's snapshot. Persistence failures only cost a cache hit.
func (s *ReportService) Recompute(ctx context.Context, visibleYear, monthOffset int) (pivot.Data, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return pivot.Data{}, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return pivot.Data{}, fmt.Errorf("list categories: %w", err)
	}
	stmts, err := s.store.ListStatements(ctx)
	if err != nil {
		return pivot.Data{}, fmt.Errorf("list statements: %w", err)
	}

	data := pivot.Compute(txs, cats, stmts, visibleYear, monthOffset, s.now())

	payload, err := json.Marshal(data)
	if err != nil {
		return pivot.Data{}, fmt.Errorf("encode pivot data: %w", err)
	}

	key := WindowKey(visibleYear, monthOffset)
	snap := backendSnapshot(key, data, payload)
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		slog.WarnContext(ctx, "Failed to save pivot snapshot",
			"window_key", key, "error", err)
	}

	return data, nil
}

// RecomputeStale recomputes up to limit stale windows and returns how many
// were refreshed.
func (s *ReportService) RecomputeStale(ctx context.Context, limit int) (int, error) {
	keys, err := s.store.ListStaleWindows(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale windows: %w", err)
	}

	refreshed := 0
	for _, key := range keys {
		visibleYear, monthOffset, err := ParseWindowKey(key)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping malformed stale window", "window_key", key, "error", err)
			continue
		}
		if _, err := s.Recompute(ctx, visibleYear, monthOffset); err != nil {
			return refreshed, fmt.Errorf("recompute window %s: %w", key, err)
		}
		refreshed++
	}

	return refreshed, nil
}

func backendSnapshot(key string, data pivot.Data, payload []byte) core.Snapshot {
	snap := core.Snapshot{
		WindowKey: key,
		Payload:   payload,
	}
	if len(data.Columns) > 0 {
		snap.FromMonth = data.Columns[0].Key
		snap.ToMonth = data.Columns[len(data.Columns)-1].Key
	}
	return snap
}
