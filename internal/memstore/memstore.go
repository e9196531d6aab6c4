// Package memstore is an in-memory backend used by the dev profile and by
// tests. Ordering matches the SQLite backend so the two are interchangeable.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
)

type Store struct {
	mu         sync.Mutex
	txs        map[string]core.Transaction
	cats       map[string]core.Category
	stmts      map[string]core.AccountStatement
	series     map[string]core.SeriesRun
	snapshots  map[string]core.Snapshot
	seriesSeen []string
}

func New() *Store {
	return &Store{
		txs:       map[string]core.Transaction{},
		cats:      map[string]core.Category{},
		stmts:     map[string]core.AccountStatement{},
		series:    map[string]core.SeriesRun{},
		snapshots: map[string]core.Snapshot{},
	}
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateTransactions(_ context.Context, txs []core.Transaction) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(txs))
	for i, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		ids[i] = t.ID
		s.txs[t.ID] = t
	}
	return ids, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, patch core.TransactionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchTransaction(id, patch)
}

func (s *Store) UpdateTransactions(_ context.Context, ids []string, patch core.TransactionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if err := s.patchTransaction(id, patch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) patchTransaction(id string, patch core.TransactionPatch) error {
	t, ok := s.txs[id]
	if !ok {
		return core.ErrNotFound
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.State != nil {
		t.State = *patch.State
	}
	if patch.AmountCents != nil {
		t.Amount = core.Money{Cents: *patch.AmountCents}
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Origin != nil {
		t.Origin = *patch.Origin
	}
	if patch.Archived != nil {
		t.Archived = *patch.Archived
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	s.txs[id] = t
	return nil
}

func (s *Store) DeleteTransactions(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.txs[id]; ok {
			delete(s.txs, id)
			deleted++
		}
	}
	if deleted == 0 && len(ids) > 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.cats[c.ID] = c
	return c.ID, nil
}

func (s *Store) UpdateCategory(_ context.Context, id string, patch core.CategoryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cats[id]
	if !ok {
		return core.ErrNotFound
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.ParentID != nil {
		if *patch.ParentID == "" {
			c.ParentID = nil
		} else {
			parent := *patch.ParentID
			c.ParentID = &parent
		}
	}
	if patch.SortOrder != nil {
		if *patch.SortOrder < 0 {
			c.SortOrder = nil
		} else {
			order := *patch.SortOrder
			c.SortOrder = &order
		}
	}
	s.cats[id] = c
	return nil
}

func (s *Store) ReorderCategories(_ context.Context, moves []core.CategoryMove) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range moves {
		c, ok := s.cats[m.ID]
		if !ok {
			return core.ErrNotFound
		}
		c.ParentID = nil
		if m.ParentID != nil && *m.ParentID != "" {
			parent := *m.ParentID
			c.ParentID = &parent
		}
		c.SortOrder = nil
		if m.SortOrder != nil {
			order := *m.SortOrder
			c.SortOrder = &order
		}
		s.cats[m.ID] = c
	}
	return nil
}

func (s *Store) ListStatements(_ context.Context) ([]core.AccountStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.AccountStatement, 0, len(s.stmts))
	for _, st := range s.stmts {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateStatement(_ context.Context, st core.AccountStatement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	s.stmts[st.ID] = st
	return st.ID, nil
}

func (s *Store) UpdateStatement(_ context.Context, id string, patch core.StatementPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stmts[id]
	if !ok {
		return core.ErrNotFound
	}
	if patch.AccountID != nil {
		st.AccountID = *patch.AccountID
	}
	if patch.Date != nil {
		st.Date = *patch.Date
	}
	if patch.BalanceCents != nil {
		st.Balance = core.Money{Cents: *patch.BalanceCents}
	}
	s.stmts[id] = st
	return nil
}

func (s *Store) DeleteStatement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stmts[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.stmts, id)
	return nil
}

func (s *Store) ListRecurringSeries(_ context.Context) ([]core.SeriesRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.SeriesRun, 0, len(s.seriesSeen))
	for _, id := range s.seriesSeen {
		out = append(out, s.series[id])
	}
	return out, nil
}

func (s *Store) CreateRecurringSeries(_ context.Context, rs core.RecurringSeries) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rs.ID == "" {
		rs.ID = uuid.NewString()
	}
	s.series[rs.ID] = core.SeriesRun{Series: rs}
	s.seriesSeen = append(s.seriesSeen, rs.ID)
	return rs.ID, nil
}

func (s *Store) MarkSeriesRun(_ context.Context, id string, ran core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.series[id]
	if !ok {
		return core.ErrNotFound
	}
	sr.LastRun = ran
	s.series[id] = sr
	return nil
}

func (s *Store) GetSnapshot(_ context.Context, windowKey string) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[windowKey]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := snap
	out.Payload = append([]byte(nil), snap.Payload...)
	return &out, nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Payload = append([]byte(nil), snap.Payload...)
	snap.Stale = false
	if snap.ComputedAt.IsZero() {
		snap.ComputedAt = time.Now().UTC()
	}
	s.snapshots[snap.WindowKey] = snap
	return nil
}

func (s *Store) MarkSnapshotsStale(_ context.Context, monthKeys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, snap := range s.snapshots {
		if len(monthKeys) == 0 {
			snap.Stale = true
			s.snapshots[key] = snap
			continue
		}
		// Running balances carry forward, so any month at or before the
		// window's end stales it.
		for _, month := range monthKeys {
			if snap.ToMonth >= month {
				snap.Stale = true
				s.snapshots[key] = snap
				break
			}
		}
	}
	return nil
}

func (s *Store) ListStaleWindows(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key, snap := range s.snapshots {
		if snap.Stale {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}
