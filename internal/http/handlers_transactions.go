package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

// transactionJSON is the wire shape of a transaction. Amount travels as a
// signed decimal string, amount_cents as the exact integer.
type transactionJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	State       string `json:"state"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
	Description string `json:"description,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Date:        t.Date.ISO(),
		State:       string(t.State),
		Amount:      t.Amount.String(),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Origin:      t.Origin,
		Archived:    t.Archived,
		Description: t.Description,
	}
}

// transactionRequest is a create payload. Amount accepts "12.34" or
// "-12,34"; state defaults to planned.
type transactionRequest struct {
	Date        string `json:"date"`
	State       string `json:"state"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Origin      string `json:"origin"`
	Archived    bool   `json:"archived"`
	Description string `json:"description"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q", req.Date)
	}

	cents, err := core.ParseSignedDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q", req.Amount)
	}

	// An empty state is allowed here; the ledger fills in the default,
	// which differs between create and import.
	state := core.TransactionState(req.State)
	if req.State != "" && !state.Valid() {
		return core.Transaction{}, fmt.Errorf("invalid state %q", req.State)
	}

	return core.Transaction{
		Date:        date,
		State:       state,
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(req.Category),
		Origin:      sanitizeInput(req.Origin),
		Archived:    req.Archived,
		Description: sanitizeInput(req.Description),
	}, nil
}

// decodeTransactionBatch accepts either a single transaction object or an
// array of them.
func decodeTransactionBatch(body io.Reader) ([]core.Transaction, error) {
	raw, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	var reqs []transactionRequest
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	} else {
		var single transactionRequest
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		reqs = []transactionRequest{single}
	}

	if len(reqs) == 0 {
		return nil, fmt.Errorf("empty transaction batch")
	}

	txs := make([]core.Transaction, len(reqs))
	for i, req := range reqs {
		tx, err := req.toTransaction()
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	return txs, nil
}

// transactionPatchRequest carries a partial update. Absent fields stay
// untouched; category and origin use the empty string to clear.
type transactionPatchRequest struct {
	Date        *string `json:"date"`
	State       *string `json:"state"`
	Amount      *string `json:"amount"`
	Category    *string `json:"category"`
	Origin      *string `json:"origin"`
	Archived    *bool   `json:"archived"`
	Description *string `json:"description"`
}

func (req transactionPatchRequest) toPatch() (core.TransactionPatch, error) {
	var patch core.TransactionPatch

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return patch, fmt.Errorf("invalid date %q", *req.Date)
		}
		patch.Date = &date
	}
	if req.State != nil {
		state := core.TransactionState(*req.State)
		if !state.Valid() {
			return patch, fmt.Errorf("invalid state %q", *req.State)
		}
		patch.State = &state
	}
	if req.Amount != nil {
		cents, err := core.ParseSignedDecimalToCents(*req.Amount)
		if err != nil {
			return patch, fmt.Errorf("invalid amount %q", *req.Amount)
		}
		patch.AmountCents = &cents
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		patch.Category = &category
	}
	if req.Origin != nil {
		origin := sanitizeInput(*req.Origin)
		patch.Origin = &origin
	}
	patch.Archived = req.Archived
	if req.Description != nil {
		description := sanitizeInput(*req.Description)
		patch.Description = &description
	}

	return patch, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeStoreError(w, err)
		return
	}

	out := make([]transactionJSON, len(txs))
	for i, t := range txs {
		out[i] = toTransactionJSON(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleCreateTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := decodeTransactionBatch(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := s.ledger.CreateTransactions(r.Context(), txs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transactions failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := decodeTransactionBatch(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := s.ledger.ImportTransactions(r.Context(), txs)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import transactions failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

type bulkUpdateRequest struct {
	IDs   []string                `json:"ids"`
	Patch transactionPatchRequest `json:"patch"`
}

func (s *Server) handleUpdateTransactions(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no transaction ids")
		return
	}

	patch, err := req.Patch.toPatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UpdateTransactions(r.Context(), req.IDs, patch); err != nil {
		slog.ErrorContext(r.Context(), "Update transactions failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"updated": len(req.IDs)})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no transaction ids")
		return
	}

	if err := s.ledger.DeleteTransactions(r.Context(), req.IDs); err != nil {
		slog.ErrorContext(r.Context(), "Delete transactions failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"deleted": len(req.IDs)})
}

func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req transactionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UpdateTransaction(r.Context(), id, patch); err != nil {
		slog.ErrorContext(r.Context(), "Patch transaction failed", "id", id, "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}
