package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tally/internal/core"
)

type statementJSON struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	Date         string `json:"date"`
	Balance      string `json:"balance"`
	BalanceCents int64  `json:"balance_cents"`
	CreatedAt    string `json:"created_at"`
}

func toStatementJSON(st core.AccountStatement) statementJSON {
	return statementJSON{
		ID:           st.ID,
		AccountID:    st.AccountID,
		Date:         st.Date.ISO(),
		Balance:      st.Balance.String(),
		BalanceCents: st.Balance.Cents,
		CreatedAt:    st.CreatedAt.Format(time.RFC3339),
	}
}

type statementRequest struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
	Balance   string `json:"balance"`
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	stmts, err := s.ledger.ListStatements(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List statements failed", "error", err)
		writeStoreError(w, err)
		return
	}

	out := make([]statementJSON, len(stmts))
	for i, st := range stmts {
		out[i] = toStatementJSON(st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"statements": out})
}

func (s *Server) handleCreateStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q", req.Date))
		return
	}
	// Zero balances are allowed; an account can genuinely be empty.
	cents, err := core.ParseDecimalToCents(req.Balance)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid balance %q", req.Balance))
		return
	}

	id, err := s.ledger.CreateStatement(r.Context(), core.AccountStatement{
		AccountID: sanitizeInput(req.AccountID),
		Date:      date,
		Balance:   core.Money{Cents: cents},
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create statement failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

type statementPatchRequest struct {
	AccountID *string `json:"account_id"`
	Date      *string `json:"date"`
	Balance   *string `json:"balance"`
}

func (s *Server) handlePatchStatement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req statementPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var patch core.StatementPatch
	if req.AccountID != nil {
		account := sanitizeInput(*req.AccountID)
		if account == "" {
			writeError(w, http.StatusBadRequest, "account id must not be empty")
			return
		}
		patch.AccountID = &account
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q", *req.Date))
			return
		}
		patch.Date = &date
	}
	if req.Balance != nil {
		cents, err := core.ParseDecimalToCents(*req.Balance)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid balance %q", *req.Balance))
			return
		}
		patch.BalanceCents = &cents
	}

	if err := s.ledger.UpdateStatement(r.Context(), id, patch); err != nil {
		slog.ErrorContext(r.Context(), "Patch statement failed", "id", id, "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *Server) handleDeleteStatement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.ledger.DeleteStatement(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete statement failed", "id", id, "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}
