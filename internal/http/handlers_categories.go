package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

type categoryJSON struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id,omitempty"`
	SortOrder *int64  `json:"sort_order,omitempty"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		Name:      c.Name,
		ParentID:  c.ParentID,
		SortOrder: c.SortOrder,
	}
}

type categoryRequest struct {
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id"`
	SortOrder *int64  `json:"sort_order"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		writeStoreError(w, err)
		return
	}

	out := make([]categoryJSON, len(cats))
	for i, c := range cats {
		out[i] = toCategoryJSON(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id, err := s.ledger.CreateCategory(r.Context(), core.Category{
		Name:      sanitizeInput(req.Name),
		ParentID:  req.ParentID,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

type categoryPatchRequest struct {
	Name      *string `json:"name"`
	ParentID  *string `json:"parent_id"`
	SortOrder *int64  `json:"sort_order"`
}

func (s *Server) handlePatchCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req categoryPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	patch := core.CategoryPatch{
		ParentID:  req.ParentID,
		SortOrder: req.SortOrder,
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "category name must not be empty")
			return
		}
		patch.Name = &name
	}

	if err := s.ledger.UpdateCategory(r.Context(), id, patch); err != nil {
		slog.ErrorContext(r.Context(), "Patch category failed", "id", id, "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

type categoryMoveJSON struct {
	ID        string  `json:"id"`
	ParentID  *string `json:"parent_id"`
	SortOrder *int64  `json:"sort_order"`
}

type reorderRequest struct {
	Moves []categoryMoveJSON `json:"moves"`
}

func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Moves) == 0 {
		writeError(w, http.StatusBadRequest, "no moves")
		return
	}

	moves := make([]core.CategoryMove, len(req.Moves))
	for i, m := range req.Moves {
		if m.ID == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("move %d missing id", i))
			return
		}
		moves[i] = core.CategoryMove{ID: m.ID, ParentID: m.ParentID, SortOrder: m.SortOrder}
	}

	if err := s.ledger.ReorderCategories(r.Context(), moves); err != nil {
		slog.ErrorContext(r.Context(), "Reorder categories failed", "error", err)
		writeStoreError(w, err)
		return
	}

	s.invalidatePivotCache()
	writeJSON(w, http.StatusOK, map[string]any{"reordered": len(moves)})
}
