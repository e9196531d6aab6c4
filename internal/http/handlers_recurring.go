package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

type recurringSeriesJSON struct {
	ID          string `json:"id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Frequency   string `json:"frequency"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
	LastRun     string `json:"last_run,omitempty"`
}

func toRecurringSeriesJSON(sr core.SeriesRun) recurringSeriesJSON {
	out := recurringSeriesJSON{
		ID:          sr.Series.ID,
		StartDate:   sr.Series.StartDate.ISO(),
		Frequency:   string(sr.Series.Every),
		Amount:      sr.Series.Amount.String(),
		AmountCents: sr.Series.Amount.Cents,
		Category:    sr.Series.Category,
		Description: sr.Series.Description,
	}
	if !sr.Series.EndDate.IsZero() {
		out.EndDate = sr.Series.EndDate.ISO()
	}
	if !sr.LastRun.IsZero() {
		out.LastRun = sr.LastRun.ISO()
	}
	return out
}

type recurringSeriesRequest struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Frequency   string `json:"frequency"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (req recurringSeriesRequest) toSeries() (core.RecurringSeries, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return core.RecurringSeries{}, fmt.Errorf("invalid start date %q", req.StartDate)
	}

	var endDate core.Date
	if req.EndDate != "" {
		endDate, err = parseDate(req.EndDate)
		if err != nil {
			return core.RecurringSeries{}, fmt.Errorf("invalid end date %q", req.EndDate)
		}
	}

	cents, err := core.ParseSignedDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringSeries{}, fmt.Errorf("invalid amount %q", req.Amount)
	}

	return core.RecurringSeries{
		StartDate:   startDate,
		EndDate:     endDate,
		Every:       core.Frequency(req.Frequency),
		Amount:      core.Money{Cents: cents},
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
	}, nil
}

func (s *Server) handleListRecurringSeries(w http.ResponseWriter, r *http.Request) {
	runs, err := s.recurring.ListSeries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List recurring series failed", "error", err)
		writeStoreError(w, err)
		return
	}

	out := make([]recurringSeriesJSON, len(runs))
	for i, sr := range runs {
		out[i] = toRecurringSeriesJSON(sr)
	}
	writeJSON(w, http.StatusOK, map[string]any{"series": out})
}

func (s *Server) handleCreateRecurringSeries(w http.ResponseWriter, r *http.Request) {
	var req recurringSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	series, err := req.toSeries()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := series.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.recurring.CreateSeries(r.Context(), series)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create recurring series failed", "error", err)
		writeStoreError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Recurring series created",
		"id", id, "description", series.Description)

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}
