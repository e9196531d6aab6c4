package http

import (
	"net/http"

	applog "tally/internal/log"
	"tally/internal/services"
)

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	visibleYear, monthOffset, err := parseWindowParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := services.WindowKey(visibleYear, monthOffset)
	if data, ok := s.pivotCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	data, err := s.reports.Pivot(r.Context(), visibleYear, monthOffset)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Pivot computation failed",
			applog.FieldYear, visibleYear,
			applog.FieldMonthOffset, monthOffset,
			applog.FieldError, err)
		writeStoreError(w, err)
		return
	}

	s.pivotCache.Set(cacheKey, data)
	writeJSON(w, http.StatusOK, data)
}
