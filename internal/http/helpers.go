package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
)

// parseWindowParams extracts the visible year and month offset from query
// parameters. Missing values default to the current year with no offset.
func parseWindowParams(r *http.Request) (visibleYear, monthOffset int, err error) {
	visibleYear = time.Now().Year()
	monthOffset = 0

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		visibleYear, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year: %s", v)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		monthOffset, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid offset: %s", v)
		}
	}

	return visibleYear, monthOffset, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
