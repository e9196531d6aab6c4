package pivot

import "time"

// WindowSize is the number of month columns in the visible window.
const WindowSize = 12

// Column is one month-wide bucket of the visible window. Key is the YYYY-MM
// string used as map key throughout the report; Label is the display form.
type Column struct {
	Date  time.Time `json:"date"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
}

// monthStart truncates a time to the first day of its month at midnight UTC.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// parseMonthKey is the inverse of monthKey. Unknown input yields the zero
// time; callers treat that as "no month".
func parseMonthKey(key string) time.Time {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}
	}
	return t
}

// VisibleColumns builds the 12 columns of the window anchored at January of
// visibleYear and shifted by monthOffset months. time.Date normalizes
// out-of-range months, so offsets may cross year boundaries in either
// direction.
func VisibleColumns(visibleYear, monthOffset int) []Column {
	cols := make([]Column, 0, WindowSize)
	for i := 0; i < WindowSize; i++ {
		d := time.Date(visibleYear, time.Month(1+monthOffset+i), 1, 0, 0, 0, 0, time.UTC)
		cols = append(cols, Column{
			Date:  d,
			Key:   monthKey(d),
			Label: d.Format("January 2006"),
		})
	}
	return cols
}
