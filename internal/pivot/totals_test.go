package pivot

import (
	"testing"
	"time"
)

func TestDenseCumulativeZeroFillsGaps(t *testing.T) {
	byKey := map[string]int64{
		"2023-11": 100,
		"2024-02": -40,
	}
	from := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	dense := denseCumulative(byKey, from, to)

	want := map[string]int64{
		"2023-11": 100,
		"2023-12": 100,
		"2024-01": 100,
		"2024-02": 60,
		"2024-03": 60,
	}
	if len(dense) != len(want) {
		t.Fatalf("dense has %d months, want %d", len(dense), len(want))
	}
	for key, w := range want {
		if dense[key] != w {
			t.Errorf("dense[%q] = %d, want %d", key, dense[key], w)
		}
	}
}

func TestDenseCumulativeEmptyRange(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if dense := denseCumulative(map[string]int64{}, from, to); len(dense) != 0 {
		t.Errorf("dense = %v, want empty when from is after to", dense)
	}
}

func TestOldestMonth(t *testing.T) {
	byKey := map[string]int64{
		"2024-04": 1,
		"2022-12": 2,
		"2023-06": 3,
	}

	got := oldestMonth(byKey)
	want := time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("oldestMonth() = %v, want %v", got, want)
	}

	if got := oldestMonth(nil); !got.IsZero() {
		t.Errorf("oldestMonth(nil) = %v, want zero time", got)
	}
}
