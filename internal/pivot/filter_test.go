package pivot

import (
	"testing"
	"time"

	"tally/internal/core"
)

func TestInclude(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	currentKey := "2024-06"

	tests := []struct {
		name string
		tx   core.Transaction
		want bool
	}{
		{
			name: "past month done",
			tx:   core.Transaction{Date: core.NewDate(2024, 3, 5), State: core.StateDone},
			want: true,
		},
		{
			name: "past month planned",
			tx:   core.Transaction{Date: core.NewDate(2024, 3, 5), State: core.StatePlanned},
			want: false,
		},
		{
			name: "past month planned but archived",
			tx:   core.Transaction{Date: core.NewDate(2024, 3, 5), State: core.StatePlanned, Archived: true},
			want: true,
		},
		{
			name: "past month planned but imported",
			tx:   core.Transaction{Date: core.NewDate(2024, 3, 5), State: core.StatePlanned, Origin: core.OriginImport},
			want: true,
		},
		{
			name: "current month planned",
			tx:   core.Transaction{Date: core.NewDate(2024, 6, 15), State: core.StatePlanned},
			want: true,
		},
		{
			name: "current month done falls in neither branch",
			tx:   core.Transaction{Date: core.NewDate(2024, 6, 15), State: core.StateDone},
			want: false,
		},
		{
			name: "future month planned",
			tx:   core.Transaction{Date: core.NewDate(2024, 9, 1), State: core.StatePlanned},
			want: true,
		},
		{
			name: "future month done falls in neither branch",
			tx:   core.Transaction{Date: core.NewDate(2024, 9, 1), State: core.StateDone},
			want: false,
		},
		{
			name: "future month archived done still excluded",
			tx:   core.Transaction{Date: core.NewDate(2024, 9, 1), State: core.StateDone, Archived: true},
			want: false,
		},
		{
			name: "last day of previous month done",
			tx:   core.Transaction{Date: core.NewDate(2024, 5, 31), State: core.StateDone},
			want: true,
		},
		{
			name: "zero date treated as current month planned",
			tx:   core.Transaction{State: core.StatePlanned},
			want: true,
		},
		{
			name: "zero date treated as current month done",
			tx:   core.Transaction{State: core.StateDone},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Include(tt.tx, currentKey, now); got != tt.want {
				t.Errorf("Include() = %v, want %v", got, tt.want)
			}
		})
	}
}
