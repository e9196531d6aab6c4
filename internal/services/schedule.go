// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring series
// scheduling. Each frequency type (daily, weekly, monthly, yearly) has its
// own strategy producing the next occurrence date.
package services

import (
	"fmt"
	"time"

	"tally/internal/core"
)

// maxOccurrences bounds a single catch-up run so a series with a far-past
// start date cannot flood the ledger.
const maxOccurrences = 1000

// ScheduleStrategy yields occurrence dates for one frequency type.
type ScheduleStrategy interface {
	// Next returns the occurrence following prev for a series anchored at
	// start. prev is always a previously returned occurrence or the zero
	// date, in which case the first occurrence (start itself) is returned.
	Next(start, prev core.Date) core.Date
}

type DailyStrategy struct{}

func (DailyStrategy) Next(start, prev core.Date) core.Date {
	if prev.IsZero() {
		return start
	}
	return core.Date{Time: prev.AddDate(0, 0, 1)}
}

type WeeklyStrategy struct{}

func (WeeklyStrategy) Next(start, prev core.Date) core.Date {
	if prev.IsZero() {
		return start
	}
	return core.Date{Time: prev.AddDate(0, 0, 7)}
}

type MonthlyStrategy struct{}

// Next anchors to the start day of month, clamped to shorter months.
func (MonthlyStrategy) Next(start, prev core.Date) core.Date {
	if prev.IsZero() {
		return start
	}
	return anchoredDate(prev.Year(), prev.Month()+1, start.Day())
}

type YearlyStrategy struct{}

// Next anchors to the start month and day, clamping Feb 29 on common years.
func (YearlyStrategy) Next(start, prev core.Date) core.Date {
	if prev.IsZero() {
		return start
	}
	return anchoredDate(prev.Year()+1, start.Month(), start.Day())
}

// anchoredDate builds a date with the day clamped to the month's length
// instead of letting time.Date roll it over.
func anchoredDate(year int, month time.Month, day int) core.Date {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(year, int(month), day)
}

// scheduleStrategies maps frequencies to their corresponding strategies.
var scheduleStrategies = map[core.Frequency]ScheduleStrategy{
	core.Daily:   DailyStrategy{},
	core.Weekly:  WeeklyStrategy{},
	core.Monthly: MonthlyStrategy{},
	core.Yearly:  YearlyStrategy{},
}

// GetScheduleStrategy returns the strategy for a frequency. Returns an
// error if the frequency is not supported.
func GetScheduleStrategy(frequency core.Frequency) (ScheduleStrategy, error) {
	strategy, ok := scheduleStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return strategy, nil
}

// DueOccurrences returns, oldest first, the occurrence dates of a series
// that fall after lastRun, on or before now, and inside the series'
// start/end bounds.
func DueOccurrences(series core.RecurringSeries, lastRun core.Date, now time.Time) ([]core.Date, error) {
	strategy, err := GetScheduleStrategy(series.Every)
	if err != nil {
		return nil, err
	}

	today := core.NewDate(now.Year(), int(now.Month()), now.Day())

	var due []core.Date
	prev := core.Date{}
	for len(due) < maxOccurrences {
		next := strategy.Next(series.StartDate, prev)
		if next.After(today.Time) {
			break
		}
		if !series.EndDate.IsZero() && next.After(series.EndDate.Time) {
			break
		}
		if lastRun.IsZero() || next.After(lastRun.Time) {
			due = append(due, next)
		}
		prev = next
	}

	return due, nil
}
