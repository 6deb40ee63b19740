package services

import (
	"time"

	"moneta/internal/models"
)

// DateOnly normalizes a timestamp to UTC midnight. All due dates and the
// reconciliation boundaries are compared at day granularity.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// GenerateDueDates expands a recurring definition into its ordered due
// dates. Pure function of its inputs: no store access, no side effects,
// restartable.
//
// Dates are yielded from the definition's start date while strictly before
// the horizon and not after the end date (when set). A monthly day beyond
// the length of a month clamps to that month's last day, so a day-31
// definition fires on Feb 28 (29 in leap years) instead of skipping the
// month.
func GenerateDueDates(def models.RecurringDefinition, horizon time.Time) []time.Time {
	start := DateOnly(def.StartDate)
	horizon = DateOnly(horizon)

	var end *time.Time
	if def.EndDate != nil {
		e := DateOnly(*def.EndDate)
		end = &e
	}

	switch def.Frequency {
	case models.FrequencyWeekly:
		return weeklyDueDates(def, start, horizon, end)
	case models.FrequencyMonthly:
		return monthlyDueDates(def, start, horizon, end)
	}
	return nil
}

func weeklyDueDates(def models.RecurringDefinition, start, horizon time.Time, end *time.Time) []time.Time {
	// Default to the start date's weekday when none is given.
	weekday := int(start.Weekday())
	if def.DayOfWeek != nil {
		weekday = *def.DayOfWeek
	}

	// Align to the first occurrence of the weekday at or after the start.
	cursor := start.AddDate(0, 0, (weekday-int(start.Weekday())+7)%7)

	var dates []time.Time
	for cursor.Before(horizon) && (end == nil || !cursor.After(*end)) {
		dates = append(dates, cursor)
		cursor = cursor.AddDate(0, 0, 7)
	}
	return dates
}

func monthlyDueDates(def models.RecurringDefinition, start, horizon time.Time, end *time.Time) []time.Time {
	day := start.Day()
	if def.DayOfMonth != nil {
		day = *def.DayOfMonth
	}

	var dates []time.Time
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for ; ; cursor = cursor.AddDate(0, 1, 0) {
		due := clampToMonth(cursor.Year(), cursor.Month(), day)
		if due.Before(start) {
			continue
		}
		if !due.Before(horizon) {
			break
		}
		if end != nil && due.After(*end) {
			break
		}
		dates = append(dates, due)
	}
	return dates
}

// clampToMonth builds the due date for a month, clamping the requested day
// to the month's last day when it would overflow.
func clampToMonth(year int, month time.Month, day int) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
