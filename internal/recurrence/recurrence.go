// Package recurrence computes due dates for repeating tasks. Everything in
// here is pure: callers pass the anchor date and the current time, nothing
// reads the wall clock.
package recurrence

import (
	"fmt"
	"time"
)

// Type identifies how a pattern repeats.
type Type string

const (
	TypeDaily   Type = "daily"
	TypeWeekly  Type = "weekly"
	TypeMonthly Type = "monthly"
)

// Pattern describes a repetition rule. Interval is in units of Type
// (every N days, every N weeks, every N months). TimeOfDay is an optional
// "HH:MM" wall-clock time; when empty the occurrence lands at midnight.
type Pattern struct {
	Type      Type   `json:"type"`
	Interval  int    `json:"interval"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// Validate reports whether the pattern is well formed.
func (p Pattern) Validate() error {
	switch p.Type {
	case TypeDaily, TypeWeekly, TypeMonthly:
	default:
		return fmt.Errorf("unknown recurrence type %q", p.Type)
	}
	if p.Interval < 1 {
		return fmt.Errorf("recurrence interval must be >= 1, got %d", p.Interval)
	}
	if p.TimeOfDay != "" {
		if _, _, err := parseTimeOfDay(p.TimeOfDay); err != nil {
			return err
		}
	}
	return nil
}

// NextDue computes the occurrence that follows anchor.
//
// The anchor is normalized to midnight in its own location and the
// pattern's time-of-day is applied before the interval is added. If
// startDate is non-nil and strictly after now, the schedule has not begun
// yet and the start date itself (with time-of-day applied) is the next
// occurrence, not start-plus-interval.
//
// Monthly arithmetic clamps to the last day of the target month: an
// anchor on Jan 31 advanced one month lands on Feb 29 (leap years) or
// Feb 28, never on Mar 2.
func NextDue(p Pattern, anchor time.Time, now time.Time, startDate *time.Time) time.Time {
	if startDate != nil && startDate.After(now) {
		return atTimeOfDay(midnight(*startDate), p.TimeOfDay)
	}

	base := atTimeOfDay(midnight(anchor), p.TimeOfDay)
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	switch p.Type {
	case TypeDaily:
		return base.AddDate(0, 0, interval)
	case TypeWeekly:
		return base.AddDate(0, 0, 7*interval)
	case TypeMonthly:
		return addMonthsClamped(base, interval)
	default:
		// Unrecognized pattern types fall back to tomorrow rather
		// than failing; the pattern should have been validated at
		// creation time.
		return base.AddDate(0, 0, 1)
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func atTimeOfDay(day time.Time, tod string) time.Time {
	if tod == "" {
		return day
	}
	hh, mm, err := parseTimeOfDay(tod)
	if err != nil {
		return day
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location())
}

func parseTimeOfDay(tod string) (hour, minute int, err error) {
	var hh, mm int
	if _, err := fmt.Sscanf(tod, "%d:%d", &hh, &mm); err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", tod, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", tod)
	}
	return hh, mm, nil
}

// addMonthsClamped advances t by months whole calendar months, clamping the
// day-of-month so a day-31 anchor never rolls into the following month.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), 0, 0, t.Location())
	target := firstOfMonth.AddDate(0, months, 0)
	day := t.Day()
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
