package models

import (
	"strings"
	"time"

	apperrors "donaid/internal/errors"
)

// PeriodType is the granularity of a statistics snapshot.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodYearly  PeriodType = "yearly"
)

// AllPeriodTypes lists the period types in ascending granularity.
var AllPeriodTypes = []PeriodType{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

func (p PeriodType) String() string {
	return string(p)
}

// ParsePeriodType accepts the lower-case names above, ignoring case and
// surrounding whitespace. An empty string parses as daily.
func ParsePeriodType(s string) (PeriodType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodDaily, nil
	}
	p := PeriodType(s)
	if !p.IsValid() {
		return "", apperrors.Newf(apperrors.ErrInvalidPeriod, "invalid period type %q", s)
	}
	return p, nil
}

// Window is the inclusive time range a snapshot covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowFor returns the UTC window of the given period that contains date.
// Weeks are ISO weeks starting on Monday.
func WindowFor(date time.Time, period PeriodType) Window {
	d := date.UTC()
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	var start, next time.Time
	switch period {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(0, 1, 0)
	case PeriodYearly:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		next = start.AddDate(1, 0, 0)
	default:
		start = day
		next = start.AddDate(0, 0, 1)
	}
	return Window{Start: start, End: next.Add(-time.Nanosecond)}
}
