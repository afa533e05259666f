package core

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Date is a calendar date without time of day, always stored at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: expected YYYY-MM-DD", ErrInvalidArgument, s)
	}
	return Date{Time: t}, nil
}

// ParseMonth parses a YYYY-MM string into the first day of that month.
func ParseMonth(s string) (Date, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: month %q: expected YYYY-MM", ErrInvalidArgument, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey formats the date's month as YYYY-MM.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// IsMonthStart reports whether d is the first day of a month.
func (d Date) IsMonthStart() bool {
	return !d.IsZero() && d.Day() == 1
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidArgument)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive calendar-date range.
type Window struct {
	Start Date
	End   Date
}

// Contains reports whether d falls within [Start, End].
func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// MonthWindow returns the window spanning the calendar month containing t.
func MonthWindow(t time.Time) Window {
	start := DateOf(t).MonthStart()
	end := Date{Time: start.AddDate(0, 1, -1)}
	return Window{Start: start, End: end}
}

// PreviousMonth returns the first day of the month before month.
func PreviousMonth(month Date) Date {
	start := month.MonthStart()
	return Date{Time: start.AddDate(0, -1, 0)}
}
