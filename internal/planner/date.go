package planner

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in ISO YYYY-MM-DD form. Zero-padded ISO dates
// compare correctly as strings, so Date values order chronologically.
type Date string

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate validates an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

// AddDays returns the date n days later; negative n goes back.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Time().AddDate(0, 0, n))
}

// WeekStart returns the Monday of the week containing d.
func (d Date) WeekStart() Date {
	t := d.Time()
	offset := (int(t.Weekday()) + 6) % 7
	return NewDate(t.AddDate(0, 0, -offset))
}

// Week returns the seven consecutive dates starting at d.
func (d Date) Week() [7]Date {
	var days [7]Date
	for i := range days {
		days[i] = d.AddDays(i)
	}
	return days
}

// ISOWeek returns the ISO 8601 year and week number of the date.
// Used for display only.
func (d Date) ISOWeek() (year, week int) {
	return d.Time().ISOWeek()
}

// Weekday returns the short weekday name, e.g. "Mon".
func (d Date) Weekday() string {
	return d.Time().Format("Mon")
}
