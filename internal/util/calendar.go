package util

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// String formats the month as YYYYMM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d%02d", ym.Year, int(ym.Month))
}

// Months returns the calendar months intersecting [start, end], oldest
// first. The sequence is lazy and can be ranged over any number of times.
// It is empty when end precedes start.
func Months(start, end time.Time) iter.Seq[YearMonth] {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	return func(yield func(YearMonth) bool) {
		for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
			if !yield(YearMonth{Year: m.Year(), Month: m.Month()}) {
				return
			}
		}
	}
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"20060102",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
}

// ParseDate parses a calendar date in any of the layouts seen in exchange
// downloads and returns it as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
