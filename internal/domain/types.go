// Package domain defines the core value types shared across vixboard: the
// source identifiers, dated points and the per-source daily Series.
package domain

import (
	"sort"
	"time"
)

// SourceID is the canonical column name of a volatility-index source.
type SourceID string

const (
	SourceUS     SourceID = "US_VIX"
	SourceJapan  SourceID = "Japan_VIX"
	SourceTaiwan SourceID = "Taiwan_VIX"
)

// SourceOrder is the fixed preference order used when merging sources.
var SourceOrder = []SourceID{SourceUS, SourceJapan, SourceTaiwan}

// Point is a single daily observation. Date is a naive calendar date stored
// as midnight UTC.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is one source's date-to-value mapping, ascending by date with at
// most one point per date.
type Series struct {
	Name   SourceID
	Points []Point
}

// NewSeries builds a Series from raw points. Dates are truncated to the
// calendar day, duplicates keep their first occurrence, and the result is
// sorted ascending.
func NewSeries(name SourceID, points []Point) Series {
	seen := make(map[time.Time]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		d := DateOf(p.Date)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, Point{Date: d, Value: p.Value})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return Series{Name: name, Points: out}
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Empty reports whether the series holds no points.
func (s Series) Empty() bool { return len(s.Points) == 0 }

// Restrict returns the points whose date falls within [start, end].
func (s Series) Restrict(start, end time.Time) Series {
	start, end = DateOf(start), DateOf(end)
	var out []Point
	for _, p := range s.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	return Series{Name: s.Name, Points: out}
}

// Latest returns the most recent point.
func (s Series) Latest() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// DateOf drops the clock and zone of t, keeping its wall-clock calendar date
// as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
