// Package table merges per-source series into one date-indexed table and
// reads and writes its CSV form.
package table

import (
	"math"
	"sort"
	"time"

	"vixboard/internal/domain"
)

// Row is one date of the merged table. Values align with Table.Columns; a
// missing cell is NaN.
type Row struct {
	Date   time.Time
	Values []float64
}

// Table is the outer join of several series on date, ascending and unique
// by date. It is not modified after Merge or ReadCSV returns it.
type Table struct {
	Columns []domain.SourceID
	Rows    []Row
}

// Merge outer-joins the non-empty series in the given order. The first
// non-empty series seeds the table; a later series whose name is already a
// column is skipped. Values are never combined across columns.
func Merge(series ...domain.Series) *Table {
	t := &Table{}
	index := make(map[time.Time]int)
	var dates []time.Time
	var cols []map[time.Time]float64

	for _, s := range series {
		if s.Empty() || t.columnIndex(s.Name) >= 0 {
			continue
		}
		t.Columns = append(t.Columns, s.Name)
		values := make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			d := domain.DateOf(p.Date)
			if _, dup := values[d]; dup {
				continue
			}
			values[d] = p.Value
			if _, seen := index[d]; !seen {
				index[d] = len(dates)
				dates = append(dates, d)
			}
		}
		cols = append(cols, values)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	t.Rows = make([]Row, len(dates))
	for i, d := range dates {
		vals := make([]float64, len(cols))
		for c, values := range cols {
			v, ok := values[d]
			if !ok {
				v = math.NaN()
			}
			vals[c] = v
		}
		t.Rows[i] = Row{Date: d, Values: vals}
	}
	return t
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) columnIndex(name domain.SourceID) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is a column.
func (t *Table) Has(name domain.SourceID) bool { return t.columnIndex(name) >= 0 }

// Column returns the non-missing values of name as a series.
func (t *Table) Column(name domain.SourceID) domain.Series {
	s := domain.Series{Name: name}
	i := t.columnIndex(name)
	if i < 0 {
		return s
	}
	for _, r := range t.Rows {
		if v := r.Values[i]; !math.IsNaN(v) {
			s.Points = append(s.Points, domain.Point{Date: r.Date, Value: v})
		}
	}
	return s
}

// Latest returns the most recent non-missing value of name.
func (t *Table) Latest(name domain.SourceID) (domain.Point, bool) {
	i := t.columnIndex(name)
	if i < 0 {
		return domain.Point{}, false
	}
	for j := len(t.Rows) - 1; j >= 0; j-- {
		if v := t.Rows[j].Values[i]; !math.IsNaN(v) {
			return domain.Point{Date: t.Rows[j].Date, Value: v}, true
		}
	}
	return domain.Point{}, false
}

// LastDate returns the newest date in the table.
func (t *Table) LastDate() (time.Time, bool) {
	if t.Empty() {
		return time.Time{}, false
	}
	return t.Rows[len(t.Rows)-1].Date, true
}

// Since returns a table holding the rows dated on or after start. Rows are
// shared with t.
func (t *Table) Since(start time.Time) *Table {
	start = domain.DateOf(start)
	i := sort.Search(len(t.Rows), func(i int) bool { return !t.Rows[i].Date.Before(start) })
	return &Table{Columns: t.Columns, Rows: t.Rows[i:]}
}

// MaxValue returns the largest non-missing value across all columns.
func (t *Table) MaxValue() (float64, bool) {
	best, found := math.Inf(-1), false
	for _, r := range t.Rows {
		for _, v := range r.Values {
			if !math.IsNaN(v) && v > best {
				best, found = v, true
			}
		}
	}
	return best, found
}

// ColumnStats summarises the non-missing values of one column.
type ColumnStats struct {
	Name  domain.SourceID
	Count int
	Min   float64
	Max   float64
	Mean  float64
	First time.Time
	Last  time.Time
}

// Describe returns one ColumnStats per column, in column order. A column
// with no values has a zero Count and NaN Min, Max and Mean.
func (t *Table) Describe() []ColumnStats {
	if t == nil {
		return nil
	}
	stats := make([]ColumnStats, len(t.Columns))
	for i, name := range t.Columns {
		st := ColumnStats{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for _, r := range t.Rows {
			v := r.Values[i]
			if math.IsNaN(v) {
				continue
			}
			if st.Count == 0 {
				st.First = r.Date
			}
			st.Last = r.Date
			st.Count++
			sum += v
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
		}
		if st.Count == 0 {
			st.Min, st.Max, st.Mean = math.NaN(), math.NaN(), math.NaN()
		} else {
			st.Mean = sum / float64(st.Count)
		}
		stats[i] = st
	}
	return stats
}
