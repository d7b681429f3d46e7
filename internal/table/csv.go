package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"vixboard/internal/domain"
)

const (
	dateHeader = "Date"
	dateLayout = "2006-01-02"
)

// ErrBadHeader is returned by ReadCSV when the first column is not Date.
var ErrBadHeader = errors.New("merged csv: first column must be Date")

// WriteCSV writes the table with a Date column followed by one column per
// source. Missing cells are blank.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, dateHeader)
	for _, c := range t.Columns {
		header = append(header, string(c))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for _, r := range t.Rows {
		record[0] = r.Date.Format(dateLayout)
		for i, v := range r.Values {
			record[i+1] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing %s: %w", record[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile replaces path with the table's CSV form.
func (t *Table) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// FormatValue renders v in plain decimal notation. Integral values keep one
// decimal place and NaN renders blank.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// ReadCSV parses the form written by WriteCSV. Rows are returned sorted by
// date; a repeated date keeps its first row.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) == 0 || strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff")) != dateHeader {
		return nil, ErrBadHeader
	}

	t := &Table{}
	for _, h := range header[1:] {
		t.Columns = append(t.Columns, domain.SourceID(strings.TrimSpace(h)))
	}

	seen := make(map[time.Time]struct{})
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing date: %w", line, err)
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}

		values := make([]float64, len(t.Columns))
		for i := range values {
			values[i] = math.NaN()
			if i+1 >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i+1])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, t.Columns[i], err)
			}
			values[i] = v
		}
		t.Rows = append(t.Rows, Row{Date: date, Values: values})
	}

	sort.SliceStable(t.Rows, func(i, j int) bool { return t.Rows[i].Date.Before(t.Rows[j].Date) })
	return t, nil
}

// ReadFile reads a merged CSV from path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}
