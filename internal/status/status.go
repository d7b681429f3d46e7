// Package status patches the README with the latest index values and a
// generation timestamp.
package status

import (
	"fmt"
	"os"
	"regexp"
	"time"
	_ "time/tzdata"

	"vixboard/internal/domain"
	"vixboard/internal/table"
)

// USMarker is the placeholder after which the latest US value is written.
// It is kept in place so later runs can find it again.
const USMarker = "<!-- LATEST_US_VIX_DATA -->"

// Missing is written when a source has no value.
const Missing = "N/A (No data found)"

// ChartImage is the chart reference the timestamp line precedes.
const ChartImage = "![VIX Chart](vix_chart.svg)"

var (
	usPattern     = regexp.MustCompile(regexp.QuoteMeta(USMarker) + `(?: \*\*[^*\n]*\*\*)?`)
	taiwanPattern = regexp.MustCompile(`(?m)^- Taiwan VIX \(VIXTWN\):.*$`)
	chartPattern  = regexp.MustCompile(`(產生時間: .*?\n\n)?!\[VIX Chart\]\(vix_chart\.(?:png|svg)\)`)
)

// Latest is the newest observation of one source.
type Latest struct {
	Value float64
	Date  time.Time
	OK    bool
}

// FromTable returns the newest non-missing value of id in t.
func FromTable(t *table.Table, id domain.SourceID) Latest {
	if t == nil {
		return Latest{}
	}
	p, ok := t.Latest(id)
	return Latest{Value: p.Value, Date: p.Date, OK: ok}
}

// FromSeries returns the newest point of s.
func FromSeries(s domain.Series) Latest {
	p, ok := s.Latest()
	return Latest{Value: p.Value, Date: p.Date, OK: ok}
}

// Timestamp formats now in loc the way the README shows it, suffixed with
// the zone abbreviation (CST for Asia/Taipei).
func Timestamp(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02 15:04:05 MST")
}

// Update rewrites the three status spots of doc: the value after USMarker,
// the Taiwan VIX line, and the timestamp line before the chart image. Spots
// that are absent from doc are left alone.
func Update(doc string, us, tw Latest, stamp string) string {
	usText := Missing
	if us.OK {
		usText = fmt.Sprintf("%.2f", us.Value)
	}
	doc = usPattern.ReplaceAllLiteralString(doc, USMarker+" **"+usText+"**")

	twLine := "- Taiwan VIX (VIXTWN): " + Missing
	if tw.OK {
		twLine = fmt.Sprintf("- Taiwan VIX (VIXTWN): **%.2f** (%s)", tw.Value, tw.Date.Format("2006-01-02"))
	}
	doc = taiwanPattern.ReplaceAllLiteralString(doc, twLine)

	return chartPattern.ReplaceAllLiteralString(doc, "產生時間: "+stamp+"\n\n"+ChartImage)
}

// UpdateFile applies Update to the file at path in place.
func UpdateFile(path string, us, tw Latest, stamp string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	out := Update(string(data), us, tw, stamp)
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
