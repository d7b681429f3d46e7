// Package chart renders the merged table as a static image and as an
// interactive HTML page.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"vixboard/internal/domain"
	"vixboard/internal/table"
)

var (
	ErrNoData      = errors.New("no data to plot")
	ErrEmptyWindow = errors.New("no data in the lookback window")
)

// Threshold is the level above which volatility is very dangerous.
const Threshold = 30.0

// ThresholdLabel annotates the threshold line.
const ThresholdLabel = "VERY DANGEROUS THRESHOLD"

// minYMax keeps the very dangerous zone visible on calm charts.
const minYMax = 40.0

// Band is a horizontal risk zone drawn behind the series.
type Band struct {
	Low, High float64
	Label     string
	Color     color.NRGBA
}

// Bands are the risk zones, lowest first.
var Bands = []Band{
	{Low: 0, High: 15, Label: "Safe (<15)", Color: color.NRGBA{R: 0, G: 128, B: 0, A: 26}},
	{Low: 15, High: 20, Label: "Warning (15-20)", Color: color.NRGBA{R: 255, G: 255, B: 0, A: 38}},
	{Low: 20, High: 30, Label: "Dangerous (20-30)", Color: color.NRGBA{R: 255, G: 165, B: 0, A: 38}},
	{Low: 30, High: 100, Label: "Very Dangerous (>30)", Color: color.NRGBA{R: 255, G: 0, B: 0, A: 26}},
}

// Style is how one source is drawn.
type Style struct {
	Label  string
	Color  color.NRGBA
	Dashed bool
}

var styles = map[domain.SourceID]Style{
	domain.SourceUS:     {Label: "US VIX (^VIX)", Color: color.NRGBA{B: 255, A: 255}},
	domain.SourceJapan:  {Label: "Japan VIX (Nikkei VI)", Color: color.NRGBA{R: 255, A: 255}, Dashed: true},
	domain.SourceTaiwan: {Label: "Taiwan VIX (VIXTWN)", Color: color.NRGBA{G: 128, A: 255}},
}

var (
	thresholdColor = color.NRGBA{R: 139, A: 204}
	todayColor     = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	otherColor     = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
)

// StyleFor returns the style of a source; unknown columns are drawn solid
// grey under their own name.
func StyleFor(id domain.SourceID) Style {
	if s, ok := styles[id]; ok {
		return s
	}
	return Style{Label: string(id), Color: otherColor}
}

// Window returns the rows within years*365 days of the newest date.
func Window(t *table.Table, years int) (*table.Table, error) {
	last, ok := t.LastDate()
	if !ok {
		return nil, ErrNoData
	}
	w := t.Since(last.AddDate(0, 0, -years*365))
	if w.Empty() {
		return nil, ErrEmptyWindow
	}
	return w, nil
}

// YMax returns the upper y bound: at least 40, otherwise 10% above the
// largest value.
func YMax(t *table.Table) float64 {
	m, ok := t.MaxValue()
	if !ok {
		return minYMax
	}
	return math.Max(minYMax, m*1.1)
}

// Title is the chart heading for a lookback of years.
func Title(years int) string {
	if years == 1 {
		return "VIX Indices (Last 1 Year)"
	}
	return fmt.Sprintf("VIX Indices (Last %d Years)", years)
}

func rgba(c color.NRGBA) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, float64(c.A)/255)
}
