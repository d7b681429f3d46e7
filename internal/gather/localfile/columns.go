package localfile

import (
	"strings"
)

// field is a canonical column of a daily OHLC download.
type field int

const (
	fieldUnknown field = iota
	fieldDate
	fieldOpen
	fieldHigh
	fieldLow
	fieldClose
)

// positionalFields is the column order assumed by LayoutPositional.
var positionalFields = []field{fieldDate, fieldOpen, fieldHigh, fieldLow, fieldClose}

// headerFields maps every recognised header spelling, after normalizeHeader,
// to its canonical field. Nikkei downloads use Japanese headers, TAIFEX uses
// Traditional Chinese, and both have English variants.
var headerFields = map[string]field{
	"date":       fieldDate,
	"trade date": fieldDate,
	"日付":         fieldDate,
	"データ日付":      fieldDate,
	"日期":         fieldDate,
	"交易日期":       fieldDate,

	"open":       fieldOpen,
	"open price": fieldOpen,
	"始値":         fieldOpen,
	"開盤價":        fieldOpen,
	"開盤指數":       fieldOpen,

	"high":       fieldHigh,
	"high price": fieldHigh,
	"高値":         fieldHigh,
	"最高價":        fieldHigh,
	"最高指數":       fieldHigh,

	"low":       fieldLow,
	"low price": fieldLow,
	"安値":        fieldLow,
	"最低價":       fieldLow,
	"最低指數":      fieldLow,

	"close":       fieldClose,
	"close price": fieldClose,
	"vix index":   fieldClose,
	"終値":          fieldClose,
	"收盤價":         fieldClose,
	"收盤指數":        fieldClose,
	"收盤":          fieldClose,
	"收盤價(close)":  fieldClose,
}

// normalizeHeader trims quotes, whitespace and a leading BOM and lowercases
// ASCII so lookups are insensitive to provider formatting.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(strings.Trim(strings.TrimSpace(h), `"`))
	return strings.ToLower(h)
}

// lookupField resolves a header to its canonical field.
func lookupField(h string) field {
	return headerFields[normalizeHeader(h)]
}

// columnIndex holds the positions of the columns a loader reads.
type columnIndex struct {
	date, close int
}

// resolveHeader locates the date and close columns by lookup. The first
// header mapping to a field wins.
func resolveHeader(header []string) (columnIndex, bool) {
	idx := columnIndex{date: -1, close: -1}
	for i, h := range header {
		switch lookupField(h) {
		case fieldDate:
			if idx.date < 0 {
				idx.date = i
			}
		case fieldClose:
			if idx.close < 0 {
				idx.close = i
			}
		}
	}
	return idx, idx.date >= 0 && idx.close >= 0
}

// resolvePositional uses the fixed date/open/high/low/close order.
func resolvePositional(header []string) (columnIndex, bool) {
	if len(header) < len(positionalFields) {
		return columnIndex{}, false
	}
	idx := columnIndex{}
	for i, f := range positionalFields {
		switch f {
		case fieldDate:
			idx.date = i
		case fieldClose:
			idx.close = i
		}
	}
	return idx, true
}
