// Package jp loads the Nikkei Stock Average Volatility Index (Nikkei VI).
//
// Nikkei publishes the daily history only as a browser download, so the
// loader reads a manually placed copy of nk225vi_daily_jp.csv.
package jp

import (
	"vixboard/internal/domain"
	"vixboard/internal/gather/localfile"
)

// DownloadURL is where the operator fetches the daily CSV.
const DownloadURL = "https://indexes.nikkei.co.jp/nkave/archives/data/nk225vi_daily_jp.csv"

// NewLoader returns a loader for the Nikkei VI file at path. The file is
// Shift-JIS with UTF-8 as a fallback, and its first five columns are date,
// open, high, low, close under Japanese headers.
func NewLoader(path string) *localfile.Loader {
	return localfile.New(localfile.Options{
		Name:      "jp-vix",
		Source:    domain.SourceJapan,
		Path:      path,
		Encodings: []localfile.Encoding{localfile.ShiftJIS, localfile.UTF8},
		Layout:    localfile.LayoutPositional,
		Hint:      DownloadURL,
	})
}
