package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vixboard/internal/domain"
	"vixboard/internal/table"
)

const readme = `# Global VIX

## Latest

- US VIX (^VIX): <!-- LATEST_US_VIX_DATA -->
- Taiwan VIX (VIXTWN): pending

## Chart

![VIX Chart](vix_chart.png)
`

func TestTimestamp(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		t.Fatal(err)
	}
	got := Timestamp(time.Date(2025, 1, 2, 16, 30, 5, 0, time.UTC), loc)
	if want := "2025-01-03 00:30:05 CST"; got != want {
		t.Errorf("Timestamp = %q, want %q", got, want)
	}

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	got = Timestamp(time.Date(2025, 1, 2, 16, 30, 5, 0, time.UTC), tokyo)
	if want := "2025-01-03 01:30:05 JST"; got != want {
		t.Errorf("Timestamp(Tokyo) = %q, want %q", got, want)
	}
}

func TestUpdate(t *testing.T) {
	us := Latest{Value: 16.456, Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), OK: true}
	tw := Latest{Value: 18.2, Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), OK: true}

	got := Update(readme, us, tw, "2025-01-03 08:00:00 CST")

	for _, want := range []string{
		"- US VIX (^VIX): <!-- LATEST_US_VIX_DATA --> **16.46**\n",
		"- Taiwan VIX (VIXTWN): **18.20** (2025-01-03)\n",
		"產生時間: 2025-01-03 08:00:00 CST\n\n![VIX Chart](vix_chart.svg)\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("updated doc missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "vix_chart.png") {
		t.Error("image reference should be normalized to svg")
	}
}

func TestUpdateIsRepeatable(t *testing.T) {
	us := Latest{Value: 16.0, OK: true}
	first := Update(readme, us, Latest{}, "2025-01-03 08:00:00 CST")
	second := Update(first, Latest{Value: 17.25, OK: true}, Latest{}, "2025-01-04 08:00:00 CST")

	if strings.Count(second, "產生時間") != 1 {
		t.Errorf("timestamp line duplicated:\n%s", second)
	}
	if strings.Count(second, USMarker) != 1 || !strings.Contains(second, USMarker+" **17.25**") {
		t.Errorf("US value not replaced:\n%s", second)
	}
	if strings.Contains(second, "16.00") || strings.Contains(second, "2025-01-03 08:00:00") {
		t.Errorf("stale values left behind:\n%s", second)
	}

	// Running again with the same inputs changes nothing.
	if again := Update(second, Latest{Value: 17.25, OK: true}, Latest{}, "2025-01-04 08:00:00 CST"); again != second {
		t.Errorf("update not idempotent:\n%s\n---\n%s", second, again)
	}
}

func TestUpdateMissingValues(t *testing.T) {
	got := Update(readme, Latest{}, Latest{}, "x")
	if !strings.Contains(got, USMarker+" **"+Missing+"**") {
		t.Errorf("missing US value not marked:\n%s", got)
	}
	if !strings.Contains(got, "- Taiwan VIX (VIXTWN): "+Missing+"\n") {
		t.Errorf("missing Taiwan value not marked:\n%s", got)
	}
}

func TestUpdateWithoutMarkersLeavesDoc(t *testing.T) {
	doc := "# Nothing to patch\n"
	if got := Update(doc, Latest{Value: 1, OK: true}, Latest{}, "x"); got != doc {
		t.Errorf("doc changed: %q", got)
	}
}

func TestFromTable(t *testing.T) {
	tbl := table.Merge(
		domain.NewSeries(domain.SourceUS, []domain.Point{{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Value: 14}}),
	)
	if l := FromTable(tbl, domain.SourceUS); !l.OK || l.Value != 14 {
		t.Errorf("FromTable(US) = %+v", l)
	}
	if l := FromTable(tbl, domain.SourceTaiwan); l.OK {
		t.Errorf("FromTable(Taiwan) = %+v, want not OK", l)
	}
	if l := FromTable(nil, domain.SourceUS); l.OK {
		t.Error("FromTable(nil) should not be OK")
	}
}

func TestUpdateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(path, []byte(readme), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := UpdateFile(path, Latest{Value: 20, OK: true}, Latest{}, "2025-01-03 08:00:00 CST"); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), USMarker+" **20.00**") {
		t.Errorf("file not updated:\n%s", data)
	}

	if err := UpdateFile(filepath.Join(t.TempDir(), "missing.md"), Latest{}, Latest{}, "x"); err == nil {
		t.Error("expected error for missing file")
	}
}
