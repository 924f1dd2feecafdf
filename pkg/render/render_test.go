package render

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

func init() {
	color.NoColor = true
}

func mustRecord(t *testing.T, id string) zones.Record {
	t.Helper()
	rec, ok := zones.Default().ByID(id)
	if !ok {
		t.Fatalf("no record %q", id)
	}
	return rec
}

func TestConversion(t *testing.T) {
	conv := tzconvert.New(zones.Default())
	wall := time.Date(2026, time.January, 14, 15, 0, 0, 0, time.UTC)

	r, err := conv.Convert(wall, "America/New_York", "Asia/Tokyo")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	got := Conversion(r, Options{})
	want := "3:00 PM  New York (EST)\n" +
		"5:00 AM  Tokyo (JST)  next day\n" +
		"Thu Jan 15 +14h (UTC-05:00 → UTC+09:00)\n"
	if got != want {
		t.Errorf("Conversion() =\n%s\nwant\n%s", got, want)
	}

	got = Conversion(r, Options{Use24h: true})
	if !strings.Contains(got, "15:00  New York") || !strings.Contains(got, "05:00  Tokyo") {
		t.Errorf("24h Conversion() = %q", got)
	}
}

func TestConversionPreviousDay(t *testing.T) {
	conv := tzconvert.New(zones.Default())
	wall := time.Date(2026, time.January, 14, 8, 0, 0, 0, time.UTC)

	r, err := conv.Convert(wall, "Asia/Tokyo", "America/Los_Angeles")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := Conversion(r, Options{}); !strings.Contains(got, "previous day") || !strings.Contains(got, "-17h") {
		t.Errorf("Conversion() = %q, want previous day and -17h", got)
	}

	same, err := conv.Convert(wall, "Europe/London", "UTC")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := Conversion(same, Options{}); !strings.Contains(got, "same time") || strings.Contains(got, "day") {
		t.Errorf("Conversion() = %q, want same time on the same day", got)
	}
}

func TestHours(t *testing.T) {
	conv := tzconvert.New(zones.Default())
	london := mustRecord(t, "Europe/London")
	date := time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC)

	hours, err := conv.HoursRange(date, london.ID)
	if err != nil {
		t.Fatalf("HoursRange: %v", err)
	}

	now := time.Date(2026, time.January, 14, 10, 30, 0, 0, time.UTC)
	got := Hours(london, hours, now, Options{})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 26 {
		t.Fatalf("got %d lines, want header, rule and 24 hours:\n%s", len(lines), got)
	}

	working := 0
	for _, l := range lines[2:] {
		if strings.Contains(l, "█") {
			working++
		}
	}
	if working != tzconvert.WorkdayEnd-tzconvert.WorkdayStart+1 {
		t.Errorf("got %d working hours", working)
	}
	if !strings.Contains(got, "▶ 10:00 AM") {
		t.Errorf("current hour not marked:\n%s", got)
	}
	if strings.Count(got, "▶") != 1 {
		t.Errorf("want exactly one marker:\n%s", got)
	}
}

func TestOverlap(t *testing.T) {
	conv := tzconvert.New(zones.Default())
	london, ny := mustRecord(t, "Europe/London"), mustRecord(t, "America/New_York")
	date := time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC)

	slots, err := conv.WorkingOverlap(date, london.ID, ny.ID)
	if err != nil {
		t.Fatalf("WorkingOverlap: %v", err)
	}
	got := Overlap(london, ny, slots, Options{Use24h: true})
	for _, want := range []string{"London ↔ New York", "14:00  ↔     09:00", "4 hours of overlap"} {
		if !strings.Contains(got, want) {
			t.Errorf("Overlap() missing %q:\n%s", want, got)
		}
	}

	if got := Overlap(london, ny, nil, Options{}); !strings.Contains(got, "No overlapping working hours") {
		t.Errorf("empty Overlap() = %q", got)
	}
}

func TestPanel(t *testing.T) {
	london, tokyo := mustRecord(t, "Europe/London"), mustRecord(t, "Asia/Tokyo")
	p := &briefing.Panel{
		FromWeather: &briefing.Weather{Condition: "Rain", Icon: "🌧️", TemperatureC: 8, Humidity: 80, WindKph: 20},
		News:        []briefing.Headline{{Title: "Cherry blossoms early", Source: "Local Times"}},
	}

	got := Panel(london, tokyo, p)
	for _, want := range []string{
		"London           🌧️ Rain, 8°C, 80% humidity, wind 20 km/h",
		"Tokyo            weather unavailable",
		"News from Tokyo",
		"• Cherry blossoms early (Local Times)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Panel() missing %q:\n%s", want, got)
		}
	}

	if got := Panel(london, tokyo, &briefing.Panel{}); !strings.Contains(got, "news unavailable") {
		t.Errorf("empty Panel() = %q", got)
	}
}

func TestZones(t *testing.T) {
	recs := []zones.Record{mustRecord(t, "Asia/Tokyo"), mustRecord(t, "UTC")}
	got := Zones(recs, []string{"UTC"})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "  Asia/Tokyo") || !strings.HasSuffix(lines[0], "UTC+09:00") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "★ UTC") {
		t.Errorf("favorite not starred: %q", lines[1])
	}
}
