package tzconvert

import (
	"errors"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

func wall(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name      string
		wall      time.Time
		from, to  string
		wantWall  string
		wantDelta int
	}{
		{"EST to Tokyo in winter", wall(2024, 1, 15, 15, 0), "America/New_York", "Asia/Tokyo", "2024-01-16 05:00", 14},
		{"EDT to Tokyo in summer", wall(2024, 7, 15, 15, 0), "America/New_York", "Asia/Tokyo", "2024-07-16 04:00", 13},
		{"London to New York in summer", wall(2024, 7, 1, 9, 0), "Europe/London", "America/New_York", "2024-07-01 04:00", -5},
		{"half-hour offset truncates", wall(2024, 1, 15, 12, 0), "UTC", "Asia/Kolkata", "2024-01-15 17:30", 5},
		{"quarter-hour offset", wall(2024, 1, 15, 12, 0), "UTC", "Asia/Kathmandu", "2024-01-15 17:45", 5},
		{"negative half-hour truncates toward zero", wall(2024, 1, 15, 12, 0), "UTC", "America/St_Johns", "2024-01-15 08:30", -3},
		{"plus thirteen", wall(2024, 6, 1, 0, 0), "UTC", "Pacific/Tongatapu", "2024-06-01 13:00", 13},
		{"same zone", wall(2024, 3, 1, 8, 15), "Europe/Paris", "Europe/Paris", "2024-03-01 08:15", 0},
		{"sydney DST crossing the date line", wall(2024, 1, 15, 9, 0), "Australia/Sydney", "America/Los_Angeles", "2024-01-14 14:00", -19},
	}

	c := New(zones.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.wall, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if s := got.ToTime.Format("2006-01-02 15:04"); s != tt.wantWall {
				t.Errorf("ToTime = %s, want %s", s, tt.wantWall)
			}
			if got.HourDelta != tt.wantDelta {
				t.Errorf("HourDelta = %d, want %d", got.HourDelta, tt.wantDelta)
			}
			if !got.FromTime.Equal(got.ToTime) {
				t.Errorf("FromTime %v and ToTime %v are different instants", got.FromTime, got.ToTime)
			}
			if got.From.ID != tt.from || got.To.ID != tt.to {
				t.Errorf("records = %s -> %s", got.From.ID, got.To.ID)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	c := New(zones.Default())
	ids := []string{"UTC", "America/New_York", "America/St_Johns", "Europe/Berlin", "Asia/Kolkata", "Asia/Tokyo", "Australia/Adelaide", "Pacific/Tongatapu"}
	instants := []time.Time{
		wall(2024, 1, 10, 10, 30),
		wall(2024, 7, 4, 18, 45),
		wall(2024, 10, 31, 23, 59),
	}

	for _, a := range ids {
		for _, b := range ids {
			for _, tm := range instants {
				there, err := c.Convert(tm, a, b)
				if err != nil {
					t.Fatalf("Convert(%s -> %s): %v", a, b, err)
				}
				back, err := c.Convert(there.ToTime, b, a)
				if err != nil {
					t.Fatalf("Convert(%s -> %s): %v", b, a, err)
				}
				want := tm.Format("2006-01-02 15:04")
				if got := back.ToTime.Format("2006-01-02 15:04"); got != want {
					t.Errorf("%s -> %s -> %s: got %s, want %s", a, b, a, got, want)
				}
			}
		}
	}
}

func TestConvertUnknownZone(t *testing.T) {
	c := New(zones.Default())
	if _, err := c.Convert(wall(2024, 1, 1, 0, 0), "Mars/Base", "UTC"); !errors.Is(err, zones.ErrNotFound) {
		t.Errorf("unknown from zone: err = %v, want ErrNotFound", err)
	}
	if _, err := c.Convert(wall(2024, 1, 1, 0, 0), "UTC", "Mars/Base"); !errors.Is(err, zones.ErrNotFound) {
		t.Errorf("unknown to zone: err = %v, want ErrNotFound", err)
	}
}

func TestConvertFallbackZone(t *testing.T) {
	c := New(zones.Default(), WithFallbackZone("UTC"))
	got, err := c.Convert(wall(2024, 1, 1, 12, 0), "Mars/Base", "Asia/Tokyo")
	if err != nil {
		t.Fatalf("Convert with fallback: %v", err)
	}
	if got.From.ID != "UTC" {
		t.Errorf("From = %s, want fallback UTC", got.From.ID)
	}
	if got.ToTime.Hour() != 21 {
		t.Errorf("ToTime hour = %d, want 21", got.ToTime.Hour())
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in         string
		hour, min  int
		wantErr    bool
	}{
		{"3:00 pm", 15, 0, false},
		{"12:00 am", 0, 0, false},
		{"12:30 pm", 12, 30, false},
		{"9:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"13:00 pm", 0, 0, true},
		{"24:00", 0, 0, true},
		{"9:75", 0, 0, true},
		{"noonish", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrBadClock) {
				t.Errorf("ParseClock(%q) err = %v, want ErrBadClock", tt.in, err)
			}
			continue
		}
		if err != nil || h != tt.hour || m != tt.min {
			t.Errorf("ParseClock(%q) = %d, %d, %v; want %d, %d", tt.in, h, m, err, tt.hour, tt.min)
		}
	}
}

func TestWallClock(t *testing.T) {
	ref := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	got, err := WallClock("", "3:15 pm", ref)
	if err != nil {
		t.Fatalf("WallClock: %v", err)
	}
	if s := got.Format("2006-01-02 15:04"); s != "2024-05-20 15:15" {
		t.Errorf("WallClock without date = %s", s)
	}
	got, err = WallClock("2024-12-25", "9:00", ref)
	if err != nil {
		t.Fatalf("WallClock: %v", err)
	}
	if s := got.Format("2006-01-02 15:04"); s != "2024-12-25 09:00" {
		t.Errorf("WallClock with date = %s", s)
	}
	if _, err := WallClock("25/12/2024", "9:00", ref); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestFormatOffset(t *testing.T) {
	tests := map[int]string{
		0:      "+00:00",
		19800:  "+05:30",
		-28800: "-08:00",
		-12600: "-03:30",
		20700:  "+05:45",
	}
	for in, want := range tests {
		if got := FormatOffset(in); got != want {
			t.Errorf("FormatOffset(%d) = %s, want %s", in, got, want)
		}
	}
}
