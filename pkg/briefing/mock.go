package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// hash is the 32-bit string hash h = h*31 + c with int32 wraparound.
func hash(s string) int32 {
	var h int32
	for _, c := range s {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// seed is a non-negative value derived from parts.
func seed(parts ...string) int {
	h := int64(hash(strings.Join(parts, "|")))
	if h < 0 {
		h = -h
	}
	return int(h)
}

type condition struct {
	name string
	icon string
}

var conditions = []condition{
	{"Sunny", "☀️"},
	{"Partly Cloudy", "⛅"},
	{"Cloudy", "☁️"},
	{"Light Rain", "🌦️"},
	{"Rain", "🌧️"},
	{"Thunderstorms", "⛈️"},
	{"Snow", "🌨️"},
	{"Fog", "🌫️"},
	{"Windy", "💨"},
}

// localDate is today's date in the zone, falling back to UTC.
func localDate(now time.Time, zone zones.Record) string {
	if loc, err := zone.Location(); err == nil {
		now = now.In(loc)
	}
	return now.Format(time.DateOnly)
}

// MockWeather derives plausible weather from the zone and local date.
// Output is stable for a given zone and day.
type MockWeather struct {
	Now func() time.Time
}

// Weather implements WeatherProvider.
func (m MockWeather) Weather(_ context.Context, zone zones.Record) (*Weather, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	n := seed("weather", zone.ID, localDate(now(), zone))
	c := conditions[n%len(conditions)]
	return &Weather{
		Condition:    c.name,
		Icon:         c.icon,
		TemperatureC: n%41 - 5,
		Humidity:     30 + (n/7)%61,
		WindKph:      (n / 13) % 41,
	}, nil
}

var headlineTemplates = []string{
	"%s transit authority announces weekend schedule changes",
	"Tech startups in %s report record funding quarter",
	"%s city council approves new park development",
	"Local markets in %s open higher after holiday",
	"%s hosts international food festival this week",
	"Weather service issues advisory for greater %s area",
	"%s airport expands international routes",
	"Museum in %s unveils new exhibition",
	"%s marathon draws thousands of runners",
	"Housing prices in %s hold steady",
}

var newsSources = []string{"City Wire", "Metro Daily", "Local Times", "The Courier", "Morning Post"}

// MockNews generates stable headlines for the zone's city.
type MockNews struct {
	Now   func() time.Time
	Count int
}

// News implements NewsProvider.
func (m MockNews) News(_ context.Context, zone zones.Record) ([]Headline, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	count := m.Count
	if count <= 0 {
		count = 3
	}

	date := localDate(now(), zone)
	city := zone.DisplayName
	used := make(map[int]bool, count)
	out := make([]Headline, 0, count)
	for i := 0; len(out) < count && i < count*len(headlineTemplates); i++ {
		n := seed("news", zone.ID, date, fmt.Sprint(i))
		t := n % len(headlineTemplates)
		if used[t] {
			continue
		}
		used[t] = true
		out = append(out, Headline{
			Title:  fmt.Sprintf(headlineTemplates[t], city),
			Source: newsSources[n%len(newsSources)],
		})
	}
	return out, nil
}
