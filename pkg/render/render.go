// Package render formats conversions, hour grids and context panels for
// the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// Options control formatting.
type Options struct {
	Use24h bool
}

func (o Options) layout() string {
	if o.Use24h {
		return "15:04"
	}
	return "3:04 PM"
}

// Clock formats t's wall clock.
func (o Options) Clock(t time.Time) string {
	return t.Format(o.layout())
}

var (
	bold    = color.New(color.Bold)
	cyan    = color.New(color.FgCyan)
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	grey    = color.New(color.FgHiBlack)
	magenta = color.New(color.FgMagenta)
)

// dayShift is the calendar-day difference between the wall dates of a and b.
func dayShift(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

func zoneLabel(rec zones.Record) string {
	if rec.Abbreviation == "" {
		return rec.DisplayName
	}
	return fmt.Sprintf("%s (%s)", rec.DisplayName, rec.Abbreviation)
}

// Conversion renders a single conversion result.
func Conversion(r tzconvert.Result, o Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", bold.Sprint(o.Clock(r.FromTime)), zoneLabel(r.From))
	fmt.Fprintf(&b, "%s  %s", cyan.Sprint(o.Clock(r.ToTime)), zoneLabel(r.To))
	switch shift := dayShift(r.FromTime, r.ToTime); {
	case shift == 1:
		b.WriteString(yellow.Sprint("  next day"))
	case shift == -1:
		b.WriteString(yellow.Sprint("  previous day"))
	case shift != 0:
		b.WriteString(yellow.Sprintf("  %+d days", shift))
	}
	b.WriteString("\n")

	delta := "same time"
	if r.HourDelta != 0 {
		delta = fmt.Sprintf("%+dh", r.HourDelta)
	}
	_, fromOff := r.FromTime.Zone()
	_, toOff := r.ToTime.Zone()
	fmt.Fprintf(&b, "%s\n", grey.Sprintf("%s %s (UTC%s → UTC%s)",
		r.ToTime.Format("Mon Jan 2"), delta, tzconvert.FormatOffset(fromOff), tzconvert.FormatOffset(toOff)))
	return b.String()
}

// Hours renders a zone's day as a grid, marking working hours and the
// hour containing now.
func Hours(rec zones.Record, hours []tzconvert.Hour, now time.Time, o Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🕘 %s\n", bold.Sprint(zoneLabel(rec)))
	b.WriteString(strings.Repeat("─", 32) + "\n")

	for _, h := range hours {
		marker := "  "
		if !now.IsZero() && !now.Before(h.Time) && now.Before(h.Time.Add(time.Hour)) {
			marker = magenta.Sprint("▶ ")
		}
		label := fmt.Sprintf("%8s", o.Clock(h.Time))
		if h.IsWorkingHour {
			fmt.Fprintf(&b, "%s%s %s\n", marker, label, green.Sprint(strings.Repeat("█", 8)))
		} else {
			fmt.Fprintf(&b, "%s%s %s\n", marker, label, grey.Sprint("·"))
		}
	}
	return b.String()
}

// Overlap renders the shared working hours of two zones.
func Overlap(from, to zones.Record, slots []tzconvert.OverlapSlot, o Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤝 Working hours overlap: %s ↔ %s\n", from.DisplayName, to.DisplayName)
	if len(slots) == 0 {
		b.WriteString(yellow.Sprint("No overlapping working hours") + "\n")
		return b.String()
	}
	for _, s := range slots {
		fmt.Fprintf(&b, "  %8s  ↔  %8s\n", o.Clock(s.From.Time), o.Clock(s.To.Time))
	}
	hours := len(slots)
	fmt.Fprintf(&b, "%s\n", grey.Sprintf("%d %s of overlap", hours, lo.Ternary(hours == 1, "hour", "hours")))
	return b.String()
}

func weatherLine(rec zones.Record, w *briefing.Weather) string {
	if w == nil {
		return fmt.Sprintf("  %-16s %s", rec.DisplayName, grey.Sprint("weather unavailable"))
	}
	return fmt.Sprintf("  %-16s %s %s, %d°C, %d%% humidity, wind %d km/h",
		rec.DisplayName, w.Icon, w.Condition, w.TemperatureC, w.Humidity, w.WindKph)
}

// Panel renders the context panel.
func Panel(from, to zones.Record, p *briefing.Panel) string {
	var b strings.Builder
	b.WriteString(bold.Sprint("Weather") + "\n")
	b.WriteString(weatherLine(from, p.FromWeather) + "\n")
	b.WriteString(weatherLine(to, p.ToWeather) + "\n")

	fmt.Fprintf(&b, "%s\n", bold.Sprintf("News from %s", to.DisplayName))
	if p.News == nil {
		b.WriteString("  " + grey.Sprint("news unavailable") + "\n")
		return b.String()
	}
	for _, h := range p.News {
		fmt.Fprintf(&b, "  • %s %s\n", h.Title, grey.Sprintf("(%s)", h.Source))
	}
	return b.String()
}

// Zones lists records, starring favorites.
func Zones(records []zones.Record, favorites []string) string {
	var b strings.Builder
	for _, rec := range records {
		star := "  "
		if lo.Contains(favorites, rec.ID) {
			star = yellow.Sprint("★ ")
		}
		fmt.Fprintf(&b, "%s%-32s %-22s %s\n", star, rec.ID, rec.DisplayName, grey.Sprint(rec.UTCOffset))
	}
	return b.String()
}
