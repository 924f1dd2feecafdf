// Package tzconvert converts wall-clock times between timezones.
// Every conversion goes through the tz database, so DST rules for the given
// date are always applied; the fixed offsets in the registry are display-only.
package tzconvert

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// Result is a single conversion between two zones.
type Result struct {
	FromTime  time.Time    `json:"fromTime"`
	ToTime    time.Time    `json:"toTime"`
	From      zones.Record `json:"fromZone"`
	To        zones.Record `json:"toZone"`
	HourDelta int          `json:"hourDelta"`
}

// Converter converts between registry zones.
type Converter struct {
	registry *zones.Registry
	logger   *slog.Logger
	fallback string
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithFallbackZone makes unknown zone IDs resolve to the given zone instead of
// failing. The substitution is logged at warn level.
func WithFallbackZone(id string) Option {
	return func(c *Converter) {
		c.fallback = id
	}
}

// New creates a Converter backed by the registry.
func New(registry *zones.Registry, opts ...Option) *Converter {
	c := &Converter{
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// record resolves a zone ID, applying the fallback zone if one is configured.
func (c *Converter) record(id string) (zones.Record, error) {
	if rec, ok := c.registry.ByID(id); ok {
		return rec, nil
	}
	if c.fallback != "" {
		if rec, ok := c.registry.ByID(c.fallback); ok {
			c.logger.Warn("unknown zone, using fallback", "zone", id, "fallback", c.fallback)
			return rec, nil
		}
	}
	return zones.Record{}, fmt.Errorf("%w: %q", zones.ErrNotFound, id)
}

// Convert reads the wall-clock fields of wall (its own location is ignored) as
// local time in fromID and returns the same instant as seen in toID.
//
// Example: Convert(15:00 on 2024-01-15, "America/New_York", "Asia/Tokyo")
// returns 05:00 on 2024-01-16 in Tokyo with HourDelta 14.
//
// HourDelta is the difference between the two wall-clock readings in whole
// hours, truncated toward zero (a +05:30 gap reports 5).
func (c *Converter) Convert(wall time.Time, fromID, toID string) (Result, error) {
	from, err := c.record(fromID)
	if err != nil {
		return Result{}, err
	}
	to, err := c.record(toID)
	if err != nil {
		return Result{}, err
	}

	fromLoc, err := from.Location()
	if err != nil {
		return Result{}, err
	}
	toLoc, err := to.Location()
	if err != nil {
		return Result{}, err
	}

	fromTime := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), fromLoc)
	toTime := fromTime.In(toLoc)

	c.logger.Debug("converted time",
		"from", from.ID, "from_time", fromTime.Format(time.RFC3339),
		"to", to.ID, "to_time", toTime.Format(time.RFC3339))

	return Result{
		From:      from,
		To:        to,
		FromTime:  fromTime,
		ToTime:    toTime,
		HourDelta: HourDelta(fromTime, toTime),
	}, nil
}

// Location returns the tz location for id, applying the fallback zone.
func (c *Converter) Location(id string) (*time.Location, error) {
	rec, err := c.record(id)
	if err != nil {
		return nil, err
	}
	return rec.Location()
}

// Now returns the current time in the given zone.
func (c *Converter) Now(id string) (time.Time, error) {
	loc, err := c.Location(id)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}

// HourDelta returns the whole-hour difference between the wall-clock readings
// of two times, truncated toward zero. For the same instant this is the
// difference between the zone offsets in effect at that instant.
func HourDelta(from, to time.Time) int {
	_, fromOffset := from.Zone()
	_, toOffset := to.Zone()
	wallDiff := to.Sub(from) + time.Duration(toOffset-fromOffset)*time.Second
	return int(wallDiff / time.Hour)
}

// FormatOffset renders an offset in seconds east of UTC as "+05:30" / "-08:00".
func FormatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

// ErrBadClock is returned by ParseClock for strings it cannot read.
var ErrBadClock = errors.New("invalid clock time")

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*(am|pm))?$`)

// ParseClock reads a normalized clock string ("3:00 pm", "15:30") and returns
// the hour in 24-hour form and the minute.
func ParseClock(s string) (hour, minute int, err error) {
	m := clockRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	hour, _ = strconv.Atoi(m[1]) //nolint:errcheck // regex guarantees digits
	minute, _ = strconv.Atoi(m[2]) //nolint:errcheck // regex guarantees digits

	switch m[3] {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		hour %= 12
		if m[3] == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return hour, minute, nil
}

// WallClock combines an ISO date ("2006-01-02", empty for the date of ref)
// and a normalized clock string into a wall-clock time. The returned time's
// location is ref's; callers pass it to Convert, which only reads the fields.
func WallClock(date, clock string, ref time.Time) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	day := ref
	if date != "" {
		d, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date %q: %w", date, err)
		}
		day = d
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, ref.Location()), nil
}
