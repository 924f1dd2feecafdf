package tzconvert

import (
	"time"
)

const (
	// WorkdayStart and WorkdayEnd bound working hours in local time, inclusive.
	WorkdayStart = 9
	WorkdayEnd   = 17

	// overlapTolerance is how far apart two hour slots may be and still pair.
	overlapTolerance = 5 * time.Minute
)

// Hour is one slot of a zone's day.
type Hour struct {
	Time          time.Time `json:"-"`
	Label         string    `json:"label"`
	TimestampMs   int64     `json:"timestampMs"`
	IsWorkingHour bool      `json:"isWorkingHour"`
}

// OverlapSlot pairs two working hours that fall on the same instant.
type OverlapSlot struct {
	From Hour `json:"from"`
	To   Hour `json:"to"`
}

// HoursRange returns the 24 hour slots starting at local midnight of date in
// the given zone. Slots are exactly one hour apart in absolute time, so on DST
// transition days local labels repeat or skip an hour.
func (c *Converter) HoursRange(date time.Time, id string) ([]Hour, error) {
	rec, err := c.record(id)
	if err != nil {
		return nil, err
	}
	loc, err := rec.Location()
	if err != nil {
		return nil, err
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	hours := make([]Hour, 24)
	for i := range hours {
		t := start.Add(time.Duration(i) * time.Hour)
		local := t.Hour()
		hours[i] = Hour{
			Time:          t,
			Label:         t.Format("15:04"),
			TimestampMs:   t.UnixMilli(),
			IsWorkingHour: local >= WorkdayStart && local <= WorkdayEnd,
		}
	}
	return hours, nil
}

// Overlap pairs the working hours of two ranges whose timestamps are within
// five minutes of each other. Zones whose offsets differ by a fractional hour
// never pair.
func Overlap(a, b []Hour) []OverlapSlot {
	var slots []OverlapSlot
	for _, ha := range a {
		if !ha.IsWorkingHour {
			continue
		}
		for _, hb := range b {
			if !hb.IsWorkingHour {
				continue
			}
			diff := time.Duration(ha.TimestampMs-hb.TimestampMs) * time.Millisecond
			if diff < 0 {
				diff = -diff
			}
			if diff <= overlapTolerance {
				slots = append(slots, OverlapSlot{From: ha, To: hb})
				break
			}
		}
	}
	return slots
}

// WorkingOverlap computes the overlap of two zones' working hours on date.
func (c *Converter) WorkingOverlap(date time.Time, fromID, toID string) ([]OverlapSlot, error) {
	a, err := c.HoursRange(date, fromID)
	if err != nil {
		return nil, err
	}
	b, err := c.HoursRange(date, toID)
	if err != nil {
		return nil, err
	}
	return Overlap(a, b), nil
}
