package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timePattern pairs a regexp with a builder that turns its submatches into a
// normalized clock string ("H:MM" or "H:MM am").
type timePattern struct {
	re    *regexp.Regexp
	build func(m []string) (string, bool)
}

var timePatterns = []timePattern{
	{ // 3pm, 3:30 pm, 11 a.m.
		re:    regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(a\.m\.|p\.m\.|am\b|pm\b)`),
		build: twelveHour,
	},
	{ // 15:30, 3:30, 9:05 am
		re: regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?:\s*(am|pm)\b)?`),
		build: func(m []string) (string, bool) {
			if m[3] != "" {
				return twelveHour(m)
			}
			return twentyFourHour(m[1], m[2])
		},
	},
	{ // 330pm, 1130am
		re:    regexp.MustCompile(`\b(\d{1,2})(\d{2})\s*(am|pm)\b`),
		build: twelveHour,
	},
	{ // at 15, @ 9:30
		re: regexp.MustCompile(`(?:\bat|@)\s*(\d{1,2})(?::(\d{2}))?\b`),
		build: func(m []string) (string, bool) {
			return twentyFourHour(m[1], m[2])
		},
	},
	{ // 1430, 0900h
		re: regexp.MustCompile(`\b([01]\d|2[0-3])([0-5]\d)\s*(?:hours|hrs|h)?\b`),
		build: func(m []string) (string, bool) {
			return twentyFourHour(m[1], m[2])
		},
	},
	{
		re: regexp.MustCompile(`\b(noon|midday|midnight)\b`),
		build: func(m []string) (string, bool) {
			if m[1] == "midnight" {
				return "12:00 am", true
			}
			return "12:00 pm", true
		},
	},
}

func twelveHour(m []string) (string, bool) {
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil || minute > 59 {
			return "", false
		}
	}
	meridiem := "am"
	if strings.HasPrefix(m[3], "p") {
		meridiem = "pm"
	}
	return fmt.Sprintf("%d:%02d %s", hour, minute, meridiem), true
}

func twentyFourHour(h, mm string) (string, bool) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return "", false
	}
	minute := 0
	if mm != "" {
		if minute, err = strconv.Atoi(mm); err != nil || minute > 59 {
			return "", false
		}
	}
	return fmt.Sprintf("%d:%02d", hour, minute), true
}

// extractTime returns the first valid clock found, trying patterns in order.
func extractTime(text string) (string, span) {
	for _, p := range timePatterns {
		for _, idx := range p.re.FindAllStringSubmatchIndex(text, -1) {
			m := make([]string, len(idx)/2)
			for i := range m {
				if idx[2*i] >= 0 {
					m[i] = text[idx[2*i]:idx[2*i+1]]
				}
			}
			if clock, ok := p.build(m); ok {
				return clock, span{idx[0], idx[1]}
			}
		}
	}
	return "", nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const (
	weekdayAlt = `sunday|monday|tuesday|wednesday|thursday|friday|saturday|sun|mon|tues|tue|wed|thurs|thu|fri|sat`
	yearSuffix = `(?:,?\s+((?:19|20)\d{2})\b)?`
	monthAlt   = `january|february|march|april|may|june|july|august|september|october|november|december|sept|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec`
)

var (
	todayRegex    = regexp.MustCompile(`\b(today|tonight)\b`)
	tomorrowRegex = regexp.MustCompile(`\btomorrow\b`)
	nextRegex     = regexp.MustCompile(`\bnext\s+(week|` + weekdayAlt + `)\b`)
	weekdayRegex  = regexp.MustCompile(`\b(?:on\s+)?(` + weekdayAlt + `)\b`)
	dayMonthRegex = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlt + `)\b` + yearSuffix)
	monthDayRegex = regexp.MustCompile(`\b(` + monthAlt + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b` + yearSuffix)
)

// extractDate resolves date phrases against now and returns an ISO date.
func extractDate(text string, now time.Time) (string, span) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	iso := func(t time.Time) string { return t.Format(time.DateOnly) }

	if idx := todayRegex.FindStringIndex(text); idx != nil {
		return iso(today), idx
	}
	if idx := tomorrowRegex.FindStringIndex(text); idx != nil {
		return iso(today.AddDate(0, 0, 1)), idx
	}
	if m := nextRegex.FindStringSubmatchIndex(text); m != nil {
		word := text[m[2]:m[3]]
		if word == "week" {
			return iso(today.AddDate(0, 0, 7)), span{m[0], m[1]}
		}
		days := daysUntil(today.Weekday(), weekdays[word])
		if days == 0 {
			days = 7
		}
		return iso(today.AddDate(0, 0, days)), span{m[0], m[1]}
	}
	if m := weekdayRegex.FindStringSubmatchIndex(text); m != nil {
		wd := weekdays[text[m[2]:m[3]]]
		return iso(today.AddDate(0, 0, daysUntil(today.Weekday(), wd))), span{m[0], m[1]}
	}
	if m := dayMonthRegex.FindStringSubmatchIndex(text); m != nil {
		if d, ok := calendarDate(today, text[m[4]:m[5]], text[m[2]:m[3]], submatch(text, m, 3)); ok {
			return iso(d), span{m[0], m[1]}
		}
	}
	if m := monthDayRegex.FindStringSubmatchIndex(text); m != nil {
		if d, ok := calendarDate(today, text[m[2]:m[3]], text[m[4]:m[5]], submatch(text, m, 3)); ok {
			return iso(d), span{m[0], m[1]}
		}
	}
	return "", nil
}

func daysUntil(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

// submatch returns group n of a FindStringSubmatchIndex result, or "".
func submatch(text string, m []int, n int) string {
	if len(m) <= 2*n+1 || m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

// calendarDate builds a date in the given year (the current one when empty),
// rejecting days that would roll over into the next month.
func calendarDate(today time.Time, month, day, year string) (time.Time, bool) {
	mon, ok := months[month]
	if !ok {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	y := today.Year()
	if year != "" {
		if y, err = strconv.Atoi(year); err != nil {
			return time.Time{}, false
		}
	}
	t := time.Date(y, mon, d, 0, 0, 0, 0, today.Location())
	if t.Month() != mon {
		return time.Time{}, false
	}
	return t, true
}
