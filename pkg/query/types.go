// Package query parses natural-language timezone questions such as
// "3pm EST to Tokyo" or "what time is 9:30 in Berlin tomorrow".
package query

import (
	"fmt"
	"strings"
)

// Query is the structured form of a free-text question.
type Query struct {
	FromZone     string `json:"fromZone,omitempty"`
	ToZone       string `json:"toZone,omitempty"`
	Time         string `json:"time,omitempty"`
	Date         string `json:"date,omitempty"`
	OriginalText string `json:"originalText"`
	IsValid      bool   `json:"isValid"`
}

// HasZone reports whether at least one zone was extracted.
func (q Query) HasZone() bool {
	return q.FromZone != "" || q.ToZone != ""
}

// ValidityRule decides when extracted fields are enough to act on.
type ValidityRule int

const (
	// RequireTimeAndZone needs a time and at least one zone.
	RequireTimeAndZone ValidityRule = iota
	// RequireZone needs only a zone; a missing time means "now".
	RequireZone
)

// Valid applies the rule to extracted fields.
func (r ValidityRule) Valid(clock, fromZone, toZone string) bool {
	hasZone := fromZone != "" || toZone != ""
	if r == RequireZone {
		return hasZone
	}
	return clock != "" && hasZone
}

func (r ValidityRule) String() string {
	if r == RequireZone {
		return "zone"
	}
	return "time+zone"
}

// ParseValidityRule reads a rule name as used in configuration.
func ParseValidityRule(s string) (ValidityRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "time+zone", "strict":
		return RequireTimeAndZone, nil
	case "zone", "lenient":
		return RequireZone, nil
	default:
		return RequireTimeAndZone, fmt.Errorf("unknown validity rule %q (want time+zone or zone)", s)
	}
}

// Suggestions returns short hints for fixing an incomplete query.
func Suggestions(q Query, rule ValidityRule) []string {
	var out []string
	if !q.HasZone() {
		out = append(out, "Add a city or timezone, e.g. \"3pm EST to Tokyo\" or \"5pm in Berlin\"")
	}
	if q.Time == "" && rule == RequireTimeAndZone {
		out = append(out, "Add a time, e.g. \"3pm\", \"15:30\" or \"noon\"")
	}
	return out
}
