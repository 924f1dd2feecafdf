package query

import (
	"regexp"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// Parser extracts time, date and zones from free text.
type Parser struct {
	registry *zones.Registry
	now      func() time.Time
	rule     ValidityRule
}

// Option configures a Parser.
type Option func(*Parser)

// WithNow sets the clock used to resolve relative dates like "tomorrow".
func WithNow(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// WithRule sets the validity rule.
func WithRule(rule ValidityRule) Option {
	return func(p *Parser) {
		p.rule = rule
	}
}

// New creates a parser backed by the registry's alias table and lookup.
func New(registry *zones.Registry, opts ...Option) *Parser {
	p := &Parser{
		registry: registry,
		now:      time.Now,
		rule:     RequireTimeAndZone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rule returns the parser's validity rule.
func (p *Parser) Rule() ValidityRule {
	return p.rule
}

// Parse extracts a Query from text. It never fails; missing fields are left
// empty and IsValid reflects the configured rule.
func (p *Parser) Parse(text string) Query {
	q := Query{OriginalText: text}
	lower := strings.ToLower(text)

	date, dateSpan := extractDate(lower, p.now())
	q.Date = date
	lower = blank(lower, dateSpan)

	clock, timeSpan := extractTime(lower)
	q.Time = clock

	rest := blank(lower, timeSpan)
	q.FromZone, q.ToZone = p.extractZones(rest)

	q.IsValid = p.rule.Valid(q.Time, q.FromZone, q.ToZone)
	return q
}

// span is a [start, end) byte range into the lowercased text; nil means no match.
type span []int

// blank replaces the given spans with spaces so later stages don't see them.
func blank(s string, spans ...span) string {
	b := []byte(s)
	for _, sp := range spans {
		if len(sp) < 2 {
			continue
		}
		for i := sp[0]; i < sp[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

var (
	punctuationRegex = regexp.MustCompile(`[?!,;:()"]+`)
	fromToRegex      = regexp.MustCompile(`^(?:from\s+)?(.*?)(?:(?:^|\s+)(?:to|into)\s+|\s*->\s*)(.+)$`)
	inRegex          = regexp.MustCompile(`\bin\s+(.+)$`)
)

// stopWords are filler words dropped before resolving a zone phrase.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "be": true, "clock": true, "convert": true,
	"for": true, "from": true, "is": true, "it": true, "local": true, "me": true, "my": true,
	"o'clock": true, "oclock": true, "of": true, "on": true, "please": true, "show": true,
	"tell": true, "the": true, "time": true, "what": true, "what's": true, "whats": true,
	"when": true, "will": true,
}

// extractZones tries the "X to Y" form, then "in X", then a token scan.
// A bare "to Y" leaves from empty.
func (p *Parser) extractZones(text string) (from, to string) {
	text = strings.TrimSpace(punctuationRegex.ReplaceAllString(text, " "))
	if text == "" {
		return "", ""
	}

	if m := fromToRegex.FindStringSubmatch(text); m != nil {
		from = p.resolvePhrase(m[1], true)
		to = p.resolvePhrase(m[2], false)
		if from != "" || to != "" {
			return from, to
		}
	}

	if m := inRegex.FindStringSubmatch(text); m != nil {
		if id := p.resolvePhrase(m[1], false); id != "" {
			return id, ""
		}
	}

	return p.scanTokens(strings.Fields(text))
}

// resolvePhrase resolves one side of a zone phrase. The alias table is tried
// on the whole phrase and then on 2- and 1-word windows anchored at the end
// nearest the connector (trailing words for the left side, leading words for
// the right side). Registry lookup is the last resort.
func (p *Parser) resolvePhrase(phrase string, trailing bool) string {
	var words []string
	for _, w := range strings.Fields(phrase) {
		if !stopWords[w] {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return ""
	}

	candidates := []string{strings.Join(words, " ")}
	for _, n := range []int{2, 1} {
		if len(words) <= n {
			continue
		}
		if trailing {
			candidates = append(candidates, strings.Join(words[len(words)-n:], " "))
		} else {
			candidates = append(candidates, strings.Join(words[:n], " "))
		}
	}

	for _, c := range candidates {
		if id, ok := p.registry.Alias(c); ok {
			return id
		}
	}
	for _, c := range candidates {
		if len(c) < 3 {
			continue
		}
		if rec, ok := p.registry.Find(c); ok {
			return rec.ID
		}
	}
	return ""
}

// scanTokens walks tokens left to right testing 2-word then 1-word windows
// against the alias table, filling from before to.
func (p *Parser) scanTokens(tokens []string) (from, to string) {
	var found []string
	for i := 0; i < len(tokens) && len(found) < 2; {
		if i+1 < len(tokens) {
			if id, ok := p.registry.Alias(tokens[i] + " " + tokens[i+1]); ok {
				found = append(found, id)
				i += 2
				continue
			}
		}
		if id, ok := p.registry.Alias(tokens[i]); ok {
			found = append(found, id)
		}
		i++
	}

	switch len(found) {
	case 0:
		return "", ""
	case 1:
		return found[0], ""
	default:
		return found[0], found[1]
	}
}
