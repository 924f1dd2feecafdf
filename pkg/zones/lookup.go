package zones

import (
	"strings"

	"github.com/samber/lo"
)

// normalize lowercases, trims and collapses internal whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// citySegment returns the last path segment of an IANA ID in readable form,
// e.g. "America/St_Johns" -> "st johns".
func citySegment(id string) string {
	seg := id[strings.LastIndexByte(id, '/')+1:]
	return strings.ToLower(strings.ReplaceAll(seg, "_", " "))
}

// Find matches free text against the registry. Rules are applied in order and
// the first record that matches wins; records are scanned in table order, so
// ambiguous abbreviations such as "CST" resolve to whichever entry comes first.
//
//  1. exact match on display name, ID, abbreviation or country
//  2. exact match on country alone
//  3. substring containment in either direction on display name, ID or country
//  4. query contained in the city segment of the ID
func (r *Registry) Find(query string) (Record, bool) {
	q := normalize(query)
	if q == "" {
		return Record{}, false
	}

	for _, match := range []func(Record, string) bool{exactMatch, countryMatch, containsMatch, fuzzyMatch} {
		for _, rec := range r.records {
			if match(rec, q) {
				return rec, true
			}
		}
	}
	return Record{}, false
}

// Search returns every record matched by any of the Find rules, in table
// order, capped at limit (limit <= 0 means no cap).
func (r *Registry) Search(query string, limit int) []Record {
	q := normalize(query)
	if q == "" {
		return r.All()
	}

	hits := lo.Filter(r.records, func(rec Record, _ int) bool {
		return exactMatch(rec, q) || containsMatch(rec, q) || fuzzyMatch(rec, q)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func exactMatch(rec Record, q string) bool {
	return strings.ToLower(rec.DisplayName) == q ||
		strings.ToLower(rec.ID) == q ||
		strings.ToLower(rec.Abbreviation) == q ||
		(rec.Country != "" && strings.ToLower(rec.Country) == q)
}

func countryMatch(rec Record, q string) bool {
	return rec.Country != "" && strings.ToLower(rec.Country) == q
}

func containsMatch(rec Record, q string) bool {
	for _, field := range []string{rec.DisplayName, rec.ID, rec.Country} {
		if field == "" {
			continue
		}
		f := strings.ToLower(field)
		if strings.Contains(f, q) || strings.Contains(q, f) {
			return true
		}
	}
	return false
}

func fuzzyMatch(rec Record, q string) bool {
	return strings.Contains(citySegment(rec.ID), q)
}
