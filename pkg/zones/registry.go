// Package zones holds the timezone registry and the lookup rules used to turn
// free text ("tokyo", "EST", "Germany") into an IANA timezone record.
package zones

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound is returned when a zone name or ID cannot be resolved.
var ErrNotFound = errors.New("timezone not found")

// Record describes a single timezone entry.
// UTCOffset is the standard (non-DST) offset and is for display only;
// conversions always go through the tz database via ID.
type Record struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	UTCOffset    string `json:"utcOffset"`
	Abbreviation string `json:"abbreviation"`
	Country      string `json:"countryName,omitempty"`
}

// Location loads the *time.Location for the record.
func (r Record) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.ID)
	if err != nil {
		return nil, fmt.Errorf("loading location %q: %w", r.ID, err)
	}
	return loc, nil
}

// Registry is an immutable table of timezone records plus the alias table.
type Registry struct {
	byID    map[string]int
	aliases map[string]string
	records []Record
}

// New builds a registry. Every record ID must load as a tz location and every
// alias must point at a record in the table.
func New(records []Record, aliases map[string]string) (*Registry, error) {
	r := &Registry{
		records: make([]Record, len(records)),
		byID:    make(map[string]int, len(records)),
		aliases: make(map[string]string, len(aliases)),
	}
	copy(r.records, records)

	for i, rec := range r.records {
		if _, dup := r.byID[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate record %q", rec.ID)
		}
		if _, err := rec.Location(); err != nil {
			return nil, err
		}
		r.byID[rec.ID] = i
	}

	for term, id := range aliases {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("alias %q points at unknown zone %q", term, id)
		}
		r.aliases[normalize(term)] = id
	}

	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := New(defaultRecords, defaultAliases)
	if err != nil {
		panic(fmt.Sprintf("zones: invalid built-in registry: %v", err))
	}
	return r
})

// Default returns the built-in registry. It is built once and shared.
func Default() *Registry {
	return defaultRegistry()
}

// All returns a copy of every record in table order.
func (r *Registry) All() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// ByID returns the record with exactly this IANA ID.
func (r *Registry) ByID(id string) (Record, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// Location returns the tz location for a registry ID, or ErrNotFound.
func (r *Registry) Location(id string) (*time.Location, error) {
	rec, ok := r.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return rec.Location()
}

// Alias resolves a casual term ("nyc", "pst") to an IANA ID.
func (r *Registry) Alias(term string) (string, bool) {
	id, ok := r.aliases[normalize(term)]
	return id, ok
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	out := make(map[string]string, len(r.aliases))
	for k, v := range r.aliases {
		out[k] = v
	}
	return out
}

// Resolve turns free text into an IANA ID, preferring the alias table and
// falling back to Find.
func (r *Registry) Resolve(text string) (string, bool) {
	if id, ok := r.Alias(text); ok {
		return id, true
	}
	if rec, ok := r.Find(text); ok {
		return rec.ID, true
	}
	return "", false
}
