// Package tzq answers natural-language timezone questions such as
// "3pm EST to Tokyo" by combining the query parser, an optional AI
// verifier, the converter and the context panel.
package tzq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/query"
	"github.com/codeGROOVE-dev/tzq/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzq/pkg/verify"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// DefaultHomeZone is used when no home zone is configured.
const DefaultHomeZone = "UTC"

// Engine answers queries.
type Engine struct {
	logger    *slog.Logger
	registry  *zones.Registry
	parser    *query.Parser
	verifier  verify.Verifier
	converter *tzconvert.Converter
	briefing  *briefing.Service
	now       func() time.Time
	homeZone  string
	rule      query.ValidityRule
}

// New creates an Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	o := &OptionHolder{
		logger:   slog.Default(),
		registry: zones.Default(),
		now:      time.Now,
		homeZone: DefaultHomeZone,
		rule:     query.RequireTimeAndZone,
	}
	for _, opt := range opts {
		opt(o)
	}

	if _, ok := o.registry.ByID(o.homeZone); !ok {
		return nil, fmt.Errorf("home zone: %w: %q", zones.ErrNotFound, o.homeZone)
	}
	if o.fallbackZone != "" {
		if _, ok := o.registry.ByID(o.fallbackZone); !ok {
			return nil, fmt.Errorf("fallback zone: %w: %q", zones.ErrNotFound, o.fallbackZone)
		}
	}

	convOpts := []tzconvert.Option{tzconvert.WithLogger(o.logger)}
	if o.fallbackZone != "" {
		convOpts = append(convOpts, tzconvert.WithFallbackZone(o.fallbackZone))
	}

	if o.briefing == nil {
		svc, err := briefing.NewService(ctx,
			briefing.MockWeather{Now: o.now},
			briefing.MockNews{Now: o.now},
			briefing.WithLogger(o.logger),
			briefing.WithNow(o.now))
		if err != nil {
			return nil, err
		}
		o.briefing = svc
	}

	return &Engine{
		logger:    o.logger,
		registry:  o.registry,
		parser:    query.New(o.registry, query.WithNow(o.now), query.WithRule(o.rule)),
		verifier:  o.verifier,
		converter: tzconvert.New(o.registry, convOpts...),
		briefing:  o.briefing,
		now:       o.now,
		homeZone:  o.homeZone,
		rule:      o.rule,
	}, nil
}

// Registry returns the zone registry.
func (e *Engine) Registry() *zones.Registry { return e.registry }

// Converter returns the converter.
func (e *Engine) Converter() *tzconvert.Converter { return e.converter }

// HomeZone returns the configured home zone ID.
func (e *Engine) HomeZone() string { return e.homeZone }

// Rule returns the validity rule.
func (e *Engine) Rule() query.ValidityRule { return e.rule }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.now() }

// Parse runs the local parser only.
func (e *Engine) Parse(text string) query.Query {
	return e.parser.Parse(text)
}

// Ask parses text, fills gaps from the verifier and converts. An
// unanswerable query returns a *QueryError; an unknown zone returns an
// error matching zones.ErrNotFound.
func (e *Engine) Ask(ctx context.Context, text string) (*Answer, error) {
	text = strings.TrimSpace(text)
	q := e.parser.Parse(text)
	source := SourceParser

	var suggestions []string
	if e.verifier != nil && text != "" {
		r, err := e.verifier.Verify(ctx, q)
		switch {
		case err != nil:
			e.logger.Warn("verification failed", "error", err)
		case r != nil:
			if merge(&q, r) {
				source = r.Source
			}
			suggestions = r.Suggestions
		}
	}
	q.IsValid = e.rule.Valid(q.Time, q.FromZone, q.ToZone)

	if !q.IsValid {
		if len(suggestions) == 0 {
			suggestions = query.Suggestions(q, e.rule)
		}
		e.logger.Debug("invalid query", "text", text, "query", q)
		return nil, &QueryError{Query: q, Suggestions: suggestions}
	}

	a := &Answer{Query: q, Source: source}
	from, to := q.FromZone, q.ToZone
	switch {
	case from == "":
		from, a.UsedHomeZone = e.homeZone, true
	case to == "":
		to, a.UsedHomeZone = e.homeZone, true
	}

	wall, usedNow, err := e.wallClock(q, from)
	if err != nil {
		return nil, err
	}
	a.UsedNow = usedNow

	res, err := e.converter.Convert(wall, from, to)
	if err != nil {
		return nil, fmt.Errorf("converting %s to %s: %w", from, to, err)
	}
	a.Result = res
	e.logger.Debug("answered query", "text", text, "from", res.From.ID, "to", res.To.ID, "source", source)
	return a, nil
}

// wallClock builds the wall time to convert: the query's date and time, with
// today and the current clock in the from zone filling whatever is missing.
func (e *Engine) wallClock(q query.Query, from string) (time.Time, bool, error) {
	loc, err := e.converter.Location(from)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("resolving %s: %w", from, err)
	}
	ref := e.now().In(loc)

	if q.Time == "" {
		if q.Date == "" {
			return ref, true, nil
		}
		d, err := time.Parse(time.DateOnly, q.Date)
		if err != nil {
			return time.Time{}, false, &QueryError{Query: q, Suggestions: []string{"Use a date like 2026-03-05 or \"tomorrow\""}}
		}
		return time.Date(d.Year(), d.Month(), d.Day(), ref.Hour(), ref.Minute(), 0, 0, loc), true, nil
	}

	wall, err := tzconvert.WallClock(q.Date, q.Time, ref)
	if errors.Is(err, tzconvert.ErrBadClock) {
		return time.Time{}, false, &QueryError{Query: q, Suggestions: query.Suggestions(query.Query{FromZone: from}, query.RequireTimeAndZone)}
	}
	if err != nil {
		return time.Time{}, false, &QueryError{Query: q, Suggestions: []string{"Use a date like 2026-03-05 or \"tomorrow\""}}
	}
	return wall, false, nil
}

// merge copies verifier fields into q where the parser found nothing and
// reports whether anything was copied.
func merge(q *query.Query, r *verify.Result) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&q.FromZone, r.FromZone)
	fill(&q.ToZone, r.ToZone)
	fill(&q.Time, r.Time)
	fill(&q.Date, r.Date)
	return changed
}

// Panel returns weather and news for an answer's zones.
func (e *Engine) Panel(ctx context.Context, a *Answer) (*briefing.Panel, error) {
	if a == nil {
		return nil, errors.New("no answer")
	}
	return e.briefing.Panel(ctx, a.Result.From, a.Result.To)
}

// PanelFor returns weather and news for two zone IDs.
func (e *Engine) PanelFor(ctx context.Context, fromID, toID string) (*briefing.Panel, error) {
	from, ok := e.registry.ByID(fromID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", zones.ErrNotFound, fromID)
	}
	to, ok := e.registry.ByID(toID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", zones.ErrNotFound, toID)
	}
	return e.briefing.Panel(ctx, from, to)
}

// Hours returns the 24 hour slots of date in zone id.
func (e *Engine) Hours(id string, date time.Time) ([]tzconvert.Hour, error) {
	return e.converter.HoursRange(date, id)
}

// Overlap returns the shared working hours of two zones on date.
func (e *Engine) Overlap(fromID, toID string, date time.Time) ([]tzconvert.OverlapSlot, error) {
	return e.converter.WorkingOverlap(date, fromID, toID)
}
