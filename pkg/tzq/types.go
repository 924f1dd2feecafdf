package tzq

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/briefing"
	"github.com/codeGROOVE-dev/tzq/pkg/query"
	"github.com/codeGROOVE-dev/tzq/pkg/tzconvert"
	"github.com/codeGROOVE-dev/tzq/pkg/verify"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// ErrInvalidQuery is matched by every *QueryError.
var ErrInvalidQuery = errors.New("invalid query")

// QueryError reports a query that can't be answered, with hints for fixing it.
type QueryError struct {
	Query       query.Query
	Suggestions []string
}

func (e *QueryError) Error() string {
	if e.Query.OriginalText == "" {
		return "invalid query: empty"
	}
	return fmt.Sprintf("invalid query %q", e.Query.OriginalText)
}

// Unwrap lets errors.Is match ErrInvalidQuery.
func (e *QueryError) Unwrap() error {
	return ErrInvalidQuery
}

// Answer is a resolved query and its conversion.
type Answer struct {
	Query  query.Query      `json:"query"`
	Result tzconvert.Result `json:"result"`
	// Source is "parser" or the verifier that supplied missing fields.
	Source string `json:"source"`
	// UsedHomeZone is set when the query named one zone and the home zone
	// filled the other side.
	UsedHomeZone bool `json:"usedHomeZone,omitempty"`
	// UsedNow is set when the query had no time.
	UsedNow bool `json:"usedNow,omitempty"`
}

// SourceParser marks answers built from the local parser alone.
const SourceParser = "parser"

// Option configures an Engine.
type Option func(*OptionHolder)

// OptionHolder holds configuration options.
type OptionHolder struct {
	logger       *slog.Logger
	registry     *zones.Registry
	verifier     verify.Verifier
	briefing     *briefing.Service
	now          func() time.Time
	homeZone     string
	fallbackZone string
	rule         query.ValidityRule
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *OptionHolder) {
		o.logger = logger
	}
}

// WithRegistry replaces the built-in zone table.
func WithRegistry(r *zones.Registry) Option {
	return func(o *OptionHolder) {
		o.registry = r
	}
}

// WithVerifier consults v for fields the parser left empty.
func WithVerifier(v verify.Verifier) Option {
	return func(o *OptionHolder) {
		o.verifier = v
	}
}

// WithValidityRule sets when a query is complete enough to answer.
func WithValidityRule(rule query.ValidityRule) Option {
	return func(o *OptionHolder) {
		o.rule = rule
	}
}

// WithHomeZone sets the zone used when a query names only one.
func WithHomeZone(id string) Option {
	return func(o *OptionHolder) {
		o.homeZone = id
	}
}

// WithNow sets the clock.
func WithNow(now func() time.Time) Option {
	return func(o *OptionHolder) {
		o.now = now
	}
}

// WithFallbackZone converts unknown zone IDs as id instead of failing.
func WithFallbackZone(id string) Option {
	return func(o *OptionHolder) {
		o.fallbackZone = id
	}
}

// WithBriefing sets the context panel service.
func WithBriefing(s *briefing.Service) Option {
	return func(o *OptionHolder) {
		o.briefing = s
	}
}
