package verify

import (
	"context"

	"github.com/codeGROOVE-dev/tzq/pkg/query"
)

// Basic validates queries locally with the regex parser.
type Basic struct {
	parser *query.Parser
	rule   query.ValidityRule
}

// NewBasic returns a local-only verifier.
func NewBasic(opts ...Option) *Basic {
	return newBasic(buildOptions(opts))
}

func newBasic(o *options) *Basic {
	return &Basic{
		parser: query.New(o.registry, query.WithNow(o.now), query.WithRule(o.rule)),
		rule:   o.rule,
	}
}

// Verify validates q. A query carrying only OriginalText is parsed first.
// It never returns an error.
func (b *Basic) Verify(_ context.Context, q query.Query) (*Result, error) {
	if !q.HasZone() && q.Time == "" && q.Date == "" && q.OriginalText != "" {
		q = b.parser.Parse(q.OriginalText)
	}

	r := &Result{
		FromZone: q.FromZone,
		ToZone:   q.ToZone,
		Time:     q.Time,
		Date:     q.Date,
		Source:   SourceBasic,
		IsValid:  b.rule.Valid(q.Time, q.FromZone, q.ToZone),
	}
	if !r.IsValid {
		r.Suggestions = query.Suggestions(q, b.rule)
	}
	return r, nil
}
