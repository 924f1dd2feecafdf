package verify

import (
	"context"
	"log/slog"

	"github.com/codeGROOVE-dev/tzq/pkg/query"
)

type fallback struct {
	primary Verifier
	basic   Verifier
	logger  *slog.Logger
}

// Fallback returns a verifier that tries primary and answers from basic
// when primary errors or returns nothing usable. It never returns an
// error unless basic does.
func Fallback(primary, basic Verifier, logger *slog.Logger) Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &fallback{primary: primary, basic: basic, logger: logger}
}

func (f *fallback) Verify(ctx context.Context, q query.Query) (*Result, error) {
	r, err := f.primary.Verify(ctx, q)
	switch {
	case err != nil:
		f.logger.Warn("AI verification failed, using basic validation", "error", err)
	case r == nil || r.empty():
		f.logger.Warn("AI verification returned no fields, using basic validation")
	default:
		return r, nil
	}
	return f.basic.Verify(ctx, q)
}
