// Package verify checks parsed queries, optionally with an AI model, and
// falls back to local validation whenever the model can't help.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tzq/pkg/cache"
	"github.com/codeGROOVE-dev/tzq/pkg/query"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

// SourceBasic marks results produced by local validation.
const SourceBasic = "basic"

// Result is a verified query.
type Result struct {
	FromZone    string   `json:"fromZone,omitempty"`
	ToZone      string   `json:"toZone,omitempty"`
	Time        string   `json:"time,omitempty"`
	Date        string   `json:"date,omitempty"`
	Error       string   `json:"error,omitempty"`
	Source      string   `json:"source"`
	Suggestions []string `json:"suggestions,omitempty"`
	IsValid     bool     `json:"isValid"`
}

func (r *Result) empty() bool {
	return r.FromZone == "" && r.ToZone == "" && r.Time == ""
}

// Verifier checks a query.
type Verifier interface {
	Verify(ctx context.Context, q query.Query) (*Result, error)
}

type kind int

const (
	kindOpenAI kind = iota
	kindGemini
)

// Provider describes an AI backend.
type Provider struct {
	Name         string
	BaseURL      string
	DefaultModel string
	KeyEnv       string
	kind         kind
}

var providers = map[string]Provider{
	"openai": {
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		KeyEnv:       "OPENAI_API_KEY",
	},
	"deepseek": {
		Name:         "deepseek",
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: "deepseek-chat",
		KeyEnv:       "DEEPSEEK_API_KEY",
	},
	"llama": {
		Name:         "llama",
		BaseURL:      "https://api.llama.com/compat/v1",
		DefaultModel: "Llama-3.3-70B-Instruct",
		KeyEnv:       "LLAMA_API_KEY",
	},
	"openrouter": {
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "meta-llama/llama-3.1-8b-instruct",
		KeyEnv:       "OPENROUTER_API_KEY",
	},
	"gemini": {
		Name:         "gemini",
		DefaultModel: "gemini-2.5-flash-lite",
		KeyEnv:       "GEMINI_API_KEY",
		kind:         kindGemini,
	},
}

// LookupProvider returns the named provider.
func LookupProvider(name string) (Provider, bool) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Providers lists provider names in sorted order.
func Providers() []string {
	return slices.Sorted(maps.Keys(providers))
}

// KeyFromEnv returns the vendor API key for the provider, if set.
func KeyFromEnv(name string) string {
	p, ok := LookupProvider(name)
	if !ok {
		return ""
	}
	return os.Getenv(p.KeyEnv)
}

// Config selects and authenticates an AI provider.
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string // overrides the provider's endpoint
	GCPProject string // Gemini via Vertex AI when no APIKey is set
	Attempts   uint
	RetryDelay time.Duration
	Timeout    time.Duration
}

const (
	defaultAttempts   = 3
	defaultRetryDelay = 500 * time.Millisecond
	defaultTimeout    = 15 * time.Second
	replyTTL          = 30 * time.Minute
)

type options struct {
	logger   *slog.Logger
	cache    *cache.Cache
	registry *zones.Registry
	rule     query.ValidityRule
	now      func() time.Time
}

// Option configures verifiers built by New and NewBasic.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache stores successful AI replies in c. Without it a private
// in-memory cache is used.
func WithCache(c *cache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithRegistry sets the registry used to normalize zone names.
func WithRegistry(r *zones.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithRule sets the validity rule applied to every result.
func WithRule(rule query.ValidityRule) Option {
	return func(o *options) {
		o.rule = rule
	}
}

// WithNow sets the clock used for relative dates in local validation.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger:   slog.Default(),
		registry: zones.Default(),
		rule:     query.RequireTimeAndZone,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New returns a verifier for cfg. With no credentials it returns local
// validation only; otherwise the AI client is wrapped in Fallback.
func New(ctx context.Context, cfg Config, opts ...Option) (Verifier, error) {
	o := buildOptions(opts)
	basic := newBasic(o)

	if cfg.Provider == "" {
		return basic, nil
	}
	p, ok := LookupProvider(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown AI provider %q (want one of %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}
	if cfg.APIKey == "" && (p.kind != kindGemini || cfg.GCPProject == "") {
		o.logger.Debug("no AI credentials configured, using basic validation", "provider", p.Name)
		return basic, nil
	}

	if cfg.Model == "" {
		cfg.Model = p.DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	if o.cache == nil {
		c, err := cache.New(ctx, replyTTL, cache.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("creating reply cache: %w", err)
		}
		o.cache = c
	}

	var c completer
	switch p.kind {
	case kindGemini:
		c = newGeminiCompleter(cfg, o.logger)
	default:
		c = newOpenAICompleter(cfg)
	}

	ai := &AI{
		completer: c,
		provider:  p.Name,
		model:     cfg.Model,
		attempts:  cfg.Attempts,
		delay:     cfg.RetryDelay,
		timeout:   cfg.Timeout,
		opts:      o,
	}
	o.logger.Debug("AI verifier configured", "provider", p.Name, "model", cfg.Model)
	return Fallback(ai, basic, o.logger), nil
}
