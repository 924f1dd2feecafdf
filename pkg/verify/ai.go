package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sashabaranov/go-openai"

	"github.com/codeGROOVE-dev/tzq/pkg/cache"
	"github.com/codeGROOVE-dev/tzq/pkg/query"
)

// completer sends one prompt and returns the raw model text.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AI verifies queries with a language model. Use New to build one; on its
// own it returns errors, which Fallback absorbs.
type AI struct {
	completer completer
	opts      *options
	provider  string
	model     string
	delay     time.Duration
	timeout   time.Duration
	attempts  uint
}

// reply is the JSON object the model is asked for.
type reply struct {
	FromZone    string   `json:"fromZone"`
	ToZone      string   `json:"toZone"`
	Time        string   `json:"time"`
	Date        string   `json:"date"`
	Error       string   `json:"error"`
	Suggestions []string `json:"suggestions"`
	IsValid     bool     `json:"isValid"`
}

// Verify asks the model to interpret q.OriginalText.
func (a *AI) Verify(ctx context.Context, q query.Query) (*Result, error) {
	logger := a.opts.logger
	now := a.opts.now()
	key := cache.Key("verify", a.provider, a.model, now.Format(time.DateOnly), q.OriginalText)

	var rep reply
	if data, ok := a.opts.cache.Get(key); ok {
		if err := json.Unmarshal(data, &rep); err == nil {
			logger.Debug("AI reply cache hit", "provider", a.provider)
			return a.result(rep), nil
		}
	}

	text, err := a.complete(ctx, buildPrompt(q.OriginalText, now))
	if err != nil {
		return nil, err
	}
	logger.Debug("raw AI reply", "provider", a.provider, "reply", text)

	jsonText, err := extractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s reply: %w", a.provider, err)
	}
	if err := json.Unmarshal([]byte(jsonText), &rep); err != nil {
		return nil, fmt.Errorf("decoding %s reply: %w", a.provider, err)
	}
	a.normalize(&rep)

	if data, err := json.Marshal(rep); err == nil {
		a.opts.cache.Set(key, data)
	}
	return a.result(rep), nil
}

func (a *AI) complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			var err error
			text, err = a.completer.Complete(callCtx, prompt)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(a.attempts),
		retry.Delay(a.delay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(max(a.delay/2, time.Millisecond)),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			a.opts.logger.Debug("retrying AI call", "provider", a.provider, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", a.provider, err)
	}
	return text, nil
}

// normalize maps model zone names onto registry IDs, dropping ones
// that don't resolve.
func (a *AI) normalize(rep *reply) {
	resolve := func(name string) string {
		name = strings.TrimSpace(name)
		if name == "" {
			return ""
		}
		if _, ok := a.opts.registry.ByID(name); ok {
			return name
		}
		if id, ok := a.opts.registry.Resolve(name); ok {
			return id
		}
		a.opts.logger.Debug("dropping unresolvable zone from AI reply", "zone", name)
		return ""
	}
	rep.FromZone = resolve(rep.FromZone)
	rep.ToZone = resolve(rep.ToZone)
	rep.Time = strings.ToLower(strings.TrimSpace(rep.Time))
	rep.Date = strings.TrimSpace(rep.Date)
	if rep.Date != "" {
		if _, err := time.Parse(time.DateOnly, rep.Date); err != nil {
			rep.Date = ""
		}
	}
}

// result recomputes validity with the configured rule.
func (a *AI) result(rep reply) *Result {
	r := &Result{
		FromZone:    rep.FromZone,
		ToZone:      rep.ToZone,
		Time:        rep.Time,
		Date:        rep.Date,
		Error:       rep.Error,
		Suggestions: rep.Suggestions,
		Source:      a.provider,
		IsValid:     a.opts.rule.Valid(rep.Time, rep.FromZone, rep.ToZone),
	}
	if r.IsValid {
		r.Error = ""
		r.Suggestions = nil
	} else if len(r.Suggestions) == 0 {
		r.Suggestions = query.Suggestions(query.Query{FromZone: r.FromZone, ToZone: r.ToZone, Time: r.Time}, a.opts.rule)
	}
	return r
}

// isTransient reports whether err is worth retrying: network failures,
// rate limits and server errors.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"rate limit", "quota", "timeout", "deadline", "unavailable",
		"internal server error", "502", "503", "504",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// extractJSON pulls a JSON object out of a reply that may wrap it in prose
// or fenced code blocks. Candidates are the whole reply, each fenced body,
// then the outermost brace span.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	candidates := []string{text}
	for rest := text; ; {
		_, after, ok := strings.Cut(rest, "```")
		if !ok {
			break
		}
		body, tail, ok := strings.Cut(after, "```")
		if !ok {
			break
		}
		candidates = append(candidates, strings.TrimPrefix(body, "json"))
		rest = tail
	}
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i != -1 && j > i {
		candidates = append(candidates, text[i:j+1])
	}

	for _, c := range candidates {
		if c = strings.TrimSpace(c); isJSONObject(c) {
			return c, nil
		}
	}
	return "", errors.New("no valid JSON object found in reply")
}

func isJSONObject(s string) bool {
	var obj map[string]any
	return json.Unmarshal([]byte(s), &obj) == nil
}
