package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeGROOVE-dev/tzq/pkg/query"
)

func fixedNow() time.Time {
	return time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
}

// chatServer fakes an OpenAI-compatible endpoint. reply returns the model
// content or an HTTP status to fail with.
func chatServer(t *testing.T, reply func(n int32) (string, int)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		content, status := reply(n)
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		body, err := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(url string) Config {
	return Config{
		Provider:   "openai",
		APIKey:     "test-key",
		Model:      "test-model",
		BaseURL:    url,
		Attempts:   3,
		RetryDelay: time.Millisecond,
	}
}

func TestAIVerify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Result
	}{
		{
			name:    "direct json",
			content: `{"isValid":true,"fromZone":"America/New_York","toZone":"Asia/Tokyo","time":"3:00 PM"}`,
			want:    Result{IsValid: true, FromZone: "America/New_York", ToZone: "Asia/Tokyo", Time: "3:00 pm", Source: "openai"},
		},
		{
			name:    "fenced json with prose and aliases",
			content: "Sure!\n```json\n{\"isValid\":true,\"fromZone\":\"EST\",\"toZone\":\"tokyo\",\"time\":\"15:00\"}\n```",
			want:    Result{IsValid: true, FromZone: "America/New_York", ToZone: "Asia/Tokyo", Time: "15:00", Source: "openai"},
		},
		{
			name:    "validity recomputed",
			content: `{"isValid":true,"fromZone":"Europe/Berlin"}`,
			want: Result{
				FromZone:    "Europe/Berlin",
				Source:      "openai",
				Suggestions: []string{"Add a time, e.g. \"3pm\", \"15:30\" or \"noon\""},
			},
		},
		{
			name:    "unknown zone dropped and bad date cleared",
			content: `{"isValid":true,"fromZone":"Narnia","toZone":"Europe/Paris","time":"9:00","date":"next tuesday"}`,
			want:    Result{IsValid: true, ToZone: "Europe/Paris", Time: "9:00", Source: "openai"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, func(int32) (string, int) { return tt.content, http.StatusOK })
			v, err := New(context.Background(), testConfig(srv.URL), WithNow(fixedNow))
			require.NoError(t, err)

			got, err := v.Verify(context.Background(), query.Query{OriginalText: "3pm EST to Tokyo"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestAIRetriesTransientErrors(t *testing.T) {
	srv, calls := chatServer(t, func(n int32) (string, int) {
		if n < 3 {
			return "", http.StatusServiceUnavailable
		}
		return `{"isValid":true,"fromZone":"Europe/London","time":"9:00 am"}`, http.StatusOK
	})
	v, err := New(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), query.Query{OriginalText: "9am london"})
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Source)
	assert.Equal(t, "Europe/London", got.FromZone)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAIRepliesAreCached(t *testing.T) {
	srv, calls := chatServer(t, func(int32) (string, int) {
		return `{"isValid":true,"fromZone":"Asia/Tokyo","time":"9:00"}`, http.StatusOK
	})
	v, err := New(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	for range 3 {
		_, err := v.Verify(context.Background(), query.Query{OriginalText: "9:00 tokyo"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestAICacheIsPerDay(t *testing.T) {
	srv, calls := chatServer(t, func(int32) (string, int) {
		return `{"isValid":true,"fromZone":"Asia/Tokyo","time":"9:00"}`, http.StatusOK
	})
	now := fixedNow()
	v, err := New(context.Background(), testConfig(srv.URL), WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	q := query.Query{OriginalText: "9:00 tokyo tomorrow"}
	_, err = v.Verify(context.Background(), q)
	require.NoError(t, err)
	now = now.Add(24 * time.Hour)
	_, err = v.Verify(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFallbackToBasic(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "unparsable reply", content: "I cannot help with that.", status: http.StatusOK},
		{name: "no fields", content: `{"isValid":false}`, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := chatServer(t, func(int32) (string, int) { return tt.content, tt.status })
			v, err := New(context.Background(), testConfig(srv.URL), WithNow(fixedNow))
			require.NoError(t, err)

			got, err := v.Verify(context.Background(), query.Query{OriginalText: "3pm EST to Tokyo"})
			require.NoError(t, err)
			assert.Equal(t, SourceBasic, got.Source)
			assert.True(t, got.IsValid)
			assert.Equal(t, "America/New_York", got.FromZone)
			assert.Equal(t, "Asia/Tokyo", got.ToZone)
		})
	}
}

func TestFallbackUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig(url)
	cfg.Attempts = 1
	v, err := New(context.Background(), cfg)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), query.Query{OriginalText: "5pm in Berlin"})
	require.NoError(t, err)
	assert.Equal(t, SourceBasic, got.Source)
	assert.Equal(t, "Europe/Berlin", got.FromZone)
}

func TestNewWithoutKeyIsBasic(t *testing.T) {
	v, err := New(context.Background(), Config{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &Basic{}, v)

	v, err = New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &Basic{}, v)

	_, err = New(context.Background(), Config{Provider: "clippy", APIKey: "x"})
	require.Error(t, err)
}

func TestBasic(t *testing.T) {
	b := NewBasic(WithNow(fixedNow))

	got, err := b.Verify(context.Background(), query.Query{OriginalText: "tomorrow"})
	require.NoError(t, err)
	assert.False(t, got.IsValid)
	assert.Equal(t, "2026-10-15", got.Date)
	assert.Len(t, got.Suggestions, 2)

	lenient := NewBasic(WithRule(query.RequireZone))
	got, err = lenient.Verify(context.Background(), query.Query{OriginalText: "what time is it in tokyo"})
	require.NoError(t, err)
	assert.True(t, got.IsValid)
	assert.Empty(t, got.Suggestions)

	parsed := query.Query{FromZone: "Europe/Paris", Time: "9:00", OriginalText: "ignored"}
	got, err = b.Verify(context.Background(), parsed)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", got.FromZone)
	assert.True(t, got.IsValid)
}

type stubVerifier struct {
	result *Result
	err    error
}

func (s stubVerifier) Verify(context.Context, query.Query) (*Result, error) {
	return s.result, s.err
}

func TestFallbackPrefersPrimary(t *testing.T) {
	primary := stubVerifier{result: &Result{FromZone: "Asia/Tokyo", Time: "9:00", IsValid: true, Source: "stub"}}
	got, err := Fallback(primary, NewBasic(), nil).Verify(context.Background(), query.Query{OriginalText: "x"})
	require.NoError(t, err)
	assert.Equal(t, "stub", got.Source)

	failing := stubVerifier{err: errors.New("down")}
	got, err = Fallback(failing, NewBasic(), nil).Verify(context.Background(), query.Query{OriginalText: "noon in paris"})
	require.NoError(t, err)
	assert.Equal(t, SourceBasic, got.Source)
	assert.Equal(t, "12:00 pm", got.Time)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"direct", `{"a":1}`, `{"a":1}`},
		{"padded", "  {\"a\":1}\n", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "here:\n```\n{\"a\":1}\n```", `{"a":1}`},
		{"embedded", `The answer is {"a":{"b":2}} as requested.`, `{"a":{"b":2}}`},
		{"second fence", "```\nnot json\n```\nthen\n```json\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}

	_, err := extractJSON("no json here")
	require.Error(t, err)
	_, err = extractJSON("[1,2,3]")
	require.Error(t, err)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(nil))
	assert.False(t, isTransient(context.Canceled))
	assert.True(t, isTransient(errors.New("rate limit exceeded")))
	assert.True(t, isTransient(errors.New("503 service unavailable")))
	assert.False(t, isTransient(errors.New("invalid api key")))
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"deepseek", "gemini", "llama", "openai", "openrouter"}, Providers())
	p, ok := LookupProvider(" OpenRouter ")
	require.True(t, ok)
	assert.Equal(t, "OPENROUTER_API_KEY", p.KeyEnv)

	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	assert.Equal(t, "sk-test", KeyFromEnv("deepseek"))
	assert.Empty(t, KeyFromEnv("nope"))
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("3pm EST to Tokyo", fixedNow())
	assert.Contains(t, p, "2026-10-14 (Wednesday)")
	assert.Contains(t, p, `"3pm EST to Tokyo"`)
}
