package briefing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

func record(t *testing.T, id string) zones.Record {
	t.Helper()
	rec, ok := zones.Default().ByID(id)
	require.True(t, ok, id)
	return rec
}

func fixedNow() time.Time {
	return time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
}

func TestHash(t *testing.T) {
	assert.Equal(t, int32(0), hash(""))
	assert.Equal(t, int32(97), hash("a"))
	assert.Equal(t, int32(3105), hash("ab"))
	assert.Equal(t, int32(99162322), hash("hello"))
	assert.Equal(t, int32(-2147483648), hash("polygenelubricants"))
	assert.GreaterOrEqual(t, seed("polygenelubricants"), 0)
}

func TestMockWeatherIsStable(t *testing.T) {
	tokyo := record(t, "Asia/Tokyo")
	m := MockWeather{Now: fixedNow}

	first, err := m.Weather(context.Background(), tokyo)
	require.NoError(t, err)
	second, err := m.Weather(context.Background(), tokyo)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.NotEmpty(t, first.Condition)
	assert.NotEmpty(t, first.Icon)
	assert.GreaterOrEqual(t, first.TemperatureC, -5)
	assert.LessOrEqual(t, first.TemperatureC, 35)
	assert.GreaterOrEqual(t, first.Humidity, 30)
	assert.LessOrEqual(t, first.Humidity, 90)
	assert.GreaterOrEqual(t, first.WindKph, 0)
	assert.LessOrEqual(t, first.WindKph, 40)
}

func TestMockNews(t *testing.T) {
	paris := record(t, "Europe/Paris")
	m := MockNews{Now: fixedNow, Count: 4}

	got, err := m.News(context.Background(), paris)
	require.NoError(t, err)
	require.Len(t, got, 4)

	seen := map[string]bool{}
	for _, h := range got {
		assert.Contains(t, h.Title, "Paris")
		assert.NotEmpty(t, h.Source)
		assert.False(t, seen[h.Title], "duplicate headline %q", h.Title)
		seen[h.Title] = true
	}

	again, err := m.News(context.Background(), paris)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

type countingWeather struct {
	calls atomic.Int32
	fail  string
}

func (c *countingWeather) Weather(_ context.Context, zone zones.Record) (*Weather, error) {
	c.calls.Add(1)
	if zone.ID == c.fail {
		return nil, errors.New("station offline")
	}
	return &Weather{Condition: "Sunny:" + zone.ID}, nil
}

type countingNews struct {
	calls atomic.Int32
	err   error
}

func (c *countingNews) News(_ context.Context, zone zones.Record) ([]Headline, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []Headline{{Title: "News from " + zone.DisplayName, Source: "test"}}, nil
}

func TestPanel(t *testing.T) {
	weather := &countingWeather{}
	news := &countingNews{}
	s, err := NewService(context.Background(), weather, news)
	require.NoError(t, err)

	london, tokyo := record(t, "Europe/London"), record(t, "Asia/Tokyo")
	p, err := s.Panel(context.Background(), london, tokyo)
	require.NoError(t, err)
	require.NotNil(t, p.FromWeather)
	require.NotNil(t, p.ToWeather)
	assert.Equal(t, "Sunny:Europe/London", p.FromWeather.Condition)
	assert.Equal(t, "Sunny:Asia/Tokyo", p.ToWeather.Condition)
	assert.Equal(t, []Headline{{Title: "News from Tokyo", Source: "test"}}, p.News)

	_, err = s.Panel(context.Background(), london, tokyo)
	require.NoError(t, err)
	assert.Equal(t, int32(2), weather.calls.Load(), "second panel should come from cache")
	assert.Equal(t, int32(1), news.calls.Load())
}

func TestPanelCacheIsPerLocalDay(t *testing.T) {
	now := fixedNow()
	weather := &countingWeather{}
	s, err := NewService(context.Background(), weather, &countingNews{},
		WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	london, tokyo := record(t, "Europe/London"), record(t, "Asia/Tokyo")
	_, err = s.Panel(context.Background(), london, tokyo)
	require.NoError(t, err)
	_, err = s.Panel(context.Background(), london, tokyo)
	require.NoError(t, err)
	assert.Equal(t, int32(2), weather.calls.Load())

	// Just past midnight in Tokyo; London is still on the 14th.
	now = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)
	_, err = s.Panel(context.Background(), london, tokyo)
	require.NoError(t, err)
	assert.Equal(t, int32(4), weather.calls.Load(), "a new local day in Tokyo needs a fresh panel")
}

func TestPanelPartialFailure(t *testing.T) {
	weather := &countingWeather{fail: "Asia/Tokyo"}
	news := &countingNews{err: errors.New("feed down")}
	s, err := NewService(context.Background(), weather, news)
	require.NoError(t, err)

	p, err := s.Panel(context.Background(), record(t, "Europe/London"), record(t, "Asia/Tokyo"))
	require.NoError(t, err)
	assert.NotNil(t, p.FromWeather)
	assert.Nil(t, p.ToWeather)
	assert.Nil(t, p.News)

	_, err = s.Panel(context.Background(), record(t, "Europe/London"), record(t, "Asia/Tokyo"))
	require.NoError(t, err)
	assert.Equal(t, int32(4), weather.calls.Load(), "incomplete panels are not cached")
}

func TestPanelCanceled(t *testing.T) {
	s, err := NewService(context.Background(), MockWeather{}, MockNews{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Panel(ctx, record(t, "UTC"), record(t, "UTC"))
	require.ErrorIs(t, err, context.Canceled)
}

const newsPage = `<html><body>
<nav><a href="/">Home</a></nav>
<h2><a href="https://news.example/1">Harbour bridge reopens</a></h2>
<p>The bridge reopened on Monday.</p>
<h3>Council votes on budget</h3>
<p>More text.</p>
</body></html>`

func TestWebNews(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "New York", r.URL.Query().Get("city"))
		fmt.Fprint(w, newsPage)
	}))
	defer srv.Close()

	w := NewWebNews(srv.URL+"/news?city={city}", nil, nil)
	w.Delay = time.Millisecond

	got, err := w.News(context.Background(), record(t, "America/New_York"))
	require.NoError(t, err)
	assert.Equal(t, []Headline{
		{Title: "Harbour bridge reopens", Source: "127.0.0.1", URL: "https://news.example/1"},
		{Title: "Council votes on budget", Source: "127.0.0.1"},
	}, got)
	assert.Equal(t, int32(2), hits.Load())
}

func TestWebNewsNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	w := NewWebNews(srv.URL+"/{city}", nil, nil)
	w.Delay = time.Millisecond

	_, err := w.News(context.Background(), record(t, "Europe/Paris"))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "4xx responses are not retried")
}

func TestParseHeadlines(t *testing.T) {
	md := "# Top\n\nsome text\n## [Linked](https://x.example/a)\n##### too deep\n#### Fourth\n#not a heading"
	got := parseHeadlines(md, "x.example")
	assert.Equal(t, []Headline{
		{Title: "Top", Source: "x.example"},
		{Title: "Linked", Source: "x.example", URL: "https://x.example/a"},
		{Title: "Fourth", Source: "x.example"},
	}, got)
}
