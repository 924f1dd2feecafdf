// Package briefing assembles the weather and news panel shown next to a
// conversion.
package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/tzq/pkg/cache"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

const panelTTL = 30 * time.Minute

// Weather is a current-conditions snapshot.
type Weather struct {
	Condition    string `json:"condition"`
	Icon         string `json:"icon"`
	TemperatureC int    `json:"temperatureC"`
	Humidity     int    `json:"humidity"`
	WindKph      int    `json:"windKph"`
}

// Headline is a single news item.
type Headline struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}

// WeatherProvider reports weather for a zone's city.
type WeatherProvider interface {
	Weather(ctx context.Context, zone zones.Record) (*Weather, error)
}

// NewsProvider reports headlines for a zone's city.
type NewsProvider interface {
	News(ctx context.Context, zone zones.Record) ([]Headline, error)
}

// Panel is the context shown for a conversion. A nil slot means its
// lookup failed.
type Panel struct {
	FromWeather *Weather   `json:"fromWeather,omitempty"`
	ToWeather   *Weather   `json:"toWeather,omitempty"`
	News        []Headline `json:"news,omitempty"`
}

// Service fetches panels.
type Service struct {
	weather WeatherProvider
	news    NewsProvider
	cache   *cache.Cache
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNow sets the clock that decides which local day a cached panel
// belongs to.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCache stores panels in c instead of a private cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// NewService creates a Service.
func NewService(ctx context.Context, weather WeatherProvider, news NewsProvider, opts ...Option) (*Service, error) {
	s := &Service{
		weather: weather,
		news:    news,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		c, err := cache.New(ctx, panelTTL, cache.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("creating panel cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Panel looks up weather for both zones and news for the destination
// concurrently. Individual failures are logged and leave their slot nil.
func (s *Service) Panel(ctx context.Context, from, to zones.Record) (*Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	key := cache.Key("panel", from.ID, to.ID, localDate(now, from), localDate(now, to))
	if data, ok := s.cache.Get(key); ok {
		var p Panel
		if err := json.Unmarshal(data, &p); err == nil {
			s.logger.Debug("panel cache hit", "from", from.ID, "to", to.ID)
			return &p, nil
		}
	}

	var p Panel
	var g errgroup.Group
	g.Go(func() error {
		w, err := s.weather.Weather(ctx, from)
		if err != nil {
			s.logger.Warn("weather lookup failed", "zone", from.ID, "error", err)
			return nil
		}
		p.FromWeather = w
		return nil
	})
	g.Go(func() error {
		w, err := s.weather.Weather(ctx, to)
		if err != nil {
			s.logger.Warn("weather lookup failed", "zone", to.ID, "error", err)
			return nil
		}
		p.ToWeather = w
		return nil
	})
	g.Go(func() error {
		news, err := s.news.News(ctx, to)
		if err != nil {
			s.logger.Warn("news lookup failed", "zone", to.ID, "error", err)
			return nil
		}
		p.News = news
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.FromWeather != nil && p.ToWeather != nil && p.News != nil {
		if data, err := json.Marshal(p); err == nil {
			s.cache.Set(key, data)
		}
	}
	return &p, nil
}
