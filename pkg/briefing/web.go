package briefing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/tzq/pkg/cache"
	"github.com/codeGROOVE-dev/tzq/pkg/zones"
)

const (
	maxPageBytes = 1 << 20
	maxHeadlines = 5
)

// WebNews scrapes headlines from an HTML page. URLTemplate may contain
// "{city}", which is replaced with the query-escaped city name.
type WebNews struct {
	client      *cache.CachedHTTPClient
	logger      *slog.Logger
	URLTemplate string
	Attempts    uint
	Delay       time.Duration
}

// NewWebNews creates a WebNews provider. Responses are cached in c when
// it is non-nil.
func NewWebNews(urlTemplate string, c *cache.Cache, logger *slog.Logger) *WebNews {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebNews{
		client:      cache.NewCachedHTTPClient(c, &http.Client{Timeout: 10 * time.Second}, logger),
		logger:      logger,
		URLTemplate: urlTemplate,
		Attempts:    3,
		Delay:       time.Second,
	}
}

// News implements NewsProvider.
func (w *WebNews) News(ctx context.Context, zone zones.Record) ([]Headline, error) {
	pageURL := strings.ReplaceAll(w.URLTemplate, "{city}", url.QueryEscape(zone.DisplayName))
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing news URL: %w", err)
	}

	body, err := w.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	markdown, err := md.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("converting news page: %w", err)
	}

	headlines := parseHeadlines(markdown, u.Hostname())
	if len(headlines) == 0 {
		return nil, errors.New("no headlines found")
	}
	return headlines, nil
}

func (w *WebNews) fetch(ctx context.Context, pageURL string) (string, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("User-Agent", "tzq/1.0")

			resp, err := w.client.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					w.logger.Debug("failed to close response body", "error", err)
				}
			}()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("HTTP %d", resp.StatusCode))
			}
			body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(w.Attempts),
		retry.Delay(w.Delay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Debug("retrying news fetch", "attempt", n+1, "url", pageURL, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("fetching news page: %w", err)
	}
	return string(body), nil
}

var (
	headingRegex = regexp.MustCompile(`^#{1,4}\s+(.+)$`)
	linkRegex    = regexp.MustCompile(`^\[(.+?)\]\((\S+?)\)$`)
)

// parseHeadlines takes Markdown heading lines as headlines. A heading
// that is a single link keeps the link target.
func parseHeadlines(markdown, source string) []Headline {
	var out []Headline
	for _, line := range strings.Split(markdown, "\n") {
		m := headingRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		h := Headline{Title: strings.TrimSpace(m[1]), Source: source}
		if l := linkRegex.FindStringSubmatch(h.Title); l != nil {
			h.Title, h.URL = strings.TrimSpace(l[1]), l[2]
		}
		if h.Title == "" {
			continue
		}
		out = append(out, h)
		if len(out) == maxHeadlines {
			break
		}
	}
	return out
}
