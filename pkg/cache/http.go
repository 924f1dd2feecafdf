package cache

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// HTTPClient is the subset of *http.Client used here.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CachedHTTPClient serves successful GET and POST responses from a Cache.
// POST bodies are part of the key.
type CachedHTTPClient struct {
	cache  *Cache
	client HTTPClient
	logger *slog.Logger
}

// NewCachedHTTPClient wraps client. A nil cache disables caching.
func NewCachedHTTPClient(cache *Cache, client HTTPClient, logger *slog.Logger) *CachedHTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedHTTPClient{cache: cache, client: client, logger: logger}
}

// Do performs req, consulting the cache first.
func (c *CachedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || (req.Method != http.MethodGet && req.Method != http.MethodPost) {
		return c.client.Do(req)
	}

	url := req.URL.String()
	var body []byte
	if req.Method == http.MethodPost && req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	key := Key(req.Method, url, string(body))

	if data, found := c.cache.Get(key); found {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		return resp, nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		c.logger.Debug("failed to close response body", "error", closeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.cache.Set(key, data)
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
