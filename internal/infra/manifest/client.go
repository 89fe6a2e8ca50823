// Package manifest provides a client for content manifest endpoints.
//
// A manifest describes one playable resource:
//
//	{
//	  "url": "https://cdn.example.com/a/master.m3u8",
//	  "classification": "on_demand",
//	  "duration_ms": 120000,
//	  "ranges": [{"kind": "blocked", "start_ms": 20000, "end_ms": 60000}]
//	}
//
// Endpoints report failures with {"error": <code>, "message": "..."}.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Range is a timeline range of a manifest.
type Range struct {
	Kind    string `json:"kind"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// Start returns the range start.
func (r Range) Start() time.Duration {
	return time.Duration(r.StartMs) * time.Millisecond
}

// End returns the range end.
func (r Range) End() time.Duration {
	return time.Duration(r.EndMs) * time.Millisecond
}

// Manifest describes a playable resource.
type Manifest struct {
	URL            string  `json:"url"`
	Classification string  `json:"classification"`
	DurationMs     int64   `json:"duration_ms"`
	Ranges         []Range `json:"ranges"`
}

// Duration returns the manifest duration.
func (m Manifest) Duration() time.Duration {
	return time.Duration(m.DurationMs) * time.Millisecond
}

// APIError represents an error response of a manifest endpoint.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("manifest endpoint error: status=%d", e.Status)
	}
	return fmt.Sprintf("manifest endpoint error %d: %s (status=%d)", e.Code, e.Message, e.Status)
}

// AsAPIError returns the APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// cacheEntry represents a cached manifest.
type cacheEntry struct {
	manifest Manifest
	expires  time.Time
}

// Config represents manifest client configuration.
type Config struct {
	BaseURL  string        // Resolves relative locators; absolute locators are used as is
	Timeout  time.Duration // Request timeout (default 10s)
	CacheTTL time.Duration // Zero disables caching
	Now      func() time.Time
}

// Client fetches manifests.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cacheTTL   time.Duration
	now        func() time.Time

	// Cache keyed by manifest URL
	cache   map[string]*cacheEntry
	cacheMu sync.RWMutex
}

// New creates a new manifest client.
func New(cfg Config) (*Client, error) {
	var base *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || !u.IsAbs() {
			return nil, errors.Newf("invalid manifest base URL: %q", cfg.BaseURL)
		}
		base = u
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cacheTTL:   cfg.CacheTTL,
		now:        cfg.Now,
		cache:      make(map[string]*cacheEntry),
	}, nil
}

// URL returns the manifest URL of a locator.
func (c *Client) URL(locator string) (string, error) {
	if locator == "" {
		return "", errors.New("locator is required")
	}
	ref, err := url.Parse(locator)
	if err != nil {
		return "", errors.Wrapf(err, "invalid locator %q", locator)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if c.baseURL == nil {
		return "", errors.Newf("relative locator %q without base URL", locator)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Fetch retrieves the manifest of a locator.
func (c *Client) Fetch(ctx context.Context, locator string) (Manifest, error) {
	reqURL, err := c.URL(locator)
	if err != nil {
		return Manifest{}, err
	}

	// Check cache first
	if m, ok := c.cached(reqURL); ok {
		zlog.Debug().Msgf("using cached manifest: url=%s", reqURL)
		return m, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Manifest{}, errors.Wrap(err, "failed to read response body")
	}

	// Check for endpoint errors
	var apiError APIError
	if jsonErr := json.Unmarshal(body, &apiError); jsonErr == nil && apiError.Code != 0 {
		apiError.Status = resp.StatusCode
		return Manifest{}, &apiError
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Manifest{}, &APIError{Status: resp.StatusCode}
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return Manifest{}, errors.Wrap(err, "failed to parse response")
	}

	c.store(reqURL, m)
	return m, nil
}

func (c *Client) cached(key string) (Manifest, bool) {
	if c.cacheTTL <= 0 {
		return Manifest{}, false
	}
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !c.now().Before(entry.expires) {
		return Manifest{}, false
	}
	return entry.manifest, true
}

func (c *Client) store(key string, m Manifest) {
	if c.cacheTTL <= 0 {
		return
	}
	c.cacheMu.Lock()
	c.cache[key] = &cacheEntry{manifest: m, expires: c.now().Add(c.cacheTTL)}
	c.cacheMu.Unlock()
	zlog.Debug().Msgf("cached manifest: url=%s ranges=%d", key, len(m.Ranges))
}
