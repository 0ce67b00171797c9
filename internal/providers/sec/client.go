// Package sec retrieves company metadata, filing lists and XBRL financial
// statements from SEC EDGAR.
//
// No API key required. Every request must carry a User-Agent naming the
// requester and a contact email per SEC policy.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
// Rate limit: 10 requests/second per user-agent.
package sec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/fraudscope/internal/infra"
	"github.com/seenimoa/fraudscope/internal/metrics"
)

const (
	// DefaultBaseURL serves the JSON data APIs.
	DefaultBaseURL = "https://data.sec.gov"
	// DefaultArchiveURL serves tickers, feeds and filing archives.
	DefaultArchiveURL = "https://www.sec.gov"

	defaultUserAgent = "fraudscope/1.0 (contact@example.com)"
)

// Endpoint labels used for metrics.
const (
	endpointTickers     = "company_tickers"
	endpointSubmissions = "submissions"
	endpointFacts       = "companyfacts"
	endpointFeed        = "atom_feed"
	endpointIndex       = "filing_index"
)

var (
	// ErrNotFound is returned when a ticker, CIK or document does not exist.
	ErrNotFound = errors.New("sec: not found")
	// ErrRateLimited is returned when EDGAR answers 429.
	ErrRateLimited = errors.New("sec: rate limited")
)

// HTTPError is a non-2xx answer from EDGAR.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("sec: HTTP %d for %s", e.StatusCode, e.URL)
	switch e.StatusCode {
	case http.StatusForbidden:
		msg += " - SEC requires a valid User-Agent with contact email"
	case http.StatusNotFound:
		msg += " - resource not found"
	case http.StatusTooManyRequests:
		msg += " - rate limited, please wait"
	}
	return msg
}

// Unwrap maps well-known statuses to the package sentinels.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// Options configures a Client. Zero values fall back to EDGAR defaults.
type Options struct {
	UserAgent       string
	BaseURL         string
	ArchiveURL      string
	RateLimitPerSec float64
	Timeout         time.Duration
	CacheTTL        time.Duration

	// Disk is an optional persistent cache shared across runs.
	Disk *infra.DiskCache

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to EDGAR. It is safe for concurrent use.
type Client struct {
	userAgent  string
	baseURL    string
	archiveURL string

	http    *http.Client
	limiter *infra.RateLimiter
	cache   *infra.Cache
	disk    *infra.DiskCache
	logger  *slog.Logger
}

// New creates a client from opts.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ArchiveURL == "" {
		opts.ArchiveURL = DefaultArchiveURL
	}
	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		userAgent:  opts.UserAgent,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		archiveURL: strings.TrimRight(opts.ArchiveURL, "/"),
		http:       client,
		limiter:    infra.NewRateLimiter(opts.RateLimitPerSec),
		cache:      infra.NewCache(opts.CacheTTL),
		disk:       opts.Disk,
		logger:     logger.With("component", "sec"),
	}
}

// ClearCache empties the in-memory and disk caches and returns how many
// in-memory entries were dropped.
func (c *Client) ClearCache() (int, error) {
	n := c.cache.Clear()
	if c.disk != nil {
		if err := c.disk.Clear(); err != nil {
			return n, err
		}
	}
	c.logger.Info("cache cleared", "entries", n)
	return n, nil
}

// Ping checks connectivity to EDGAR.
func (c *Client) Ping(ctx context.Context) error {
	url := c.baseURL + "/submissions/CIK0000320193.json"
	if _, err := c.get(ctx, endpointSubmissions, url); err != nil {
		return fmt.Errorf("sec ping: %w", err)
	}
	return nil
}

// --- Shared helpers ---

func (c *Client) headers() map[string]string {
	return map[string]string{"User-Agent": c.userAgent}
}

// fetch returns the payload at url, consulting the memory and disk caches
// under key first.
func (c *Client) fetch(ctx context.Context, endpoint, key, url string) ([]byte, error) {
	if data, ok := c.cache.Get(key); ok {
		return data, nil
	}
	if c.disk != nil {
		data, ok, err := c.disk.Get(key)
		if err != nil {
			c.logger.Warn("disk cache read failed", "key", key, "error", err)
		} else if ok {
			c.cache.Set(key, data)
			return data, nil
		}
	}

	data, err := c.get(ctx, endpoint, url)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, data)
	if c.disk != nil {
		if err := c.disk.Set(key, data); err != nil {
			c.logger.Warn("disk cache write failed", "key", key, "error", err)
		}
	}
	return data, nil
}

// get performs one rate-limited request.
func (c *Client) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	c.logger.Debug("HTTP GET", "url", url)

	body, _, err := infra.DoGetWith(ctx, c.http, url, c.headers())
	if err != nil {
		metrics.ObserveSECRequest(endpoint, err)
		var se *infra.StatusError
		if errors.As(err, &se) {
			return nil, &HTTPError{StatusCode: se.StatusCode, URL: url}
		}
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	metrics.ObserveSECRequest(endpoint, err)
	if err != nil {
		return nil, fmt.Errorf("read SEC response: %w", err)
	}
	c.logger.Debug("HTTP response", "url", url, "bytes", len(data))
	return data, nil
}

// fetchJSON fetches and decodes a JSON payload.
func (c *Client) fetchJSON(ctx context.Context, endpoint, key, url string, dest any) error {
	data, err := c.fetch(ctx, endpoint, key, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// Drop the bad payload so the next call refetches it.
		c.cache.Delete(key)
		if c.disk != nil {
			_ = c.disk.Delete(key)
		}
		return fmt.Errorf("parse SEC JSON from %s: %w", endpoint, err)
	}
	return nil
}
