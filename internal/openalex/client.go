// Package openalex fetches work records from the OpenAlex API.
package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/openalexbot/internal/cache"
	"github.com/ppiankov/openalexbot/internal/model"
	"github.com/ppiankov/openalexbot/internal/throttle"
	"github.com/ppiankov/openalexbot/internal/util"
)

// DefaultBaseURL is the public OpenAlex API
const DefaultBaseURL = "https://api.openalex.org"

// Client is the bibliographic source collaborator
type Client struct {
	baseURL    string
	email      string
	userAgent  string
	maxBytes   int64
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *throttle.Limiter
	robots     *util.RobotsChecker
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

// WithCache stores successful responses for ttl; zero uses the cache default
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.cacheTTL = ttl
	}
}

func WithLimiter(l *throttle.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRobots enables robots.txt checks before each network request
func WithRobots(r *util.RobotsChecker) Option {
	return func(c *Client) { c.robots = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client that identifies itself with email on every request
func NewClient(email string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		email:      email,
		userAgent:  "openalexbot",
		maxBytes:   10_000_000,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchByDOI returns the record for a bare DOI, or nil if OpenAlex has none
func (c *Client) FetchByDOI(ctx context.Context, bareDOI string) (*model.WorkRecord, error) {
	if bareDOI == "" {
		return nil, fmt.Errorf("fetch by DOI: %w: empty DOI", model.ErrInvalidIdentifier)
	}
	return c.fetch(ctx, "doi:"+bareDOI)
}

// FetchByURI returns the record for a work URI such as https://openalex.org/W2741809807
func (c *Client) FetchByURI(ctx context.Context, uri string) (*model.WorkRecord, error) {
	id := leaf(strings.TrimSpace(uri))
	if id == "" {
		return nil, fmt.Errorf("fetch by URI: %w: empty work reference", model.ErrInvalidIdentifier)
	}
	return c.fetch(ctx, id)
}

func (c *Client) fetch(ctx context.Context, workID string) (*model.WorkRecord, error) {
	requestURL, err := c.workURL(workID)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	if body == nil {
		c.logger.Debug("work not found in source", "work", workID)
		return nil, nil
	}

	var w work
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: decode work %s: %v", model.ErrTransport, workID, err)
	}
	return toRecord(&w), nil
}

func (c *Client) workURL(workID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/works/" + workID

	q := url.Values{}
	if c.email != "" {
		q.Set("mailto", c.email)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// get returns the response body, or nil for 404
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	key := cache.Key(requestURL)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			c.logger.Debug("source cache hit", "url", requestURL)
			return body, nil
		}
	}

	if err := c.checkRobots(ctx, requestURL); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, requestURL); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", model.ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: GET %s: %v", model.ErrTransport, redact(requestURL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: unexpected status %d", model.ErrTransport, redact(requestURL), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrTransport, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
			c.logger.Warn("source cache write failed", "error", err)
		}
	}
	return body, nil
}

func (c *Client) checkRobots(ctx context.Context, requestURL string) error {
	if c.robots == nil {
		return nil
	}

	policy, err := c.robots.Check(ctx, requestURL)
	if err != nil {
		return fmt.Errorf("%w: robots check: %v", model.ErrTransport, err)
	}
	if policy.CrawlDelay > 0 && c.limiter != nil {
		if u, err := url.Parse(requestURL); err == nil {
			c.limiter.Throttle(u.Host, policy.CrawlDelay)
		}
	}
	if !policy.Allowed {
		return fmt.Errorf("%w: %s disallowed by robots.txt", model.ErrTransport, redact(requestURL))
	}
	return nil
}

// redact drops the query so the contact address stays out of error text
func redact(requestURL string) string {
	if i := strings.IndexByte(requestURL, '?'); i >= 0 {
		return requestURL[:i]
	}
	return requestURL
}
