// Package wikibase talks to the MediaWiki action API of a Wikibase instance.
package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"

	"github.com/ppiankov/openalexbot/internal/model"
)

// APIError is the error object MediaWiki returns with a 200 status
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wikibase api error %s: %s", e.Code, e.Info)
}

// Client is the knowledge-base search and write collaborator.
// It holds a login session and is not safe for concurrent use.
type Client struct {
	endpoint  string
	rest      *resty.Client
	logger    *slog.Logger
	csrfToken string
}

type settings struct {
	httpClient   *http.Client
	userAgent    string
	retries      int
	retryWait    time.Duration
	retryMaxWait time.Duration
	logger       *slog.Logger
}

// Option configures a Client
type Option func(*settings)

// WithHTTPClient sets the underlying client; its cookie jar is replaced
func WithHTTPClient(h *http.Client) Option {
	return func(s *settings) { s.httpClient = h }
}

func WithUserAgent(ua string) Option {
	return func(s *settings) { s.userAgent = ua }
}

// WithRetries sets how often a failed request is retried and the backoff bounds
func WithRetries(count int, wait, maxWait time.Duration) Option {
	return func(s *settings) {
		s.retries = count
		s.retryWait = wait
		s.retryMaxWait = maxWait
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// NewClient creates a client for the api.php endpoint
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: wikibase endpoint %q: %v", model.ErrInvalidInput, endpoint, err)
	}

	s := settings{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    "openalexbot",
		retries:      2,
		retryWait:    500 * time.Millisecond,
		retryMaxWait: 5 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	rest := resty.NewWithClient(s.httpClient).
		SetCookieJar(jar).
		SetHeader("User-Agent", s.userAgent).
		SetRetryCount(s.retries).
		SetRetryWaitTime(s.retryWait).
		SetRetryMaxWaitTime(s.retryMaxWait).
		AddRetryCondition(shouldRetry)

	return &Client{
		endpoint: endpoint,
		rest:     rest,
		logger:   s.logger,
	}, nil
}

// shouldRetry retries network errors, 5xx and 429. Item creation is never
// retried since the first attempt may already have been applied.
func shouldRetry(res *resty.Response, err error) bool {
	if res != nil && res.Request != nil && res.Request.FormData.Get("action") == "wbeditentity" {
		return false
	}
	if err != nil {
		return true
	}
	return res != nil && (res.StatusCode() > 499 || res.StatusCode() == http.StatusTooManyRequests)
}

// Endpoint returns the api.php URL the client talks to
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) get(ctx context.Context, params map[string]string, out any) error {
	res, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParams(map[string]string{"format": "json", "formatversion": "2"}).
		Get(c.endpoint)
	return decode(params["action"], res, err, out)
}

func (c *Client) post(ctx context.Context, form map[string]string, out any) error {
	res, err := c.rest.R().
		SetContext(ctx).
		SetFormData(form).
		SetFormData(map[string]string{"format": "json", "formatversion": "2"}).
		Post(c.endpoint)
	return decode(form["action"], res, err, out)
}

func decode(action string, res *resty.Response, err error, out any) error {
	if err != nil {
		return fmt.Errorf("%w: %s request failed: %v", model.ErrTransport, action, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("%w: %s returned status=%d", model.ErrTransport, action, res.StatusCode())
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(res.Body(), &envelope); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", model.ErrTransport, action, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrTransport, action, envelope.Error)
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", model.ErrTransport, action, err)
	}
	return nil
}
