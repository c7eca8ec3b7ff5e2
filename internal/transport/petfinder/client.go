// Package petfinder is a client for the Petfinder v2 pet directory API.
package petfinder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/petmatch/internal/domain"
	"github.com/kailas-cloud/petmatch/internal/metrics"
)

// maxErrorBody caps how much of an error response is read into messages.
const maxErrorBody = 4 << 10

// Config holds the directory client settings.
type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	RequestsPerSec float64
	Burst          int
	Timeout        time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client talks to the Petfinder API with OAuth2 client credentials.
// Safe for concurrent use.
type Client struct {
	baseURL string
	creds   *clientcredentials.Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

// NewClient creates a directory client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		baseURL: baseURL,
		creds: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     baseURL + "/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
	c.tokens = c.newTokenSource()
	return c
}

// HealthCheck verifies that the credentials are accepted.
func (c *Client) HealthCheck(context.Context) error {
	if _, err := c.token(false); err != nil {
		return fmt.Errorf("directory token: %w", err)
	}
	return nil
}

// newTokenSource returns a caching token source that fetches through a
// rate-limited, instrumented copy of the API HTTP client.
func (c *Client) newTokenSource() oauth2.TokenSource {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	tokenHTTP := &http.Client{
		Timeout:   c.http.Timeout,
		Transport: tokenTransport{next: base, limiter: c.limiter},
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenHTTP)
	return c.creds.TokenSource(ctx)
}

// token returns the cached access token, fetching one when it is missing or
// expired. refresh discards the cached token first.
func (c *Client) token(refresh bool) (*oauth2.Token, error) {
	c.mu.Lock()
	if refresh {
		c.tokens = c.newTokenSource()
	}
	src := c.tokens
	c.mu.Unlock()

	tok, err := src.Token()
	if err != nil {
		return nil, tokenError(err)
	}
	return tok, nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return statusError("token", re.Response.StatusCode, re.Body)
	}
	return fmt.Errorf("token request: %w: %w", domain.ErrDirectory, err)
}

// tokenTransport applies the directory rate limit and metrics to token requests.
type tokenTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("token rate limit wait: %w", err)
	}
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	metrics.DirectoryRequestDuration.WithLabelValues("token").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues("token", "error").Inc()
		return nil, err
	}
	metrics.DirectoryRequestsTotal.WithLabelValues("token", strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// get performs an authenticated GET and decodes the JSON body into dest.
// A 401 discards the cached token and the request is retried once.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		tok, err := c.token(attempt > 0)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			return fmt.Errorf("build %s request: %w", op, err)
		}
		tok.SetAuthHeader(req)

		err = c.send(req, op, dest)
		if attempt == 0 && isAuthError(err) {
			c.logger.Debug("Directory token rejected, refreshing", zap.String("operation", op))
			continue
		}
		return err
	}
}

// send applies the rate limit, executes req and decodes a 200 response.
func (c *Client) send(req *http.Request, op string, dest any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("%s rate limit wait: %w", op, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.DirectoryRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s request: %w: %w", op, domain.ErrDirectory, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.DirectoryRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(op, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w: %w", op, domain.ErrDirectory, err)
	}
	return nil
}

// apiProblem is the RFC 7807 error body the directory returns.
type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func statusError(op string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var p apiProblem
	if json.Unmarshal(body, &p) == nil && (p.Title != "" || p.Detail != "") {
		msg = strings.TrimSpace(p.Title + ": " + p.Detail)
	}

	var sentinel error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = domain.ErrDirectoryAuth
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusTooManyRequests:
		sentinel = domain.ErrRateLimited
	default:
		sentinel = domain.ErrDirectory
	}
	return &StatusError{Op: op, Status: status, Message: msg, sentinel: sentinel}
}

// StatusError is a non-200 response from the directory.
type StatusError struct {
	Op       string
	Status   int
	Message  string
	sentinel error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory %s: status %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap maps the status to a domain sentinel.
func (e *StatusError) Unwrap() error { return e.sentinel }

func isAuthError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusUnauthorized
}
