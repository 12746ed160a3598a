// Package fetch is the HTTP capability shared by the search backend, the
// indicator client and the feed reader.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ppiankov/foretell/internal/logging"
	"github.com/ppiankov/foretell/internal/model"
)

// fetchSleepFunc is the backoff pause between attempts; tests replace it
var fetchSleepFunc = time.Sleep

// ErrDisallowed is returned when robots.txt forbids the path
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Waiter throttles requests per host
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Response is a fetched body with its metadata
type Response struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
}

// Fetcher performs polite GET requests with retries
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxRetries int
	robots     *RobotsChecker
	limiter    Waiter
	logger     *log.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLimiter throttles every request through w
func WithLimiter(w Waiter) Option {
	return func(f *Fetcher) { f.limiter = w }
}

// WithLogger sets the logger used for retry messages
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.logger = logging.OrDiscard(l) }
}

// WithTransport replaces the HTTP transport, mainly for tests
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.httpClient.Transport = rt }
}

// NewFetcher creates a fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig, opts ...Option) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		maxRetries: retries,
		logger:     logging.Discard(),
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(cfg.UserAgent, timeout)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type request struct {
	accept     string
	skipRobots bool
}

// RequestOption adjusts a single request
type RequestOption func(*request)

// Accept sets the Accept header
func Accept(mime string) RequestOption {
	return func(r *request) { r.accept = mime }
}

// SkipRobots bypasses the robots.txt check, for documented APIs
func SkipRobots() RequestOption {
	return func(r *request) { r.skipRobots = true }
}

// Fetch performs a single GET
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	r := request{accept: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"}
	for _, opt := range opts {
		opt(&r)
	}

	if f.robots != nil && !r.skipRobots {
		allowed, _, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", r.accept)
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries Fetch on 429, 5xx and connection failures with
// exponential backoff starting at one second
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := f.Fetch(ctx, rawURL, opts...)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == f.maxRetries {
			break
		}
		f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "err", err)
		fetchSleepFunc(backoff)
		backoff *= 2
	}

	return nil, lastErr
}

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return retryableStatus(se.Code)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		var code int
		if _, scanErr := fmt.Sscanf(rest, "%d", &code); scanErr == nil {
			return retryableStatus(code)
		}
		return false
	}
	if strings.HasPrefix(msg, "fetch: ") {
		for _, s := range []string{"connection refused", "connection reset", "timeout", "broken pipe", "EOF"} {
			if strings.Contains(msg, s) {
				return true
			}
		}
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
