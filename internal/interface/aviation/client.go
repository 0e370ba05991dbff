package aviation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flightwindow-service/pkg/logger"
	"flightwindow-service/pkg/metrics"
)

const (
	dateLayout      = "2006-01-02"
	maxResponseSize = 32 << 20
	maxRetryWait    = 2 * time.Minute
	maxPages        = 500
)

var (
	// ErrRateLimited is returned when retries are exhausted on HTTP 429
	ErrRateLimited = errors.New("upstream rate limit exceeded")
	// ErrUnauthorized is returned for HTTP 401 and 403
	ErrUnauthorized = errors.New("upstream rejected credentials")
	// ErrQuotaExceeded is returned for HTTP 402 and 451
	ErrQuotaExceeded = errors.New("upstream quota exhausted")
)

// StatusError is a non-2xx upstream response
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusPaymentRequired, http.StatusUnavailableForLegalReasons:
		return ErrQuotaExceeded
	}
	return nil
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOptions are shared by every upstream client
type ClientOptions struct {
	BaseURL       string
	HTTPClient    *http.Client
	PageSize      int
	MaxRetries    int
	RatePerSecond float64
	// Backoff is the first retry wait; it doubles per attempt.
	Backoff time.Duration
	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// requester issues throttled GETs with retry on 429 and 5xx
type requester struct {
	provider   string
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Metrics
	logger     logger.Logger
}

func newRequester(provider string, opts ClientOptions) *requester {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &requester{
		provider:   provider,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: opts.MaxRetries,
		backoff:    backoff,
		metrics:    opts.Metrics,
		logger:     log.With("provider", provider),
	}
}

// get returns the body of a 2xx response to path?query.
func (r *requester) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := r.do(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		if !r.shouldRetry(ctx, err) || attempt >= r.maxRetries {
			return nil, err
		}

		wait := backoffWait(r.backoff, attempt)
		if retryAfter > 0 {
			wait = min(retryAfter, maxRetryWait)
		}
		if r.metrics != nil {
			r.metrics.FetchRetries.WithLabelValues(r.provider).Inc()
		}
		r.logger.Warn("Retrying upstream request",
			"path", path,
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *requester) do(ctx context.Context, endpoint string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, &transportError{err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, 0, nil
	}

	return nil, parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), &StatusError{
		Provider:   r.provider,
		StatusCode: resp.StatusCode,
		Body:       truncate(string(body), 512),
	}
}

func (r *requester) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.retryable()
	}
	var transportErr *transportError
	return errors.As(err, &transportErr)
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// backoffWait doubles base per attempt, capped at maxRetryWait.
func backoffWait(base time.Duration, attempt int) time.Duration {
	wait := base
	for i := 0; i < attempt && wait < maxRetryWait; i++ {
		wait *= 2
	}
	return min(wait, maxRetryWait)
}

// parseRetryAfter reads delta-seconds or an HTTP date. Zero means absent.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// flexInt accepts a JSON number, a numeric string or null. Anything else
// reads as absent.
type flexInt struct {
	value *int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	f.value = nil
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v := int(n)
	f.value = &v
	return nil
}

// Ptr returns the value or nil when absent
func (f flexInt) Ptr() *int { return f.value }

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
