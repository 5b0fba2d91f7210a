package backend

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/refgraph/refgraph/pkg/buildinfo"
	"github.com/refgraph/refgraph/pkg/cache"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/httputil"
	"github.com/refgraph/refgraph/pkg/observability"
	"github.com/refgraph/refgraph/pkg/report"
)

// Defaults for [Options].
const (
	DefaultBaseURL    = "http://localhost:8080"
	DefaultTimeout    = 10 * time.Second
	DefaultRetryDelay = 500 * time.Millisecond

	// maxBodySize caps a single response.
	maxBodySize = 64 << 20
)

// BreakerOptions configures the circuit breaker.
type BreakerOptions struct {
	MaxRequests      uint32        `toml:"max_requests"`      // probes allowed while half-open
	Interval         time.Duration `toml:"interval"`          // closed-state counter reset period
	Timeout          time.Duration `toml:"timeout"`           // open-state duration
	MinRequests      uint32        `toml:"min_requests"`      // requests before the ratio is evaluated
	FailureThreshold float64       `toml:"failure_threshold"` // failure ratio that trips the breaker
}

// DefaultBreakerOptions returns the standard breaker settings.
func DefaultBreakerOptions() BreakerOptions {
	return BreakerOptions{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		MinRequests:      5,
		FailureThreshold: 0.6,
	}
}

// Options configures a [Client].
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int // extra attempts after the first; 0 disables retries
	RetryDelay time.Duration
	Breaker    BreakerOptions

	// Cache holds raw responses for CacheTTL. Nil disables response caching.
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration

	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to the investigation backend.
// It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	retries int
	delay   time.Duration
	maxBody int64
	logger  *log.Logger
}

// New creates a client. Zero options take their defaults.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if err := errors.ValidateURL(opts.BaseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid base URL")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.TTLHTTP
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	c := &Client{
		base:    base,
		http:    opts.HTTPClient,
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		ttl:     opts.CacheTTL,
		retries: max(0, opts.Retries),
		delay:   opts.RetryDelay,
		maxBody: maxBodySize,
		logger:  opts.Logger,
	}
	c.breaker = newBreaker(base.Host, opts.Breaker, opts.Logger)
	return c, nil
}

func newBreaker(name string, o BreakerOptions, logger *log.Logger) *gobreaker.CircuitBreaker {
	d := DefaultBreakerOptions()
	if o.MaxRequests == 0 {
		o.MaxRequests = d.MaxRequests
	}
	if o.Interval == 0 {
		o.Interval = d.Interval
	}
	if o.Timeout == 0 {
		o.Timeout = d.Timeout
	}
	if o.MinRequests == 0 {
		o.MinRequests = d.MinRequests
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = d.FailureThreshold
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: o.MaxRequests,
		Interval:    o.Interval,
		Timeout:     o.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < o.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= o.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("backend circuit breaker changed state", "backend", name, "from", from, "to", to)
		},
		// Client errors and cancellations say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, errors.ErrCodeNotFound) ||
				errors.IsInvalid(err) ||
				stderrors.Is(err, context.Canceled)
		},
	})
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Fetch retrieves the raw payload for a graph query.
// refresh bypasses the response cache.
func (c *Client) Fetch(ctx context.Context, q Query, refresh bool) ([]byte, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.cached(ctx, string(q.Kind), q.String(), q.Path(), refresh)
}

// Component fetches the connected component around an entity.
func (c *Client) Component(ctx context.Context, id string) ([]byte, error) {
	return c.Fetch(ctx, Query{Kind: KindComponent, ID: id}, false)
}

// RefSimilar fetches references similar to refID.
func (c *Client) RefSimilar(ctx context.Context, refID string) ([]byte, error) {
	return c.Fetch(ctx, Query{Kind: KindRefSimilar, ID: refID}, false)
}

// SameOperator fetches uids sharing an operator.
func (c *Client) SameOperator(ctx context.Context) ([]byte, error) {
	return c.Fetch(ctx, Query{Kind: KindSameOp}, false)
}

// OffTime fetches operators active outside business hours with at least
// degree connections.
func (c *Client) OffTime(ctx context.Context, degree int) ([]byte, error) {
	return c.Fetch(ctx, Query{Kind: KindOffTime, Degree: degree}, false)
}

// CompDegree fetches the in-degree leaderboard for nodes with at least
// minDegree incoming edges.
func (c *Client) CompDegree(ctx context.Context, minDegree int) (report.Leaderboard, error) {
	path := "/compdegree?" + url.Values{"min": {strconv.Itoa(minDegree)}}.Encode()
	data, err := c.cached(ctx, "compdegree", strconv.Itoa(minDegree), path, false)
	if err != nil {
		return nil, err
	}
	return report.ParseLeaderboard(data)
}

// Communities fetches the operator community table.
func (c *Client) Communities(ctx context.Context) ([]report.Community, error) {
	data, err := c.cached(ctx, "communities", "", "/communities", false)
	if err != nil {
		return nil, err
	}
	return report.ParseCommunities(data)
}

// CommunityDates fetches the reference timestamps of one community.
// The response is never cached.
func (c *Client) CommunityDates(ctx context.Context, communityID string) ([]string, error) {
	if err := errors.ValidateEntityID(communityID); err != nil {
		return nil, err
	}
	data, err := c.get(ctx, "/communityGraphs?"+url.Values{"id": {communityID}}.Encode())
	if err != nil {
		return nil, err
	}
	return report.ParseDates(data)
}

// cached serves path from the response cache or fetches and stores it.
func (c *Client) cached(ctx context.Context, namespace, key, path string, refresh bool) ([]byte, error) {
	cacheKey := c.keyer.HTTPKey(namespace, key)
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "http")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}

	data, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, cacheKey, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
	return data, nil
}

// get performs a GET through the breaker, retrying transient failures.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	b := httputil.Backoff{
		Attempts: c.retries + 1,
		Delay:    c.delay,
		MaxDelay: 8 * c.delay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			c.logger.Warn("retrying backend request", "path", path, "attempt", attempt, "wait", wait, "err", err)
		},
	}
	var data []byte
	err := b.Do(ctx, func(ctx context.Context) error {
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, path)
		})
		switch {
		case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
			return errors.Wrap(errors.ErrCodeUnavailable, err, "backend %s is unavailable", c.base.Host)
		case err != nil:
			return err
		}
		data = out.([]byte)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	hooks := observability.HTTP()
	endpoint, _, _ := strings.Cut(path, "?")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidQuery, err, "build request")
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks.OnRequest(ctx, http.MethodGet, c.base.Host, endpoint)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, c.base.Host, endpoint, err)
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, c.base.Host, endpoint, resp.StatusCode, time.Since(start))

	c.logger.Debug("backend response", "path", path, "status", resp.StatusCode, "request_id", reqID, "duration", time.Since(start))

	if err := checkStatus(resp.StatusCode, path); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read response"))
	}
	if int64(len(data)) > c.maxBody {
		return nil, errors.New(errors.ErrCodeInvalidInput, "response from %s exceeds %d bytes", endpoint, c.maxBody)
	}
	return data, nil
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); stderrors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "backend request timed out")
	}
	return httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "backend request failed"))
}

func checkStatus(code int, path string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s not found", path)
	case httputil.RetryableStatus(code):
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "request failed: status %d", code))
	default:
		return errors.New(errors.ErrCodeNetwork, "request failed: status %d", code)
	}
}

// String implements fmt.Stringer for logging.
func (c *Client) String() string {
	return fmt.Sprintf("backend(%s)", c.base)
}
