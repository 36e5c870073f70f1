package fetcher

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/stock-screener/internal/ratelimit"
	"github.com/sells-group/stock-screener/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// Rand drives backoff jitter. Inject a seeded source for
	// deterministic schedules in tests; nil uses the global source.
	Rand *rand.Rand

	// Sleep overrides the backoff sleep, for tests. nil sleeps for real,
	// honoring ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration)
}

// HTTPClient implements Client using net/http. Every attempt, success or
// failure, consumes exactly one admission unit from the limiter before
// the network call is issued; backoff sleeps happen outside the limiter.
type HTTPClient struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	opts    HTTPOptions
}

// NewHTTP creates an HTTPClient guarded by the given limiter. The
// limiter must not be nil: each provider gets its own independently
// configured instance.
func NewHTTP(limiter *ratelimit.Limiter, opts HTTPOptions) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 5
	}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "stock-screener/1.0"
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		opts:    opts,
	}
}

// Get fetches url, retrying transient failures up to MaxAttempts with
// exponential backoff and jitter. 403 fails immediately as a permanent
// error; 404 returns ErrNotFound without retry.
func (c *HTTPClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		// Admission happens before every attempt, never during backoff.
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		body, err := c.do(req.Clone(ctx))
		if err == nil {
			return body, nil
		}
		if IsNotFound(err) || resilience.IsPermanent(err) {
			return nil, err
		}
		if !resilience.IsTransient(err) {
			return nil, err
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "fetcher: cancelled")
		}
		if attempt < c.opts.MaxAttempts-1 {
			delay := c.backoff(attempt)
			zap.L().Warn("transient fetch failure, backing off",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			c.sleep(ctx, delay)
		}
	}

	return nil, eris.Wrapf(lastErr, "fetcher: %d attempts exhausted for %s", c.opts.MaxAttempts, url)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		// Network errors are classified by resilience.IsTransient.
		return nil, eris.Wrap(err, "fetcher: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: read body"), resp.StatusCode)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return nil, resilience.NewPermanentError(
			eris.Errorf("fetcher: http 403 from %s (check User-Agent)", req.URL.Host), resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, resilience.NewTransientError(
			eris.Errorf("fetcher: http %d from %s", resp.StatusCode, req.URL.Host), resp.StatusCode)
	default:
		return nil, resilience.NewPermanentError(
			eris.Errorf("fetcher: http %d from %s", resp.StatusCode, req.URL.Host), resp.StatusCode)
	}
}

// backoff computes the delay before retry attempt+1: base doubling each
// attempt, capped, plus up to 50% jitter.
func (c *HTTPClient) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.opts.BaseBackoff) * math.Pow(2, float64(attempt)))
	if d > c.opts.MaxBackoff {
		d = c.opts.MaxBackoff
	}
	var jitter time.Duration
	if c.opts.Rand != nil {
		jitter = time.Duration(c.opts.Rand.Int64N(int64(d)/2 + 1))
	} else {
		jitter = time.Duration(rand.Int64N(int64(d)/2 + 1))
	}
	return d + jitter
}

func (c *HTTPClient) sleep(ctx context.Context, d time.Duration) {
	if c.opts.Sleep != nil {
		c.opts.Sleep(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
