// Package upstream is the resilient HTTP client shared by every provider
// adapter: per-attempt timeouts, 429 Retry-After handling, exponential
// backoff for 5xx/timeouts, and a per-hostname circuit breaker.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/tbourn/civics-backend/internal/config"
	"github.com/tbourn/civics-backend/internal/observability"
)

// Request describes one outbound JSON call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Get builds a GET request for rawURL.
func Get(rawURL string) Request {
	return Request{Method: http.MethodGet, URL: rawURL, Header: http.Header{}}
}

// PostJSON builds a POST request carrying body as JSON.
func PostJSON(rawURL string, body any) (Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("encode request body: %w", err)
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Request{Method: http.MethodPost, URL: rawURL, Header: h, Body: b}, nil
}

// WithHeader returns a copy of r with header k set to v.
func (r Request) WithHeader(k, v string) Request {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(k, v)
	r.Header = h
	return r
}

// Fetcher is the capability adapters depend on.
type Fetcher interface {
	FetchJSON(ctx context.Context, req Request, out any) error
}

// Options tunes a Client. Zero values fall back to the defaults below.
type Options struct {
	Timeout           time.Duration // per attempt; default 10s
	MaxRetries        int           // total attempts; default 3
	BreakerThreshold  int           // default 3
	BreakerCooldown   time.Duration // default 60s
	RetryAfterDefault time.Duration // default 2s
	UserAgent         string
}

// OptionsFrom maps the upstream config section onto client options.
func OptionsFrom(cfg config.UpstreamConfig) Options {
	return Options{
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		BreakerThreshold:  cfg.BreakerThreshold,
		BreakerCooldown:   cfg.BreakerCooldown,
		RetryAfterDefault: cfg.RetryAfterDefault,
		UserAgent:         cfg.UserAgent,
	}
}

// Client implements Fetcher over net/http.
type Client struct {
	http     *http.Client
	opts     Options
	breakers *Breakers
	sleep    func(context.Context, time.Duration) error
}

// ClientOption customizes a Client (mainly for tests).
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }

// WithSleep replaces the backoff sleeper.
func WithSleep(fn func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = fn }
}

// WithBreakers shares or injects a breaker table.
func WithBreakers(b *Breakers) ClientOption { return func(c *Client) { c.breakers = b } }

// NewClient builds a Client with its own breaker table unless one is injected.
func NewClient(opts Options, options ...ClientOption) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.RetryAfterDefault <= 0 {
		opts.RetryAfterDefault = 2 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "civics-backend/1.0"
	}
	c := &Client{
		http:  &http.Client{},
		opts:  opts,
		sleep: sleepCtx,
	}
	for _, o := range options {
		o(c)
	}
	if c.breakers == nil {
		c.breakers = NewBreakers(opts.BreakerThreshold, opts.BreakerCooldown, nil)
	}
	return c
}

// Breakers exposes the client's breaker table.
func (c *Client) Breakers() *Breakers { return c.breakers }

// attemptResult classifies a single HTTP attempt.
type attemptResult struct {
	status     int
	retryAfter time.Duration
	err        error
	outcome    string
}

// FetchJSON performs req and decodes a 2xx JSON body into out.
//
// Failure handling:
//   - 429: sleep Retry-After (default 2s) and retry; not recorded on the breaker
//   - 5xx, transport errors, timeouts: exponential backoff (1s, 2s, 4s...) up to
//     MaxRetries total attempts, then one breaker failure
//   - other non-2xx or an undecodable body: one breaker failure, no retry
//   - an open circuit fails fast with *CircuitOpenError
func (c *Client) FetchJSON(ctx context.Context, req Request, out any) error {
	u, err := url.Parse(req.URL)
	if err != nil || u.Hostname() == "" {
		return &UpstreamError{Host: req.URL, Message: "invalid url"}
	}
	host := u.Hostname()
	logger := zerolog.Ctx(ctx).With().Str("host", host).Logger()

	if err := c.breakers.Allow(host); err != nil {
		observability.ObserveUpstream(host, observability.OutcomeCircuitOpen, 0)
		return err
	}

	bo := newBackoff()
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		res := c.attempt(ctx, host, req, out)
		if res.err == nil {
			c.breakers.Success(host)
			return nil
		}
		lastErr = res.err

		if ctx.Err() != nil {
			c.breakers.Release(host)
			return ctx.Err()
		}

		var wait time.Duration
		switch res.outcome {
		case observability.OutcomeRateLimited:
			wait = res.retryAfter
		case observability.OutcomeServerError, observability.OutcomeTimeout, observability.OutcomeTransport:
			if attempt >= c.opts.MaxRetries-1 {
				c.breakers.Failure(host)
				return lastErr
			}
			wait = bo.NextBackOff()
		default:
			c.breakers.Failure(host)
			return lastErr
		}

		logger.Debug().Int("attempt", attempt+1).Str("outcome", res.outcome).Dur("wait", wait).Msg("upstream retry")
		if err := c.sleep(ctx, wait); err != nil {
			c.breakers.Release(host)
			return err
		}
	}

	c.breakers.Failure(host)
	if lastErr == nil {
		lastErr = &UpstreamError{Host: host, Message: fmt.Sprintf("failed after %d attempts", c.opts.MaxRetries)}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, host string, req Request, out any) attemptResult {
	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(actx, method, req.URL, body)
	if err != nil {
		return attemptResult{err: &UpstreamError{Host: host, Message: "build request"}, outcome: observability.OutcomeClientError}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", c.opts.UserAgent)

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		res := attemptResult{outcome: observability.OutcomeTransport, err: &UpstreamError{Host: host, Message: "transport error"}}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			res = attemptResult{outcome: observability.OutcomeTimeout, err: &TimeoutError{Host: host, After: c.opts.Timeout}}
		}
		observability.ObserveUpstream(host, res.outcome, time.Since(start))
		return res
	}
	defer resp.Body.Close()

	res := attemptResult{status: resp.StatusCode}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		res.outcome = observability.OutcomeRateLimited
		res.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.opts.RetryAfterDefault)
		res.err = &UpstreamError{Host: host, Status: resp.StatusCode, Message: "rate limited"}
	case resp.StatusCode >= 500:
		res.outcome = observability.OutcomeServerError
		res.err = &UpstreamError{Host: host, Status: resp.StatusCode, Message: summarize(resp.Body, resp.Status)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		res.outcome = observability.OutcomeClientError
		res.err = &UpstreamError{Host: host, Status: resp.StatusCode, Message: summarize(resp.Body, resp.Status)}
	default:
		res.outcome = observability.OutcomeOK
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					res.outcome = observability.OutcomeTimeout
					res.err = &TimeoutError{Host: host, After: c.opts.Timeout}
				} else {
					res.outcome = observability.OutcomeClientError
					res.err = &UpstreamError{Host: host, Status: resp.StatusCode, Message: "invalid JSON body"}
				}
			}
		}
	}
	observability.ObserveUpstream(host, res.outcome, time.Since(start))
	return res
}

// newBackoff yields 1s, 2s, 4s... with no jitter so retries follow 2^attempt seconds.
func newBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = 30 * time.Second
	bo.Reset()
	return bo
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return def
}

// summarize returns a short single-line excerpt of an error body.
func summarize(r io.Reader, fallback string) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	s := strings.Join(strings.Fields(string(b)), " ")
	if s == "" {
		return fallback
	}
	if len(s) > 120 {
		s = s[:120] + "…"
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
