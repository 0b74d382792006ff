// Package httpx provides a resilient JSON HTTP client shared by the HR system adapters
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUA        = "hrhub"
	defaultMaxRetry  = 5
	defaultRetryBase = 1 * time.Second

	maxIdlePerHost = 4
	maxConnsHost   = 8
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Name labels log lines and the logger component; defaults to the host
	Name string

	// Decorate runs on every request before send; adapters attach auth here
	Decorate func(*http.Request)

	// Retry config for transient and rate limited responses
	MaxRetries int
	RetryBase  time.Duration
}

// Client is a minimal JSON client with bounded retries and rate limit handling
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.Name == "" {
		if u, err := url.Parse(o.BaseURL); err == nil {
			o.Name = u.Host
		} else {
			o.Name = "httpx"
		}
	}
	tr := &http.Transport{
		MaxIdleConnsPerHost: maxIdlePerHost,
		MaxConnsPerHost:     maxConnsHost,
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout, Transport: tr},
		opts:  o,
		log:   *logger.Named(o.Name),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Do issues a request with retries and rate limit handling.
// body is marshaled to JSON when non-nil. Callers own resp.Body on success
func (c *Client) Do(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	u := c.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "%s marshal body failed", c.opts.Name)
		}
		payload = b
	}

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "%s new request failed", c.opts.Name)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.opts.Decorate != nil {
			c.opts.Decorate(req)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s do failed", c.opts.Name)
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).
				Str("method", method).Str("path", path).
				Msg("transport error retrying")
			c.sleep(back)
			attempts++
			continue
		}

		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header, c.now())
			if wait <= 0 {
				wait = c.backoff(attempts)
			}
			_ = DrainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrap(&perr.StatusError{Status: resp.StatusCode},
					perr.ErrorCodeTooManyRequests, c.opts.Name+" rate limited")
			}
			c.log.Warn().Dur("sleep", wait).Str("path", path).Msg("rate limited backing off")
			c.sleep(wait)
			attempts++
			continue
		case resp.StatusCode == http.StatusRequestTimeout,
			resp.StatusCode == http.StatusInternalServerError,
			resp.StatusCode == http.StatusBadGateway,
			resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			_ = DrainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrap(&perr.StatusError{Status: resp.StatusCode},
					perr.ErrorCodeUnavailable, c.opts.Name+" transient server error")
			}
			back := c.backoff(attempts)
			c.log.Warn().Dur("retry_in", back).Int("attempt", attempts).
				Int("status", resp.StatusCode).Msg("transient error retrying")
			c.sleep(back)
			attempts++
			continue
		default:
			// read a small tail for diagnostics then return
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			se := &perr.StatusError{Status: resp.StatusCode, Body: string(tail)}
			return nil, perr.FromUpstreamf(se, "%s %s %s failed", c.opts.Name, method, path)
		}
	}
}

// JSON issues a request and decodes a 2xx response body into T
func JSON[T any](ctx context.Context, c *Client, method, path string, q url.Values, body any) (T, error) {
	var out T
	resp, err := c.Do(ctx, method, path, q, body)
	if err != nil {
		return out, err
	}
	defer func() { _ = DrainAndClose(resp.Body) }()
	if resp.StatusCode == http.StatusNoContent {
		return out, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if err == io.EOF {
			return out, nil
		}
		return out, perr.Wrapf(err, perr.ErrorCodeJSON, "%s decode %s failed", c.opts.Name, path)
	}
	return out, nil
}

// Discard issues a request and discards any 2xx response body
func (c *Client) Discard(ctx context.Context, method, path string, q url.Values, body any) error {
	resp, err := c.Do(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	return DrainAndClose(resp.Body)
}

// DrainAndClose consumes the remainder of a body so the connection can be reused
func DrainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<20))
	return rc.Close()
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase
	// simple exponential with cap
	ms := int64(d / time.Millisecond)
	ms = ms << uint(attempt)
	max := int64(30 * time.Second / time.Millisecond)
	if ms > max {
		ms = max
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries-1
}

// retryAfter reads a Retry-After delay in seconds, zero when absent or malformed
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if s, err := strconv.Atoi(v); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
