// Package probe performs the HTTP reachability checks behind remote link
// verification. All transport-level failures are absorbed into boolean
// outcomes; nothing in this package returns an error to the verifier.
package probe

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client probes remote URLs with a uniform finite deadline, retrying
// retryable server errors with exponential backoff.
type Client struct {
	config  *Config
	http    *http.Client
	limiter *rate.Limiter
	calls   atomic.Int64
}

// New creates a probe client. If config is nil, default configuration is
// used.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Client{
		config: config,
		http: &http.Client{
			Timeout: config.Timeout,
		},
	}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit)
	}
	return c
}

// Head reports whether target answers a non-error status to a HEAD
// request, following redirects. Any transport failure counts as
// unreachable.
func (c *Client) Head(ctx context.Context, target string) bool {
	resp, err := c.do(ctx, http.MethodHead, target)
	if err != nil {
		log.Debug().Err(err).Str("url", target).Msg("HEAD probe failed")
		return false
	}
	defer resp.Body.Close()
	return success(resp.StatusCode)
}

// Get fetches target and returns its body. ok is false on any transport
// failure or error status; the body is only valid when ok is true.
func (c *Client) Get(ctx context.Context, target string) (body []byte, ok bool) {
	resp, err := c.do(ctx, http.MethodGet, target)
	if err != nil {
		log.Debug().Err(err).Str("url", target).Msg("GET probe failed")
		return nil, false
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, false
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize))
	if err != nil {
		log.Debug().Err(err).Str("url", target).Msg("Failed to read response body")
		return nil, false
	}
	return body, true
}

// Calls returns the number of HTTP requests issued, including retries.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

func (c *Client) do(ctx context.Context, method, target string) (*http.Response, error) {
	delay := c.config.RetryDelay

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "text/html")

		c.calls.Add(1)
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= c.config.RetryAttempts {
			return resp, nil
		}
		resp.Body.Close()

		log.Debug().
			Str("url", target).
			Str("method", method).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying after server error")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// success mirrors the requests-style "ok" range: anything below 400 after
// redirect following.
func success(status int) bool {
	return status < http.StatusBadRequest
}

func retryable(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	}
	return false
}
