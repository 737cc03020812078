// Package httpclient provides the shared retrying HTTP client every source
// adapter fetches through (§4.1). It generalizes the ad-hoc per-adapter
// retry loops in the teacher's scrape/workday and scrape/lever packages
// into a single reusable wrapper so every adapter gets the same backoff
// behavior instead of reimplementing it.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

const maxAttempts = 4

// Client wraps http.Client with the retry policy from §4.1:
//
//   - HTTP 429 or 5xx: retry with a 2^attempt second sleep, up to
//     maxAttempts total attempts.
//   - A network-level error (no response at all): retry with a flat 1
//     second sleep, same attempt cap.
//   - Any other 4xx: no retry, returned to the caller immediately.
//
// One Client is shared process-wide so the underlying transport's
// connection pool is reused across adapters.
type Client struct {
	hc        *http.Client
	UserAgent string
}

// New builds a Client with the teacher's timeout split: 30s total per
// request, 10s to establish the connection.
func New(userAgent string) *Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &Client{
		UserAgent: userAgent,
		hc: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 20 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Do issues req, retrying per the policy above. req.Body must be nil or
// support GetBody for retries to resend it correctly; every adapter in
// this module only issues GET/HEAD requests, so this is never an issue
// in practice.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			if attempt == maxAttempts || !retryableNetErr(err) {
				return nil, fmt.Errorf("httpclient: %w", err)
			}
			log.Printf("[httpclient] network error url=%q attempt=%d err=%v", req.URL, attempt, err)
			if !sleep(req.Context(), time.Second) {
				return nil, req.Context().Err()
			}
			continue
		}

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			if attempt == maxAttempts {
				return res, nil
			}
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[httpclient] status=%d url=%q attempt=%d backoff=%s", res.StatusCode, req.URL, attempt, backoff)
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			if !sleep(req.Context(), backoff) {
				return nil, req.Context().Err()
			}
			continue
		}

		return res, nil
	}

	return nil, fmt.Errorf("httpclient: exhausted retries: %w", lastErr)
}

// Get is a convenience wrapper for the common case.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// retryableNetErr reports whether err is worth retrying: anything except
// the caller's own context cancellation, since that can never succeed on
// a second attempt.
func retryableNetErr(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
