// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package fitbit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/metrics"
	"github.com/tomtom215/fitsync/internal/models"
)

// maxErrorBodySize limits how much of a response body is kept for error reporting
const maxErrorBodySize = 64 * 1024

// Request kinds used as metric labels.
const (
	kindData    = "data"
	kindProfile = "profile"
	kindToken   = "token"
)

// TokenStore persists the OAuth2 credential.
type TokenStore interface {
	LoadCredential(ctx context.Context) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred *models.Credential) error
}

// Client is the Fitbit web API client. It exclusively owns cred and mutates
// it in place on every refresh.
type Client struct {
	mu sync.Mutex

	baseURL    string
	tokenURL   string
	httpClient *http.Client
	breaker    *breakerTransport
	store      TokenStore
	cred       *models.Credential
	clock      Clock
	pacing     time.Duration
	offset     time.Duration
	verbose    bool
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(cl *Client) { cl.clock = c }
}

// WithTransport sets the round tripper wrapped by the circuit breaker.
func WithTransport(rt http.RoundTripper) Option {
	return func(cl *Client) { cl.httpClient.Transport = rt }
}

// WithVerbose logs every outbound call at info level instead of debug.
func WithVerbose(v bool) Option {
	return func(cl *Client) { cl.verbose = v }
}

// WithPacing overrides fitbit.seconds_between_calls.
func WithPacing(d time.Duration) Option {
	return func(cl *Client) { cl.pacing = d }
}

// NewClient returns a client for cfg that reads and refreshes cred through store.
func NewClient(cfg *config.Config, store TokenStore, cred *models.Credential, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.Fitbit.APIBaseURL, "/"),
		tokenURL:   cfg.Fitbit.TokenURL,
		httpClient: &http.Client{Timeout: cfg.Fitbit.RequestTimeout},
		store:      store,
		cred:       cred,
		clock:      RealClock(),
		pacing:     cfg.SecondsBetweenCalls(),
		offset:     cfg.Fitbit.RateLimitOffset,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreakerTransport(c.httpClient.Transport, &cfg.CircuitBreaker)
	c.httpClient.Transport = c.breaker
	return c
}

// Credential returns a copy of the current credential.
func (c *Client) Credential() models.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.cred
}

// BreakerState returns the circuit breaker state name.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// Fetch GETs path (joined onto the API base URL) and returns the body of a
// 200 response. Expired tokens are refreshed first, the pacing delay is
// slept before every attempt, and 429 responses are waited out and retried.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetch(ctx, kindData, path)
}

func (c *Client) fetch(ctx context.Context, kind, path string) ([]byte, error) {
	url := c.baseURL + path
	for {
		if c.cred.NeedsRefresh(c.clock.Now()) {
			if err := c.refresh(ctx); err != nil {
				return nil, err
			}
		}

		if err := c.clock.Sleep(ctx, c.pacing); err != nil {
			return nil, err
		}

		c.logCall(url)

		status, body, err := c.get(ctx, kind, url)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests:
			if err := c.waitForRateLimit(ctx, kind); err != nil {
				return nil, err
			}
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, &AuthError{StatusCode: status, Body: truncate(body)}
		default:
			return nil, &RequestError{StatusCode: status, URL: url, Body: truncate(body)}
		}
	}
}

func (c *Client) get(ctx context.Context, kind, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordFitbitRequest(kind, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, &NetworkError{Op: "GET", URL: url, Err: err}
	}
	defer closeQuietly(resp.Body)

	var body []byte
	if resp.StatusCode == http.StatusOK {
		body, err = io.ReadAll(resp.Body)
	} else {
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	}
	metrics.RecordFitbitRequest(kind, resp.StatusCode, time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, &NetworkError{Op: "read", URL: url, Err: err}
	}
	return resp.StatusCode, body, nil
}

// waitForRateLimit sleeps until the next top of the hour plus the offset.
func (c *Client) waitForRateLimit(ctx context.Context, kind string) error {
	now := c.clock.Now()
	wait := RateLimitWait(now, c.offset)
	metrics.RecordRateLimitWait(kind, wait)
	logging.Ctx(ctx).Warn().
		Str("kind", kind).
		Dur("wait", wait).
		Time("resume_at", now.Add(wait)).
		Msg("Hitting API rate limit, sleeping")
	return c.clock.Sleep(ctx, wait)
}

func (c *Client) logCall(url string) {
	event := logging.Debug()
	if c.verbose {
		event = logging.Info()
	}
	event.Str("url", url).Time("at", c.clock.Now()).Msg("API call")
}

func truncate(body []byte) string {
	s := string(body)
	if len(body) >= maxErrorBodySize {
		s += "\n... (truncated)"
	}
	return s
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil && !errors.Is(err, http.ErrBodyReadAfterClose) {
		logging.Debug().Err(err).Msg("Failed to close response body")
	}
}
