// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package fitbit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/metrics"
)

// Refresh exchanges the stored refresh token for a new token pair and
// persists it. A 429 from the token endpoint is waited out and retried.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *Client) refresh(ctx context.Context) error {
	for {
		err := c.refreshOnce(ctx)
		if err == nil {
			metrics.RecordTokenRefresh("success")
			return nil
		}

		var re *oauth2.RetrieveError
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.As(err, &re) && re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests:
			if err := c.waitForRateLimit(ctx, kindToken); err != nil {
				return err
			}
		case errors.As(err, &re):
			metrics.RecordTokenRefresh("auth_error")
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			return &AuthError{StatusCode: status, Body: truncate(re.Body)}
		case IsTransient(err):
			metrics.RecordTokenRefresh("network_error")
			return err
		default:
			metrics.RecordTokenRefresh("auth_error")
			return &AuthError{Body: err.Error()}
		}
	}
}

func (c *Client) refreshOnce(ctx context.Context) error {
	conf := &oauth2.Config{
		ClientID:     c.cred.ClientID,
		ClientSecret: c.cred.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	start := time.Now()
	tok, err := conf.TokenSource(exchangeCtx, &oauth2.Token{RefreshToken: c.cred.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			metrics.RecordFitbitRequest(kindToken, status, time.Since(start))
			return err
		}
		metrics.RecordFitbitRequest(kindToken, 0, time.Since(start))
		if isTransportError(err) {
			return &NetworkError{Op: "POST", URL: c.tokenURL, Err: err}
		}
		return err
	}
	metrics.RecordFitbitRequest(kindToken, http.StatusOK, time.Since(start))

	now := c.clock.Now()
	expiresIn := tokenExpiresIn(tok, now)

	c.cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.cred.RefreshToken = tok.RefreshToken
	}
	c.cred.ExpiresIn = int64(expiresIn / time.Second)
	c.cred.ExpiresAt = now.Add(expiresIn)
	if tok.TokenType != "" {
		c.cred.TokenType = tok.TokenType
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		c.cred.Scope = scope
	}
	if userID, ok := tok.Extra("user_id").(string); ok {
		c.cred.UserID = userID
	}

	if err := c.store.SaveCredential(ctx, c.cred); err != nil {
		return fmt.Errorf("persist refreshed credential: %w", err)
	}

	logging.Ctx(ctx).Info().
		Time("expires_at", c.cred.ExpiresAt).
		Msg("Access token refreshed")
	return nil
}

// tokenExpiresIn prefers the raw expires_in field so expires_at is computed
// against the injected clock.
func tokenExpiresIn(tok *oauth2.Token, now time.Time) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(now)
	}
	return 0
}

// isTransportError reports whether err came from failing to reach the token
// endpoint, as opposed to a malformed token response.
func isTransportError(err error) bool {
	var transportErr interface{ Timeout() bool }
	return errors.As(err, &transportErr)
}
