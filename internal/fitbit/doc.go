// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

/*
Package fitbit is the authenticated, rate-limit-aware Fitbit web API client.

Client Features:
  - Bearer authentication with the persisted OAuth2 credential
  - Synchronous token refresh (refresh_token grant via golang.org/x/oauth2)
    whenever the access token is expired or its expiry is unknown
  - Fixed pacing sleep before every data request
  - HTTP 429 handling: sleep until the next top of the hour plus an offset,
    then retry, without a retry cap
  - Circuit breaker (sony/gobreaker) around the transport so a dead network
    fails fast as a transient error
  - Injectable Clock so tests never really sleep

Error Taxonomy:
  - *AuthError: 401/403, or a refused refresh grant; the credential is unusable
  - *RequestError: any other non-200 status; fatal for the pass
  - *NetworkError: transport failure, timeout or open breaker; transient

Usage Example:

	cred, err := store.LoadCredential(ctx)
	if err != nil {
	    return err
	}
	client := fitbit.NewClient(cfg, store, cred)
	body, err := client.Fetch(ctx, "/1/user/-/activities/date/2020-05-01.json")
	if fitbit.IsTransient(err) {
	    // retry the pass later
	}

Thread Safety: calls are serialized by an internal mutex, so at most one
request is in flight per Client.
*/
package fitbit
