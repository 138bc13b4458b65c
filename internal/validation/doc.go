// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the whole process. It is used to
// check the starter-token file read by "fitsync build" and the body of sync
// trigger requests received by the status API.
//
// # Custom Tags
//
//   - notblank: string must contain a non-whitespace character
//   - stream: string must name a known sync stream (activities, steps,
//     heart_rate, sleep)
//
// # Usage
//
//	type StarterTokens struct {
//	    ClientID     string `json:"client_id" validate:"notblank"`
//	    RefreshToken string `json:"refresh_token" validate:"notblank"`
//	}
//
//	if verr := validation.ValidateStruct(&tokens); verr != nil {
//	    return fmt.Errorf("starter tokens: %w", verr)
//	}
//
// HTTP handlers convert failures with ToAPIError so that every rejected
// request carries the VALIDATION_ERROR code.
package validation
