// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package fitbit

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/models"
)

// ProfilePath is the current user's profile resource.
const ProfilePath = "/1/user/-/profile.json"

type profileResponse struct {
	User struct {
		MemberSince         string   `json:"memberSince"`
		StrideLengthRunning *float64 `json:"strideLengthRunning"`
		StrideLengthWalking *float64 `json:"strideLengthWalking"`
	} `json:"user"`
}

// FetchProfile reads the registration date and stride lengths of the user.
func (c *Client) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	c.mu.Lock()
	body, err := c.fetch(ctx, kindProfile, ProfilePath)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return ParseProfile(body)
}

// ParseProfile decodes a profile.json body.
func ParseProfile(body []byte) (*models.UserProfile, error) {
	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if resp.User.MemberSince == "" {
		return nil, fmt.Errorf("decode profile: user.memberSince is missing")
	}
	start, err := time.Parse(time.DateOnly, resp.User.MemberSince)
	if err != nil {
		return nil, fmt.Errorf("decode profile: user.memberSince: %w", err)
	}
	return &models.UserProfile{
		ID:                  models.UserProfileID,
		StartDate:           start,
		StrideLengthRunning: resp.User.StrideLengthRunning,
		StrideLengthWalking: resp.User.StrideLengthWalking,
	}, nil
}
