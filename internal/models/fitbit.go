// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package models

import "time"

// CredentialID is the primary key of the single credential row.
const CredentialID = 1

// Credential is the persisted OAuth2 credential. There is exactly one row per
// installation and it is replaced in place on every token refresh.
type Credential struct {
	ID           int       `json:"id"`
	ClientID     string    `json:"client_id" validate:"required"`
	ClientSecret string    `json:"client_secret" validate:"required"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token" validate:"required"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"` // zero means unknown, forces a refresh
	Scope        string    `json:"scope"`
	TokenType    string    `json:"token_type"`
	UserID       string    `json:"user_id"`
}

// NeedsRefresh reports whether the access token must be refreshed before
// the next request issued at now.
func (c *Credential) NeedsRefresh(now time.Time) bool {
	return c.ExpiresAt.IsZero() || !now.Before(c.ExpiresAt)
}

// UserProfileID is the primary key of the single user info row.
const UserProfileID = 1

// UserProfile holds the registration data read once from the profile endpoint.
// StartDate is the lower bound of every sync range.
type UserProfile struct {
	ID                  int       `json:"id"`
	StartDate           time.Time `json:"start_date" validate:"required"`
	StrideLengthRunning *float64  `json:"stride_length_running,omitempty"`
	StrideLengthWalking *float64  `json:"stride_length_walking,omitempty"`
}

// SleepStage is the numeric id of a sleep stage label.
type SleepStage int

// Sleep stage ids as stored in sleep_intraday.sleep_stage.
const (
	StageDeep     SleepStage = 1
	StageLight    SleepStage = 2
	StageREM      SleepStage = 3
	StageWake     SleepStage = 4
	StageAsleep   SleepStage = 5
	StageRestless SleepStage = 6
	StageAwake    SleepStage = 7
)

var stageLabels = map[SleepStage]string{
	StageDeep:     "deep",
	StageLight:    "light",
	StageREM:      "rem",
	StageWake:     "wake",
	StageAsleep:   "asleep",
	StageRestless: "restless",
	StageAwake:    "awake",
}

// SleepStages returns every stage in id order.
func SleepStages() []SleepStage {
	return []SleepStage{StageDeep, StageLight, StageREM, StageWake, StageAsleep, StageRestless, StageAwake}
}

// String returns the provider label for the stage.
func (s SleepStage) String() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return "unknown"
}

// StageFromLabel maps a provider stage label to its id. Unknown labels report false.
func StageFromLabel(label string) (SleepStage, bool) {
	for id, l := range stageLabels {
		if l == label {
			return id, true
		}
	}
	return 0, false
}
