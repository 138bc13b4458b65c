// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package bootstrap

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/models"
	"github.com/tomtom215/fitsync/internal/validation"
)

// StarterTokens is the flat file handed out once when the app is registered.
type StarterTokens struct {
	ClientID     string `json:"client_id" validate:"notblank"`
	ClientSecret string `json:"client_secret" validate:"notblank"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token" validate:"notblank"`
}

// Credential returns the credential row seeded from t. Its expiry is unknown,
// so the first request refreshes.
func (t *StarterTokens) Credential() *models.Credential {
	return &models.Credential{
		ID:           models.CredentialID,
		ClientID:     t.ClientID,
		ClientSecret: t.ClientSecret,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
}

// ReadStarterTokens reads and validates the starter token file.
func ReadStarterTokens(path string) (*StarterTokens, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read starter tokens: %w", err)
	}

	var tokens StarterTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode starter tokens %s: %w", path, err)
	}
	if verr := validation.ValidateStruct(&tokens); verr != nil {
		return nil, fmt.Errorf("starter tokens %s: %w", path, verr)
	}
	return &tokens, nil
}

// ClearStarterTokens blanks access_token and refresh_token in the file at
// path. Every other key is written back unchanged.
func ClearStarterTokens(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat starter tokens: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read starter tokens: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode starter tokens %s: %w", path, err)
	}
	doc["access_token"] = ""
	doc["refresh_token"] = ""

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode starter tokens: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write starter tokens: %w", err)
	}
	return nil
}
