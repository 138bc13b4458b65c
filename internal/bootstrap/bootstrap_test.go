// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/database"
	"github.com/tomtom215/fitsync/internal/fitbit"
	"github.com/tomtom215/fitsync/internal/models"
)

const starterFile = `{
  "client_id": "23ABCD",
  "client_secret": "s3cr3t",
  "access_token": "starter-access",
  "refresh_token": "starter-refresh",
  "redirect_uri": "http://localhost:8080/callback"
}`

func writeStarter(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fitbit_starter_tokens.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write starter tokens: %v", err)
	}
	return path
}

// fakeFitbit serves the token and profile endpoints.
func fakeFitbit(t *testing.T, tokenHits, profileHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenHits.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("refresh_token"); got != "starter-refresh" {
			t.Errorf("refresh_token = %q, want starter-refresh", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-access","refresh_token":"fresh-refresh","expires_in":28800,"token_type":"Bearer","user_id":"ABC123"}`))
	})
	mux.HandleFunc(fitbit.ProfilePath, func(w http.ResponseWriter, r *http.Request) {
		profileHits.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer fresh-access" {
			t.Errorf("Authorization = %q, want the refreshed token", got)
		}
		_, _ = w.Write([]byte(`{"user":{"memberSince":"2019-03-14","strideLengthRunning":98.3,"strideLengthWalking":71.2}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Fitbit: config.FitbitConfig{
			APIBaseURL:      baseURL,
			TokenURL:        baseURL + "/oauth2/token",
			RequestTimeout:  5 * time.Second,
			RateLimitOffset: 5 * time.Minute,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             time.Minute,
			ConsecutiveFailures: 5,
		},
	}
}

func openSQLite(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "fitsync.db"),
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBuildFreshInstall(t *testing.T) {
	t.Parallel()

	var tokenHits, profileHits atomic.Int32
	srv := fakeFitbit(t, &tokenHits, &profileHits)
	cfg := testConfig(srv.URL)
	db := openSQLite(t)
	tokensPath := writeStarter(t, starterFile)
	ctx := context.Background()

	factory := func(cred *models.Credential) Client {
		return fitbit.NewClient(cfg, db, cred, fitbit.WithPacing(0))
	}
	res, err := NewBuilder(db, factory, tokensPath).Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(res.CreatedTables) != len(database.TableNames()) {
		t.Errorf("CreatedTables = %v, want all %d tables", res.CreatedTables, len(database.TableNames()))
	}
	if !res.CredentialSeeded || !res.ProfileSeeded || !res.StagesSeeded {
		t.Errorf("result = %+v, want every step seeded", res)
	}
	if tokenHits.Load() != 1 || profileHits.Load() != 1 {
		t.Errorf("token hits = %d, profile hits = %d, want 1 each", tokenHits.Load(), profileHits.Load())
	}

	cred, err := db.LoadCredential(ctx)
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if cred.AccessToken != "fresh-access" || cred.RefreshToken != "fresh-refresh" || cred.ClientID != "23ABCD" {
		t.Errorf("credential = %+v", cred)
	}
	if cred.ExpiresAt.IsZero() {
		t.Error("ExpiresAt should be set after the refresh")
	}

	profile, err := db.LoadUserProfile(ctx)
	if err != nil {
		t.Fatalf("LoadUserProfile() error = %v", err)
	}
	if got := profile.StartDate.Format(time.DateOnly); got != "2019-03-14" {
		t.Errorf("StartDate = %s, want 2019-03-14", got)
	}

	labels, err := db.SleepStageLabels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(labels) != 7 || labels[3] != "rem" {
		t.Errorf("stage labels = %v", labels)
	}

	var file map[string]string
	data, err := os.ReadFile(tokensPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("starter file is no longer valid JSON: %v", err)
	}
	if file["access_token"] != "" || file["refresh_token"] != "" {
		t.Errorf("starter tokens not cleared: %v", file)
	}
	if file["client_id"] != "23ABCD" || file["redirect_uri"] == "" {
		t.Errorf("other keys must survive: %v", file)
	}

	// A second build finds everything in place and calls nothing.
	res, err = NewBuilder(db, factory, tokensPath).Build(ctx)
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if len(res.CreatedTables) != 0 || res.CredentialSeeded || res.ProfileSeeded || res.StagesSeeded {
		t.Errorf("second result = %+v, want no changes", res)
	}
	if tokenHits.Load() != 1 || profileHits.Load() != 1 {
		t.Errorf("second build must not call the API: token %d, profile %d", tokenHits.Load(), profileHits.Load())
	}
}

// fakeStore records calls and reports every table empty.
type fakeStore struct {
	saved      []*models.Credential
	credential *models.Credential
	profile    *models.UserProfile
	stages     int
}

func (s *fakeStore) Migrate() error { return nil }

func (s *fakeStore) CreateTables(context.Context) ([]string, error) { return nil, nil }

func (s *fakeStore) TableEmpty(_ context.Context, table string) (bool, error) {
	switch table {
	case models.TableCredentials:
		return s.credential == nil && len(s.saved) == 0, nil
	case models.TableUserInfo:
		return s.profile == nil, nil
	default:
		return s.stages == 0, nil
	}
}

func (s *fakeStore) LoadCredential(context.Context) (*models.Credential, error) {
	if s.credential == nil {
		return nil, database.ErrNoCredential
	}
	return s.credential, nil
}

func (s *fakeStore) SaveCredential(_ context.Context, c *models.Credential) error {
	s.saved = append(s.saved, c)
	return nil
}

func (s *fakeStore) SaveUserProfile(_ context.Context, p *models.UserProfile) error {
	s.profile = p
	return nil
}

func (s *fakeStore) SeedSleepStages(context.Context) error {
	s.stages++
	return nil
}

type fakeClient struct {
	refreshErr error
	profile    *models.UserProfile
	refreshed  int
}

func (c *fakeClient) Refresh(context.Context) error {
	c.refreshed++
	return c.refreshErr
}

func (c *fakeClient) FetchProfile(context.Context) (*models.UserProfile, error) {
	if c.profile == nil {
		return nil, errors.New("no profile")
	}
	return c.profile, nil
}

func TestBuildRefreshFailureKeepsStarterFile(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	client := &fakeClient{refreshErr: &fitbit.AuthError{StatusCode: 400, Body: "invalid_grant"}}
	tokensPath := writeStarter(t, starterFile)

	_, err := NewBuilder(store, func(*models.Credential) Client { return client }, tokensPath).Build(context.Background())
	if !fitbit.IsAuth(err) {
		t.Fatalf("Build() error = %v, want AuthError", err)
	}

	data, err := os.ReadFile(tokensPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "starter-refresh") {
		t.Error("starter file must be kept when the refresh fails")
	}
	if store.profile != nil || store.stages != 0 {
		t.Error("later steps must not run after a failure")
	}
}

func TestBuildReusesStoredCredential(t *testing.T) {
	t.Parallel()

	stored := &models.Credential{ID: 1, ClientID: "c", ClientSecret: "s", RefreshToken: "r"}
	store := &fakeStore{credential: stored}
	client := &fakeClient{profile: &models.UserProfile{ID: 1, StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}}

	var built *models.Credential
	factory := func(c *models.Credential) Client {
		built = c
		return client
	}
	res, err := NewBuilder(store, factory, "/nonexistent/tokens.json").Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.CredentialSeeded || !res.ProfileSeeded || !res.StagesSeeded {
		t.Errorf("result = %+v", res)
	}
	if built != stored {
		t.Error("profile client should be built from the stored credential")
	}
	if client.refreshed != 0 {
		t.Error("existing credentials must not be refreshed by build")
	}
}

func TestBuildInvalidStarterFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", "client_id=abc", "decode starter tokens"},
		{"missing refresh", `{"client_id":"c","client_secret":"s"}`, "refresh_token must not be blank"},
		{"blank client", `{"client_id":"  ","client_secret":"s","refresh_token":"r"}`, "client_id must not be blank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{}
			path := writeStarter(t, tt.content)
			_, err := NewBuilder(store, func(*models.Credential) Client { return &fakeClient{} }, path).Build(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Build() error = %v, want mention of %q", err, tt.want)
			}
			if len(store.saved) != 0 {
				t.Error("nothing should be saved from an invalid file")
			}
		})
	}
}

func TestBuildMissingStarterFile(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder(&fakeStore{}, nil, filepath.Join(t.TempDir(), "absent.json")).Build(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Build() error = %v, want os.ErrNotExist", err)
	}
}
