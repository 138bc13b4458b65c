// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

const credentialColumns = "id, client_id, client_secret, access_token, refresh_token, expires_in, expires_at, scope, token_type, user_id"

// LoadCredential reads the single credential row.
func (db *DB) LoadCredential(ctx context.Context) (*models.Credential, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := db.dialect.rebind("SELECT " + credentialColumns + " FROM fitbit_credentials WHERE id = ?")

	var (
		c                                                       models.Credential
		clientID, clientSecret, access, refresh, scope, tt, uid sql.NullString
		expiresIn                                               sql.NullInt64
		expiresAt                                               nullTime
	)
	err := db.conn.QueryRowContext(ctx, query, models.CredentialID).Scan(
		&c.ID, &clientID, &clientSecret, &access, &refresh, &expiresIn, &expiresAt, &scope, &tt, &uid)
	observe("load_credential", models.TableCredentials, start, ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	c.ClientID = clientID.String
	c.ClientSecret = clientSecret.String
	c.AccessToken = access.String
	c.RefreshToken = refresh.String
	c.ExpiresIn = expiresIn.Int64
	c.ExpiresAt = expiresAt.Time
	c.Scope = scope.String
	c.TokenType = tt.String
	c.UserID = uid.String
	return &c, nil
}

// SaveCredential replaces the credential row with c.
func (db *DB) SaveCredential(ctx context.Context, c *models.Credential) error {
	if c == nil {
		return fmt.Errorf("credential is nil")
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := models.Row{
		"id":            models.CredentialID,
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
		"expires_in":    c.ExpiresIn,
		"expires_at":    nil,
		"scope":         c.Scope,
		"token_type":    c.TokenType,
		"user_id":       c.UserID,
	}
	if !c.ExpiresAt.IsZero() {
		row["expires_at"] = c.ExpiresAt
	}

	start := time.Now()
	err := db.replaceSingleton(ctx, models.TableCredentials, models.CredentialID, row)
	observe("save_credential", models.TableCredentials, start, err)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// LoadUserProfile reads the single user info row.
func (db *DB) LoadUserProfile(ctx context.Context) (*models.UserProfile, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	query := db.dialect.rebind("SELECT id, start_date, stride_length_running, stride_length_walking FROM fitbit_user_info WHERE id = ?")

	var (
		p                models.UserProfile
		startDate        nullTime
		running, walking sql.NullFloat64
	)
	err := db.conn.QueryRowContext(ctx, query, models.UserProfileID).Scan(&p.ID, &startDate, &running, &walking)
	observe("load_user_profile", models.TableUserInfo, start, ignoreNoRows(err))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoUserProfile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	if !startDate.Valid {
		return nil, fmt.Errorf("%w: start_date is NULL", ErrNoUserProfile)
	}

	p.StartDate = startDate.Time
	if running.Valid {
		p.StrideLengthRunning = &running.Float64
	}
	if walking.Valid {
		p.StrideLengthWalking = &walking.Float64
	}
	return &p, nil
}

// SaveUserProfile replaces the user info row with p.
func (db *DB) SaveUserProfile(ctx context.Context, p *models.UserProfile) error {
	if p == nil {
		return fmt.Errorf("user profile is nil")
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := models.Row{
		"id":                    models.UserProfileID,
		"start_date":            p.StartDate,
		"stride_length_running": nil,
		"stride_length_walking": nil,
	}
	if p.StrideLengthRunning != nil {
		row["stride_length_running"] = *p.StrideLengthRunning
	}
	if p.StrideLengthWalking != nil {
		row["stride_length_walking"] = *p.StrideLengthWalking
	}

	start := time.Now()
	err := db.replaceSingleton(ctx, models.TableUserInfo, models.UserProfileID, row)
	observe("save_user_profile", models.TableUserInfo, start, err)
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// SeedSleepStages fills sleep_stage_id with every known stage. Existing ids
// are rewritten so labels always match models.SleepStage.
func (db *DB) SeedSleepStages(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range models.SleepStages() {
			if err := db.deleteKey(ctx, tx, tableIndex[models.TableSleepStages], int64(s)); err != nil {
				return err
			}
			if err := db.insertRow(ctx, tx, tableIndex[models.TableSleepStages], models.Row{"id": int64(s), "stage": s.String()}); err != nil {
				return err
			}
		}
		return nil
	})
	observe("seed", models.TableSleepStages, start, err)
	if err != nil {
		return fmt.Errorf("failed to seed sleep stages: %w", err)
	}
	return nil
}

// SleepStageLabels reads the stage lookup table.
func (db *DB) SleepStageLabels(ctx context.Context) (map[int64]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, stage FROM sleep_stage_id ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep stages: %w", err)
	}
	defer closeWithLog(rows, "sleep stage rows")

	labels := make(map[int64]string)
	for rows.Next() {
		var id int64
		var stage string
		if err := rows.Scan(&id, &stage); err != nil {
			return nil, fmt.Errorf("failed to scan sleep stage: %w", err)
		}
		labels[id] = stage
	}
	return labels, rows.Err()
}

// replaceSingleton deletes and re-inserts a fixed-id row in one transaction.
func (db *DB) replaceSingleton(ctx context.Context, table string, id int, row models.Row) error {
	spec := tableIndex[table]
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := db.deleteKey(ctx, tx, spec, int64(id)); err != nil {
			return err
		}
		return db.insertRow(ctx, tx, spec, row)
	})
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
