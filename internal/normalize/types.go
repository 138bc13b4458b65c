// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package normalize

import (
	"bytes"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/models"
)

// TableResult is the outcome for a single table.
type TableResult struct {
	// Records is nil when the table is absent for this date.
	Records []models.Record

	// Reason explains why the table is absent.
	Reason string

	// Dropped counts entries discarded because no primary key could be derived.
	Dropped int
}

// Absent reports whether the table should be skipped for this date.
func (r TableResult) Absent() bool {
	return r.Records == nil
}

// Result maps table names to their TableResult.
type Result map[string]TableResult

func absent(reason string) TableResult {
	return TableResult{Reason: reason}
}

func present(records []models.Record, dropped int) TableResult {
	if len(records) == 0 {
		return TableResult{Reason: "no usable entries", Dropped: dropped}
	}
	return TableResult{Records: records, Dropped: dropped}
}

// isMissing reports whether a raw sub-document was omitted or null.
func isMissing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// unquote strips JSON string quotes, reporting whether raw was a string.
func unquote(raw []byte) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) >= 2 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(trimmed), false
}

// optInt accepts a JSON number or a numeric string. Fractions are truncated.
type optInt struct {
	v     int64
	valid bool
}

func (o *optInt) UnmarshalJSON(raw []byte) error {
	*o = optInt{}
	s, _ := unquote(raw)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*o = optInt{v: n, valid: true}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*o = optInt{v: int64(f), valid: true}
	return nil
}

func (o optInt) ptr() *int64 {
	if !o.valid {
		return nil
	}
	return models.Int64(o.v)
}

// optString accepts a JSON string, or a number rendered as its literal text.
type optString struct {
	v     string
	valid bool
}

func (o *optString) UnmarshalJSON(raw []byte) error {
	*o = optString{}
	s, quoted := unquote(raw)
	if quoted {
		*o = optString{v: s, valid: true}
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		*o = optString{v: s, valid: true}
	}
	return nil
}

func (o optString) ptr() *string {
	if !o.valid {
		return nil
	}
	return models.String(o.v)
}

// optBool accepts true/false, their string forms, and 0/1.
type optBool struct {
	v     bool
	valid bool
}

func (o *optBool) UnmarshalJSON(raw []byte) error {
	*o = optBool{}
	s, _ := unquote(raw)
	if b, err := strconv.ParseBool(s); err == nil {
		*o = optBool{v: b, valid: true}
	}
	return nil
}

func (o optBool) ptr() *bool {
	if !o.valid {
		return nil
	}
	return models.Bool(o.v)
}

// calendarDay truncates t to midnight UTC of its calendar date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseLocal parses a naive timestamp using the first layout that fits.
func parseLocal(value string, layouts ...string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
