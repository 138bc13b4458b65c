// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package models

import (
	"fmt"
	"strconv"
	"time"
)

// Row maps column names to values. A nil value is stored as NULL.
type Row map[string]any

// Record is one typed row bound for a data table.
type Record interface {
	// Table is the destination table name.
	Table() string
	// Key is the primary key value, an int64 or a time.Time.
	Key() any
	// Row renders every column, including the primary key.
	Row() Row
}

// KeyString renders a primary key value in canonical form so keys read back
// from storage compare equal to keys built by the normalizer.
func KeyString(v any) string {
	switch k := v.(type) {
	case time.Time:
		return k.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if k == nil {
			return ""
		}
		return k.UTC().Format(time.RFC3339Nano)
	case int64:
		return strconv.FormatInt(k, 10)
	case int:
		return strconv.Itoa(k)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case string:
		return k
	case []byte:
		return string(k)
	default:
		return fmt.Sprint(k)
	}
}

// opt turns a nil pointer into an untyped nil so drivers bind NULL.
func opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Activity is one logged activity (table activities, key logId).
type Activity struct {
	LogID                int64
	ActivityID           *int64
	ActivityParentID     *int64
	ActivityParentName   *string
	Name                 *string
	Description          *string
	HasStartTime         *bool
	IsFavorite           *bool
	HasActiveZoneMinutes *bool
	Date                 time.Time
	StartDateTime        *time.Time
	EndDateTime          *time.Time
	DurationMinutes      *int64
	Steps                *int64
	Calories             *int64
}

func (a *Activity) Table() string { return TableActivities }
func (a *Activity) Key() any      { return a.LogID }

func (a *Activity) Row() Row {
	return Row{
		"logId":                a.LogID,
		"activityId":           opt(a.ActivityID),
		"activityParentId":     opt(a.ActivityParentID),
		"activityParentName":   opt(a.ActivityParentName),
		"name":                 opt(a.Name),
		"description":          opt(a.Description),
		"hasStartTime":         opt(a.HasStartTime),
		"isFavorite":           opt(a.IsFavorite),
		"hasActiveZoneMinutes": opt(a.HasActiveZoneMinutes),
		"date":                 a.Date,
		"startDateTime":        opt(a.StartDateTime),
		"endDateTime":          opt(a.EndDateTime),
		"durationMinutes":      opt(a.DurationMinutes),
		"steps":                opt(a.Steps),
		"calories":             opt(a.Calories),
	}
}

// ActivitySummary is the per-day activity summary (key date).
type ActivitySummary struct {
	Date                 time.Time
	ActiveScore          *int64
	ActivityCalories     *int64
	CaloriesBMR          *int64
	CaloriesOut          *int64
	MarginalCalories     *int64
	SedentaryMinutes     *int64
	LightlyActiveMinutes *int64
	FairlyActiveMinutes  *int64
	VeryActiveMinutes    *int64
	RestingHeartRate     *int64
	Steps                *int64
}

func (s *ActivitySummary) Table() string { return TableActivitiesDailySummary }
func (s *ActivitySummary) Key() any      { return s.Date }

func (s *ActivitySummary) Row() Row {
	return Row{
		"date":                 s.Date,
		"activeScore":          opt(s.ActiveScore),
		"activityCalories":     opt(s.ActivityCalories),
		"caloriesBMR":          opt(s.CaloriesBMR),
		"caloriesOut":          opt(s.CaloriesOut),
		"marginalCalories":     opt(s.MarginalCalories),
		"sedentaryMinutes":     opt(s.SedentaryMinutes),
		"lightlyActiveMinutes": opt(s.LightlyActiveMinutes),
		"fairlyActiveMinutes":  opt(s.FairlyActiveMinutes),
		"veryActiveMinutes":    opt(s.VeryActiveMinutes),
		"restingHeartRate":     opt(s.RestingHeartRate),
		"steps":                opt(s.Steps),
	}
}

// StepsSample is one intraday step count (key time).
type StepsSample struct {
	Date     time.Time
	Time     time.Time
	NumSteps *int64
}

func (s *StepsSample) Table() string { return TableStepsIntraday }
func (s *StepsSample) Key() any      { return s.Time }

func (s *StepsSample) Row() Row {
	return Row{"date": s.Date, "time": s.Time, "num_steps": opt(s.NumSteps)}
}

// HeartRateSample is one intraday heart rate reading (key time).
type HeartRateSample struct {
	Date time.Time
	Time time.Time
	BPM  *int64
}

func (h *HeartRateSample) Table() string { return TableHeartRateIntraday }
func (h *HeartRateSample) Key() any      { return h.Time }

func (h *HeartRateSample) Row() Row {
	return Row{"date": h.Date, "time": h.Time, "bpm": opt(h.BPM)}
}

// SleepStageSample is one sleep stage interval (key time). At most one
// sample is kept per timestamp.
type SleepStageSample struct {
	Date            time.Time
	Time            time.Time
	DurationSeconds *int64
	Stage           *SleepStage
}

func (s *SleepStageSample) Table() string { return TableSleepIntraday }
func (s *SleepStageSample) Key() any      { return s.Time }

func (s *SleepStageSample) Row() Row {
	var stage any
	if s.Stage != nil {
		stage = int64(*s.Stage)
	}
	return Row{
		"date":             s.Date,
		"time":             s.Time,
		"duration_seconds": opt(s.DurationSeconds),
		"sleep_stage":      stage,
	}
}

// SleepSummary is the per-day sleep summary (key date).
type SleepSummary struct {
	Date               time.Time
	TotalMinutesAsleep *int64
	TotalTimeInBed     *int64
	DeepMinutes        *int64
	REMMinutes         *int64
	LightMinutes       *int64
	WakeMinutes        *int64
	TotalSleepRecords  *int64
	SleepBreakTimes    *string // semicolon separated session end times, nil when uninterrupted
}

func (s *SleepSummary) Table() string { return TableSleepDailySummary }
func (s *SleepSummary) Key() any      { return s.Date }

func (s *SleepSummary) Row() Row {
	return Row{
		"date":               s.Date,
		"totalMinutesAsleep": opt(s.TotalMinutesAsleep),
		"totalTimeInBed":     opt(s.TotalTimeInBed),
		"deepMinutes":        opt(s.DeepMinutes),
		"remMinutes":         opt(s.REMMinutes),
		"lightMinutes":       opt(s.LightMinutes),
		"wakeMinutes":        opt(s.WakeMinutes),
		"totalSleepRecords":  opt(s.TotalSleepRecords),
		"sleepBreakTimes":    opt(s.SleepBreakTimes),
	}
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Time returns a pointer to v.
func Time(v time.Time) *time.Time { return &v }
