// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package normalize

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/models"
)

type intradaySeries struct {
	Dataset json.RawMessage `json:"dataset"`
}

type intradayPoint struct {
	Time  optString `json:"time"`
	Value optInt    `json:"value"`
}

// ParseSteps normalizes the 1-minute step series into activities_steps_intraday.
func ParseSteps(raw []byte, date time.Time) Result {
	return Result{
		models.TableStepsIntraday: parseIntraday(raw, "activities-steps-intraday", calendarDay(date),
			func(day, at time.Time, v *int64) models.Record {
				return &models.StepsSample{Date: day, Time: at, NumSteps: v}
			}),
	}
}

// ParseHeartRate normalizes the 1-minute heart rate series into heart_rate_intraday.
func ParseHeartRate(raw []byte, date time.Time) Result {
	return Result{
		models.TableHeartRateIntraday: parseIntraday(raw, "activities-heart-intraday", calendarDay(date),
			func(day, at time.Time, v *int64) models.Record {
				return &models.HeartRateSample{Date: day, Time: at, BPM: v}
			}),
	}
}

func parseIntraday(raw []byte, key string, day time.Time, build func(day, at time.Time, v *int64) models.Record) TableResult {
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(raw, &resp); err != nil {
		return absent(fmt.Sprintf("malformed response: %v", err))
	}

	seriesRaw, ok := resp[key]
	if !ok || isMissing(seriesRaw) {
		return absent(key + " missing")
	}

	var series intradaySeries
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return absent(fmt.Sprintf("malformed %s: %v", key, err))
	}
	if isMissing(series.Dataset) {
		return absent(key + ".dataset missing")
	}

	var points []intradayPoint
	if err := json.Unmarshal(series.Dataset, &points); err != nil {
		return absent(fmt.Sprintf("malformed %s.dataset: %v", key, err))
	}
	if len(points) == 0 {
		return absent(key + ".dataset empty")
	}

	prefix := day.Format(time.DateOnly) + " "
	records := make([]models.Record, 0, len(points))
	dropped := 0
	for _, p := range points {
		if !p.Time.valid {
			dropped++
			continue
		}
		at, ok := parseLocal(prefix+p.Time.v, time.DateTime, "2006-01-02 15:04")
		if !ok {
			dropped++
			continue
		}
		records = append(records, build(day, at, p.Value.ptr()))
	}

	return present(records, dropped)
}
