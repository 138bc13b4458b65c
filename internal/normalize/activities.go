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

type activitiesResponse struct {
	Activities json.RawMessage `json:"activities"`
	Summary    json.RawMessage `json:"summary"`
}

type activityEntry struct {
	LogID                optInt    `json:"logId"`
	ActivityID           optInt    `json:"activityId"`
	ActivityParentID     optInt    `json:"activityParentId"`
	ActivityParentName   optString `json:"activityParentName"`
	Name                 optString `json:"name"`
	Description          optString `json:"description"`
	HasStartTime         optBool   `json:"hasStartTime"`
	IsFavorite           optBool   `json:"isFavorite"`
	HasActiveZoneMinutes optBool   `json:"hasActiveZoneMinutes"`
	StartDate            optString `json:"startDate"`
	StartTime            optString `json:"startTime"`
	Duration             optInt    `json:"duration"` // milliseconds
	Steps                optInt    `json:"steps"`
	Calories             optInt    `json:"calories"`
}

type activitySummaryEntry struct {
	ActiveScore          optInt `json:"activeScore"`
	ActivityCalories     optInt `json:"activityCalories"`
	CaloriesBMR          optInt `json:"caloriesBMR"`
	CaloriesOut          optInt `json:"caloriesOut"`
	MarginalCalories     optInt `json:"marginalCalories"`
	SedentaryMinutes     optInt `json:"sedentaryMinutes"`
	LightlyActiveMinutes optInt `json:"lightlyActiveMinutes"`
	FairlyActiveMinutes  optInt `json:"fairlyActiveMinutes"`
	VeryActiveMinutes    optInt `json:"veryActiveMinutes"`
	RestingHeartRate     optInt `json:"restingHeartRate"`
	Steps                optInt `json:"steps"`
}

var activityStartLayouts = []string{"2006-01-02 15:04", "2006-01-02 15:04:05"}

// ParseActivities normalizes the daily activity log into the activities and
// activities_daily_summary tables.
func ParseActivities(raw []byte, date time.Time) Result {
	day := calendarDay(date)

	var resp activitiesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		reason := fmt.Sprintf("malformed response: %v", err)
		return Result{
			models.TableActivities:             absent(reason),
			models.TableActivitiesDailySummary: absent(reason),
		}
	}

	return Result{
		models.TableActivities:             parseActivityList(resp.Activities, day),
		models.TableActivitiesDailySummary: parseActivitySummary(resp.Summary, day),
	}
}

func parseActivityList(raw json.RawMessage, day time.Time) TableResult {
	if isMissing(raw) {
		return absent("activities missing")
	}

	var entries []activityEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return absent(fmt.Sprintf("malformed activities: %v", err))
	}
	if len(entries) == 0 {
		return absent("no activities logged")
	}

	records := make([]models.Record, 0, len(entries))
	dropped := 0
	for i := range entries {
		e := &entries[i]
		if !e.LogID.valid {
			dropped++
			continue
		}

		a := &models.Activity{
			LogID:                e.LogID.v,
			ActivityID:           e.ActivityID.ptr(),
			ActivityParentID:     e.ActivityParentID.ptr(),
			ActivityParentName:   e.ActivityParentName.ptr(),
			Name:                 e.Name.ptr(),
			Description:          e.Description.ptr(),
			HasStartTime:         e.HasStartTime.ptr(),
			IsFavorite:           e.IsFavorite.ptr(),
			HasActiveZoneMinutes: e.HasActiveZoneMinutes.ptr(),
			Date:                 day,
			Steps:                e.Steps.ptr(),
			Calories:             e.Calories.ptr(),
		}

		if e.Duration.valid {
			a.DurationMinutes = models.Int64(e.Duration.v / int64(time.Minute/time.Millisecond))
		}
		if e.StartDate.valid && e.StartTime.valid {
			if start, ok := parseLocal(e.StartDate.v+" "+e.StartTime.v, activityStartLayouts...); ok {
				a.StartDateTime = models.Time(start)
				if a.DurationMinutes != nil {
					a.EndDateTime = models.Time(start.Add(time.Duration(*a.DurationMinutes) * time.Minute))
				}
			}
		}

		records = append(records, a)
	}

	return present(records, dropped)
}

func parseActivitySummary(raw json.RawMessage, day time.Time) TableResult {
	if isMissing(raw) {
		return absent("summary missing")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return absent(fmt.Sprintf("malformed summary: %v", err))
	}
	if len(fields) == 0 {
		return absent("summary empty")
	}

	var s activitySummaryEntry
	if err := json.Unmarshal(raw, &s); err != nil {
		return absent(fmt.Sprintf("malformed summary: %v", err))
	}

	return present([]models.Record{&models.ActivitySummary{
		Date:                 day,
		ActiveScore:          s.ActiveScore.ptr(),
		ActivityCalories:     s.ActivityCalories.ptr(),
		CaloriesBMR:          s.CaloriesBMR.ptr(),
		CaloriesOut:          s.CaloriesOut.ptr(),
		MarginalCalories:     s.MarginalCalories.ptr(),
		SedentaryMinutes:     s.SedentaryMinutes.ptr(),
		LightlyActiveMinutes: s.LightlyActiveMinutes.ptr(),
		FairlyActiveMinutes:  s.FairlyActiveMinutes.ptr(),
		VeryActiveMinutes:    s.VeryActiveMinutes.ptr(),
		RestingHeartRate:     s.RestingHeartRate.ptr(),
		Steps:                s.Steps.ptr(),
	}}, 0)
}
