// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package models

// Stream names one Fitbit data source.
type Stream string

// Known streams, in sync order.
const (
	StreamActivities Stream = "activities"
	StreamSteps      Stream = "steps"
	StreamHeartRate  Stream = "heart_rate"
	StreamSleep      Stream = "sleep"
)

// AllStreams returns every stream in the fixed sync order.
func AllStreams() []Stream {
	return []Stream{StreamActivities, StreamSteps, StreamHeartRate, StreamSleep}
}

// ParseStream validates a stream name.
func ParseStream(name string) (Stream, bool) {
	for _, s := range AllStreams() {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// Storage table names.
const (
	TableActivities             = "activities"
	TableActivitiesDailySummary = "activities_daily_summary"
	TableStepsIntraday          = "activities_steps_intraday"
	TableHeartRateIntraday      = "heart_rate_intraday"
	TableSleepDailySummary      = "sleep_daily_summary"
	TableSleepIntraday          = "sleep_intraday"

	TableCredentials = "fitbit_credentials"
	TableUserInfo    = "fitbit_user_info"
	TableSleepStages = "sleep_stage_id"
)

// DataTables returns the tables written by sync passes.
func DataTables() []string {
	return []string{
		TableActivities,
		TableActivitiesDailySummary,
		TableStepsIntraday,
		TableHeartRateIntraday,
		TableSleepDailySummary,
		TableSleepIntraday,
	}
}
