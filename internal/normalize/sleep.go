// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/models"
)

// sleepTimeLayouts covers the millisecond timestamps the sleep endpoint emits.
var sleepTimeLayouts = []string{"2006-01-02T15:04:05.000", "2006-01-02T15:04:05"}

type sleepResponse struct {
	Sleep   json.RawMessage `json:"sleep"`
	Summary json.RawMessage `json:"summary"`
}

type sleepSession struct {
	EndTime optString       `json:"endTime"`
	Levels  json.RawMessage `json:"levels"`
}

type sleepLevels struct {
	Data      []sleepLevelEntry `json:"data"`
	ShortData []sleepLevelEntry `json:"shortData"`
}

type sleepLevelEntry struct {
	DateTime optString `json:"dateTime"`
	Level    optString `json:"level"`
	Seconds  optInt    `json:"seconds"`
}

type sleepSummaryEntry struct {
	TotalMinutesAsleep optInt          `json:"totalMinutesAsleep"`
	TotalTimeInBed     optInt          `json:"totalTimeInBed"`
	TotalSleepRecords  optInt          `json:"totalSleepRecords"`
	Stages             json.RawMessage `json:"stages"`
}

type sleepStageMinutes struct {
	Deep  optInt `json:"deep"`
	Light optInt `json:"light"`
	REM   optInt `json:"rem"`
	Wake  optInt `json:"wake"`
}

// ParseSleep normalizes the sleep log into sleep_daily_summary and sleep_intraday.
func ParseSleep(raw []byte, date time.Time) Result {
	day := calendarDay(date)

	var resp sleepResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		reason := fmt.Sprintf("malformed response: %v", err)
		return Result{
			models.TableSleepDailySummary: absent(reason),
			models.TableSleepIntraday:     absent(reason),
		}
	}

	var sessions []sleepSession
	var sessionsErr error
	if !isMissing(resp.Sleep) {
		sessionsErr = json.Unmarshal(resp.Sleep, &sessions)
	}

	return Result{
		models.TableSleepDailySummary: parseSleepSummary(resp.Summary, sessions, day),
		models.TableSleepIntraday:     parseSleepIntraday(resp.Sleep, sessions, sessionsErr, day),
	}
}

func parseSleepIntraday(raw json.RawMessage, sessions []sleepSession, sessionsErr error, day time.Time) TableResult {
	if isMissing(raw) {
		return absent("sleep missing")
	}
	if sessionsErr != nil {
		return absent(fmt.Sprintf("malformed sleep: %v", sessionsErr))
	}
	if len(sessions) == 0 {
		return absent("no sleep sessions")
	}

	var candidates []sleepLevelEntry
	for i, s := range sessions {
		if isMissing(s.Levels) {
			return absent(fmt.Sprintf("sleep session %d has no levels", i))
		}
		var levels sleepLevels
		if err := json.Unmarshal(s.Levels, &levels); err != nil {
			return absent(fmt.Sprintf("malformed levels in sleep session %d: %v", i, err))
		}
		candidates = append(candidates, levels.Data...)
		candidates = append(candidates, levels.ShortData...)
	}

	samples := make([]*models.SleepStageSample, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		if !c.DateTime.valid {
			dropped++
			continue
		}
		at, ok := parseLocal(c.DateTime.v, sleepTimeLayouts...)
		if !ok {
			dropped++
			continue
		}
		sample := &models.SleepStageSample{
			Date:            day,
			Time:            at,
			DurationSeconds: c.Seconds.ptr(),
		}
		if c.Level.valid {
			if stage, ok := models.StageFromLabel(c.Level.v); ok {
				sample.Stage = &stage
			}
		}
		samples = append(samples, sample)
	}

	return present(dedupeSleepSamples(samples), dropped)
}

// dedupeSleepSamples keeps one sample per timestamp: the longest one, with
// ties going to the sample seen last. Unknown durations sort after known
// ones, so a sample without a duration wins its timestamp.
func dedupeSleepSamples(samples []*models.SleepStageSample) []models.Record {
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		switch {
		case a.DurationSeconds == nil:
			return false
		case b.DurationSeconds == nil:
			return true
		default:
			return *a.DurationSeconds < *b.DurationSeconds
		}
	})

	out := make([]models.Record, 0, len(samples))
	for i, s := range samples {
		if i+1 < len(samples) && samples[i+1].Time.Equal(s.Time) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func parseSleepSummary(raw json.RawMessage, sessions []sleepSession, day time.Time) TableResult {
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

	var s sleepSummaryEntry
	if err := json.Unmarshal(raw, &s); err != nil {
		return absent(fmt.Sprintf("malformed summary: %v", err))
	}

	// The stage minutes are part of the row; without them there is no row.
	if isMissing(s.Stages) {
		return absent("summary has no stages")
	}
	var stages sleepStageMinutes
	if err := json.Unmarshal(s.Stages, &stages); err != nil {
		return absent(fmt.Sprintf("malformed stages: %v", err))
	}

	summary := &models.SleepSummary{
		Date:               day,
		TotalMinutesAsleep: s.TotalMinutesAsleep.ptr(),
		TotalTimeInBed:     s.TotalTimeInBed.ptr(),
		TotalSleepRecords:  s.TotalSleepRecords.ptr(),
		SleepBreakTimes:    sleepBreakTimes(sessions),
		DeepMinutes:        stages.Deep.ptr(),
		LightMinutes:       stages.Light.ptr(),
		REMMinutes:         stages.REM.ptr(),
		WakeMinutes:        stages.Wake.ptr(),
	}

	return present([]models.Record{summary}, 0)
}

// sleepBreakTimes lists the end of every session but the last, in
// chronological order, when the night was split into several sessions.
func sleepBreakTimes(sessions []sleepSession) *string {
	if len(sessions) < 2 {
		return nil
	}

	type end struct {
		raw string
		at  time.Time
	}
	ends := make([]end, 0, len(sessions))
	for _, s := range sessions {
		if !s.EndTime.valid {
			continue
		}
		at, ok := parseLocal(s.EndTime.v, sleepTimeLayouts...)
		if !ok {
			continue
		}
		ends = append(ends, end{raw: s.EndTime.v, at: at})
	}
	if len(ends) < 2 {
		return nil
	}

	sort.SliceStable(ends, func(i, j int) bool { return ends[i].at.Before(ends[j].at) })
	ends = ends[:len(ends)-1]

	parts := make([]string, len(ends))
	for i, e := range ends {
		parts[i] = e.raw
	}
	return models.String(strings.Join(parts, ";"))
}
