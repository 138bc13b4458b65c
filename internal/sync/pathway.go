// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package sync

import (
	"fmt"
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

// Pathway binds a stream to its resource path and target tables.
type Pathway struct {
	Stream models.Stream

	// PathFormat is formatted with the date as YYYY-MM-DD.
	PathFormat string

	// Tables are written in this order.
	Tables []string
}

// Path returns the resource path for date.
func (p Pathway) Path(date time.Time) string {
	return fmt.Sprintf(p.PathFormat, date.Format(time.DateOnly))
}

var pathways = []Pathway{
	{
		Stream:     models.StreamActivities,
		PathFormat: "/1/user/-/activities/date/%s.json",
		Tables:     []string{models.TableActivities, models.TableActivitiesDailySummary},
	},
	{
		Stream:     models.StreamSteps,
		PathFormat: "/1/user/-/activities/steps/date/%s/1d.json",
		Tables:     []string{models.TableStepsIntraday},
	},
	{
		Stream:     models.StreamHeartRate,
		PathFormat: "/1/user/-/activities/heart/date/%s/1d.json",
		Tables:     []string{models.TableHeartRateIntraday},
	},
	{
		Stream:     models.StreamSleep,
		PathFormat: "/1.2/user/-/sleep/date/%s.json",
		Tables:     []string{models.TableSleepDailySummary, models.TableSleepIntraday},
	},
}

// Pathways returns every pathway in sync order.
func Pathways() []Pathway {
	out := make([]Pathway, len(pathways))
	copy(out, pathways)
	return out
}

// PathwayFor returns the pathway of stream.
func PathwayFor(stream models.Stream) (Pathway, bool) {
	for _, p := range pathways {
		if p.Stream == stream {
			return p, true
		}
	}
	return Pathway{}, false
}

// ResolveStreams maps configured stream names to streams in pathway order.
// An empty list selects every stream. Duplicates are collapsed.
func ResolveStreams(names []string) ([]models.Stream, error) {
	if len(names) == 0 {
		return models.AllStreams(), nil
	}

	wanted := make(map[models.Stream]bool, len(names))
	for _, name := range names {
		s, ok := models.ParseStream(name)
		if !ok {
			return nil, fmt.Errorf("unknown stream %q", name)
		}
		wanted[s] = true
	}

	streams := make([]models.Stream, 0, len(wanted))
	for _, s := range models.AllStreams() {
		if wanted[s] {
			streams = append(streams, s)
		}
	}
	return streams, nil
}
