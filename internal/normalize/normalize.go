// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package normalize

import (
	"time"

	"github.com/tomtom215/fitsync/internal/models"
)

// Parser normalizes one stream's payload for a single date.
type Parser func(raw []byte, date time.Time) Result

var parsers = map[models.Stream]Parser{
	models.StreamActivities: ParseActivities,
	models.StreamSteps:      ParseSteps,
	models.StreamHeartRate:  ParseHeartRate,
	models.StreamSleep:      ParseSleep,
}

// Parse dispatches to the stream's parser. Unknown streams yield an empty Result.
func Parse(stream string, raw []byte, date time.Time) Result {
	p, ok := parsers[models.Stream(stream)]
	if !ok {
		return Result{}
	}
	return p(raw, date)
}
