package netcdf

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// timeDecoder converts raw numeric time-coordinate values into instants,
// following the CF "units since epoch" convention. ARGO JULD columns are
// "days since 1950-01-01 00:00:00 UTC".
type timeDecoder struct {
	unit  time.Duration
	epoch time.Time
}

// juldEpoch is the ARGO reference date, assumed when the time variable
// carries no units attribute.
var juldEpoch = time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// newTimeDecoder parses a CF units attribute such as
// "days since 1950-01-01 00:00:00". An empty attribute falls back to the
// JULD convention.
func newTimeDecoder(units string) (*timeDecoder, error) {
	units = strings.TrimSpace(units)
	if units == "" {
		return &timeDecoder{unit: 24 * time.Hour, epoch: juldEpoch}, nil
	}

	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("time units %q: missing 'since'", units)
	}

	var unit time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "days", "day", "d":
		unit = 24 * time.Hour
	case "hours", "hour", "hr", "h":
		unit = time.Hour
	case "minutes", "minute", "min":
		unit = time.Minute
	case "seconds", "second", "sec", "s":
		unit = time.Second
	default:
		return nil, fmt.Errorf("time units %q: unknown unit %q", units, parts[0])
	}

	epochStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), "UTC"))
	epochStr = strings.TrimSpace(epochStr)
	for _, layout := range epochLayouts {
		if epoch, err := time.Parse(layout, epochStr); err == nil {
			return &timeDecoder{unit: unit, epoch: epoch.UTC()}, nil
		}
	}
	return nil, fmt.Errorf("time units %q: unparseable epoch %q", units, epochStr)
}

// decode converts one raw value. Returns the zero time for fill values and
// values that land outside any plausible observation window; the quality
// filter rejects those records as bad_timestamp.
func (d *timeDecoder) decode(v float64) time.Time {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}
	}
	t := d.epoch.Add(time.Duration(v * float64(d.unit)))
	if t.Year() < 1850 || t.Year() > 2200 {
		return time.Time{}
	}
	return t.UTC()
}
