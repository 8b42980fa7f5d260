package ingestion_engine

import (
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// RejectReason codes a quality-rule failure. Rejected records are counted
// per reason and never reach a sink.
type RejectReason string

const (
	ReasonTemperature RejectReason = "range_temperature"
	ReasonSalinity    RejectReason = "range_salinity"
	ReasonDepth       RejectReason = "range_depth"
	ReasonCoordinate  RejectReason = "range_coordinate"
	ReasonTimestamp   RejectReason = "bad_timestamp"
)

// Physical plausibility bounds for ocean measurements. Inclusive.
const (
	minTemperature = -2.0
	maxTemperature = 40.0
	minSalinity    = 0.0
	maxSalinity    = 50.0
)

// seawater density factor for deriving pressure (dbar) from depth (m)
const pressurePerMeter = 1.025

// FilterResult partitions one chunk: every candidate record lands in exactly
// one of Accepted or Rejected.
type FilterResult struct {
	Accepted []models.Measurement
	Rejected map[RejectReason]int64
}

// PartitionChunk classifies each candidate record against the fixed
// physical-range rules. Pure function of the chunk; no state carries over
// between chunks.
func PartitionChunk(c *Chunk) FilterResult {
	res := FilterResult{
		Accepted: make([]models.Measurement, 0, len(c.Records)),
		Rejected: make(map[RejectReason]int64),
	}

	for i := range c.Records {
		m, reason, ok := validateRecord(&c.Records[i])
		if !ok {
			res.Rejected[reason]++
			continue
		}
		res.Accepted = append(res.Accepted, m)
	}
	return res
}

// validateRecord applies the rules in a fixed order so a record failing
// several of them always reports the same reason. NaN values (fills) fail
// their range checks, coordinates and physical parameters alike; only a nil
// parameter (variable absent from the dataset) counts as missing.
func validateRecord(r *models.RawRecord) (models.Measurement, RejectReason, bool) {
	if r.Time.IsZero() {
		return models.Measurement{}, ReasonTimestamp, false
	}
	if !(r.Lat >= -90 && r.Lat <= 90) || !(r.Lon >= -180 && r.Lon <= 180) {
		return models.Measurement{}, ReasonCoordinate, false
	}
	if !(r.Depth >= 0) {
		return models.Measurement{}, ReasonDepth, false
	}
	if r.Temperature != nil && !(*r.Temperature >= minTemperature && *r.Temperature <= maxTemperature) {
		return models.Measurement{}, ReasonTemperature, false
	}
	if r.Salinity != nil && !(*r.Salinity >= minSalinity && *r.Salinity <= maxSalinity) {
		return models.Measurement{}, ReasonSalinity, false
	}

	pressure := r.Depth * pressurePerMeter
	if r.Pressure != nil {
		pressure = *r.Pressure
	}

	return models.Measurement{
		Time:        r.Time.UTC(),
		Lat:         r.Lat,
		Lon:         r.Lon,
		Depth:       r.Depth,
		Pressure:    pressure,
		Temperature: r.Temperature,
		Salinity:    r.Salinity,
		Oxygen:      r.Oxygen,
		PH:          r.PH,
		Chlorophyll: r.Chlorophyll,
		QualityFlag: 1,
	}, "", true
}
