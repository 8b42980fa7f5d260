package models

import (
	"time"
)

// Float represents an autonomous drifting measurement platform. Identity is
// synthetic when the source archive carries no platform numbers: a 5-degree
// grid cell code derived from the first sighting's coordinates.
type Float struct {
	ID            string    `db:"float_id" json:"float_id"`
	WMOID         int64     `db:"wmo_id" json:"wmo_id"`
	DeploymentAt  time.Time `db:"deployment_date" json:"deployment_date"`
	DeploymentLat float64   `db:"deployment_lat" json:"deployment_lat"`
	DeploymentLon float64   `db:"deployment_lon" json:"deployment_lon"`
	Region        string    `db:"region" json:"region"`
	Status        string    `db:"status" json:"status"` // ACTIVE | INACTIVE
}

// Profile is one vertical cast taken by a Float at a specific time/location.
// Key is (float_id, UTC date), rendered as a single profile_key string.
type Profile struct {
	Key         string    `db:"profile_key" json:"profile_key"`
	FloatID     string    `db:"float_id" json:"float_id"`
	CycleNumber int       `db:"cycle_number" json:"cycle_number"`
	Time        time.Time `db:"profile_date" json:"profile_date"`
	Lat         float64   `db:"profile_lat" json:"profile_lat"`
	Lon         float64   `db:"profile_lon" json:"profile_lon"`
	NLevels     int       `db:"n_levels" json:"n_levels"` // derived, refreshed after measurement writes
}

// Measurement is one depth-tagged reading within a Profile. The natural key
// is (profile_key, depth); re-ingestion overwrites instead of duplicating.
// Temperature and Salinity are nil when the dataset carries no such
// variable; the biogeochemical parameters are also nil for fill values.
type Measurement struct {
	ProfileKey  string    `db:"profile_key" json:"profile_key"`
	FloatID     string    `db:"float_id" json:"float_id"`
	Time        time.Time `db:"time" json:"time"`
	Lat         float64   `db:"lat" json:"lat"`
	Lon         float64   `db:"lon" json:"lon"`
	Depth       float64   `db:"depth" json:"depth"`
	Pressure    float64   `db:"pressure" json:"pressure"`
	Temperature *float64  `db:"temperature" json:"temperature,omitempty"`
	Salinity    *float64  `db:"salinity" json:"salinity,omitempty"`
	Oxygen      *float64  `db:"oxygen" json:"oxygen,omitempty"`
	PH          *float64  `db:"ph" json:"ph,omitempty"`
	Chlorophyll *float64  `db:"chlorophyll" json:"chlorophyll,omitempty"`
	QualityFlag int       `db:"quality_flag" json:"quality_flag"`
}

// Document is the derived natural-language rendering of a Measurement used
// for semantic search. It shares the (profile_key, depth) identity with its
// source measurement so re-ingestion overwrites the indexed entry.
type Document struct {
	ID         string    `db:"doc_id" json:"doc_id"`
	ProfileKey string    `db:"profile_key" json:"profile_key"`
	FloatID    string    `db:"float_id" json:"float_id"`
	Time       time.Time `db:"doc_time" json:"time"`
	Lat        float64   `db:"lat" json:"lat"`
	Lon        float64   `db:"lon" json:"lon"`
	Depth      float64   `db:"depth" json:"depth"`
	Content    string    `db:"content" json:"content"`
	Embedding  []float32 `db:"embedding" json:"-"`
}

// RawRecord is one candidate record pulled from a dataset window before
// quality filtering. Lat/Lon/Depth, Temperature and Salinity carry NaN when
// the source value is a fill value; Time is the zero value when the time
// coordinate did not decode. Pointer fields are nil only when the variable
// is absent from the dataset.
type RawRecord struct {
	Index       int64
	Time        time.Time
	Lat         float64
	Lon         float64
	Depth       float64
	Pressure    *float64
	Temperature *float64
	Salinity    *float64
	Oxygen      *float64
	PH          *float64
	Chlorophyll *float64
}

// RecordBatch is a bounded window of records read from a dataset.
type RecordBatch struct {
	Start   int64
	Records []RawRecord
}

// VariableInfo describes one variable from a dataset header.
type VariableInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Dimensions []string `json:"dimensions"`
}

// StructureReport is the pre-flight analysis of a dataset: shape and
// coordinate extents, gathered without materializing measurement arrays.
type StructureReport struct {
	Path             string            `json:"path"`
	FileSizeBytes    int64             `json:"file_size_bytes"`
	Dimensions       map[string]uint64 `json:"dimensions"`
	Variables        []VariableInfo    `json:"variables"`
	VariableMapping  map[string]string `json:"variable_mapping"`
	EstimatedRecords int64             `json:"estimated_records"`
	TimeStart        *time.Time        `json:"time_start,omitempty"`
	TimeEnd          *time.Time        `json:"time_end,omitempty"`
	LatMin           *float64          `json:"lat_min,omitempty"`
	LatMax           *float64          `json:"lat_max,omitempty"`
	LonMin           *float64          `json:"lon_min,omitempty"`
	LonMax           *float64          `json:"lon_max,omitempty"`
	DepthMin         *float64          `json:"depth_min,omitempty"`
	DepthMax         *float64          `json:"depth_max,omitempty"`
}

// ChunkFailure records a chunk whose writes to one sink exhausted the retry
// budget. The run continues past it; the failure stays in the summary.
type ChunkFailure struct {
	Chunk    int    `json:"chunk"`
	Sink     string `json:"sink"` // "relational" | "vector"
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// RunSummary is the outcome of one ingestion run. It is always populated,
// including on fully successful runs: "success" means no fatal error, not
// zero rejections.
type RunSummary struct {
	RunID            string           `json:"run_id"`
	Dataset          string           `json:"dataset"`
	State            string           `json:"state"`
	ChunksTotal      int              `json:"chunks_total"`
	ChunksProcessed  int              `json:"chunks_processed"`
	ChunksRetried    int              `json:"chunks_retried"`
	Accepted         int64            `json:"accepted"`
	RejectedByReason map[string]int64 `json:"rejected_by_reason"`
	PartialFailures  []ChunkFailure   `json:"partial_failures,omitempty"`
	FloatsSeen       int              `json:"floats_seen"`
	ProfilesSeen     int              `json:"profiles_seen"`
	StartedAt        time.Time        `json:"started_at"`
	Elapsed          time.Duration    `json:"elapsed"`
	FatalError       string           `json:"fatal_error,omitempty"`
}

// Rejected sums the per-reason rejection counters.
func (s *RunSummary) Rejected() int64 {
	var n int64
	for _, v := range s.RejectedByReason {
		n += v
	}
	return n
}
