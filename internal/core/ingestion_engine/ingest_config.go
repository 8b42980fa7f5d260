package ingestion_engine

import "time"

// IngestConfig tunes one pipeline run.
//
// ChunkSize:       records per window pulled from the dataset; this is the
//                  unit of resident memory during streaming.
// VectorBatchSize: documents buffered before a vector-sink write.
// MaxRecords:      hard ceiling on records processed in one run (0 = no
//                  ceiling). Breaching it aborts the run.
// MaxRetries:      additional attempts per chunk sink write after the first.
// RetryBase:       base for the quadratic retry backoff.
// SinkTimeout:     budget for a single sink write attempt.
// StartChunk:      resume point after a crash; chunks before it are skipped
//                  without being re-read.
type IngestConfig struct {
	ChunkSize       int
	VectorBatchSize int
	MaxRecords      int64
	MaxRetries      int
	RetryBase       time.Duration
	SinkTimeout     time.Duration
	StartChunk      int
}

// DefaultIngestConfig mirrors the tuning the service layer uses when the
// environment specifies nothing.
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		ChunkSize:       10000,
		VectorBatchSize: 200,
		MaxRetries:      3,
		RetryBase:       500 * time.Millisecond,
		SinkTimeout:     30 * time.Second,
	}
}

// withDefaults fills unset fields so a partially specified config is usable.
func (c *IngestConfig) withDefaults() *IngestConfig {
	out := *c
	def := DefaultIngestConfig()
	if out.ChunkSize <= 0 {
		out.ChunkSize = def.ChunkSize
	}
	if out.VectorBatchSize <= 0 {
		out.VectorBatchSize = def.VectorBatchSize
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	}
	if out.RetryBase <= 0 {
		out.RetryBase = def.RetryBase
	}
	if out.SinkTimeout <= 0 {
		out.SinkTimeout = def.SinkTimeout
	}
	if out.StartChunk < 0 {
		out.StartChunk = 0
	}
	return &out
}
