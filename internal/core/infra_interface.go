package core

import (
	"context"

	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// Dataset is a handle to one NetCDF archive. Implementations expose the
// header cheaply and read measurement records in bounded windows only.
type Dataset interface {
	Name() string
	NumRecords() int64
	Structure(ctx context.Context) (*models.StructureReport, error)
	ReadWindow(ctx context.Context, begin, end int64) (*models.RecordBatch, error)
	Close() error
}

// RelationalSink persists the normalized schema. All writes are idempotent
// upserts keyed by natural identifiers; callers sequence floats before
// profiles before measurements to keep the existence invariant without
// cross-table transactions.
type RelationalSink interface {
	UpsertFloats(ctx context.Context, floats []models.Float) error
	UpsertProfiles(ctx context.Context, profiles []models.Profile) error
	UpsertMeasurements(ctx context.Context, measurements []models.Measurement) error
}

// VectorSink persists derived documents into the semantic index, keyed by
// the same (profile, depth) identity as their source measurements. It fails
// independently of the RelationalSink.
type VectorSink interface {
	UpsertDocuments(ctx context.Context, docs []models.Document) error
}

// EmbeddingProvider turns text batches into vectors (Gemini or a test fake).
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DatasetFetcher stages a remote archive (s3://bucket/key) onto local disk
// and returns the local path.
type DatasetFetcher interface {
	Fetch(ctx context.Context, uri string) (string, error)
}
