package ingestion_engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// fakeDataset serves records from a slice, windowed like the real reader.
type fakeDataset struct {
	name         string
	records      []models.RawRecord
	structureErr error
}

func (d *fakeDataset) Name() string      { return d.name }
func (d *fakeDataset) NumRecords() int64 { return int64(len(d.records)) }
func (d *fakeDataset) Close() error      { return nil }

func (d *fakeDataset) Structure(_ context.Context) (*models.StructureReport, error) {
	if d.structureErr != nil {
		return nil, d.structureErr
	}
	return &models.StructureReport{
		Path:             d.name,
		EstimatedRecords: d.NumRecords(),
	}, nil
}

func (d *fakeDataset) ReadWindow(_ context.Context, begin, end int64) (*models.RecordBatch, error) {
	if end > d.NumRecords() {
		end = d.NumRecords()
	}
	out := make([]models.RawRecord, end-begin)
	copy(out, d.records[begin:end])
	return &models.RecordBatch{Start: begin, Records: out}, nil
}

// fakeRelational stores rows by natural key and checks the existence
// invariant at write time: a profile needs its float, a measurement its
// profile. failCalls schedules transient errors by measurement-write call
// number, which is deterministic because chunk writes are sequential;
// down fails the next N upsert calls across all three tables, simulating
// a store outage that interrupts a write sequence before any row lands.
type fakeRelational struct {
	mu           sync.Mutex
	floats       map[string]models.Float
	profiles     map[string]models.Profile
	measurements map[string]models.Measurement

	failCalls map[int]bool
	calls     int
	down      int
	orphans   []string
}

func newFakeRelational() *fakeRelational {
	return &fakeRelational{
		floats:       make(map[string]models.Float),
		profiles:     make(map[string]models.Profile),
		measurements: make(map[string]models.Measurement),
		failCalls:    make(map[int]bool),
	}
}

func (f *fakeRelational) outage() error {
	if f.down > 0 {
		f.down--
		return errors.New("relational store unreachable")
	}
	return nil
}

func (f *fakeRelational) UpsertFloats(_ context.Context, floats []models.Float) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.outage(); err != nil {
		return err
	}
	for _, fl := range floats {
		f.floats[fl.ID] = fl
	}
	return nil
}

func (f *fakeRelational) UpsertProfiles(_ context.Context, profiles []models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.outage(); err != nil {
		return err
	}
	for _, p := range profiles {
		if _, ok := f.floats[p.FloatID]; !ok {
			f.orphans = append(f.orphans, "profile "+p.Key)
		}
		f.profiles[p.Key] = p
	}
	return nil
}

func (f *fakeRelational) UpsertMeasurements(_ context.Context, ms []models.Measurement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.outage(); err != nil {
		return err
	}
	call := f.calls
	f.calls++
	if f.failCalls[call] {
		return errors.New("relational store unreachable")
	}
	for _, m := range ms {
		if _, ok := f.profiles[m.ProfileKey]; !ok {
			f.orphans = append(f.orphans, "measurement "+m.ProfileKey)
		}
		f.measurements[DocumentID(m.ProfileKey, m.Depth)] = m
	}
	return nil
}

type fakeVector struct {
	mu       sync.Mutex
	docs     map[string]models.Document
	failNext int
}

func newFakeVector() *fakeVector {
	return &fakeVector{docs: make(map[string]models.Document)}
}

func (f *fakeVector) UpsertDocuments(_ context.Context, docs []models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return errors.New("vector store unreachable")
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return nil
}

func testConfig() *IngestConfig {
	return &IngestConfig{
		ChunkSize:       2,
		VectorBatchSize: 2,
		MaxRetries:      3,
		RetryBase:       time.Millisecond,
		SinkTimeout:     time.Second,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (*discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// sixRecords spans two floats across three days; chunk size 2 makes three
// chunks out of it.
func sixRecords() []models.RawRecord {
	base := time.Date(2010, 3, 4, 6, 0, 0, 0, time.UTC)
	var out []models.RawRecord
	for i := 0; i < 6; i++ {
		r := validRecord()
		r.Index = int64(i)
		r.Time = base.AddDate(0, 0, i/2)
		r.Depth = float64(i) * 10
		if i >= 4 {
			r.Lat = 42.0 // second grid cell, second float
		}
		out = append(out, r)
	}
	return out
}

func TestIngestHappyPath(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}

	p := NewPipeline(rel, vec, testConfig(), testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, string(StateDone), sum.State)
	assert.Equal(t, StateDone, p.State())
	assert.Equal(t, int64(6), sum.Accepted)
	assert.Equal(t, int64(0), sum.Rejected())
	assert.Equal(t, 3, sum.ChunksTotal)
	assert.Equal(t, 3, sum.ChunksProcessed)
	assert.Equal(t, 0, sum.ChunksRetried)
	assert.Empty(t, sum.PartialFailures)
	assert.Equal(t, 2, sum.FloatsSeen)
	assert.Equal(t, 3, sum.ProfilesSeen)

	assert.Len(t, rel.floats, 2)
	assert.Len(t, rel.profiles, 3)
	assert.Len(t, rel.measurements, 6)
	assert.Len(t, vec.docs, 6)
	assert.Empty(t, rel.orphans, "every row must find its parent already written")
}

func TestIngestDocumentsCarryMeasurementIdentity(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()[:1]}

	p := NewPipeline(rel, vec, testConfig(), testLogger())
	_, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, vec.docs, 1)
	for id, doc := range vec.docs {
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, DocumentID(doc.ProfileKey, doc.Depth), id)
		assert.Contains(t, doc.Content, doc.FloatID)
		assert.Contains(t, doc.Content, "2010-03-04")
		_, inRelational := rel.measurements[id]
		assert.True(t, inRelational, "document %s has no relational counterpart", id)
	}
}

func TestIngestRetriesTransientSinkFailure(t *testing.T) {
	rel := newFakeRelational()
	// second chunk's measurement write fails twice, succeeds on the third try
	rel.failCalls[1] = true
	rel.failCalls[2] = true
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}

	p := NewPipeline(rel, vec, testConfig(), testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	assert.Empty(t, sum.FatalError)
	assert.Empty(t, sum.PartialFailures)
	assert.Equal(t, 1, sum.ChunksRetried)
	assert.Equal(t, int64(6), sum.Accepted)
	assert.Len(t, rel.measurements, 6)
}

func TestIngestDemotesExhaustedRetriesToPartialFailure(t *testing.T) {
	rel := newFakeRelational()
	// first chunk's write fails on every attempt the budget allows
	rel.failCalls[0] = true
	rel.failCalls[1] = true
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}

	cfg := testConfig()
	cfg.MaxRetries = 1
	p := NewPipeline(rel, vec, cfg, testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err, "a sink outage on one chunk must not kill the run")

	require.Len(t, sum.PartialFailures, 1)
	assert.Equal(t, 0, sum.PartialFailures[0].Chunk)
	assert.Equal(t, "relational", sum.PartialFailures[0].Sink)
	assert.Equal(t, 2, sum.PartialFailures[0].Attempts)
	assert.Equal(t, string(StateDone), sum.State)
	assert.Equal(t, 3, sum.ChunksProcessed)

	// later chunks still landed; documents for the failed chunk did too
	assert.Len(t, rel.measurements, 4)
	assert.Len(t, vec.docs, 6)
}

func TestIngestReemitsParentsAfterRelationalOutage(t *testing.T) {
	rel := newFakeRelational()
	rel.down = 2 // both of chunk 0's attempts fail before any table is written
	vec := newFakeVector()

	// one float, one profile, spread over two chunks
	day := time.Date(2010, 3, 4, 6, 0, 0, 0, time.UTC)
	var records []models.RawRecord
	for i := 0; i < 4; i++ {
		r := validRecord()
		r.Time = day
		r.Depth = float64(i) * 10
		records = append(records, r)
	}
	ds := &fakeDataset{name: "argo.nc", records: records}

	cfg := testConfig()
	cfg.MaxRetries = 1
	p := NewPipeline(rel, vec, cfg, testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, sum.PartialFailures, 1)
	assert.Equal(t, 0, sum.PartialFailures[0].Chunk)

	// chunk 1 re-discovers the float and profile dropped with chunk 0, so
	// its measurements find their parents already stored
	floatID := FloatIDFor(records[0].Lat, records[0].Lon)
	profileKey := ProfileKeyFor(floatID, day)
	assert.Empty(t, rel.orphans, "chunk 1 measurements must not be orphaned")
	assert.Contains(t, rel.floats, floatID)
	assert.Contains(t, rel.profiles, profileKey)
	assert.Len(t, rel.measurements, 2)
	assert.Equal(t, 1, sum.FloatsSeen)
	assert.Equal(t, 1, sum.ProfilesSeen)
}

func TestIngestCountsDrainTimeRetries(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	vec.failNext = 1
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()[:2]}

	cfg := testConfig()
	cfg.VectorBatchSize = 100 // documents only flush during the drain
	p := NewPipeline(rel, vec, cfg, testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	assert.Empty(t, sum.PartialFailures)
	assert.Len(t, vec.docs, 2)
	assert.Equal(t, 1, sum.ChunksRetried, "a retry during the drain still counts against its chunk")
}

func TestIngestVectorOutageDropsBatchNotRun(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	vec.failNext = 10
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()[:2]}

	cfg := testConfig()
	cfg.MaxRetries = 1
	p := NewPipeline(rel, vec, cfg, testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, sum.PartialFailures, 1)
	assert.Equal(t, "vector", sum.PartialFailures[0].Sink)
	assert.Len(t, rel.measurements, 2, "relational writes are independent of the vector sink")
	assert.Empty(t, vec.docs)
}

func TestIngestCountsRejectionsByReason(t *testing.T) {
	rec := validRecord()
	bad := validRecord()
	bad.Salinity = fp(55)

	rel := newFakeRelational()
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: []models.RawRecord{rec, bad}}

	p := NewPipeline(rel, vec, testConfig(), testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, int64(1), sum.Accepted)
	assert.Equal(t, map[string]int64{"range_salinity": 1}, sum.RejectedByReason)
	assert.Len(t, rel.measurements, 1)
	assert.Len(t, vec.docs, 1)
}

func TestIngestIsIdempotent(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}

	first, err := NewPipeline(rel, vec, testConfig(), testLogger()).Ingest(context.Background(), ds)
	require.NoError(t, err)
	docsAfterFirst := len(vec.docs)
	contentBefore := make(map[string]string, docsAfterFirst)
	for id, d := range vec.docs {
		contentBefore[id] = d.Content
	}

	second, err := NewPipeline(rel, vec, testConfig(), testLogger()).Ingest(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, first.Accepted, second.Accepted)
	assert.Len(t, rel.measurements, 6, "re-ingestion must not duplicate rows")
	assert.Len(t, rel.profiles, 3)
	assert.Len(t, rel.floats, 2)
	assert.Len(t, vec.docs, docsAfterFirst)
	for id, d := range vec.docs {
		assert.Equal(t, contentBefore[id], d.Content, "re-rendered document %s must be byte-identical", id)
	}
}

func TestIngestStructuralErrorIsFatal(t *testing.T) {
	ds := &fakeDataset{
		name:         "broken.nc",
		structureErr: core.ErrStructural,
	}

	p := NewPipeline(newFakeRelational(), newFakeVector(), testConfig(), testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStructural)
	assert.Equal(t, string(StateFailed), sum.State)
	assert.Equal(t, StateFailed, p.State())
	assert.NotEmpty(t, sum.FatalError)
}

func TestIngestRecordCeilingAbortsRun(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}

	cfg := testConfig()
	cfg.MaxRecords = 3
	p := NewPipeline(rel, vec, cfg, testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResourceExceeded)
	assert.Equal(t, string(StateFailed), sum.State)
	assert.Less(t, len(rel.measurements), 6)
}

func TestIngestHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(newFakeRelational(), newFakeVector(), testConfig(), testLogger())
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}
	sum, err := p.Ingest(ctx, ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, string(StateFailed), sum.State)
}

func TestIngestResumesFromStartChunk(t *testing.T) {
	rel := newFakeRelational()
	vec := newFakeVector()
	ds := &fakeDataset{name: "argo.nc", records: sixRecords()}

	cfg := testConfig()
	cfg.StartChunk = 2
	p := NewPipeline(rel, vec, cfg, testLogger())
	sum, err := p.Ingest(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.ChunksTotal)
	assert.Equal(t, 1, sum.ChunksProcessed)
	assert.Equal(t, int64(2), sum.Accepted)
	assert.Len(t, rel.measurements, 2)
}
