package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/Archit1030/FloatChat-AI/internal/config"
	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/core/ingestion_engine"
	"github.com/Archit1030/FloatChat-AI/internal/core/netcdf"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// RunStatus is the externally visible state of one ingestion run.
type RunStatus struct {
	RunID   string             `json:"run_id"`
	Dataset string             `json:"dataset"`
	State   string             `json:"state"`
	Summary *models.RunSummary `json:"summary,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type runEntry struct {
	status   RunStatus
	pipeline *ingestion_engine.Pipeline
	cancel   context.CancelFunc
}

// IngestService runs one pipeline instance per dataset on a bounded worker
// pool and keeps a registry of runs for the API layer. Concurrent runs are
// safe because both sinks accept concurrent idempotent writers.
type IngestService struct {
	cfg        *config.Config
	relational core.RelationalSink
	vector     core.VectorSink
	fetcher    core.DatasetFetcher // nil when no object storage is configured
	pool       *ants.Pool
	logger     *slog.Logger

	mu   sync.Mutex
	runs map[string]*runEntry
}

func NewIngestService(cfg *config.Config, rel core.RelationalSink, vec core.VectorSink, fetcher core.DatasetFetcher, logger *slog.Logger) (*IngestService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.IngestWorkers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &IngestService{
		cfg:        cfg,
		relational: rel,
		vector:     vec,
		fetcher:    fetcher,
		pool:       pool,
		logger:     logger,
		runs:       make(map[string]*runEntry),
	}, nil
}

func (s *IngestService) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Analyze opens a dataset and returns its pre-flight structure report. A
// failure here concerns this dataset only.
func (s *IngestService) Analyze(ctx context.Context, path string) (*models.StructureReport, error) {
	local, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	ds, err := netcdf.Open(local)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	return ds.Structure(ctx)
}

// StartIngest schedules an ingestion run and returns its handle
// immediately. The run executes on the worker pool.
func (s *IngestService) StartIngest(path string) (string, error) {
	runID := uuid.NewString()
	entry := &runEntry{
		status: RunStatus{RunID: runID, Dataset: path, State: "queued"},
	}

	s.mu.Lock()
	s.runs[runID] = entry
	s.mu.Unlock()

	if err := s.pool.Submit(func() { s.runIngest(runID, path) }); err != nil {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
		return "", fmt.Errorf("schedule ingest: %w", err)
	}
	return runID, nil
}

func (s *IngestService) runIngest(runID, path string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe := ingestion_engine.NewPipeline(s.relational, s.vector, s.pipelineConfig(), s.logger)

	s.mu.Lock()
	entry := s.runs[runID]
	entry.cancel = cancel
	entry.pipeline = pipe
	entry.status.State = "running"
	s.mu.Unlock()

	summary, err := s.ingestOne(ctx, pipe, path)
	if summary != nil {
		summary.RunID = runID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry.cancel = nil
	entry.status.Summary = summary
	if err != nil {
		entry.status.State = string(ingestion_engine.StateFailed)
		entry.status.Error = err.Error()
		return
	}
	entry.status.State = string(ingestion_engine.StateDone)
}

func (s *IngestService) ingestOne(ctx context.Context, pipe *ingestion_engine.Pipeline, path string) (*models.RunSummary, error) {
	local, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	ds, err := netcdf.Open(local)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	return pipe.Ingest(ctx, ds)
}

// resolve stages s3:// URIs to local disk; plain paths pass through.
func (s *IngestService) resolve(ctx context.Context, path string) (string, error) {
	if !strings.HasPrefix(path, "s3://") {
		return path, nil
	}
	if s.fetcher == nil {
		return "", fmt.Errorf("s3 uri %s but no object storage configured", path)
	}
	return s.fetcher.Fetch(ctx, path)
}

// GetRun returns a snapshot of one run, with the live pipeline state while
// it is streaming.
func (s *IngestService) GetRun(runID string) (RunStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.runs[runID]
	if !ok {
		return RunStatus{}, false
	}
	status := entry.status
	if status.State == "running" && entry.pipeline != nil {
		status.State = string(entry.pipeline.State())
	}
	return status, true
}

// CancelRun signals a running ingestion to stop between chunks.
func (s *IngestService) CancelRun(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.runs[runID]
	if !ok || entry.cancel == nil {
		return false
	}
	entry.cancel()
	return true
}

func (s *IngestService) pipelineConfig() *ingestion_engine.IngestConfig {
	return &ingestion_engine.IngestConfig{
		ChunkSize:       s.cfg.ChunkSize,
		VectorBatchSize: s.cfg.VectorBatchSize,
		MaxRecords:      s.cfg.MaxRecords,
		MaxRetries:      s.cfg.SinkMaxRetries,
		RetryBase:       s.cfg.SinkRetryBase,
		SinkTimeout:     s.cfg.SinkTimeout,
	}
}
