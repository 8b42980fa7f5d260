package ingestion_engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// RunState is the orchestrator's lifecycle state.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateAnalyzing RunState = "analyzing"
	StateStreaming RunState = "streaming"
	StateDraining  RunState = "draining"
	StateDone      RunState = "done"
	StateFailed    RunState = "failed"
)

// Pipeline drives one dataset through the chunked ingestion flow:
// analyze, then stream chunks through the quality filter into the relational
// sink and (as documents) into the vector sink, then drain buffered
// documents. One Pipeline serves one run; instances for different datasets
// may run concurrently because the sinks accept concurrent idempotent
// writers.
type Pipeline struct {
	relational core.RelationalSink
	vector     core.VectorSink
	cfg        *IngestConfig
	logger     *slog.Logger

	mu    sync.Mutex
	state RunState
}

// run carries the mutable per-run state touched only by the consumer stage.
type run struct {
	summary   *models.RunSummary
	tracker   *entityTracker
	docBuf    []models.Document
	lastChunk int
	processed int64
	retried   map[int]bool
}

// markRetried records a chunk retry and keeps the summary counter in step,
// including for vector batches retried during the final drain, after the
// chunk itself was already tallied.
func (r *run) markRetried(chunk int) {
	r.retried[chunk] = true
	r.summary.ChunksRetried = len(r.retried)
}

func NewPipeline(rel core.RelationalSink, vec core.VectorSink, cfg *IngestConfig, logger *slog.Logger) *Pipeline {
	if cfg == nil {
		cfg = DefaultIngestConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		relational: rel,
		vector:     vec,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		state:      StateIdle,
	}
}

// State reports the current lifecycle state. Safe for concurrent callers.
func (p *Pipeline) State() RunState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s RunState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Analyze runs the pre-flight structure analysis only.
func (p *Pipeline) Analyze(ctx context.Context, ds core.Dataset) (*models.StructureReport, error) {
	return ds.Structure(ctx)
}

// Ingest runs the full pipeline for one dataset. The returned summary is
// populated even when the run fails; the error is non-nil only for fatal
// conditions (structural errors, record ceiling, cancellation). Per-chunk
// sink failures are recorded as partial failures and do not stop later
// chunks.
func (p *Pipeline) Ingest(ctx context.Context, ds core.Dataset) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:            uuid.NewString(),
		Dataset:          ds.Name(),
		State:            string(StateAnalyzing),
		RejectedByReason: make(map[string]int64),
		StartedAt:        time.Now().UTC(),
	}
	r := &run{
		summary:   summary,
		tracker:   newEntityTracker(),
		lastChunk: -1,
		retried:   make(map[int]bool),
	}

	p.setState(StateAnalyzing)
	if _, err := ds.Structure(ctx); err != nil {
		return p.fail(summary, fmt.Errorf("analyze %s: %w", ds.Name(), err))
	}

	p.setState(StateStreaming)
	summary.State = string(StateStreaming)
	reader := newChunkReader(ds, p.cfg.ChunkSize)
	summary.ChunksTotal = reader.numChunks()

	// Producer/consumer over a capacity-1 channel: the reader may stage one
	// chunk ahead of the one being written, so peak residency is bounded by
	// two windows regardless of dataset size.
	g, gctx := errgroup.WithContext(ctx)
	chunks := make(chan *Chunk, 1)

	g.Go(func() error {
		defer close(chunks)
		for i := p.cfg.StartChunk; i < summary.ChunksTotal; i++ {
			c, err := reader.read(gctx, i)
			if err != nil {
				return err
			}
			select {
			case chunks <- c:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for c := range chunks {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.processChunk(gctx, r, c); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return p.fail(summary, err)
	}

	p.setState(StateDraining)
	summary.State = string(StateDraining)
	if err := p.flushDocuments(ctx, r, true); err != nil {
		return p.fail(summary, err)
	}

	p.setState(StateDone)
	summary.State = string(StateDone)
	p.finalize(r)
	p.logger.Info("ingestion complete",
		"dataset", ds.Name(),
		"run_id", summary.RunID,
		"accepted", summary.Accepted,
		"rejected", summary.Rejected(),
		"chunks", summary.ChunksProcessed,
		"retried_chunks", summary.ChunksRetried,
		"partial_failures", len(summary.PartialFailures),
		"elapsed", summary.Elapsed)
	return summary, nil
}

// processChunk routes one chunk: partition, sequence float/profile/
// measurement upserts, buffer documents, release the working set.
func (p *Pipeline) processChunk(ctx context.Context, r *run, c *Chunk) error {
	if p.cfg.MaxRecords > 0 && r.processed+int64(len(c.Records)) > p.cfg.MaxRecords {
		return fmt.Errorf("%w: chunk %d would pass %d records", core.ErrResourceExceeded, c.Index, p.cfg.MaxRecords)
	}
	r.lastChunk = c.Index
	r.processed += int64(len(c.Records))

	res := PartitionChunk(c)
	c.Records = nil // chunk working set released before the next pull

	for reason, n := range res.Rejected {
		r.summary.RejectedByReason[string(reason)] += n
	}

	floats, profiles, ms := r.tracker.collect(res.Accepted)
	r.summary.Accepted += int64(len(ms))

	attempts, err := withRetries(ctx, p.cfg.MaxRetries, p.cfg.RetryBase, p.cfg.SinkTimeout, func(opCtx context.Context) error {
		return p.writeRelational(opCtx, floats, profiles, ms)
	})
	if attempts > 1 {
		r.markRetried(c.Index)
	}
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		p.logger.Warn("relational write demoted to partial failure",
			"chunk", c.Index, "attempts", attempts, "error", err)
		// Nothing from this chunk landed, so the chunk's newly discovered
		// floats and profiles must be rolled back: a later chunk touching
		// them re-emits the parent rows ahead of its measurements.
		r.tracker.forget(floats, profiles)
		r.summary.PartialFailures = append(r.summary.PartialFailures, models.ChunkFailure{
			Chunk: c.Index, Sink: "relational", Attempts: attempts, Error: err.Error(),
		})
	}

	for i := range ms {
		r.docBuf = append(r.docBuf, BuildDocument(&ms[i]))
	}
	if err := p.flushDocuments(ctx, r, false); err != nil {
		return err
	}

	r.summary.ChunksProcessed++
	return nil
}

// writeRelational sequences the ordered upserts that keep the existence
// invariant: floats, then profiles, then measurements.
func (p *Pipeline) writeRelational(ctx context.Context, floats []models.Float, profiles []models.Profile, ms []models.Measurement) error {
	if err := p.relational.UpsertFloats(ctx, floats); err != nil {
		return fmt.Errorf("%w: floats: %v", core.ErrSinkWrite, err)
	}
	if err := p.relational.UpsertProfiles(ctx, profiles); err != nil {
		return fmt.Errorf("%w: profiles: %v", core.ErrSinkWrite, err)
	}
	if err := p.relational.UpsertMeasurements(ctx, ms); err != nil {
		return fmt.Errorf("%w: measurements: %v", core.ErrSinkWrite, err)
	}
	return nil
}

// flushDocuments writes buffered documents batch by batch. With drain set it
// empties the buffer regardless of the batch threshold. Exhausted retries
// drop the batch as a partial failure for the current chunk; only
// cancellation propagates as an error.
func (p *Pipeline) flushDocuments(ctx context.Context, r *run, drain bool) error {
	for len(r.docBuf) > 0 {
		if !drain && len(r.docBuf) < p.cfg.VectorBatchSize {
			return nil
		}
		n := p.cfg.VectorBatchSize
		if n > len(r.docBuf) {
			n = len(r.docBuf)
		}
		batch := r.docBuf[:n]

		attempts, err := withRetries(ctx, p.cfg.MaxRetries, p.cfg.RetryBase, p.cfg.SinkTimeout, func(opCtx context.Context) error {
			if werr := p.vector.UpsertDocuments(opCtx, batch); werr != nil {
				return fmt.Errorf("%w: documents: %v", core.ErrSinkWrite, werr)
			}
			return nil
		})
		if attempts > 1 && r.lastChunk >= 0 {
			r.markRetried(r.lastChunk)
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			p.logger.Warn("vector write demoted to partial failure",
				"chunk", r.lastChunk, "attempts", attempts, "error", err)
			r.summary.PartialFailures = append(r.summary.PartialFailures, models.ChunkFailure{
				Chunk: r.lastChunk, Sink: "vector", Attempts: attempts, Error: err.Error(),
			})
		}
		r.docBuf = r.docBuf[n:]
	}
	return nil
}

func (p *Pipeline) finalize(r *run) {
	r.summary.FloatsSeen = r.tracker.floatsSeen()
	r.summary.ProfilesSeen = r.tracker.profilesSeen()
	r.summary.Elapsed = time.Since(r.summary.StartedAt)
}

func (p *Pipeline) fail(summary *models.RunSummary, err error) (*models.RunSummary, error) {
	p.setState(StateFailed)
	summary.State = string(StateFailed)
	summary.FatalError = err.Error()
	summary.Elapsed = time.Since(summary.StartedAt)
	p.logger.Error("ingestion failed", "dataset", summary.Dataset, "run_id", summary.RunID, "error", err)
	return summary, err
}
