package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// Chunk is one bounded window of candidate records, the unit of work moving
// through the pipeline. Its working set is released before the next chunk is
// pulled.
type Chunk struct {
	Index   int
	Start   int64
	Records []models.RawRecord
}

// chunkReader slices a dataset into fixed windows along the record
// dimension. Chunks are addressed by index, which is what makes a run
// restartable: resuming at index k never re-reads chunks before k.
type chunkReader struct {
	ds     core.Dataset
	window int64
}

func newChunkReader(ds core.Dataset, window int) *chunkReader {
	return &chunkReader{ds: ds, window: int64(window)}
}

func (r *chunkReader) numChunks() int {
	n := r.ds.NumRecords()
	if n <= 0 {
		return 0
	}
	return int((n + r.window - 1) / r.window)
}

// read materializes chunk index as one window, blocking only on storage I/O.
func (r *chunkReader) read(ctx context.Context, index int) (*Chunk, error) {
	begin := int64(index) * r.window
	batch, err := r.ds.ReadWindow(ctx, begin, begin+r.window)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", index, err)
	}
	return &Chunk{Index: index, Start: batch.Start, Records: batch.Records}, nil
}
