package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// Client is the vector sink: it embeds document batches and upserts them
// into the pgvector-backed semantic index. It shares the relational
// client's pool but fails independently; the orchestrator tracks the two
// sinks' outcomes separately.
type Client struct {
	pool      *pgxpool.Pool
	embedder  core.EmbeddingProvider
	batchSize int
}

var _ core.VectorSink = (*Client)(nil)

func NewClient(pool *pgxpool.Pool, embedder core.EmbeddingProvider, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Client{pool: pool, embedder: embedder, batchSize: batchSize}
}

const upsertDocumentSQL = `
INSERT INTO argo_documents (doc_id, profile_key, float_id, doc_time, lat, lon, depth, content, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (doc_id) DO UPDATE
SET profile_key = EXCLUDED.profile_key,
    float_id = EXCLUDED.float_id,
    doc_time = EXCLUDED.doc_time,
    lat = EXCLUDED.lat,
    lon = EXCLUDED.lon,
    depth = EXCLUDED.depth,
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding`

// UpsertDocuments embeds any documents that arrived without vectors and
// writes the batch keyed by doc_id, so retries and re-ingestion overwrite.
func (c *Client) UpsertDocuments(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := c.embedMissing(ctx, docs); err != nil {
		return err
	}

	for start := 0; start < len(docs); start += c.batchSize {
		end := start + c.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := &pgx.Batch{}
		for _, d := range docs[start:end] {
			batch.Queue(upsertDocumentSQL,
				d.ID, d.ProfileKey, d.FloatID, d.Time, d.Lat, d.Lon, d.Depth, d.Content,
				pgvector.NewVector(d.Embedding))
		}
		res := c.pool.SendBatch(ctx, batch)
		var execErr error
		for i := 0; i < batch.Len(); i++ {
			if _, err := res.Exec(); err != nil {
				execErr = err
				break
			}
		}
		if closeErr := res.Close(); execErr == nil && closeErr != nil {
			execErr = closeErr
		}
		if execErr != nil {
			return fmt.Errorf("upsert documents: %w", execErr)
		}
	}
	return nil
}

func (c *Client) embedMissing(ctx context.Context, docs []models.Document) error {
	var texts []string
	var missing []int
	for i := range docs {
		if len(docs[i].Embedding) == 0 {
			texts = append(texts, docs[i].Content)
			missing = append(missing, i)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vecs, err := c.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embed documents: got %d vectors for %d texts", len(vecs), len(texts))
	}
	for j, i := range missing {
		docs[i].Embedding = vecs[j]
	}
	return nil
}

// Search embeds the query and returns the top-k nearest documents by L2
// distance.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 5
	}
	vecs, err := c.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: provider returned no vectors")
	}

	const q = `
		SELECT doc_id, profile_key, float_id, doc_time, lat, lon, depth, content
		FROM argo_documents
		ORDER BY embedding <-> $1
		LIMIT $2`
	rows, err := c.pool.Query(ctx, q, pgvector.NewVector(vecs[0]), limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ProfileKey, &d.FloatID, &d.Time, &d.Lat, &d.Lon, &d.Depth, &d.Content); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
