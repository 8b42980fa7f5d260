package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/Archit1030/FloatChat-AI/internal/config"
	"github.com/Archit1030/FloatChat-AI/internal/core"
	db "github.com/Archit1030/FloatChat-AI/internal/core/database"
	"github.com/Archit1030/FloatChat-AI/internal/core/llm"
	"github.com/Archit1030/FloatChat-AI/internal/core/objectstore"
	"github.com/Archit1030/FloatChat-AI/internal/core/vectorstore"
	"github.com/Archit1030/FloatChat-AI/internal/services"
)

type App struct {
	DBClient    *db.Client
	VectorStore *vectorstore.Client
	Embedder    *llm.GeminiEmbedder
	Ingest      *services.IngestService
	Server      *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	vectorStore := vectorstore.NewClient(dbClient.Pool(), embedder, cfg.VectorBatchSize)

	// Object storage is optional; local paths work without it.
	var fetcher core.DatasetFetcher
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		s3Fetcher, err := objectstore.NewS3Fetcher(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		fetcher = s3Fetcher
		log.Println("Object storage fetcher initialized and ready.")
	}

	ingestSvc, err := services.NewIngestService(cfg, dbClient, vectorStore, fetcher, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the ingest service, %w", err)
	}

	server := NewServer(cfg, ingestSvc, vectorStore)

	return &App{
		DBClient:    dbClient,
		VectorStore: vectorStore,
		Embedder:    embedder,
		Ingest:      ingestSvc,
		Server:      server,
	}, nil
}

func (a *App) Close() {
	if a.Ingest != nil {
		a.Ingest.Close()
	}
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.DBClient != nil {
		a.DBClient.Close()
	}
}
