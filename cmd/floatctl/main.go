package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Archit1030/FloatChat-AI/internal/config"
	db "github.com/Archit1030/FloatChat-AI/internal/core/database"
	"github.com/Archit1030/FloatChat-AI/internal/core/ingestion_engine"
	"github.com/Archit1030/FloatChat-AI/internal/core/llm"
	"github.com/Archit1030/FloatChat-AI/internal/core/netcdf"
	"github.com/Archit1030/FloatChat-AI/internal/core/vectorstore"
)

func main() {
	app := &cli.App{
		Name:  "floatctl",
		Usage: "analyze and ingest ARGO NetCDF archives",
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "report a dataset's structure without ingesting it",
				ArgsUsage: "<dataset.nc>",
				Action:    analyzeAction,
			},
			{
				Name:      "ingest",
				Usage:     "run the full ingestion pipeline for a dataset",
				ArgsUsage: "<dataset.nc>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "chunk-size", Usage: "records per window", Value: 0},
					&cli.Int64Flag{Name: "max-records", Usage: "abort past this many records (0 = no ceiling)", Value: 0},
					&cli.IntFlag{Name: "start-chunk", Usage: "resume from this chunk index", Value: 0},
				},
				Action: ingestAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func analyzeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one dataset path")
	}

	ds, err := netcdf.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer ds.Close()

	report, err := ds.Structure(c.Context)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func ingestAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one dataset path")
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	cfg := config.LoadConfig()
	if v := c.Int("chunk-size"); v > 0 {
		cfg.ChunkSize = v
	}
	if v := c.Int64("max-records"); v > 0 {
		cfg.MaxRecords = v
	}

	dbClient, err := db.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return err
	}
	defer embedder.Close()

	store := vectorstore.NewClient(dbClient.Pool(), embedder, cfg.VectorBatchSize)

	ds, err := netcdf.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer ds.Close()

	pipeCfg := &ingestion_engine.IngestConfig{
		ChunkSize:       cfg.ChunkSize,
		VectorBatchSize: cfg.VectorBatchSize,
		MaxRecords:      cfg.MaxRecords,
		MaxRetries:      cfg.SinkMaxRetries,
		RetryBase:       cfg.SinkRetryBase,
		SinkTimeout:     cfg.SinkTimeout,
		StartChunk:      c.Int("start-chunk"),
	}

	pipe := ingestion_engine.NewPipeline(dbClient, store, pipeCfg, slog.Default())
	summary, err := pipe.Ingest(ctx, ds)
	if summary != nil {
		_ = printJSON(summary)
	}
	return err
}

// signalContext cancels on SIGINT/SIGTERM so a run stops between chunks.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
