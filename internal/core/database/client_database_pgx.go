package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/Archit1030/FloatChat-AI/internal/config"
	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// Client is the relational sink over Postgres. All writes are idempotent
// upserts on natural keys, batched through pgx.Batch, so a retried chunk
// converges to the same stored state instead of duplicating rows.
type Client struct {
	pool      *pgxpool.Pool
	batchSize int
}

var _ core.RelationalSink = (*Client)(nil)

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = 20
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 10 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	batchSize := cfg.SinkBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	return &Client{pool: pool, batchSize: batchSize}, nil
}

// Pool exposes the underlying pool so the vector sink can share it.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

const upsertFloatSQL = `
INSERT INTO floats (float_id, wmo_id, deployment_date, deployment_lat, deployment_lon, region, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (float_id) DO UPDATE
SET wmo_id = EXCLUDED.wmo_id,
    deployment_date = EXCLUDED.deployment_date,
    deployment_lat = EXCLUDED.deployment_lat,
    deployment_lon = EXCLUDED.deployment_lon,
    region = EXCLUDED.region,
    status = EXCLUDED.status`

func (c *Client) UpsertFloats(ctx context.Context, floats []models.Float) error {
	if len(floats) == 0 {
		return nil
	}
	for start := 0; start < len(floats); start += c.batchSize {
		end := start + c.batchSize
		if end > len(floats) {
			end = len(floats)
		}
		batch := &pgx.Batch{}
		for _, f := range floats[start:end] {
			batch.Queue(upsertFloatSQL, f.ID, f.WMOID, f.DeploymentAt, f.DeploymentLat, f.DeploymentLon, f.Region, f.Status)
		}
		if err := c.sendBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert floats: %w", err)
		}
	}
	return nil
}

const upsertProfileSQL = `
INSERT INTO profiles (profile_key, float_id, cycle_number, profile_date, profile_lat, profile_lon)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (profile_key) DO UPDATE
SET float_id = EXCLUDED.float_id,
    cycle_number = EXCLUDED.cycle_number,
    profile_date = EXCLUDED.profile_date,
    profile_lat = EXCLUDED.profile_lat,
    profile_lon = EXCLUDED.profile_lon`

func (c *Client) UpsertProfiles(ctx context.Context, profiles []models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	for start := 0; start < len(profiles); start += c.batchSize {
		end := start + c.batchSize
		if end > len(profiles) {
			end = len(profiles)
		}
		batch := &pgx.Batch{}
		for _, p := range profiles[start:end] {
			batch.Queue(upsertProfileSQL, p.Key, p.FloatID, p.CycleNumber, p.Time, p.Lat, p.Lon)
		}
		if err := c.sendBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert profiles: %w", err)
		}
	}
	return nil
}

const upsertMeasurementSQL = `
INSERT INTO measurements (profile_key, float_id, time, lat, lon, depth, pressure, temperature, salinity, oxygen, ph, chlorophyll, quality_flag)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (profile_key, depth) DO UPDATE
SET float_id = EXCLUDED.float_id,
    time = EXCLUDED.time,
    lat = EXCLUDED.lat,
    lon = EXCLUDED.lon,
    pressure = EXCLUDED.pressure,
    temperature = EXCLUDED.temperature,
    salinity = EXCLUDED.salinity,
    oxygen = EXCLUDED.oxygen,
    ph = EXCLUDED.ph,
    chlorophyll = EXCLUDED.chlorophyll,
    quality_flag = EXCLUDED.quality_flag`

const refreshLevelsSQL = `
UPDATE profiles p
SET n_levels = sub.cnt
FROM (
    SELECT profile_key, COUNT(*) AS cnt
    FROM measurements
    WHERE profile_key = ANY($1)
    GROUP BY profile_key
) sub
WHERE p.profile_key = sub.profile_key`

// UpsertMeasurements writes measurement rows and then refreshes the derived
// n_levels count on the touched profiles.
func (c *Client) UpsertMeasurements(ctx context.Context, ms []models.Measurement) error {
	if len(ms) == 0 {
		return nil
	}
	for start := 0; start < len(ms); start += c.batchSize {
		end := start + c.batchSize
		if end > len(ms) {
			end = len(ms)
		}
		batch := &pgx.Batch{}
		for _, m := range ms[start:end] {
			batch.Queue(upsertMeasurementSQL,
				m.ProfileKey, m.FloatID, m.Time, m.Lat, m.Lon, m.Depth, m.Pressure,
				m.Temperature, m.Salinity, m.Oxygen, m.PH, m.Chlorophyll, m.QualityFlag)
		}
		if err := c.sendBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert measurements: %w", err)
		}
	}

	keys := make([]string, 0, len(ms))
	seen := make(map[string]bool, len(ms))
	for _, m := range ms {
		if !seen[m.ProfileKey] {
			seen[m.ProfileKey] = true
			keys = append(keys, m.ProfileKey)
		}
	}
	if _, err := c.pool.Exec(ctx, refreshLevelsSQL, keys); err != nil {
		return fmt.Errorf("refresh n_levels: %w", err)
	}
	return nil
}

func (c *Client) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	res := c.pool.SendBatch(ctx, batch)
	defer res.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return nil
}
