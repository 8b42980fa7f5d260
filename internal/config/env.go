package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	Port         string
	DataDir      string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	// Pipeline tuning
	ChunkSize       int
	SinkBatchSize   int
	VectorBatchSize int
	MaxRecords      int64
	SinkMaxRetries  int
	SinkRetryBase   time.Duration
	SinkTimeout     time.Duration
	IngestWorkers   int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 768),
		Port:         getEnv("PORT", "8080"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "floatchat-argo"),

		ChunkSize:       getEnvInt("CHUNK_SIZE", 10000),
		SinkBatchSize:   getEnvInt("SINK_BATCH_SIZE", 500),
		VectorBatchSize: getEnvInt("VECTOR_BATCH_SIZE", 200),
		MaxRecords:      getEnvInt64("MAX_RECORDS", 0),
		SinkMaxRetries:  getEnvInt("SINK_MAX_RETRIES", 3),
		SinkRetryBase:   getEnvDuration("SINK_RETRY_BASE", 500*time.Millisecond),
		SinkTimeout:     getEnvDuration("SINK_TIMEOUT", 30*time.Second),
		IngestWorkers:   getEnvInt("INGEST_WORKERS", 2),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvInt64(key string, def int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
