package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvDocStore       = "DOC_STORE"
	EnvBadgerDir      = "BADGER_DIR"
	EnvMongoURL       = "MONGO_URL"
	EnvDatabase       = "DB_NAME"
	EnvVectorIndex    = "VECTOR_INDEX"
	EnvQdrantURL      = "QDRANT_URL"
	EnvQdrantAPIKey   = "QDRANT_API_KEY"
	EnvPgvectorURL    = "PGVECTOR_URL"
	EnvCollection     = "COLLECTION"
	EnvDimension      = "EMBEDDING_DIM"
	EnvEmbedder       = "EMBEDDER"
	EnvEmbeddingsURL  = "EMBEDDINGS_URL"
	EnvEmbeddingModel = "EMBEDDING_MODEL"
	EnvEmbeddingRPS   = "EMBEDDING_RPS"
	EnvCrawlBaseURL   = "CRAWL_BASE_URL"
	EnvScratchDir     = "SCRATCH_DIR"
	EnvSnapshots      = "SNAPSHOTS"
	EnvWorkers        = "WORKERS"
	EnvMaxAttempts    = "MAX_ATTEMPTS"
	EnvRetryDelay     = "RETRY_DELAY"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// loadDotEnv reads .env from the working directory. Variables already set in
// the process environment win. A missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

// applyEnv overrides c with every variable that lookup reports as set.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		EnvDocStore:       &c.Store.Kind,
		EnvBadgerDir:      &c.Store.BadgerDir,
		EnvMongoURL:       &c.Store.MongoURL,
		EnvDatabase:       &c.Store.Database,
		EnvVectorIndex:    &c.Index.Kind,
		EnvQdrantURL:      &c.Index.QdrantURL,
		EnvQdrantAPIKey:   &c.Index.QdrantAPIKey,
		EnvPgvectorURL:    &c.Index.PgvectorURL,
		EnvCollection:     &c.Index.Collection,
		EnvEmbedder:       &c.Embedder.Provider,
		EnvEmbeddingsURL:  &c.Embedder.URL,
		EnvEmbeddingModel: &c.Embedder.Model,
		EnvCrawlBaseURL:   &c.Crawl.BaseURL,
		EnvScratchDir:     &c.Crawl.ScratchDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		EnvDimension:   &c.Index.Dimension,
		EnvWorkers:     &c.Ingest.Workers,
		EnvMaxAttempts: &c.Ingest.MaxAttempts,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q is not an integer: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvEmbeddingRPS); ok {
		rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s=%q is not a number: %w", EnvEmbeddingRPS, v, err)
		}
		c.Embedder.RequestsPerSecond = rps
	}

	if v, ok := lookup(EnvRetryDelay); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q is not a duration: %w", EnvRetryDelay, v, err)
		}
		c.Ingest.RetryDelay = d
	}

	if v, ok := lookup(EnvSnapshots); ok {
		c.Crawl.Snapshots = SplitList(v)
	}
	return nil
}

// SplitList splits a comma separated list, dropping blank items.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
