package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawlvec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, StoreBadger, cfg.Store.Kind)
	assert.Equal(t, "mongodb://localhost:27019", cfg.Store.MongoURL)
	assert.Equal(t, "app", cfg.Store.Database)
	assert.Equal(t, IndexQdrant, cfg.Index.Kind)
	assert.Equal(t, "http://localhost:6334", cfg.Index.QdrantURL)
	assert.Equal(t, "web_content", cfg.Index.Collection)
	assert.Equal(t, 1024, cfg.Index.Dimension)
	assert.Equal(t, "tei", cfg.Embedder.Provider)
	assert.Equal(t, "http://localhost:8888", cfg.Embedder.URL)
	assert.Equal(t, "https://data.commoncrawl.org/", cfg.Crawl.BaseURL)
	assert.Equal(t, []string{"CC-MAIN-2023-50"}, cfg.Crawl.Snapshots)
	assert.Equal(t, 2, cfg.Ingest.Workers)
	assert.Equal(t, 50, cfg.Ingest.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Ingest.RetryDelay)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
store:
  kind: mongo
  database: crawl
index:
  kind: pgvector
  pgvector_url: postgres://localhost/vectors
embedder:
  provider: openai
  url: http://localhost:11434
  model: bge-m3
  timeout: 5s
crawl:
  snapshots: [CC-MAIN-2024-10, CC-MAIN-2024-18]
ingest:
  workers: 4
  retry_delay: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.Store.Kind)
	assert.Equal(t, "crawl", cfg.Store.Database)
	assert.Equal(t, "mongodb://localhost:27019", cfg.Store.MongoURL, "unset keys keep defaults")
	assert.Equal(t, IndexPgvector, cfg.Index.Kind)
	assert.Equal(t, "bge-m3", cfg.Embedder.Model)
	assert.Equal(t, 5*time.Second, cfg.Embedder.Timeout)
	assert.Equal(t, []string{"CC-MAIN-2024-10", "CC-MAIN-2024-18"}, cfg.Crawl.Snapshots)
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingest.RetryDelay)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeFile(t, "store: [unterminated"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "ingest:\n  workers: 4\n")
	t.Setenv(EnvWorkers, "8")
	t.Setenv(EnvSnapshots, "CC-MAIN-2023-40, CC-MAIN-2023-50")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.Equal(t, []string{"CC-MAIN-2023-40", "CC-MAIN-2023-50"}, cfg.Crawl.Snapshots)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(envMap(map[string]string{
		EnvDocStore:       "mongo",
		EnvMongoURL:       "mongodb://db:27017",
		EnvDatabase:       "crawl",
		EnvVectorIndex:    "pgvector",
		EnvPgvectorURL:    "postgres://pg/vectors",
		EnvDimension:      "768",
		EnvEmbedder:       "openai",
		EnvEmbeddingsURL:  "http://ollama:11434",
		EnvEmbeddingModel: "nomic-embed-text",
		EnvEmbeddingRPS:   "2.5",
		EnvScratchDir:     "/tmp/scratch",
		EnvMaxAttempts:    "3",
		EnvRetryDelay:     "100ms",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.Store.Kind)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.MongoURL)
	assert.Equal(t, "crawl", cfg.Store.Database)
	assert.Equal(t, IndexPgvector, cfg.Index.Kind)
	assert.Equal(t, "postgres://pg/vectors", cfg.Index.PgvectorURL)
	assert.Equal(t, 768, cfg.Index.Dimension)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, 2.5, cfg.Embedder.RequestsPerSecond)
	assert.Equal(t, "/tmp/scratch", cfg.Crawl.ScratchDir)
	assert.Equal(t, 3, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Ingest.RetryDelay)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_BadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvWorkers, "two"},
		{EnvDimension, "1.5"},
		{EnvEmbeddingRPS, "fast"},
		{EnvRetryDelay, "1 second"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := Default().applyEnv(envMap(map[string]string{tt.key: tt.value}))
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store.Kind = "sqlite" }},
		{"badger without dir", func(c *Config) { c.Store.BadgerDir = "" }},
		{"mongo without database", func(c *Config) { c.Store.Kind = StoreMongo; c.Store.Database = "" }},
		{"unknown index", func(c *Config) { c.Index.Kind = "faiss" }},
		{"qdrant without url", func(c *Config) { c.Index.QdrantURL = "" }},
		{"pgvector without url", func(c *Config) { c.Index.Kind = IndexPgvector }},
		{"zero dimension", func(c *Config) { c.Index.Dimension = 0 }},
		{"unknown embedder", func(c *Config) { c.Embedder.Provider = "bert" }},
		{"openai without model", func(c *Config) { c.Embedder.Provider = "openai" }},
		{"negative rps", func(c *Config) { c.Embedder.RequestsPerSecond = -1 }},
		{"no snapshots", func(c *Config) { c.Crawl.Snapshots = nil }},
		{"blank snapshot", func(c *Config) { c.Crawl.Snapshots = []string{""} }},
		{"no scratch dir", func(c *Config) { c.Crawl.ScratchDir = "" }},
		{"zero workers", func(c *Config) { c.Ingest.Workers = 0 }},
		{"zero attempts", func(c *Config) { c.Ingest.MaxAttempts = 0 }},
		{"negative delay", func(c *Config) { c.Ingest.RetryDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestAI(t *testing.T) {
	cfg := Default()
	cfg.Embedder.Provider = "openai"
	cfg.Embedder.URL = "http://localhost:11434/"
	cfg.Embedder.Model = "bge-m3"
	cfg.Embedder.RequestsPerSecond = 4

	aiCfg := cfg.AI()
	assert.Equal(t, ai.ProviderOpenAI, aiCfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "bge-m3", aiCfg.EmbeddingModel)
	assert.Equal(t, float64(4), aiCfg.RequestsPerSecond)
	assert.Equal(t, 100, aiCfg.BatchSize)
}

func TestSnapshotList(t *testing.T) {
	cfg := Default()
	cfg.Crawl.Snapshots = []string{"A", "B"}
	assert.Equal(t, []core.Snapshot{"A", "B"}, cfg.SnapshotList())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Empty(t, SplitList(""))
}
