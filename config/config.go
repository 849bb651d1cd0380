// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config resolves crawlvec settings. Values are layered as built-in
// defaults, then an optional YAML file, then the environment (including a
// .env file in the working directory). Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/ingestion"
	"github.com/poiesic/crawlvec/vector"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by StoreConfig.Kind and IndexConfig.Kind.
const (
	StoreBadger   = "badger"
	StoreMongo    = "mongo"
	IndexQdrant   = "qdrant"
	IndexPgvector = "pgvector"
)

// DefaultSnapshot is ingested when no snapshot is configured.
const DefaultSnapshot = "CC-MAIN-2023-50"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// StoreConfig selects the document store.
type StoreConfig struct {
	Kind      string `yaml:"kind"`
	BadgerDir string `yaml:"badger_dir"`
	MongoURL  string `yaml:"mongo_url"`
	Database  string `yaml:"database"`
}

// IndexConfig selects the vector index.
type IndexConfig struct {
	Kind         string `yaml:"kind"`
	QdrantURL    string `yaml:"qdrant_url"`
	QdrantAPIKey string `yaml:"qdrant_api_key"`
	PgvectorURL  string `yaml:"pgvector_url"`
	Collection   string `yaml:"collection"`
	Dimension    int    `yaml:"dimension"`
}

// EmbedderConfig configures the embedding service client.
type EmbedderConfig struct {
	Provider          string        `yaml:"provider"`
	URL               string        `yaml:"url"`
	Model             string        `yaml:"model"`
	BatchSize         int           `yaml:"batch_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// CrawlConfig locates the crawl archive and the local scratch space.
type CrawlConfig struct {
	BaseURL    string   `yaml:"base_url"`
	ScratchDir string   `yaml:"scratch_dir"`
	Snapshots  []string `yaml:"snapshots"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Workers        int           `yaml:"workers"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RandomPointIDs bool          `yaml:"random_point_ids"`
}

// Config is the root configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Index    IndexConfig    `yaml:"index"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Store: StoreConfig{
			Kind:      StoreBadger,
			BadgerDir: "./storage/db",
			MongoURL:  "mongodb://localhost:27019",
			Database:  "app",
		},
		Index: IndexConfig{
			Kind:       IndexQdrant,
			QdrantURL:  "http://localhost:6334",
			Collection: vector.DefaultCollection,
			Dimension:  vector.DefaultDimension,
		},
		Embedder: EmbedderConfig{
			Provider:  string(aiDefaults.Provider),
			URL:       aiDefaults.EmbeddingHost,
			BatchSize: aiDefaults.BatchSize,
			Timeout:   aiDefaults.Timeout,
		},
		Crawl: CrawlConfig{
			BaseURL:    "https://data.commoncrawl.org/",
			ScratchDir: "./storage",
			Snapshots:  []string{DefaultSnapshot},
		},
		Ingest: IngestConfig{
			Workers:     ingestion.DefaultWorkers,
			MaxAttempts: ingestion.DefaultMaxAttempts,
			RetryDelay:  ingestion.DefaultRetryDelay,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	loadDotEnv()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// AI converts the embedder section into an ai.Config.
func (c *Config) AI() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithProvider(ai.ProviderKind(c.Embedder.Provider)),
		ai.WithEmbeddingHost(c.Embedder.URL),
		ai.WithEmbeddingModel(c.Embedder.Model),
		ai.WithBatchSize(c.Embedder.BatchSize),
		ai.WithRequestsPerSecond(c.Embedder.RequestsPerSecond),
		ai.WithTimeout(c.Embedder.Timeout),
	)
	cfg.Normalize()
	return cfg
}

// SnapshotList returns the configured snapshots in order.
func (c *Config) SnapshotList() []core.Snapshot {
	out := make([]core.Snapshot, 0, len(c.Crawl.Snapshots))
	for _, s := range c.Crawl.Snapshots {
		out = append(out, core.Snapshot(s))
	}
	return out
}

// Validate reports the first problem found in c.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreBadger:
		if c.Store.BadgerDir == "" {
			return fmt.Errorf("%w: badger directory required", ErrInvalidConfig)
		}
	case StoreMongo:
		if c.Store.MongoURL == "" || c.Store.Database == "" {
			return fmt.Errorf("%w: mongo url and database required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown document store %q", ErrInvalidConfig, c.Store.Kind)
	}

	switch c.Index.Kind {
	case IndexQdrant:
		if c.Index.QdrantURL == "" {
			return fmt.Errorf("%w: qdrant url required", ErrInvalidConfig)
		}
	case IndexPgvector:
		if c.Index.PgvectorURL == "" {
			return fmt.Errorf("%w: pgvector url required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown vector index %q", ErrInvalidConfig, c.Index.Kind)
	}
	if c.Index.Dimension < 1 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}

	if err := c.AI().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Crawl.BaseURL == "" || c.Crawl.ScratchDir == "" {
		return fmt.Errorf("%w: crawl base url and scratch directory required", ErrInvalidConfig)
	}
	if len(c.Crawl.Snapshots) == 0 {
		return fmt.Errorf("%w: at least one snapshot required", ErrInvalidConfig)
	}
	for _, s := range c.Crawl.Snapshots {
		if s == "" {
			return fmt.Errorf("%w: empty snapshot name", ErrInvalidConfig)
		}
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.Ingest.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Ingest.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidConfig)
	}
	return nil
}
