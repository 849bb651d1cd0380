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


// Package crawlvec wires the document store, vector index, embedding
// provider and archive fetcher described by a config.Config into an Engine,
// which hands out ingestion pipelines and searchers sharing those handles.
package crawlvec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/ai/openai"
	"github.com/poiesic/crawlvec/ai/tei"
	"github.com/poiesic/crawlvec/config"
	"github.com/poiesic/crawlvec/fetch"
	"github.com/poiesic/crawlvec/ingestion"
	"github.com/poiesic/crawlvec/reembed"
	"github.com/poiesic/crawlvec/retry"
	"github.com/poiesic/crawlvec/search"
	"github.com/poiesic/crawlvec/storage"
	"github.com/poiesic/crawlvec/storage/badger"
	"github.com/poiesic/crawlvec/storage/mongo"
	"github.com/poiesic/crawlvec/vector"
	"github.com/poiesic/crawlvec/vector/pgvector"
	"github.com/poiesic/crawlvec/vector/qdrant"
)

// ErrConfigRequired is returned by Open when no configuration is given.
var ErrConfigRequired = errors.New("config required")

// Engine owns the long-lived handles shared by ingestion and search.
type Engine struct {
	cfg      *config.Config
	store    storage.Store
	index    vector.Index
	provider ai.AIProvider
	fetcher  *fetch.Fetcher
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger   *slog.Logger
	store    storage.Store
	index    vector.Index
	provider ai.AIProvider
	source   fetch.Source
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStore uses store instead of opening the configured document store.
// The engine takes ownership and closes it.
func WithStore(store storage.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithIndex uses index instead of connecting to the configured vector index.
// The engine takes ownership and closes it.
func WithIndex(index vector.Index) EngineOption {
	return func(o *engineOptions) {
		o.index = index
	}
}

// WithProvider uses provider instead of the configured embedding service.
// The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithSource reads archive objects from source instead of the configured
// base URL.
func WithSource(source fetch.Source) EngineOption {
	return func(o *engineOptions) {
		o.source = source
	}
}

// Open validates cfg and connects every backend it names. The vector
// collection is created if it does not exist yet.
func Open(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{
		cfg:      cfg,
		store:    options.store,
		index:    options.index,
		provider: options.provider,
		logger:   options.logger.With("component", "engine"),
	}

	if err := e.open(ctx, options); err != nil {
		if closeErr := e.Close(); closeErr != nil {
			e.logger.Error("error releasing partially opened engine", "err", closeErr)
		}
		return nil, err
	}
	return e, nil
}

func (e *Engine) open(ctx context.Context, options *engineOptions) error {
	var err error
	if e.store == nil {
		if e.store, err = openStore(ctx, e.cfg, options.logger); err != nil {
			return fmt.Errorf("open document store: %w", err)
		}
	}
	if e.index == nil {
		if e.index, err = openIndex(ctx, e.cfg, options.logger); err != nil {
			return fmt.Errorf("open vector index: %w", err)
		}
	}
	if err = e.index.EnsureCollection(ctx, e.cfg.Index.Dimension); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if e.provider == nil {
		if e.provider, err = newProvider(e.cfg.AI()); err != nil {
			return fmt.Errorf("create embedding provider: %w", err)
		}
	}

	source := options.source
	if source == nil {
		if source, err = fetch.NewSource(ctx, e.cfg.Crawl.BaseURL); err != nil {
			return fmt.Errorf("create archive source: %w", err)
		}
	}
	if e.fetcher, err = fetch.New(source, e.cfg.Crawl.ScratchDir, fetch.WithLogger(options.logger)); err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	e.logger.Info("engine ready",
		"store", e.cfg.Store.Kind,
		"index", e.cfg.Index.Kind,
		"embedder", e.cfg.Embedder.Provider)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.Store.Kind == config.StoreMongo {
		store, err := mongo.Open(ctx, cfg.Store.MongoURL, cfg.Store.Database, mongo.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := badger.OpenStore(cfg.Store.BadgerDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vector.Index, error) {
	if cfg.Index.Kind == config.IndexPgvector {
		index, err := pgvector.Open(ctx, cfg.Index.PgvectorURL,
			pgvector.WithTable(cfg.Index.Collection),
			pgvector.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return index, nil
	}
	index, err := qdrant.New(cfg.Index.QdrantURL, cfg.Index.QdrantAPIKey,
		qdrant.WithCollection(cfg.Index.Collection),
		qdrant.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return index, nil
}

func newProvider(cfg *ai.Config) (ai.AIProvider, error) {
	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(cfg)
	case ai.ProviderTEI:
		return tei.NewProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, cfg.Provider)
	}
}

// Close releases the provider, the index and the store, in that order.
// Every handle is closed even when an earlier one fails.
func (e *Engine) Close() error {
	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing embedding provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.index != nil {
		if err := e.index.Close(); err != nil {
			e.logger.Error("error closing vector index", "err", err)
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("error closing document store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the validated configuration the engine was opened with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Store returns the document store holding pages, content records and the ledger.
func (e *Engine) Store() storage.Store {
	return e.store
}

// Index returns the vector index. Its collection exists by the time Open returns.
func (e *Engine) Index() vector.Index {
	return e.index
}

// Embedder returns the provider's embedding service.
func (e *Engine) Embedder() ai.Embedder {
	return e.provider.Embedder()
}

// Fetcher returns the fetcher that downloads manifests and archive objects
// into the scratch directory.
func (e *Engine) Fetcher() *fetch.Fetcher {
	return e.fetcher
}

// NewUpserter builds a vector upserter using the configured retry settings.
func (e *Engine) NewUpserter(opts ...ingestion.UpserterOption) (*ingestion.VectorUpserter, error) {
	policy := retry.NewPolicy(e.cfg.Ingest.MaxAttempts, e.cfg.Ingest.RetryDelay)
	policy.Logger = e.logger
	base := []ingestion.UpserterOption{
		ingestion.WithRetryPolicy(policy),
		ingestion.WithUpserterLogger(e.logger),
	}
	if e.cfg.Ingest.RandomPointIDs {
		base = append(base, ingestion.WithRandomPointIDs())
	}
	return ingestion.NewVectorUpserter(e.provider.Embedder(), e.index, append(base, opts...)...)
}

// NewPipeline builds an ingestion pipeline over the engine's handles.
// opts are applied after the configured worker count.
func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	upserter, err := e.NewUpserter()
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithWorkers(e.cfg.Ingest.Workers),
		ingestion.WithLogger(e.logger),
	}
	return ingestion.NewPipeline(e.store, e.fetcher, upserter, append(base, opts...)...)
}

// NewSearcher builds a searcher over the engine's handles.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(e.logger)}
	return search.NewSearcher(e.store, e.store, e.index, e.provider.Embedder(), append(base, opts...)...)
}

// NewReembedder builds a reembedder that rewrites the index from the store.
// A nil reembedCfg uses the configured retry settings.
func (e *Engine) NewReembedder(reembedCfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if reembedCfg == nil {
		reembedCfg = reembed.DefaultConfig()
		reembedCfg.MaxAttempts = e.cfg.Ingest.MaxAttempts
		reembedCfg.RetryDelay = e.cfg.Ingest.RetryDelay
	}
	return reembed.NewReembedder(e.store, e.provider.Embedder(), e.index, reembedCfg, progress)
}
