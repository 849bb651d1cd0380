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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/ingestion"
	"github.com/poiesic/crawlvec/retry"
	"github.com/poiesic/crawlvec/storage"
	"github.com/poiesic/crawlvec/vector"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxAttempts bounds the embed and insert attempts per batch
	MaxAttempts int

	// RetryDelay is the delay between attempts, or the first delay when
	// ExponentialBackoff is set
	RetryDelay time.Duration

	// ExponentialBackoff doubles the delay after each failed attempt
	ExponentialBackoff bool
}

func (c *Config) retryPolicy(logger *slog.Logger) *retry.Policy {
	policy := retry.NewPolicy(c.MaxAttempts, c.RetryDelay)
	if c.ExponentialBackoff {
		policy.Backoff = retry.Exponential(c.RetryDelay)
	}
	policy.Logger = logger
	return policy
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxAttempts:    ingestion.DefaultMaxAttempts,
		RetryDelay:     ingestion.DefaultRetryDelay,
	}
}

// Stats summarizes a run.
type Stats struct {
	Records int
	Points  int
	Skipped int
	Elapsed time.Duration
}

// Reembedder rebuilds vectors for every stored content record.
type Reembedder struct {
	scanner   storage.ContentScanner
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr), or nil
func NewReembedder(scanner storage.ContentScanner, embedder ai.Embedder, index vector.Index, config *Config, progress io.Writer) (*Reembedder, error) {
	if scanner == nil {
		return nil, ErrScannerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	logger := slog.Default().With("component", "reembedder")
	policy := config.retryPolicy(logger)
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		scanner:   scanner,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(embedder, index, policy, logger),
		logger:    logger,
	}, nil
}

// Run reembeds all content records. It stops at the first batch that still
// fails after its retries, or when ctx ends. Points written before that stay
// in the index; a rerun overwrites them.
func (r *Reembedder) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	total, err := r.scanner.CountContents(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to count records: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No records found in store (0 records)\n")
		return stats, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := ingestion.NewProgressTracker(r.progress, total, r.config.ReportInterval).WithUnit("records")
	tracker.Start()

	err = r.scanner.ScanContents(ctx, r.config.BatchSize, func(records []*core.ContentRecord) error {
		result, err := r.processor.Process(ctx, records)
		stats.Records += result.Records
		stats.Points += result.Points
		stats.Skipped += result.Skipped
		if err != nil {
			return err
		}
		tracker.Increment(len(records))
		return nil
	})
	tracker.Finish()
	stats.Elapsed = tracker.Elapsed()
	if err != nil {
		r.logger.Error("reembedding stopped", "records", stats.Records, "err", err)
		return stats, err
	}

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records into %d points in %v\n",
		stats.Records, stats.Points, stats.Elapsed.Round(time.Second))
	return stats, nil
}
