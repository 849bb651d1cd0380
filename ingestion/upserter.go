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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/chunker"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/retry"
	"github.com/poiesic/crawlvec/vector"
)

const (
	// DefaultMaxAttempts bounds the embed+insert retries for one text.
	DefaultMaxAttempts = 50
	// DefaultRetryDelay is the fixed wait between attempts.
	DefaultRetryDelay = time.Second
)

// pointNamespace seeds deterministic point IDs.
var pointNamespace = uuid.MustParse("5b0f2a8e-3c61-4d0e-9a57-2f6c1e4b7d90")

// PointID returns the deterministic vector point ID for chunk index of a
// content record.
func PointID(sourceID core.ID, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(string(sourceID)+":"+strconv.Itoa(index))).String()
}

// VectorUpserter chunks text, embeds the chunks and inserts them into the
// vector index, retrying the whole sequence on failure.
type VectorUpserter struct {
	embedder  ai.Embedder
	index     vector.Index
	chunker   *chunker.Chunker
	policy    *retry.Policy
	randomIDs bool
	logger    *slog.Logger
}

// UpserterOption configures a VectorUpserter.
type UpserterOption func(*VectorUpserter)

// WithRetryPolicy replaces the default policy of 50 attempts one second apart.
func WithRetryPolicy(policy *retry.Policy) UpserterOption {
	return func(u *VectorUpserter) {
		u.policy = policy
	}
}

// WithRandomPointIDs gives every inserted point a fresh random ID, so
// reprocessing a line adds new points instead of overwriting.
func WithRandomPointIDs() UpserterOption {
	return func(u *VectorUpserter) {
		u.randomIDs = true
	}
}

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) UpserterOption {
	return func(u *VectorUpserter) {
		u.chunker = chunker.New(size)
	}
}

// WithUpserterLogger sets the logger.
func WithUpserterLogger(logger *slog.Logger) UpserterOption {
	return func(u *VectorUpserter) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewVectorUpserter creates an upserter writing to index.
func NewVectorUpserter(embedder ai.Embedder, index vector.Index, opts ...UpserterOption) (*VectorUpserter, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	u := &VectorUpserter{
		embedder: embedder,
		index:    index,
		chunker:  chunker.New(chunker.MaxChunkSize),
		policy:   retry.NewPolicy(DefaultMaxAttempts, DefaultRetryDelay),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.With("component", "vector-upserter")
	if u.policy.Logger == nil {
		u.policy.Logger = u.logger
	}
	return u, nil
}

// Upsert embeds text and inserts one point per chunk, each tagged with
// sourceID. It returns the chunks that were stored. When every attempt fails
// or ctx ends, it logs and returns nil; callers go on persisting metadata.
func (u *VectorUpserter) Upsert(ctx context.Context, text string, sourceID core.ID) []string {
	chunks := u.chunker.Split(text)
	if len(chunks) == 0 {
		return nil
	}

	err := u.policy.Do(ctx, func(ctx context.Context) error {
		vectors, err := u.embedder.EmbedTexts(ctx, chunks)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("%w: %d chunks, %d vectors", ai.ErrEmbeddingCountMismatch, len(chunks), len(vectors))
		}
		return u.index.Insert(ctx, u.points(vectors, sourceID))
	})
	if err != nil {
		u.logger.Warn("abandoning vectors", "source_id", sourceID, "chunks", len(chunks), "err", err)
		return nil
	}
	return chunks
}

func (u *VectorUpserter) points(vectors [][]float32, sourceID core.ID) []core.VectorPoint {
	points := make([]core.VectorPoint, len(vectors))
	for i, v := range vectors {
		id := PointID(sourceID, i)
		if u.randomIDs {
			id = uuid.NewString()
		}
		points[i] = core.VectorPoint{Id: id, Vector: v, SourceId: sourceID}
	}
	return points
}
