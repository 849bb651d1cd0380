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


// Package vector defines the vector index that stores embedded chunks.
//
// Each point carries a "source_id" payload naming the content record it was
// embedded from, so search hits map back to stored text.
package vector

import (
	"context"
	"errors"

	"github.com/poiesic/crawlvec/core"
)

const (
	// DefaultCollection is the collection (or table) holding crawl vectors.
	DefaultCollection = "web_content"
	// DefaultDimension is the vector size of the reference embedding model.
	DefaultDimension = 1024
	// SourceIDField is the payload key referencing the content record.
	SourceIDField = "source_id"
)

var (
	// ErrDimensionMismatch is returned when a vector does not match the collection size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidCollection is returned for unusable collection names.
	ErrInvalidCollection = errors.New("invalid collection name")
)

// SearchOptions bounds a similarity search.
type SearchOptions struct {
	Limit    int
	Offset   int
	MinScore float32
}

// Hit is one search result.
type Hit struct {
	PointId  string
	SourceId core.ID
	Score    float32
}

// Index is a vector store. Implementations must be safe for concurrent use.
type Index interface {
	// EnsureCollection creates the collection with cosine distance and the
	// given dimension. An existing collection is not an error.
	EnsureCollection(ctx context.Context, dimension int) error

	// Insert writes points and waits until they are applied.
	Insert(ctx context.Context, points []core.VectorPoint) error

	// Search returns the points most similar to vector, best first.
	// Hits scoring below MinScore are omitted.
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]Hit, error)

	// Close releases the underlying connection.
	Close() error
}
