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


// Package qdrant implements vector.Index on a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/vector"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultPort is the Qdrant gRPC port.
const DefaultPort = 6334

// Index stores points in one Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
	logger     *slog.Logger
}

var _ vector.Index = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(ix *Index) {
		ix.collection = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}

// ParseURL turns a server URL such as "http://localhost:6334" into client
// configuration. An https scheme enables TLS.
func ParseURL(raw, apiKey string) (*qdrant.Config, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("parse qdrant url %q: missing host", raw)
	}
	port := DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse qdrant url %q: %w", raw, err)
		}
	}
	return &qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: u.Scheme == "https",
	}, nil
}

// New connects to the Qdrant server at rawURL.
func New(rawURL, apiKey string, opts ...Option) (*Index, error) {
	cfg, err := ParseURL(rawURL, apiKey)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect qdrant at %s: %w", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), err)
	}
	ix := &Index{
		client:     client,
		collection: vector.DefaultCollection,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// EnsureCollection creates the collection with cosine distance.
func (ix *Index) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := ix.client.CollectionExists(ctx, ix.collection)
	if err == nil && exists {
		ix.logger.Debug("collection exists", "collection", ix.collection)
		return nil
	}
	err = ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: ix.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		if isAlreadyExists(err) {
			ix.logger.Debug("collection exists", "collection", ix.collection)
			return nil
		}
		return fmt.Errorf("create collection %s: %w", ix.collection, err)
	}
	ix.logger.Info("created collection", "collection", ix.collection, "dimension", dimension)
	return nil
}

// Insert upserts points and waits for the write to be applied.
func (ix *Index) Insert(ctx context.Context, points []core.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: ix.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         toPointStructs(points),
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search queries the collection by cosine similarity.
func (ix *Index) Search(ctx context.Context, query []float32, opts vector.SearchOptions) ([]vector.Hit, error) {
	req := &qdrant.QueryPoints{
		CollectionName: ix.collection,
		Query:          qdrant.NewQuery(query...),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if opts.Limit > 0 {
		req.Limit = qdrant.PtrOf(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		req.Offset = qdrant.PtrOf(uint64(opts.Offset))
	}
	if opts.MinScore > 0 {
		req.ScoreThreshold = qdrant.PtrOf(opts.MinScore)
	}
	scored, err := ix.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ix.collection, err)
	}
	return hitsFromScored(scored), nil
}

// Close closes the gRPC connection.
func (ix *Index) Close() error {
	return ix.client.Close()
}

func toPointStructs(points []core.VectorPoint) []*qdrant.PointStruct {
	out := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		out[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.Id),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				vector.SourceIDField: string(p.SourceId),
			}),
		}
	}
	return out
}

func hitsFromScored(scored []*qdrant.ScoredPoint) []vector.Hit {
	hits := make([]vector.Hit, 0, len(scored))
	for _, sp := range scored {
		source := sp.GetPayload()[vector.SourceIDField].GetStringValue()
		if source == "" {
			continue
		}
		hits = append(hits, vector.Hit{
			PointId:  sp.GetId().GetUuid(),
			SourceId: core.ID(source),
			Score:    sp.GetScore(),
		})
	}
	return hits
}

func isAlreadyExists(err error) bool {
	if status.Code(err) == codes.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
