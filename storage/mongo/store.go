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


// Package mongo implements storage.Store on MongoDB.
//
// The collection layout ("urls", "contents", "crawl_files", each with a
// unique index on "id") is shared with the search front end.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	urlsCollection       = "urls"
	contentsCollection   = "contents"
	crawlFilesCollection = "crawl_files"

	defaultConnectTimeout = 30 * time.Second
	defaultScanBatchSize  = 100
)

// Store implements storage.Store for MongoDB.
type Store struct {
	client     *mongo.Client
	urls       *mongo.Collection
	contents   *mongo.Collection
	crawlFiles *mongo.Collection
	logger     *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to MongoDB at uri, selects dbName and ensures the unique
// id indexes exist.
func Open(ctx context.Context, uri, dbName string, opts ...Option) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:     client,
		urls:       db.Collection(urlsCollection),
		contents:   db.Collection(contentsCollection),
		crawlFiles: db.Collection(crawlFilesCollection),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mongo-store")

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for _, coll := range []*mongo.Collection{s.urls, s.contents, s.crawlFiles} {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("create index on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// upsertByID writes docs keyed by their id field. A concurrent writer may win
// the insert race on the unique index; the write is then retried as an update.
func (s *Store) upsertByID(ctx context.Context, coll *mongo.Collection, ids []string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(docs))
	for i := range docs {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": ids[i]}).
			SetUpdate(bson.M{"$set": docs[i]}).
			SetUpsert(true)
	}

	bulk := options.BulkWrite().SetOrdered(false)
	_, err := coll.BulkWrite(ctx, models, bulk)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		s.logger.Debug("duplicate key on upsert, retrying", "collection", coll.Name())
		_, err = coll.BulkWrite(ctx, models, bulk)
	}
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", coll.Name(), err)
	}
	return nil
}

// UpsertPages writes pages by ID.
func (s *Store) UpsertPages(ctx context.Context, pages ...*core.Page) error {
	ids := make([]string, len(pages))
	docs := make([]any, len(pages))
	for i, page := range pages {
		if err := core.ValidatePage(page); err != nil {
			return err
		}
		ids[i] = string(page.Id)
		docs[i] = toPageDoc(page)
	}
	return s.upsertByID(ctx, s.urls, ids, docs)
}

// GetPage retrieves a single page by ID.
func (s *Store) GetPage(ctx context.Context, id core.ID) (*core.Page, error) {
	var doc pageDoc
	err := s.urls.FindOne(ctx, bson.M{"id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toPage(), nil
}

// UpsertContents writes content records by ID.
func (s *Store) UpsertContents(ctx context.Context, records ...*core.ContentRecord) error {
	ids := make([]string, len(records))
	docs := make([]any, len(records))
	for i, record := range records {
		if err := core.ValidateContentRecord(record); err != nil {
			return err
		}
		ids[i] = string(record.Id)
		docs[i] = toContentDoc(record)
	}
	return s.upsertByID(ctx, s.contents, ids, docs)
}

// GetContent retrieves a single content record by ID.
func (s *Store) GetContent(ctx context.Context, id core.ID) (*core.ContentRecord, error) {
	var doc contentDoc
	err := s.contents.FindOne(ctx, bson.M{"id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toContentRecord(), nil
}

// GetContents retrieves the content records that exist among ids, in order.
func (s *Store) GetContents(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error) {
	if len(ids) == 0 {
		return []*core.ContentRecord{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	cursor, err := s.contents.Find(ctx, bson.M{"id": bson.M{"$in": keys}})
	if err != nil {
		return nil, err
	}
	var docs []contentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return orderContents(ids, docs), nil
}

// CountContents returns the number of stored content records.
func (s *Store) CountContents(ctx context.Context) (int, error) {
	n, err := s.contents.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// ScanContents walks the contents collection in id order with one cursor.
func (s *Store) ScanContents(ctx context.Context, batchSize int, fn func([]*core.ContentRecord) error) error {
	if batchSize <= 0 {
		batchSize = defaultScanBatchSize
	}
	cursor, err := s.contents.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "id", Value: 1}}).SetBatchSize(int32(batchSize)))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	batch := make([]*core.ContentRecord, 0, batchSize)
	for cursor.Next(ctx) {
		var doc contentDoc
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		batch = append(batch, doc.toContentRecord())
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*core.ContentRecord, 0, batchSize)
		}
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// HasEntry reports whether an archive object has been fully processed.
func (s *Store) HasEntry(ctx context.Context, id core.ID) (bool, error) {
	err := s.crawlFiles.FindOne(ctx, bson.M{"id": string(id)}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PutEntry marks an archive object as processed.
func (s *Store) PutEntry(ctx context.Context, entry *core.LedgerEntry) error {
	if err := core.ValidateLedgerEntry(entry); err != nil {
		return err
	}
	return s.upsertByID(ctx, s.crawlFiles, []string{string(entry.Id)}, []any{toCrawlFileDoc(entry)})
}
