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
	"os"

	"github.com/poiesic/crawlvec/archive"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage"
)

// FileStats counts what one archive object contributed.
type FileStats struct {
	Lines      int
	Pages      int
	Contents   int
	Vectors    int // chunks stored in the vector index
	VectorLoss int // qualifying lines whose vectors were abandoned
}

func (s *FileStats) add(o FileStats) {
	s.Lines += o.Lines
	s.Pages += o.Pages
	s.Contents += o.Contents
	s.Vectors += o.Vectors
	s.VectorLoss += o.VectorLoss
}

// processor ingests one archive object end to end.
type processor interface {
	// process retrieves, parses and checkpoints ref.
	process(ctx context.Context, ref core.ObjectRef) (FileStats, error)
}

// fileProcessor is the production processor.
type fileProcessor struct {
	store    storage.Store
	fetcher  Fetcher
	upserter *VectorUpserter
	parser   *archive.Parser
	logger   *slog.Logger
}

var _ processor = (*fileProcessor)(nil)

func newFileProcessor(store storage.Store, fetcher Fetcher, upserter *VectorUpserter, parser *archive.Parser, logger *slog.Logger) *fileProcessor {
	return &fileProcessor{
		store:    store,
		fetcher:  fetcher,
		upserter: upserter,
		parser:   parser,
		logger:   logger.With("processor", "file"),
	}
}

// process retrieves ref, parses it, writes the ledger entry and deletes the
// scratch file. On error the scratch file is kept and no entry is written.
func (fp *fileProcessor) process(ctx context.Context, ref core.ObjectRef) (FileStats, error) {
	path, err := fp.fetcher.Retrieve(ctx, ref)
	if err != nil {
		return FileStats{}, err
	}

	stats, err := fp.parse(ctx, path)
	if err != nil {
		return stats, fmt.Errorf("parse %s: %w", ref, err)
	}

	if err := fp.store.PutEntry(ctx, core.NewLedgerEntry(ref)); err != nil {
		return stats, fmt.Errorf("ledger %s: %w", ref, err)
	}

	if err := fp.fetcher.Remove(path); err != nil {
		fp.logger.Warn("could not remove scratch file", "path", path, "err", err)
	}
	return stats, nil
}

func (fp *fileProcessor) parse(ctx context.Context, path string) (FileStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileStats{}, err
	}
	defer file.Close()

	h := &lineHandler{store: fp.store, upserter: fp.upserter}
	ps, err := fp.parser.Parse(ctx, file, h)
	h.stats.Lines = ps.Lines
	return h.stats, err
}

// lineHandler persists parser events for one file.
type lineHandler struct {
	store    storage.Store
	upserter *VectorUpserter
	stats    FileStats
}

var _ archive.Handler = (*lineHandler)(nil)

// HandlePage upserts the page before any of its content lines.
func (h *lineHandler) HandlePage(ctx context.Context, url string) error {
	if err := h.store.UpsertPages(ctx, core.NewPage(url)); err != nil {
		return err
	}
	h.stats.Pages++
	return nil
}

// HandleContent embeds the original line and then persists its record,
// whether or not vectors were stored.
func (h *lineHandler) HandleContent(ctx context.Context, url, line, normalized string) error {
	record, err := core.NewContentRecord(url, line, normalized)
	if err != nil {
		return err
	}

	chunks := h.upserter.Upsert(ctx, line, record.Id)
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		h.stats.VectorLoss++
	}
	h.stats.Vectors += len(chunks)

	if err := h.store.UpsertContents(ctx, record); err != nil {
		return err
	}
	h.stats.Contents++
	return nil
}
