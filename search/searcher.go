package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage"
	"github.com/poiesic/crawlvec/vector"
)

const (
	// MaxQueryLength is the number of characters of a query that are embedded.
	MaxQueryLength = 500

	// DefaultMinScore is the lowest similarity a hit may have.
	DefaultMinScore float32 = 0.4

	// DefaultLimit is used when a non-positive limit is requested.
	DefaultLimit = 10
)

// Result is one matching content line.
type Result struct {
	SourceID core.ID
	URL      string
	Text     string
	Score    float32
	// Verbatim is set when the line contains every non-stop word of the query.
	Verbatim bool
}

// Searcher answers free-text queries over ingested content.
type Searcher struct {
	pages    storage.PageRepository
	contents storage.ContentRepository
	index    vector.Index
	embedder ai.Embedder
	minScore float32
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore sets the similarity threshold for hits.
// Default is 0.4.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		s.minScore = score
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	pages storage.PageRepository,
	contents storage.ContentRepository,
	index vector.Index,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if pages == nil {
		return nil, ErrPageRepositoryRequired
	}
	if contents == nil {
		return nil, ErrContentRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		pages:    pages,
		contents: contents,
		index:    index,
		embedder: embedder,
		minScore: DefaultMinScore,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns content lines similar to query, best match first.
// limit and offset page through the index hits.
func (s *Searcher) Search(ctx context.Context, query string, limit, offset int) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, query, limit, offset, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, limit, offset int, monitor SearchMonitor) ([]*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	query = truncateQuery(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}

	hits, err := s.index.Search(ctx, embedding, vector.SearchOptions{
		Limit:    limit,
		Offset:   offset,
		MinScore: s.minScore,
	})
	if err != nil {
		s.logger.Error("error querying vector index", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(hits)

	// Several chunks of one line can match; the first hit carries the best score.
	ids := make([]core.ID, 0, len(hits))
	scores := make(map[core.ID]float32, len(hits))
	for _, hit := range hits {
		if hit.SourceId == "" {
			continue
		}
		if _, seen := scores[hit.SourceId]; seen {
			continue
		}
		scores[hit.SourceId] = hit.Score
		ids = append(ids, hit.SourceId)
	}
	if len(ids) == 0 {
		monitor.Finish(nil)
		return []*Result{}, nil
	}

	records, err := s.contents.GetContents(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving content records", "err", err)
		return nil, err
	}
	monitor.AfterRecordRetrieval(records)

	results := make([]*Result, 0, len(records))
	for _, record := range records {
		page, err := s.pages.GetPage(ctx, record.PageId)
		if errors.Is(err, storage.ErrNotFound) {
			monitor.MissingPage(record)
			s.logger.Warn("content record has no page", "id", record.Id, "page", record.PageId)
			continue
		}
		if err != nil {
			return nil, err
		}
		text, err := core.DecompressText(record.TextGzip)
		if err != nil {
			s.logger.Warn("skipping undecodable content record", "id", record.Id, "err", err)
			continue
		}
		results = append(results, &Result{
			SourceID: record.Id,
			URL:      page.URL,
			Text:     text,
			Score:    scores[record.Id],
			Verbatim: containsAllQueryWords(text, query),
		})
	}

	monitor.Finish(results)
	return results, nil
}

// truncateQuery keeps the first MaxQueryLength characters of query.
func truncateQuery(query string) string {
	if utf8.RuneCountInString(query) <= MaxQueryLength {
		return query
	}
	runes := []rune(query)
	return string(runes[:MaxQueryLength])
}
