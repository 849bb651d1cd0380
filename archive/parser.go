package archive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	defaultMaxLineSize = 16 * 1024 * 1024
	// cancellation is checked every ctxCheckInterval lines
	ctxCheckInterval = 1024
)

// Handler receives parser events in file order.
// Returning an error aborts the parse.
type Handler interface {
	HandlePage(ctx context.Context, url string) error
	HandleContent(ctx context.Context, url, line, normalized string) error
}

// Stats summarises one parse.
type Stats struct {
	Lines    int
	Pages    int
	Contents int
}

// Parser drives Step over a stream of lines.
type Parser struct {
	maxLineSize int
	logger      *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxLineSize sets the longest line the parser accepts.
func WithMaxLineSize(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxLineSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		maxLineSize: defaultMaxLineSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "archive-parser")
	return p
}

// Parse reads r to the end, calling h synchronously for every event.
// Trailing carriage returns are stripped from lines.
func (p *Parser) Parse(ctx context.Context, r io.Reader, h Handler) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, p.maxLineSize)), p.maxLineSize)

	m := NewMachine()
	for scanner.Scan() {
		stats.Lines++
		if stats.Lines%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")

		var events []Event
		m, events = Step(m, line)
		for _, ev := range events {
			switch ev.Kind {
			case PageFound:
				stats.Pages++
				if err := h.HandlePage(ctx, ev.URL); err != nil {
					return stats, fmt.Errorf("page %s: %w", ev.URL, err)
				}
			case ContentFound:
				stats.Contents++
				if err := h.HandleContent(ctx, ev.URL, ev.Line, ev.Normalized); err != nil {
					return stats, fmt.Errorf("content on %s: %w", ev.URL, err)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading archive at line %d: %w", stats.Lines+1, err)
	}

	p.logger.Debug("parsed archive", "lines", stats.Lines, "pages", stats.Pages, "contents", stats.Contents)
	return stats, nil
}

// ParseEvents parses r and collects every event. Intended for small inputs.
func ParseEvents(r io.Reader) ([]Event, error) {
	var events []Event
	_, err := NewParser().Parse(context.Background(), r, eventCollector{events: &events})
	return events, err
}

type eventCollector struct {
	events *[]Event
}

func (c eventCollector) HandlePage(_ context.Context, url string) error {
	*c.events = append(*c.events, Event{Kind: PageFound, URL: url})
	return nil
}

func (c eventCollector) HandleContent(_ context.Context, url, line, normalized string) error {
	*c.events = append(*c.events, Event{Kind: ContentFound, URL: url, Line: line, Normalized: normalized})
	return nil
}
