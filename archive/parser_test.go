package archive

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sixTokenLine has 6 tokens and a normalized length of 60.
const sixTokenLine = "aaaaaaaaa bbbbbbbbb ccccccccc ddddddddd eeeeeeeee ffffffffff"

// threeTokenLine is long but has only 3 tokens.
const threeTokenLine = "aaaaaaaaaaaaaaaaaaaaaaaaa bbbbbbbbbbbbbbbbbbbbbbbbbbbbbb ccccccccccccccccccccccccc"

func wetFile(records ...string) string {
	warcinfo := strings.Join([]string{
		"WARC/1.0",
		"WARC-Type: warcinfo",
		"WARC-Date: 2023-12-12T00:00:00Z",
		"Content-Type: application/warc-fields",
		"Content-Length: 90",
		"",
		"Software-Info: ia-web-commons and some more words to make this line long enough",
		"",
	}, "\n")
	return warcinfo + "\n" + strings.Join(records, "\n")
}

func conversionRecord(uri string, body ...string) string {
	lines := []string{
		"WARC/1.0",
		"WARC-Type: conversion",
		"WARC-Target-URI: " + uri,
		"WARC-Date: 2023-12-01T10:00:00Z",
		"Content-Type: text/plain",
		"Content-Length: 1234",
		"",
	}
	lines = append(lines, body...)
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func TestSixTokenLineFixture(t *testing.T) {
	assert.Equal(t, 6, TokenCount(sixTokenLine))
	assert.Len(t, Normalize(sixTokenLine), 60)
	assert.Equal(t, 3, TokenCount(threeTokenLine))
	assert.Greater(t, len(Normalize(threeTokenLine)), MinNormalizedLength)
}

func TestParse_QualifyingLine(t *testing.T) {
	input := wetFile(conversionRecord("https://example.com/a", sixTokenLine))

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, Event{Kind: PageFound, URL: "https://example.com/a"}, events[0])
	assert.Equal(t, ContentFound, events[1].Kind)
	assert.Equal(t, "https://example.com/a", events[1].URL)
	assert.Equal(t, sixTokenLine, events[1].Line)
	assert.Equal(t, sixTokenLine, events[1].Normalized)
}

func TestParse_ShortLineRejected(t *testing.T) {
	input := wetFile(conversionRecord("https://example.com/b", threeTokenLine))

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, PageFound, events[0].Kind)
}

func TestParse_MultipleRecords(t *testing.T) {
	prose := "The quick brown fox jumps over the lazy dog, again and again, all day long."
	input := wetFile(
		conversionRecord("https://example.com/1", "Menu", prose, "Home | About | Contact"),
		conversionRecord("https://example.com/2", prose, sixTokenLine),
	)

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)

	var kinds []EventKind
	var urls []string
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
		urls = append(urls, ev.URL)
	}
	assert.Equal(t, []EventKind{PageFound, ContentFound, PageFound, ContentFound, ContentFound}, kinds)
	assert.Equal(t, []string{
		"https://example.com/1", "https://example.com/1",
		"https://example.com/2", "https://example.com/2", "https://example.com/2",
	}, urls)
	assert.Equal(t, "The quick brown fox jumps over the lazy dog again and again all day long", events[1].Normalized)
}

func TestParse_CRLF(t *testing.T) {
	input := wetFile(conversionRecord("https://example.com/crlf", sixTokenLine))
	input = strings.ReplaceAll(input, "\n", "\r\n")

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "https://example.com/crlf", events[0].URL)
	assert.Equal(t, sixTokenLine, events[1].Line)
}

func TestParse_FirstRecordNeedsBlankLine(t *testing.T) {
	// a conversion record on the first line is not recognised
	input := conversionRecord("https://example.com/first", sixTokenLine) + "\n" +
		conversionRecord("https://example.com/second", sixTokenLine)

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "https://example.com/second", events[0].URL)
}

func TestParse_RecordWithoutTargetURI(t *testing.T) {
	input := wetFile(strings.Join([]string{
		"WARC/1.0",
		"WARC-Type: conversion",
		"Content-Length: 100",
		"",
		sixTokenLine,
		"",
	}, "\n"))

	events, err := ParseEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 1, "no page event, but the line still qualifies")
	assert.Equal(t, ContentFound, events[0].Kind)
	assert.Empty(t, events[0].URL)
	assert.Equal(t, sixTokenLine, events[0].Line)
}

func TestParse_EmptyInput(t *testing.T) {
	events, err := ParseEvents(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
}

type failingHandler struct {
	pages int
}

func (f *failingHandler) HandlePage(context.Context, string) error {
	f.pages++
	return nil
}

func (f *failingHandler) HandleContent(context.Context, string, string, string) error {
	return errors.New("store down")
}

func TestParse_HandlerErrorAborts(t *testing.T) {
	input := wetFile(
		conversionRecord("https://example.com/1", sixTokenLine),
		conversionRecord("https://example.com/2", sixTokenLine),
	)
	h := &failingHandler{}
	stats, err := NewParser().Parse(context.Background(), strings.NewReader(input), h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
	assert.Equal(t, 1, h.pages, "parse stops at the first failure")
	assert.Equal(t, 1, stats.Contents)
}

func TestParse_LineTooLong(t *testing.T) {
	input := wetFile(conversionRecord("https://example.com/1", strings.Repeat("x", 2048)))
	_, err := NewParser(WithMaxLineSize(1024)).Parse(context.Background(), strings.NewReader(input), &failingHandler{})
	require.Error(t, err)
}

func TestParse_Canceled(t *testing.T) {
	var body []string
	for i := 0; i < 5000; i++ {
		body = append(body, "x")
	}
	input := wetFile(conversionRecord("https://example.com/1", body...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewParser().Parse(ctx, strings.NewReader(input), &failingHandler{})
	require.ErrorIs(t, err, context.Canceled)
}
