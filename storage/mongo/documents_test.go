package mongo

import (
	"testing"

	"github.com/poiesic/crawlvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPageDoc_BSONFieldNames(t *testing.T) {
	page := core.NewPage("https://example.com/")

	raw, err := bson.Marshal(toPageDoc(page))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, string(page.Id), m["id"])
	assert.Equal(t, "https://example.com/", m["url"])

	var doc pageDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, page, doc.toPage())
}

func TestContentDoc_BSONFieldNames(t *testing.T) {
	record, err := core.NewContentRecord("https://example.com/", "Line of text.", "Line of text")
	require.NoError(t, err)

	raw, err := bson.Marshal(toContentDoc(record))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Contains(t, m, "id")
	assert.Contains(t, m, "url_id")
	assert.Contains(t, m, "text_gzip")

	var doc contentDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, record, doc.toContentRecord())
}

func TestCrawlFileDoc(t *testing.T) {
	entry := core.NewLedgerEntry("crawl-data/x.warc.wet.gz")
	doc := toCrawlFileDoc(entry)
	assert.Equal(t, string(entry.Id), doc.ID)
	assert.Equal(t, "crawl-data/x.warc.wet.gz", doc.Ref)
}

func TestOrderContents(t *testing.T) {
	docs := []contentDoc{
		{ID: "b", URLID: "p"},
		{ID: "a", URLID: "p"},
	}
	records := orderContents([]core.ID{"a", "missing", "b"}, docs)
	require.Len(t, records, 2)
	assert.Equal(t, core.ID("a"), records[0].Id)
	assert.Equal(t, core.ID("b"), records[1].Id)
}
