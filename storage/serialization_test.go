package storage

import (
	"testing"

	"github.com/poiesic/crawlvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalPage(t *testing.T) {
	page := core.NewPage("https://example.com/some/path?q=1")

	data := MarshalPage(page)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalPage(data)
	require.NoError(t, err)
	assert.Equal(t, page, decoded)
}

func TestMarshalUnmarshalContentRecord(t *testing.T) {
	record, err := core.NewContentRecord("https://example.com/", "A line, of text!", "A line of text")
	require.NoError(t, err)

	decoded, err := UnmarshalContentRecord(MarshalContentRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record.Id, decoded.Id)
	assert.Equal(t, record.PageId, decoded.PageId)
	assert.Equal(t, record.TextGzip, decoded.TextGzip)

	text, err := core.DecompressText(decoded.TextGzip)
	require.NoError(t, err)
	assert.Equal(t, "A line, of text!", text)
}

func TestMarshalUnmarshalLedgerEntry(t *testing.T) {
	entry := core.NewLedgerEntry("crawl-data/CC-MAIN-2023-50/segments/x/wet/y.warc.wet.gz")

	decoded, err := UnmarshalLedgerEntry(MarshalLedgerEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := UnmarshalPage([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalContentRecord([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalLedgerEntry([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
