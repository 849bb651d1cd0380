package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %s vs %s", id1, id2)
			}
			if len(id1) != idSize*2 {
				t.Errorf("IDFromContent() length = %d, want %d", len(id1), idSize*2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestContentID_IncludesURL(t *testing.T) {
	normalized := "the same sentence appearing on two different pages of the crawl"
	a := ContentID("https://a.example/", normalized)
	b := ContentID("https://b.example/", normalized)
	if a == b {
		t.Errorf("ContentID() should differ across pages")
	}
	if a != IDFromContent("https://a.example/"+normalized) {
		t.Errorf("ContentID() should hash url followed by normalized text")
	}
}

func TestObjectRef_ID(t *testing.T) {
	ref := ObjectRef("crawl-data/CC-MAIN-2023-50/segments/1/wet/a.warc.wet.gz")
	if ref.ID() != IDFromContent(string(ref)) {
		t.Errorf("ObjectRef.ID() should hash the reference")
	}
	entry := NewLedgerEntry(ref)
	if entry.Id != ref.ID() || entry.Ref != ref {
		t.Errorf("NewLedgerEntry() = %+v", entry)
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage("https://example.com/x")
	if page.Id != PageID("https://example.com/x") {
		t.Errorf("NewPage() id mismatch")
	}
}

func TestCompressText_RoundTrip(t *testing.T) {
	line := "Some line of text, with punctuation! And ünïcode."
	gz, err := CompressText(line)
	if err != nil {
		t.Fatalf("CompressText() error = %v", err)
	}
	if len(gz) < 2 || gz[0] != 0x1f || gz[1] != 0x8b {
		t.Fatalf("CompressText() did not produce a gzip stream")
	}
	out, err := DecompressText(gz)
	if err != nil {
		t.Fatalf("DecompressText() error = %v", err)
	}
	if out != line {
		t.Errorf("DecompressText() = %q, want %q", out, line)
	}
}

func TestNewContentRecord(t *testing.T) {
	url := "https://example.com/"
	rec, err := NewContentRecord(url, "Hello, world!", "Hello world")
	if err != nil {
		t.Fatalf("NewContentRecord() error = %v", err)
	}
	if rec.Id != ContentID(url, "Hello world") {
		t.Errorf("record id should use normalized text")
	}
	if rec.PageId != PageID(url) {
		t.Errorf("record page id mismatch")
	}
	text, err := DecompressText(rec.TextGzip)
	if err != nil {
		t.Fatalf("DecompressText() error = %v", err)
	}
	if text != "Hello, world!" {
		t.Errorf("stored text should be the original line, got %q", text)
	}
}
