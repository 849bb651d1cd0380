package core

import (
	"errors"
	"testing"
)

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name    string
		page    *Page
		wantErr error
	}{
		{
			name:    "valid page",
			page:    NewPage("https://example.com/"),
			wantErr: nil,
		},
		{
			name:    "nil page",
			page:    nil,
			wantErr: ErrInvalidPage,
		},
		{
			name:    "empty url",
			page:    &Page{Id: PageID("")},
			wantErr: ErrEmptyURL,
		},
		{
			name:    "id mismatch",
			page:    &Page{Id: "abc", URL: "https://example.com/"},
			wantErr: ErrIDMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePage(tt.page)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePage() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateContentRecord(t *testing.T) {
	valid, err := NewContentRecord("https://example.com/", "line", "line")
	if err != nil {
		t.Fatalf("NewContentRecord() error = %v", err)
	}

	tests := []struct {
		name    string
		record  *ContentRecord
		wantErr error
	}{
		{name: "valid record", record: valid},
		{name: "nil record", record: nil, wantErr: ErrInvalidContentRecord},
		{name: "missing id", record: &ContentRecord{PageId: "p", TextGzip: []byte{1}}, wantErr: ErrEmptyID},
		{name: "missing page", record: &ContentRecord{Id: "c", TextGzip: []byte{1}}, wantErr: ErrEmptyID},
		{name: "missing text", record: &ContentRecord{Id: "c", PageId: "p"}, wantErr: ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContentRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateContentRecord() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateContentRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLedgerEntry(t *testing.T) {
	ref := ObjectRef("crawl-data/x.warc.wet.gz")
	if err := ValidateLedgerEntry(NewLedgerEntry(ref)); err != nil {
		t.Errorf("ValidateLedgerEntry() unexpected error = %v", err)
	}
	if err := ValidateLedgerEntry(&LedgerEntry{}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("ValidateLedgerEntry() error = %v, want %v", err, ErrEmptyID)
	}
	if err := ValidateLedgerEntry(&LedgerEntry{Id: "x", Ref: ref}); !errors.Is(err, ErrIDMismatch) {
		t.Errorf("ValidateLedgerEntry() error = %v, want %v", err, ErrIDMismatch)
	}
}
