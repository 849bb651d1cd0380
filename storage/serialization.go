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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/poiesic/crawlvec/core"
)

// MarshalPage serializes a Page to bytes.
func MarshalPage(page *core.Page) []byte {
	buf := make([]byte, ord.String.Size(string(page.Id))+ord.String.Size(page.URL))
	n := ord.String.Marshal(string(page.Id), buf)
	ord.String.Marshal(page.URL, buf[n:])
	return buf
}

// UnmarshalPage deserializes a Page from bytes.
func UnmarshalPage(data []byte) (*core.Page, error) {
	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: page id: %w", ErrSerializationFailed, err)
	}
	url, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: page url: %w", ErrSerializationFailed, err)
	}
	return &core.Page{Id: core.ID(id), URL: url}, nil
}

// MarshalContentRecord serializes a ContentRecord to bytes.
func MarshalContentRecord(record *core.ContentRecord) []byte {
	size := ord.String.Size(string(record.Id)) +
		ord.String.Size(string(record.PageId)) +
		ord.ByteSlice.Size(record.TextGzip)
	buf := make([]byte, size)
	n := ord.String.Marshal(string(record.Id), buf)
	n += ord.String.Marshal(string(record.PageId), buf[n:])
	ord.ByteSlice.Marshal(record.TextGzip, buf[n:])
	return buf
}

// UnmarshalContentRecord deserializes a ContentRecord from bytes.
func UnmarshalContentRecord(data []byte) (*core.ContentRecord, error) {
	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: content id: %w", ErrSerializationFailed, err)
	}
	offset := n
	pageID, n, err := ord.String.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: content page id: %w", ErrSerializationFailed, err)
	}
	offset += n
	text, _, err := ord.ByteSlice.Unmarshal(data[offset:])
	if err != nil {
		return nil, fmt.Errorf("%w: content text: %w", ErrSerializationFailed, err)
	}
	return &core.ContentRecord{Id: core.ID(id), PageId: core.ID(pageID), TextGzip: text}, nil
}

// MarshalLedgerEntry serializes a LedgerEntry to bytes.
func MarshalLedgerEntry(entry *core.LedgerEntry) []byte {
	buf := make([]byte, ord.String.Size(string(entry.Id))+ord.String.Size(string(entry.Ref)))
	n := ord.String.Marshal(string(entry.Id), buf)
	ord.String.Marshal(string(entry.Ref), buf[n:])
	return buf
}

// UnmarshalLedgerEntry deserializes a LedgerEntry from bytes.
func UnmarshalLedgerEntry(data []byte) (*core.LedgerEntry, error) {
	id, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger id: %w", ErrSerializationFailed, err)
	}
	ref, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: ledger ref: %w", ErrSerializationFailed, err)
	}
	return &core.LedgerEntry{Id: core.ID(id), Ref: core.ObjectRef(ref)}, nil
}
