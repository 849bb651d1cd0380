package core

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// CompressText gzips a line of page text for storage.
func CompressText(text string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(text)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressText reverses CompressText.
func DecompressText(data []byte) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewContentRecord builds the record for a qualifying line.
func NewContentRecord(url, line, normalized string) (*ContentRecord, error) {
	gz, err := CompressText(line)
	if err != nil {
		return nil, err
	}
	return &ContentRecord{
		Id:       ContentID(url, normalized),
		PageId:   PageID(url),
		TextGzip: gz,
	}, nil
}
