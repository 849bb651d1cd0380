package fetch

import "errors"

var (
	// ErrUnexpectedStatus is returned for non-2xx HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnsupportedSource is returned for a base location that is neither
	// http(s) nor s3.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrSourceRequired is returned when a Fetcher is built without a Source.
	ErrSourceRequired = errors.New("source is required")
)
