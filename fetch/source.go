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


package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens remote objects by key.
type Source interface {
	// Open returns the raw (still compressed) object body.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// HTTPSource reads objects below a base URL.
type HTTPSource struct {
	base string
	hc   *http.Client
}

// NewHTTPSource returns a source for base, e.g. "https://data.commoncrawl.org/".
// There is no overall request timeout because archive objects are large;
// cancel ctx to abort a transfer.
func NewHTTPSource(base string) (*HTTPSource, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, base)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &HTTPSource{
		base: base,
		hc: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}, nil
}

// Open issues a GET for base+key.
func (s *HTTPSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+strings.TrimPrefix(key, "/"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if resp.StatusCode/100 != 2 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w %d for %s", ErrUnexpectedStatus, resp.StatusCode, key)
	}
	return resp.Body, nil
}

// objectGetter is the subset of the S3 client used by S3Source.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads objects from a bucket.
type S3Source struct {
	client objectGetter
	bucket string
	prefix string
}

// NewS3Source loads the default AWS configuration chain and returns a source
// for bucket. Keys are joined to prefix.
func NewS3Source(ctx context.Context, bucket, prefix, region string) (*S3Source, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: empty bucket", ErrUnsupportedSource)
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Source{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

// Open fetches the object at prefix+key.
func (s *S3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full := s.prefix + strings.TrimPrefix(key, "/")
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", s.bucket, full, err)
	}
	return out.Body, nil
}

// DefaultS3Region is the region of the public crawl bucket.
const DefaultS3Region = "us-east-1"

// NewSource picks a Source for base: "s3://bucket/prefix" selects S3, any
// http(s) URL selects HTTP.
func NewSource(ctx context.Context, base string) (Source, error) {
	if rest, ok := strings.CutPrefix(base, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return NewS3Source(ctx, bucket, prefix, DefaultS3Region)
	}
	return NewHTTPSource(base)
}
