// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultMaxAssetSize bounds the size of a fetched asset body.
const DefaultMaxAssetSize = 8 * 1024 * 1024

// HTTPFetcher fetches assets with GET <base><path>.
type HTTPFetcher struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
	maxSize int64
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client used for fetches. A nil client keeps
// the default.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets a per-request timeout. It applies to a copy of the
// client, whichever option order is used.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.timeout = d }
}

// WithMaxAssetSize bounds the response body size.
func WithMaxAssetSize(n int64) HTTPOption {
	return func(f *HTTPFetcher) { f.maxSize = n }
}

// NewHTTPFetcher creates a fetcher rooted at baseURL.
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid asset base URL %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	f := &HTTPFetcher{
		base:    u,
		client:  &http.Client{},
		maxSize: DefaultMaxAssetSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.timeout > 0 {
		c := *f.client
		c.Timeout = f.timeout
		f.client = &c
	}
	return f, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, assetPath string) (string, error) {
	target := *f.base
	target.Path = f.base.Path + "/" + strings.TrimPrefix(assetPath, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", assetPath, err)
	}
	req.Header.Set("Accept", "text/html")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", assetPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Path: assetPath, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", assetPath, err)
	}
	if int64(len(body)) > f.maxSize {
		return "", fmt.Errorf("fetch %s: asset exceeds %d bytes", assetPath, f.maxSize)
	}
	return decodeText(assetPath, body)
}
