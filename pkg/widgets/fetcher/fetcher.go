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

// Package fetcher retrieves rendered widget HTML from asset storage.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrNotText is returned when an asset body is not valid UTF-8 text.
var ErrNotText = errors.New("asset is not valid UTF-8 text")

// Fetcher returns the HTML stored at an asset path such as "/hello-world".
// Implementations must be safe for concurrent use and must not cache:
// every call reflects the current contents of asset storage.
type Fetcher interface {
	Fetch(ctx context.Context, assetPath string) (string, error)
}

// Func adapts an ordinary function to the Fetcher interface.
type Func func(ctx context.Context, assetPath string) (string, error)

// Fetch calls f(ctx, assetPath).
func (f Func) Fetch(ctx context.Context, assetPath string) (string, error) {
	return f(ctx, assetPath)
}

// StatusError reports a non-2xx response from asset storage.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.Path, e.Status)
}

// NotFound reports whether asset storage answered 404.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == 404
}

func decodeText(assetPath string, body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", fmt.Errorf("fetch %s: %w", assetPath, ErrNotText)
	}
	return string(body), nil
}
