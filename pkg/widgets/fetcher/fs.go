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
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FSFetcher serves assets from a file system, e.g. a build output
// directory or an embedded dist tree.
//
// An asset path resolves to the first existing file among
// "<p>", "<p>/index.html" and "<p>.html".
type FSFetcher struct {
	fsys fs.FS
}

// NewFSFetcher returns a fetcher reading from fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

// Fetch implements Fetcher.
func (f *FSFetcher) Fetch(ctx context.Context, assetPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimPrefix(path.Clean("/"+assetPath), "/")
	for _, candidate := range candidates(name) {
		data, err := fs.ReadFile(f.fsys, candidate)
		if err == nil {
			return decodeText(assetPath, data)
		}
		if !errors.Is(err, fs.ErrNotExist) && !isDirError(f.fsys, candidate) {
			return "", fmt.Errorf("fetch %s: %w", assetPath, err)
		}
	}
	return "", fmt.Errorf("fetch %s: %w", assetPath, fs.ErrNotExist)
}

func candidates(name string) []string {
	if name == "" {
		return []string{"index.html"}
	}
	return []string{name, path.Join(name, "index.html"), name + ".html"}
}

func isDirError(fsys fs.FS, name string) bool {
	info, err := fs.Stat(fsys, name)
	return err == nil && info.IsDir()
}
