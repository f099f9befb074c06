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

// Package manifest loads the route manifest produced by the widget build.
//
// A manifest maps route keys to the content-addressed widget each route was
// built into:
//
//	{
//	  "hello-world": {
//	    "resourceURI": "abc123",
//	    "resourceName": "Hello World",
//	    "originalUrlPath": "/hello-world"
//	  }
//	}
//
// JSON and YAML documents are both accepted. Entry order follows the order of
// keys in the source document.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a manifest document has no content.
var ErrEmptyDocument = errors.New("manifest document is empty")

// RouteEntry describes one built widget route.
type RouteEntry struct {
	// RouteKey is the logical route name, e.g. "hello-world".
	RouteKey string `json:"-" yaml:"-"`
	// ResourceURI is the content-addressed widget id.
	ResourceURI string `json:"resourceURI" yaml:"resourceURI"`
	// ResourceName is the human-readable resource name.
	ResourceName string `json:"resourceName" yaml:"resourceName"`
	// OriginalURLPath is the path of the rendered asset in asset storage.
	OriginalURLPath string `json:"originalUrlPath" yaml:"originalUrlPath"`
}

// Manifest is an ordered, immutable set of route entries.
type Manifest struct {
	entries []RouteEntry
	index   map[string]int
}

// New builds a manifest from entries in the given order.
// Route keys must be non-empty and unique.
func New(entries ...RouteEntry) (*Manifest, error) {
	m := &Manifest{
		entries: make([]RouteEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.RouteKey == "" {
			return nil, fmt.Errorf("route entry with resourceURI %q has no route key", e.ResourceURI)
		}
		if _, dup := m.index[e.RouteKey]; dup {
			return nil, fmt.Errorf("duplicate route key %q", e.RouteKey)
		}
		if e.ResourceURI == "" {
			return nil, fmt.Errorf("route %q: resourceURI is required", e.RouteKey)
		}
		if e.OriginalURLPath == "" {
			return nil, fmt.Errorf("route %q: originalUrlPath is required", e.RouteKey)
		}
		if e.ResourceName == "" {
			e.ResourceName = e.RouteKey
		}
		m.index[e.RouteKey] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return m, nil
}

// MustNew is like New but panics on error. Intended for tests and
// package-level fixtures.
func MustNew(entries ...RouteEntry) *Manifest {
	m, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

// Entries returns a copy of the entries in manifest order.
func (m *Manifest) Entries() []RouteEntry {
	if m == nil {
		return nil
	}
	out := make([]RouteEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Lookup returns the entry for a route key.
func (m *Manifest) Lookup(routeKey string) (RouteEntry, bool) {
	if m == nil {
		return RouteEntry{}, false
	}
	i, ok := m.index[routeKey]
	if !ok {
		return RouteEntry{}, false
	}
	return m.entries[i], true
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// DuplicateResourceURIs returns resource URIs claimed by more than one
// route, in first-seen order.
func (m *Manifest) DuplicateResourceURIs() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]int, len(m.entries))
	var dups []string
	for _, e := range m.entries {
		seen[e.ResourceURI]++
		if seen[e.ResourceURI] == 2 {
			dups = append(dups, e.ResourceURI)
		}
	}
	return dups
}

// Parse decodes a JSON or YAML manifest document.
func Parse(data []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest must be a mapping of route keys (line %d)", root.Line)
	}

	entries := make([]RouteEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]

		var entry RouteEntry
		if err := valNode.Decode(&entry); err != nil {
			return nil, fmt.Errorf("route %q (line %d): %w", keyNode.Value, keyNode.Line, err)
		}
		entry.RouteKey = keyNode.Value
		entries = append(entries, entry)
	}

	return New(entries...)
}

// LoadFile reads and parses a manifest file.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadFS reads and parses a manifest from a file system.
func LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// Source provides the current manifest.
type Source interface {
	Current() *Manifest
}

// Static is a Source that never changes.
type Static struct {
	m *Manifest
}

// NewStatic returns a Source that always yields m.
func NewStatic(m *Manifest) *Static {
	return &Static{m: m}
}

// Current returns the wrapped manifest.
func (s *Static) Current() *Manifest {
	return s.m
}
