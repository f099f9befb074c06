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

// Package embedded ships a sample widget build so the server runs without
// any external asset storage.
package embedded

import (
	"embed"
	"io/fs"

	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// ManifestName is the route manifest file inside Assets.
const ManifestName = "routes.json"

//go:embed widgets
var widgetsFS embed.FS

// Assets returns the sample widget build: the route manifest plus one HTML
// page per route.
func Assets() fs.FS {
	sub, err := fs.Sub(widgetsFS, "widgets")
	if err != nil {
		// fs.Sub only fails on an invalid path, and "widgets" is valid.
		panic(err)
	}
	return sub
}

// Manifest returns the sample route manifest.
func Manifest() (*manifest.Manifest, error) {
	return manifest.LoadFS(Assets(), ManifestName)
}
