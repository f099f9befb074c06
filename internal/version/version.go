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

// Package version reports the widgets-mcp build version.
package version

import "runtime/debug"

// Version is set at build time:
// go build -ldflags="-X github.com/damixnr/openai-apps-sdk/internal/version.Version=vX.Y.Z"
var Version = "1.0.0"

// Get returns Version, or "dev" when it was cleared at build time.
func Get() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// Commit returns the VCS revision recorded by the Go toolchain, shortened to
// 12 characters, or "" when the binary was built outside a checkout.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
