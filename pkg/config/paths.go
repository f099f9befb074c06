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

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the widgets-mcp home directory.
const HomeEnv = "WIDGETS_MCP_HOME"

// HomeDir returns the widgets-mcp home directory, searched for the config
// file before the working directory.
//
// Priority:
// 1. WIDGETS_MCP_HOME environment variable (if set and non-empty)
// 2. ~/.widgets-mcp (default)
//
// The returned path is always absolute. Tilde (~) is expanded to the user's
// home directory.
//
// Note: This function reads directly from os.Getenv(), not from viper, since
// it locates the config file itself.
func HomeDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandPath(dir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".widgets-mcp"
	}
	return filepath.Join(homeDir, ".widgets-mcp")
}

// ExpandPath expands a leading ~ and makes path absolute. Empty paths stay
// empty.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
