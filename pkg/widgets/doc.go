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

// Package widgets registers pre-rendered HTML widgets and the tools that
// render into them with an MCP server.
//
// A build step produces a route manifest mapping each route to a
// content-addressed widget id. For every MCP session the Host creates a
// fresh Registry, registers one resource per manifest entry under
// "ui://widget/<id>" and the fixed tool set, each tool naming the widget it
// renders into through its "openai/outputTemplate" metadata. Reading a
// resource fetches the widget HTML from asset storage on every call.
package widgets
