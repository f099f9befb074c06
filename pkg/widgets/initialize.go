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

package widgets

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/fetcher"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// Initialize registers one widget resource per manifest entry, in manifest
// order, followed by tools.
//
// Tools whose output template names no resource are logged; a strict
// registry fails with the joined *DanglingTemplateError values instead.
func Initialize(reg *Registry, m *manifest.Manifest, meta ResourceMetadata, f fetcher.Fetcher, tools []ToolDefinition) error {
	if reg == nil {
		return errors.New("registry is required")
	}
	if f == nil {
		return errors.New("content fetcher is required")
	}

	for _, entry := range m.Entries() {
		uri := protocol.WidgetURI(entry.ResourceURI)
		provider := routeContent{
			uri:     uri,
			route:   entry,
			fetcher: f,
			meta:    meta,
		}
		opts := ResourceOptions{
			MimeType: protocol.WidgetMIME,
		}
		if err := reg.RegisterResource(entry.ResourceName, uri, opts, provider); err != nil {
			return fmt.Errorf("route %s: %w", entry.RouteKey, err)
		}
	}

	for _, def := range tools {
		if err := reg.RegisterTool(def); err != nil {
			return err
		}
	}

	if err := reg.Validate(); err != nil {
		if reg.Strict() {
			return err
		}
		var dangling *DanglingTemplateError
		for _, e := range unwrapJoined(err) {
			if errors.As(e, &dangling) {
				reg.logger.Warn("Tool output template does not match any widget",
					zap.String("tool", dangling.Tool),
					zap.String("uri", dangling.URI))
			}
		}
	}

	reg.logger.Debug("Registered widgets",
		zap.Int("resources", len(reg.Resources())),
		zap.Int("tools", len(tools)))
	return nil
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
