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
	"context"
	"fmt"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/fetcher"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// routeContent serves one manifest route. A single value type covers every
// route; only the fields differ.
type routeContent struct {
	uri     string
	route   manifest.RouteEntry
	fetcher fetcher.Fetcher
	meta    ResourceMetadata
}

// Contents fetches the route's HTML and wraps it as widget contents.
func (c routeContent) Contents(ctx context.Context) (*protocol.ReadResourceResult, error) {
	html, err := c.fetcher.Fetch(ctx, c.route.OriginalURLPath)
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", c.route.RouteKey, err)
	}

	return &protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{{
			URI:      c.uri,
			MimeType: protocol.WidgetMIME,
			Text:     html,
			Meta:     c.meta.Meta(),
		}},
	}, nil
}
