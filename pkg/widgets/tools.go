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

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// ToolHandler executes a tool call.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (*protocol.CallToolResult, error)

// ToolDefinition describes a tool and the widget it renders into.
type ToolDefinition struct {
	Name        string
	Title       string
	Description string

	// OutputTemplate is the URI of the widget resource that renders the
	// tool's result.
	OutputTemplate   string
	Invoking         string
	Invoked          string
	WidgetAccessible bool

	InputSchema  map[string]interface{}
	OutputSchema map[string]interface{}
	Annotations  *protocol.ToolAnnotations

	Handler ToolHandler
}

// Tool returns the wire form of the definition.
func (d ToolDefinition) Tool() protocol.Tool {
	inputSchema := d.InputSchema
	if inputSchema == nil {
		inputSchema = emptyObjectSchema()
	}
	t := protocol.Tool{
		Name:         d.Name,
		Title:        d.Title,
		Description:  d.Description,
		InputSchema:  inputSchema,
		OutputSchema: d.OutputSchema,
		Annotations:  d.Annotations,
	}
	protocol.SetWidgetToolMeta(&t, protocol.WidgetToolMeta{
		OutputTemplate:   d.OutputTemplate,
		Invoking:         d.Invoking,
		Invoked:          d.Invoked,
		WidgetAccessible: d.WidgetAccessible,
	})
	return t
}

func emptyObjectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Route keys of the built-in tools.
const (
	HelloWorldRoute = "hello-world"
	WhoMadeYouRoute = "who-made-you"
)

const (
	helloWorldText = "Hello World"
	whoMadeYouText = "This is a template for building OpenAI Chat Apps from Gavin Ching"
	authorXLink    = "https://x.com/gching"
)

// TemplateURI returns the widget URI for routeKey. A key missing from m
// yields the bare widget scheme, a template no resource will ever match.
func TemplateURI(m *manifest.Manifest, routeKey string) string {
	entry, _ := m.Lookup(routeKey)
	return protocol.WidgetURI(entry.ResourceURI)
}

// HelloWorldTool greets the caller and renders the hello-world widget.
func HelloWorldTool(m *manifest.Manifest) ToolDefinition {
	readOnly := true
	return ToolDefinition{
		Name:             "hello-world",
		Title:            "Hello World",
		Description:      "Says hello and renders the Hello World widget.",
		OutputTemplate:   TemplateURI(m, HelloWorldRoute),
		Invoking:         "Saying hello back",
		Invoked:          "I said hello!",
		WidgetAccessible: true,
		InputSchema:      emptyObjectSchema(),
		Annotations:      &protocol.ToolAnnotations{ReadOnlyHint: &readOnly},
		Handler: func(_ context.Context, _ map[string]interface{}) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{
				Content: []protocol.Content{protocol.TextContent(helloWorldText)},
			}, nil
		},
	}
}

// WhoMadeYouTool describes the template's author and renders the
// who-made-you widget.
func WhoMadeYouTool(m *manifest.Manifest) ToolDefinition {
	readOnly := true
	return ToolDefinition{
		Name:             "who-made-you",
		Title:            "Who made you?",
		Description:      "Tells who built this app and renders the Who Made You widget.",
		OutputTemplate:   TemplateURI(m, WhoMadeYouRoute),
		Invoking:         "Knock knock...",
		Invoked:          "Who is it?",
		WidgetAccessible: true,
		InputSchema:      emptyObjectSchema(),
		OutputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"description":        map[string]interface{}{"type": "string"},
				"authorsXSocialLink": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"description", "authorsXSocialLink"},
		},
		Annotations: &protocol.ToolAnnotations{ReadOnlyHint: &readOnly},
		Handler: func(_ context.Context, _ map[string]interface{}) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{
				Content: []protocol.Content{protocol.TextContent(whoMadeYouText)},
				StructuredContent: map[string]interface{}{
					"description":        whoMadeYouText,
					"authorsXSocialLink": authorXLink,
				},
			}, nil
		},
	}
}

// DefaultTools returns the built-in tool set bound to m.
func DefaultTools(m *manifest.Manifest) []ToolDefinition {
	return []ToolDefinition{
		HelloWorldTool(m),
		WhoMadeYouTool(m),
	}
}
