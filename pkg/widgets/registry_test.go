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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/server"
)

func staticContent(text string) ContentProvider {
	return ContentProviderFunc(func(_ context.Context) (*protocol.ReadResourceResult, error) {
		return &protocol.ReadResourceResult{
			Contents: []protocol.ResourceContents{{URI: "x", Text: text}},
		}, nil
	})
}

func echoTool(name string) ToolDefinition {
	return ToolDefinition{
		Name: name,
		Handler: func(_ context.Context, args map[string]interface{}) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{Content: []protocol.Content{protocol.TextContent(name)}}, nil
		},
	}
}

func TestRegistry_RegisterResource_Order(t *testing.T) {
	reg := NewRegistry(WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, reg.RegisterResource("B", "ui://widget/b", ResourceOptions{}, staticContent("b")))
	require.NoError(t, reg.RegisterResource("A", "ui://widget/a", ResourceOptions{MimeType: protocol.WidgetMIME}, staticContent("a")))

	list, err := reg.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ui://widget/b", list[0].URI)
	assert.Equal(t, "ui://widget/a", list[1].URI)
	assert.Equal(t, protocol.WidgetMIME, list[1].MimeType)
}

func TestRegistry_RegisterResource_Validation(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.RegisterResource("x", "", ResourceOptions{}, staticContent("x")))
	assert.Error(t, reg.RegisterResource("x", "ui://widget/x", ResourceOptions{}, nil))
}

func TestRegistry_DuplicateResource_LastWins(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := NewRegistry(WithLogger(zap.New(core)))

	require.NoError(t, reg.RegisterResource("first", "ui://widget/a", ResourceOptions{}, staticContent("first")))
	require.NoError(t, reg.RegisterResource("other", "ui://widget/b", ResourceOptions{}, staticContent("other")))
	require.NoError(t, reg.RegisterResource("second", "ui://widget/a", ResourceOptions{}, staticContent("second")))

	resources := reg.Resources()
	require.Len(t, resources, 2)
	assert.Equal(t, "second", resources[0].Name)

	result, err := reg.ReadResource(context.Background(), "ui://widget/a")
	require.NoError(t, err)
	assert.Equal(t, "second", result.Contents[0].Text)
	assert.Equal(t, 1, logs.Len())
}

func TestRegistry_DuplicateResource_Strict(t *testing.T) {
	reg := NewRegistry(WithStrict(true))
	require.NoError(t, reg.RegisterResource("first", "ui://widget/a", ResourceOptions{}, staticContent("first")))

	err := reg.RegisterResource("second", "ui://widget/a", ResourceOptions{}, staticContent("second"))
	assert.ErrorIs(t, err, ErrDuplicateResource)
	assert.Len(t, reg.Resources(), 1)
}

func TestRegistry_RegisterTool(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.RegisterTool(ToolDefinition{Handler: echoTool("x").Handler}))
	assert.Error(t, reg.RegisterTool(ToolDefinition{Name: "x"}))

	require.NoError(t, reg.RegisterTool(echoTool("a")))
	require.NoError(t, reg.RegisterTool(echoTool("a")))
	assert.Len(t, reg.Tools(), 1)

	strict := NewRegistry(WithStrict(true))
	require.NoError(t, strict.RegisterTool(echoTool("a")))
	assert.ErrorIs(t, strict.RegisterTool(echoTool("a")), ErrDuplicateTool)
}

func TestRegistry_ReadResource_NotFound(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.ReadResource(context.Background(), "ui://widget/missing")
	assert.ErrorIs(t, err, server.ErrResourceNotFound)
}

func TestRegistry_ReadResource_ProviderError(t *testing.T) {
	boom := errors.New("storage down")
	reg := NewRegistry()
	require.NoError(t, reg.RegisterResource("x", "ui://widget/x", ResourceOptions{},
		ContentProviderFunc(func(context.Context) (*protocol.ReadResourceResult, error) { return nil, boom })))

	_, err := reg.ReadResource(context.Background(), "ui://widget/x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, server.ErrResourceNotFound)
}

func TestRegistry_CallTool(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterTool(echoTool("echo")))

	result, err := reg.CallTool(context.Background(), "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo", result.Content[0].Text)

	_, err = reg.CallTool(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, server.ErrToolNotFound)
}

func TestRegistry_CallTool_InvalidArguments(t *testing.T) {
	reg := NewRegistry()
	def := echoTool("typed")
	def.InputSchema = map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"name": map[string]interface{}{"type": "string"}},
		"required":   []interface{}{"name"},
	}
	require.NoError(t, reg.RegisterTool(def))

	_, err := reg.CallTool(context.Background(), "typed", map[string]interface{}{"name": 42})
	assert.ErrorIs(t, err, server.ErrInvalidArguments)

	_, err = reg.CallTool(context.Background(), "typed", map[string]interface{}{"name": "ok"})
	assert.NoError(t, err)
}

func TestRegistry_CallTool_HandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	require.NoError(t, reg.RegisterTool(ToolDefinition{
		Name: "fails",
		Handler: func(context.Context, map[string]interface{}) (*protocol.CallToolResult, error) {
			return nil, boom
		},
	}))
	require.NoError(t, reg.RegisterTool(ToolDefinition{
		Name: "empty",
		Handler: func(context.Context, map[string]interface{}) (*protocol.CallToolResult, error) {
			return nil, nil
		},
	}))
	require.NoError(t, reg.RegisterTool(ToolDefinition{
		Name: "bad-output",
		OutputSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"description"},
		},
		Handler: func(context.Context, map[string]interface{}) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{StructuredContent: map[string]interface{}{"other": 1}}, nil
		},
	}))

	_, err := reg.CallTool(context.Background(), "fails", nil)
	assert.ErrorIs(t, err, boom)

	_, err = reg.CallTool(context.Background(), "empty", nil)
	assert.Error(t, err)

	_, err = reg.CallTool(context.Background(), "bad-output", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, server.ErrInvalidArguments)
}

func TestRegistry_Validate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterResource("a", "ui://widget/a", ResourceOptions{}, staticContent("a")))

	ok := echoTool("ok")
	ok.OutputTemplate = "ui://widget/a"
	dangling := echoTool("dangling")
	dangling.OutputTemplate = "ui://widget/"
	require.NoError(t, reg.RegisterTool(ok))
	require.NoError(t, reg.RegisterTool(dangling))
	require.NoError(t, reg.RegisterTool(echoTool("no-template")))

	err := reg.Validate()
	require.Error(t, err)

	var dte *DanglingTemplateError
	require.True(t, errors.As(err, &dte))
	assert.Equal(t, "dangling", dte.Tool)
	assert.Equal(t, "ui://widget/", dte.URI)
}

func TestToolDefinition_Tool(t *testing.T) {
	def := echoTool("x")
	def.Title = "X"
	def.OutputTemplate = "ui://widget/abc"
	def.Invoking = "Working"
	def.Invoked = "Done"
	def.WidgetAccessible = true

	tool := def.Tool()
	assert.Equal(t, "X", tool.Title)
	assert.Equal(t, "object", tool.InputSchema["type"])
	assert.Equal(t, "ui://widget/abc", tool.Meta[protocol.MetaOutputTemplate])
	assert.Equal(t, "Working", tool.Meta[protocol.MetaInvoking])
	assert.Equal(t, "Done", tool.Meta[protocol.MetaInvoked])
	assert.Equal(t, true, tool.Meta[protocol.MetaWidgetAccessible])
}
