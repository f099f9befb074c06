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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockToolProvider struct {
	tools    []protocol.Tool
	listErr  error
	callFunc func(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error)
}

func (m *mockToolProvider) ListTools(context.Context) ([]protocol.Tool, error) {
	return m.tools, m.listErr
}

func (m *mockToolProvider) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	if m.callFunc == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return m.callFunc(ctx, name, args)
}

type mockResourceProvider struct {
	resources []protocol.Resource
	listErr   error
	readFunc  func(ctx context.Context, uri string) (*protocol.ReadResourceResult, error)
}

func (m *mockResourceProvider) ListResources(context.Context) ([]protocol.Resource, error) {
	return m.resources, m.listErr
}

func (m *mockResourceProvider) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	if m.readFunc == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	return m.readFunc(ctx, uri)
}

func TestToolsList(t *testing.T) {
	provider := &mockToolProvider{
		tools: []protocol.Tool{
			{Name: "hello-world", Title: "Hello World"},
			{Name: "who-made-you", Title: "Who made you?"},
		},
	}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(provider))

	resp := call(t, s, "tools/list", nil)
	require.Nil(t, resp.Error)

	var result protocol.ToolListResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 2)
	assert.Equal(t, "hello-world", result.Tools[0].Name)
	assert.Equal(t, "Who made you?", result.Tools[1].Title)
}

func TestToolsList_Empty(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(&mockToolProvider{}))

	resp := call(t, s, "tools/list", nil)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"tools":[]}`, string(resp.Result))
}

func TestToolsList_ProviderError(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(&mockToolProvider{listErr: assert.AnError}))

	resp := call(t, s, "tools/list", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InternalError, resp.Error.Code)
}

func TestToolsCall_Success(t *testing.T) {
	provider := &mockToolProvider{
		callFunc: func(_ context.Context, name string, _ map[string]interface{}) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{
				Content:           []protocol.Content{protocol.TextContent("called " + name)},
				StructuredContent: map[string]interface{}{"ok": true},
			}, nil
		},
	}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(provider))

	resp := call(t, s, "tools/call", protocol.CallToolParams{Name: "echo"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"called echo"}],"structuredContent":{"ok":true}}`, string(resp.Result))
}

func TestToolsCall_HandlerErrorIsInBand(t *testing.T) {
	provider := &mockToolProvider{
		callFunc: func(context.Context, string, map[string]interface{}) (*protocol.CallToolResult, error) {
			return nil, fmt.Errorf("tool execution failed")
		},
	}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(provider))

	resp := call(t, s, "tools/call", protocol.CallToolParams{Name: "failing"})
	require.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "tool execution failed", result.Content[0].Text)
}

func TestToolsCall_ProtocolErrors(t *testing.T) {
	provider := &mockToolProvider{}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(provider))

	t.Run("unknown tool", func(t *testing.T) {
		resp := call(t, s, "tools/call", protocol.CallToolParams{Name: "missing"})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "missing")
	})

	t.Run("empty name", func(t *testing.T) {
		resp := call(t, s, "tools/call", protocol.CallToolParams{})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
	})

	t.Run("malformed params", func(t *testing.T) {
		resp := call(t, s, "tools/call", []int{1})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		provider.callFunc = func(context.Context, string, map[string]interface{}) (*protocol.CallToolResult, error) {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidArguments)
		}
		resp := call(t, s, "tools/call", protocol.CallToolParams{Name: "greet"})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
	})
}

func TestResourcesList(t *testing.T) {
	provider := &mockResourceProvider{
		resources: []protocol.Resource{
			{URI: "ui://widget/abc123", Name: "Hello", MimeType: protocol.WidgetMIME},
		},
	}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithResourceProvider(provider))

	resp := call(t, s, "resources/list", nil)
	require.Nil(t, resp.Error)

	var result protocol.ResourceListResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Resources, 1)
	assert.Equal(t, "ui://widget/abc123", result.Resources[0].URI)
}

func TestResourcesList_ProviderError(t *testing.T) {
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithResourceProvider(&mockResourceProvider{listErr: assert.AnError}))

	resp := call(t, s, "resources/list", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InternalError, resp.Error.Code)
}

func TestResourcesRead_Success(t *testing.T) {
	provider := &mockResourceProvider{
		readFunc: func(_ context.Context, uri string) (*protocol.ReadResourceResult, error) {
			return &protocol.ReadResourceResult{
				Contents: []protocol.ResourceContents{{URI: uri, MimeType: protocol.WidgetMIME, Text: "<div>hi</div>"}},
			}, nil
		},
	}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithResourceProvider(provider))

	resp := call(t, s, "resources/read", protocol.ReadResourceParams{URI: "ui://widget/abc123"})
	require.Nil(t, resp.Error)
	assert.JSONEq(t,
		`{"contents":[{"uri":"ui://widget/abc123","mimeType":"text/html+skybridge","text":"<div>hi</div>"}]}`,
		string(resp.Result))
}

func TestResourcesRead_Errors(t *testing.T) {
	provider := &mockResourceProvider{}
	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithResourceProvider(provider))

	t.Run("empty URI", func(t *testing.T) {
		resp := call(t, s, "resources/read", protocol.ReadResourceParams{})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
	})

	t.Run("malformed params", func(t *testing.T) {
		resp := call(t, s, "resources/read", "x")
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
	})

	t.Run("unknown URI", func(t *testing.T) {
		resp := call(t, s, "resources/read", protocol.ReadResourceParams{URI: "ui://widget/nope"})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.ResourceNotFound, resp.Error.Code)
	})

	t.Run("fetch failure", func(t *testing.T) {
		provider.readFunc = func(context.Context, string) (*protocol.ReadResourceResult, error) {
			return nil, fmt.Errorf("fetch widget asset: connection refused")
		}
		resp := call(t, s, "resources/read", protocol.ReadResourceParams{URI: "ui://widget/abc123"})
		require.NotNil(t, resp.Error)
		assert.Equal(t, protocol.InternalError, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "connection refused")
	})
}

func TestMCPServer_ServeStdio(t *testing.T) {
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()

	s := NewMCPServer("test", "1.0.0", zaptest.NewLogger(t), WithToolProvider(&mockToolProvider{
		tools: []protocol.Tool{{Name: "hello-world"}},
	}))
	tr := transport.NewStdioServerTransport(serverR, serverW)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, tr) }()

	client := transport.NewStdioServerTransport(clientR, clientW)
	require.NoError(t, client.Send(ctx, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)))

	msg, err := client.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{"tools":[{"name":"hello-world","inputSchema":null}]}}`, string(msg))

	s.NotifyResourceListChanged()
	msg, err = client.Receive(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(msg), "notifications/resources/list_changed")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
