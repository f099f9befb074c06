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
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
)

// decodeParams unmarshals params into v, reporting failures as InvalidParams.
func decodeParams(params json.RawMessage, v interface{}, what string) error {
	if err := json.Unmarshal(params, v); err != nil {
		return protocol.NewError(protocol.InvalidParams, fmt.Sprintf("invalid %s params: %v", what, err), nil)
	}
	return nil
}

func listTools(p ToolProvider) MethodHandler {
	return func(ctx context.Context, _, _ json.RawMessage) (interface{}, error) {
		tools, err := p.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		if tools == nil {
			tools = []protocol.Tool{}
		}
		return protocol.ToolListResult{Tools: tools}, nil
	}
}

// callTool answers tools/call. Unknown tools and invalid arguments fail the
// request; a failing handler is reported in the result with isError set.
func callTool(p ToolProvider, logger *zap.Logger) MethodHandler {
	return func(ctx context.Context, _, params json.RawMessage) (interface{}, error) {
		var call protocol.CallToolParams
		if err := decodeParams(params, &call, "tool call"); err != nil {
			return nil, err
		}
		if call.Name == "" {
			return nil, protocol.NewError(protocol.InvalidParams, "tool name is required", nil)
		}

		result, err := p.CallTool(ctx, call.Name, call.Arguments)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrInvalidArguments) {
			return nil, err
		}
		logger.Warn("Tool handler failed", zap.String("tool", call.Name), zap.Error(err))
		return &protocol.CallToolResult{
			Content: []protocol.Content{protocol.TextContent(err.Error())},
			IsError: true,
		}, nil
	}
}

func listResources(p ResourceProvider) MethodHandler {
	return func(ctx context.Context, _, _ json.RawMessage) (interface{}, error) {
		resources, err := p.ListResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("list resources: %w", err)
		}
		if resources == nil {
			resources = []protocol.Resource{}
		}
		return protocol.ResourceListResult{Resources: resources}, nil
	}
}

// readResource answers resources/read. Provider errors, fetch failures
// included, fail the request.
func readResource(p ResourceProvider) MethodHandler {
	return func(ctx context.Context, _, params json.RawMessage) (interface{}, error) {
		var read protocol.ReadResourceParams
		if err := decodeParams(params, &read, "resource read"); err != nil {
			return nil, err
		}
		if read.URI == "" {
			return nil, protocol.NewError(protocol.InvalidParams, "resource URI is required", nil)
		}

		result, err := p.ReadResource(ctx, read.URI)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", read.URI, err)
		}
		return result, nil
	}
}
