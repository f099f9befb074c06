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

// Package server dispatches MCP JSON-RPC requests for one client session to
// tool and resource providers.
package server

import (
	"context"
	"errors"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
)

// Providers wrap these so the dispatcher answers with the matching JSON-RPC
// code: InvalidParams for the tool errors, ResourceNotFound for resources.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrResourceNotFound = errors.New("resource not found")
)

// ToolProvider lists and invokes tools.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]protocol.Tool, error)

	// CallTool runs the named tool. Errors wrapping ErrToolNotFound or
	// ErrInvalidArguments fail the request; any other error is a tool failure.
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error)
}

// ResourceProvider lists and reads resources.
type ResourceProvider interface {
	ListResources(ctx context.Context) ([]protocol.Resource, error)

	// ReadResource returns the contents at uri, or an error wrapping
	// ErrResourceNotFound.
	ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error)
}
