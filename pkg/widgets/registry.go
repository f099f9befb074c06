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
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/server"
)

// ContentProvider produces the contents of a resource on each read.
type ContentProvider interface {
	Contents(ctx context.Context) (*protocol.ReadResourceResult, error)
}

// ContentProviderFunc adapts a function to ContentProvider.
type ContentProviderFunc func(ctx context.Context) (*protocol.ReadResourceResult, error)

// Contents calls f(ctx).
func (f ContentProviderFunc) Contents(ctx context.Context) (*protocol.ReadResourceResult, error) {
	return f(ctx)
}

// ResourceOptions are the optional listing attributes of a resource.
type ResourceOptions struct {
	Title       string
	Description string
	MimeType    string
}

// ResourceInfo describes a registered resource.
type ResourceInfo struct {
	URI         string
	Name        string
	Title       string
	Description string
	MimeType    string
}

type registeredResource struct {
	info     ResourceInfo
	provider ContentProvider
}

// Registry holds the resources and tools of one MCP session.
// It implements server.ResourceProvider and server.ToolProvider.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resources []registeredResource
	byURI     map[string]int
	tools     []ToolDefinition
	byName    map[string]int

	strict bool
	logger *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStrict makes duplicate registrations and dangling output templates
// errors instead of warnings.
func WithStrict(strict bool) RegistryOption {
	return func(r *Registry) { r.strict = strict }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byURI:  make(map[string]int),
		byName: make(map[string]int),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strict reports whether the registry runs in strict mode.
func (r *Registry) Strict() bool {
	return r.strict
}

// RegisterResource registers a resource under uri. Registering a URI twice
// replaces the first registration in place, keeping its position; in strict
// mode it fails with ErrDuplicateResource instead.
func (r *Registry) RegisterResource(name, uri string, opts ResourceOptions, p ContentProvider) error {
	if uri == "" {
		return fmt.Errorf("resource %q: uri is required", name)
	}
	if p == nil {
		return fmt.Errorf("resource %q: content provider is required", uri)
	}

	res := registeredResource{
		info: ResourceInfo{
			URI:         uri,
			Name:        name,
			Title:       opts.Title,
			Description: opts.Description,
			MimeType:    opts.MimeType,
		},
		provider: p,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.byURI[uri]; exists {
		if r.strict {
			return fmt.Errorf("%w: %s", ErrDuplicateResource, uri)
		}
		r.logger.Warn("Resource URI registered twice, last registration wins",
			zap.String("uri", uri),
			zap.String("previous_name", r.resources[i].info.Name),
			zap.String("name", name))
		r.resources[i] = res
		return nil
	}

	r.byURI[uri] = len(r.resources)
	r.resources = append(r.resources, res)
	return nil
}

// RegisterTool registers a tool. Duplicate names follow the same rule as
// duplicate resource URIs.
func (r *Registry) RegisterTool(def ToolDefinition) error {
	if def.Name == "" {
		return errors.New("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q: handler is required", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.byName[def.Name]; exists {
		if r.strict {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
		}
		r.logger.Warn("Tool registered twice, last registration wins", zap.String("tool", def.Name))
		r.tools[i] = def
		return nil
	}

	r.byName[def.Name] = len(r.tools)
	r.tools = append(r.tools, def)
	return nil
}

// Resources returns the registered resources in registration order.
func (r *Registry) Resources() []ResourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ResourceInfo, len(r.resources))
	for i, res := range r.resources {
		out[i] = res.info
	}
	return out
}

// Tools returns the registered tool definitions in registration order.
func (r *Registry) Tools() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ToolDefinition, len(r.tools))
	copy(out, r.tools)
	return out
}

// Validate checks that every tool's output template names a registered
// resource. The returned error joins one *DanglingTemplateError per
// offending tool.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, def := range r.tools {
		if def.OutputTemplate == "" {
			continue
		}
		if _, ok := r.byURI[def.OutputTemplate]; !ok {
			errs = append(errs, &DanglingTemplateError{Tool: def.Name, URI: def.OutputTemplate})
		}
	}
	return errors.Join(errs...)
}

// ListResources implements server.ResourceProvider.
func (r *Registry) ListResources(_ context.Context) ([]protocol.Resource, error) {
	infos := r.Resources()
	out := make([]protocol.Resource, len(infos))
	for i, info := range infos {
		out[i] = protocol.Resource{
			URI:         info.URI,
			Name:        info.Name,
			Title:       info.Title,
			Description: info.Description,
			MimeType:    info.MimeType,
		}
	}
	return out, nil
}

// ReadResource implements server.ResourceProvider. Every call invokes the
// resource's content provider; nothing is cached.
func (r *Registry) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	r.mu.RLock()
	i, ok := r.byURI[uri]
	var p ContentProvider
	if ok {
		p = r.resources[i].provider
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", server.ErrResourceNotFound, uri)
	}

	result, err := p.Contents(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTools implements server.ToolProvider.
func (r *Registry) ListTools(_ context.Context) ([]protocol.Tool, error) {
	defs := r.Tools()
	out := make([]protocol.Tool, len(defs))
	for i, def := range defs {
		out[i] = def.Tool()
	}
	return out, nil
}

// CallTool implements server.ToolProvider. Arguments are validated against
// the tool's input schema before the handler runs and structured content
// against its output schema afterwards.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	r.mu.RLock()
	i, ok := r.byName[name]
	var def ToolDefinition
	if ok {
		def = r.tools[i]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", server.ErrToolNotFound, name)
	}

	tool := def.Tool()
	if err := protocol.ValidateToolArguments(tool, args); err != nil {
		return nil, fmt.Errorf("%w: %v", server.ErrInvalidArguments, err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := def.Handler(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	if result == nil {
		return nil, fmt.Errorf("tool %s returned no result", name)
	}
	if err := protocol.ValidateStructuredContent(tool, result); err != nil {
		return nil, err
	}
	return result, nil
}

var (
	_ server.ResourceProvider = (*Registry)(nil)
	_ server.ToolProvider     = (*Registry)(nil)
)
