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
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
)

const (
	tracerName = "github.com/damixnr/openai-apps-sdk/pkg/mcp/server"

	// notifyBuffer bounds server-initiated messages awaiting delivery.
	notifyBuffer = 16
)

// MethodHandler answers one JSON-RPC method. id is the raw request ID and is
// nil for notifications. A returned *protocol.Error is sent as is; other
// errors are mapped to a JSON-RPC code by the dispatcher.
type MethodHandler func(ctx context.Context, id json.RawMessage, params json.RawMessage) (interface{}, error)

// peer is what the client told us during the handshake.
type peer struct {
	info            *protocol.Implementation
	capabilities    *protocol.ClientCapabilities
	protocolVersion string
	ready           bool
}

// MCPServer serves one MCP client session. Providers registered through
// options back the tools and resources methods.
type MCPServer struct {
	info         protocol.Implementation
	instructions string
	capabilities protocol.ServerCapabilities
	logger       *zap.Logger
	tracer       trace.Tracer

	handlersMu sync.RWMutex
	handlers   map[string]MethodHandler

	peerMu sync.RWMutex
	peer   peer

	notifyCh chan []byte
}

// Option configures an MCPServer.
type Option func(*MCPServer)

// WithToolProvider serves tools/list and tools/call from p.
func WithToolProvider(p ToolProvider) Option {
	return func(s *MCPServer) {
		s.capabilities.Tools = &protocol.ToolsCapability{}
		s.RegisterHandler("tools/list", listTools(p))
		s.RegisterHandler("tools/call", callTool(p, s.logger))
	}
}

// WithResourceProvider serves resources/list and resources/read from p. The
// list is advertised as changeable because the manifest may be reloaded.
func WithResourceProvider(p ResourceProvider) Option {
	return func(s *MCPServer) {
		s.capabilities.Resources = &protocol.ResourcesCapability{ListChanged: true}
		s.RegisterHandler("resources/list", listResources(p))
		s.RegisterHandler("resources/read", readResource(p))
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) Option {
	return func(s *MCPServer) {
		s.instructions = instructions
	}
}

// NewMCPServer creates a session server advertising name and version.
func NewMCPServer(name, version string, logger *zap.Logger, opts ...Option) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MCPServer{
		info:     protocol.Implementation{Name: name, Version: version},
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		handlers: make(map[string]MethodHandler),
		notifyCh: make(chan []byte, notifyBuffer),
	}

	s.RegisterHandler("initialize", s.initialize)
	s.RegisterHandler("notifications/initialized", s.initialized)
	s.RegisterHandler("ping", func(context.Context, json.RawMessage, json.RawMessage) (interface{}, error) {
		return struct{}{}, nil
	})

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterHandler adds or replaces the handler for method.
func (s *MCPServer) RegisterHandler(method string, handler MethodHandler) {
	s.handlersMu.Lock()
	s.handlers[method] = handler
	s.handlersMu.Unlock()
}

func (s *MCPServer) handler(method string) (MethodHandler, bool) {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	h, ok := s.handlers[method]
	return h, ok
}

func (s *MCPServer) initialize(_ context.Context, _ json.RawMessage, params json.RawMessage) (interface{}, error) {
	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, protocol.NewError(protocol.InvalidParams, fmt.Sprintf("invalid initialize params: %v", err), nil)
		}
	}

	version := protocol.NegotiateVersion(p.ProtocolVersion)
	if p.ProtocolVersion != "" && version != p.ProtocolVersion {
		s.logger.Warn("Unsupported client protocol version",
			zap.String("requested", p.ProtocolVersion),
			zap.String("negotiated", version))
	}

	caps := p.Capabilities
	s.peerMu.Lock()
	s.peer.capabilities = &caps
	s.peer.protocolVersion = version
	if p.ClientInfo.Name != "" {
		info := p.ClientInfo
		s.peer.info = &info
	}
	s.peerMu.Unlock()

	s.logger.Info("Client initialized session",
		zap.String("client", p.ClientInfo.Name),
		zap.String("client_version", p.ClientInfo.Version),
		zap.String("protocol_version", version))

	return protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    s.capabilities,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}, nil
}

func (s *MCPServer) initialized(context.Context, json.RawMessage, json.RawMessage) (interface{}, error) {
	s.peerMu.Lock()
	s.peer.ready = true
	s.peerMu.Unlock()
	return nil, nil
}

// ClientInfo returns the client's implementation info, or nil before
// initialize.
func (s *MCPServer) ClientInfo() *protocol.Implementation {
	s.peerMu.RLock()
	defer s.peerMu.RUnlock()
	return s.peer.info
}

// ClientCapabilities returns the client's capabilities, or nil before
// initialize.
func (s *MCPServer) ClientCapabilities() *protocol.ClientCapabilities {
	s.peerMu.RLock()
	defer s.peerMu.RUnlock()
	return s.peer.capabilities
}

// ProtocolVersion returns the negotiated version, or "" before initialize.
func (s *MCPServer) ProtocolVersion() string {
	s.peerMu.RLock()
	defer s.peerMu.RUnlock()
	return s.peer.protocolVersion
}

// Ready reports whether the client sent notifications/initialized.
func (s *MCPServer) Ready() bool {
	s.peerMu.RLock()
	defer s.peerMu.RUnlock()
	return s.peer.ready
}

// Notifications returns queued server-initiated messages for transports that
// deliver them out of band.
func (s *MCPServer) Notifications() <-chan []byte {
	return s.notifyCh
}

// NotifyResourceListChanged queues notifications/resources/list_changed.
// The notification is dropped when the queue is full.
func (s *MCPServer) NotifyResourceListChanged() {
	s.enqueue("notifications/resources/list_changed", nil)
}

func (s *MCPServer) enqueue(method string, params interface{}) {
	msg, err := json.Marshal(protocol.Notification{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		s.logger.Error("Failed to encode notification", zap.String("method", method), zap.Error(err))
		return
	}
	select {
	case s.notifyCh <- msg:
	default:
		s.logger.Warn("Notification queue full, dropping", zap.String("method", method))
	}
}
