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

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/server"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/transport"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/fetcher"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// Default server identity advertised in the initialize handshake.
const (
	DefaultServerName    = "TemplateMCP"
	DefaultServerVersion = "v1.0.0"
)

// HostConfig configures a Host.
type HostConfig struct {
	Name         string
	Version      string
	Instructions string

	// Strict makes duplicate resources and dangling output templates fail
	// session creation.
	Strict bool

	// Tools builds the tool set for a manifest. Defaults to DefaultTools.
	Tools func(m *manifest.Manifest) []ToolDefinition

	Logger *zap.Logger
}

// Host creates MCP sessions, each with its own freshly initialized
// Registry. Metadata is built once and shared by every session.
type Host struct {
	config    HostConfig
	manifests manifest.Source
	fetcher   fetcher.Fetcher
	meta      ResourceMetadata
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewHost creates a host serving the manifest currently held by src.
func NewHost(src manifest.Source, f fetcher.Fetcher, meta ResourceMetadata, config HostConfig) (*Host, error) {
	if src == nil {
		return nil, errors.New("manifest source is required")
	}
	if f == nil {
		return nil, errors.New("content fetcher is required")
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Name == "" {
		config.Name = DefaultServerName
	}
	if config.Version == "" {
		config.Version = DefaultServerVersion
	}
	if config.Tools == nil {
		config.Tools = DefaultTools
	}

	return &Host{
		config:    config,
		manifests: src,
		fetcher:   f,
		meta:      meta,
		logger:    config.Logger,
		sessions:  make(map[string]*Session),
	}, nil
}

// NewSession creates a session with a registry initialized from the current
// manifest. Registration completes before the session is returned.
func (h *Host) NewSession(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := h.logger.With(zap.String("session_id", id))
	m := h.manifests.Current()

	reg := NewRegistry(WithLogger(logger), WithStrict(h.config.Strict))
	if err := Initialize(reg, m, h.meta, h.fetcher, h.config.Tools(m)); err != nil {
		return nil, fmt.Errorf("initialize session %s: %w", id, err)
	}

	opts := []server.Option{
		server.WithResourceProvider(reg),
		server.WithToolProvider(reg),
	}
	if h.config.Instructions != "" {
		opts = append(opts, server.WithInstructions(h.config.Instructions))
	}

	s := &Session{
		MCPServer: server.NewMCPServer(h.config.Name, h.config.Version, logger, opts...),
		id:        id,
		registry:  reg,
		host:      h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New("host is closed")
	}
	h.sessions[id] = s

	logger.Info("Session created",
		zap.Int("resources", len(reg.Resources())),
		zap.Int("tools", len(reg.Tools())))
	return s, nil
}

// SessionFactory adapts the host for the streamable HTTP transport.
func (h *Host) SessionFactory() transport.SessionFactory {
	return func(ctx context.Context, id string) (transport.Session, error) {
		return h.NewSession(ctx, id)
	}
}

// SessionCount returns the number of live sessions.
func (h *Host) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// ManifestChanged tells every live session that the resource list changed.
// Live registries are not rebuilt; only sessions created afterwards see the
// new manifest.
func (h *Host) ManifestChanged(m *manifest.Manifest) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	h.logger.Info("Manifest changed, notifying sessions",
		zap.Int("routes", m.Len()),
		zap.Int("sessions", len(sessions)))

	for _, s := range sessions {
		s.NotifyResourceListChanged()
	}
}

// Close closes every live session. Later NewSession calls fail.
func (h *Host) Close() error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Host) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Session is one MCP session: a server bound to its own registry.
type Session struct {
	*server.MCPServer

	id        string
	registry  *Registry
	host      *Host
	closeOnce sync.Once
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Registry returns the session's registry.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Close ends the session and discards its registry.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.host.remove(s.id)
		s.host.logger.Info("Session closed", zap.String("session_id", s.id))
	})
	return nil
}

var _ transport.Session = (*Session)(nil)
