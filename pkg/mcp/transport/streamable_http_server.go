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

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
)

// DefaultSessionTTL is the recommended idle timeout for HTTP sessions.
const DefaultSessionTTL = 30 * time.Minute

// HeaderSessionID carries the session id on every request after initialize.
const HeaderSessionID = "Mcp-Session-Id"

const maxRequestBody = 10 * 1024 * 1024

// StreamableHTTPServer implements the MCP streamable-http server transport on
// a single endpoint:
//   - POST carries one JSON-RPC message and gets a JSON reply
//   - an initialize POST without a session header creates a new Session
//   - GET opens a server-sent event stream of the session's notifications
//   - DELETE terminates the session
//
// Each session is an independent Session built by the factory; nothing is
// shared between sessions except what the factory itself shares.
type StreamableHTTPServer struct {
	factory        SessionFactory
	sessions       map[string]*httpSession
	mu             sync.RWMutex
	events         *sse.Server
	logger         *zap.Logger
	sessionTTL     time.Duration
	allowedOrigins map[string]struct{}
	stopCleanup    chan struct{}
	closeOnce      sync.Once
}

type httpSession struct {
	id           string
	session      Session
	lastActivity time.Time
	streams      int // open event streams; guarded by StreamableHTTPServer.mu
	done         chan struct{}
}

// StreamableHTTPServerConfig configures the HTTP server transport.
type StreamableHTTPServerConfig struct {
	Factory    SessionFactory // Required: builds one Session per initialize
	Logger     *zap.Logger
	SessionTTL time.Duration // idle sessions older than this are closed; 0 disables expiry

	// AllowedOrigins restricts browser Origin headers. Requests without an
	// Origin header are always accepted. Empty means any origin.
	AllowedOrigins []string
}

// NewStreamableHTTPServer creates a new MCP streamable HTTP handler.
func NewStreamableHTTPServer(config StreamableHTTPServerConfig) (*StreamableHTTPServer, error) {
	if config.Factory == nil {
		return nil, fmt.Errorf("session factory is required")
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	ttl := config.SessionTTL
	if ttl < 0 {
		ttl = 0
	}

	events := sse.New()
	events.AutoStream = false
	events.AutoReplay = false

	s := &StreamableHTTPServer{
		factory:     config.Factory,
		sessions:    make(map[string]*httpSession),
		events:      events,
		logger:      config.Logger,
		sessionTTL:  ttl,
		stopCleanup: make(chan struct{}),
	}
	if len(config.AllowedOrigins) > 0 {
		s.allowedOrigins = make(map[string]struct{}, len(config.AllowedOrigins))
		for _, o := range config.AllowedOrigins {
			s.allowedOrigins[o] = struct{}{}
		}
	}

	if ttl > 0 {
		s.startCleanup()
	}

	return s, nil
}

// ServeHTTP implements http.Handler for the MCP endpoint.
func (s *StreamableHTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.originAllowed(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *StreamableHTTPServer) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.allowedOrigins == nil {
		return true
	}
	_, ok := s.allowedOrigins[origin]
	return ok
}

func (s *StreamableHTTPServer) handlePost(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "application/json" {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.logger.Error("failed to read request body", zap.Error(err))
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "Empty request body", http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(HeaderSessionID)
	var sess *httpSession
	switch {
	case sessionID != "":
		sess = s.touch(sessionID)
		if sess == nil {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
	case isInitializeRequest(body):
		sess, err = s.createSession(r.Context())
		if err != nil {
			s.logger.Error("failed to create session", zap.Error(err))
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		w.Header().Set(HeaderSessionID, sess.id)
	default:
		http.Error(w, HeaderSessionID+" header required", http.StatusBadRequest)
		return
	}

	resp, err := sess.session.HandleMessage(r.Context(), body)
	if err != nil {
		s.logger.Error("handler error", zap.String("session_id", sess.id), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

// handleGet streams the session's notifications as server-sent events until
// the client disconnects or the session ends.
func (s *StreamableHTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		http.Error(w, HeaderSessionID+" header required", http.StatusBadRequest)
		return
	}
	sess := s.openStream(sessionID)
	if sess == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	defer s.closeStream(sess)

	// The event server selects its stream from the query string.
	streamReq := r.Clone(r.Context())
	q := streamReq.URL.Query()
	q.Set("stream", sessionID)
	streamReq.URL.RawQuery = q.Encode()

	s.logger.Debug("event stream opened", zap.String("session_id", sessionID))
	s.events.ServeHTTP(w, streamReq)
}

func (s *StreamableHTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(HeaderSessionID)
	if sessionID == "" {
		http.Error(w, HeaderSessionID+" header required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	sess, exists := s.sessions[sessionID]
	if exists {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	s.closeSession(sess)
	s.logger.Info("session terminated", zap.String("session_id", sessionID))
	w.WriteHeader(http.StatusOK)
}

func (s *StreamableHTTPServer) createSession(ctx context.Context) (*httpSession, error) {
	id := uuid.New().String()
	session, err := s.factory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("build session %s: %w", id, err)
	}

	sess := &httpSession{
		id:           id,
		session:      session,
		lastActivity: time.Now(),
		done:         make(chan struct{}),
	}
	s.events.CreateStream(id)
	go s.pumpNotifications(sess)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("created new session", zap.String("session_id", id))
	return sess, nil
}

// pumpNotifications forwards queued notifications to the session's event
// stream. Notifications published while no client is subscribed are lost.
func (s *StreamableHTTPServer) pumpNotifications(sess *httpSession) {
	notifications := sess.session.Notifications()
	for {
		select {
		case <-sess.done:
			return
		case msg, ok := <-notifications:
			if !ok {
				return
			}
			s.events.Publish(sess.id, &sse.Event{Event: []byte("message"), Data: msg})
		}
	}
}

// touch returns the live session and renews its activity time, or nil.
func (s *StreamableHTTPServer) touch(id string) *httpSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.lastActivity = time.Now()
	return sess
}

// openStream marks a listener on the session. A session with a listener is
// never expired.
func (s *StreamableHTTPServer) openStream(id string) *httpSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.streams++
	sess.lastActivity = time.Now()
	return sess
}

// closeStream releases a listener; the idle clock restarts when it ends.
func (s *StreamableHTTPServer) closeStream(sess *httpSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.streams--
	sess.lastActivity = time.Now()
}

func (s *StreamableHTTPServer) closeSession(sess *httpSession) {
	close(sess.done)
	s.events.RemoveStream(sess.id)
	if err := sess.session.Close(); err != nil {
		s.logger.Warn("session close failed", zap.String("session_id", sess.id), zap.Error(err))
	}
}

// isInitializeRequest checks if the body contains an initialize method call.
func isInitializeRequest(body []byte) bool {
	var req struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return false
	}
	return req.Method == "initialize"
}

// SessionCount returns the number of active sessions.
func (s *StreamableHTTPServer) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops session expiry and closes every live session. It is safe to
// call Close multiple times.
func (s *StreamableHTTPServer) Close() {
	s.closeOnce.Do(func() {
		close(s.stopCleanup)

		s.mu.Lock()
		sessions := s.sessions
		s.sessions = make(map[string]*httpSession)
		s.mu.Unlock()

		for _, sess := range sessions {
			s.closeSession(sess)
		}
		s.events.Close()
	})
}

// startCleanup periodically closes sessions idle for longer than the TTL.
// The interval is half the TTL, at least one second.
func (s *StreamableHTTPServer) startCleanup() {
	interval := s.sessionTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCleanup:
				return
			case now := <-ticker.C:
				s.expireSessions(now)
			}
		}
	}()
}

func (s *StreamableHTTPServer) expireSessions(now time.Time) {
	var expired []*httpSession

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.streams == 0 && now.Sub(sess.lastActivity) > s.sessionTTL {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.closeSession(sess)
		s.logger.Info("session expired", zap.String("session_id", sess.id))
	}
}
