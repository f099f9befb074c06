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

// Package transport carries MCP JSON-RPC messages between a client and the
// widget server: newline-delimited stdio for local hosts and streamable HTTP
// for remote chat clients.
package transport

import (
	"context"
)

// Transport is a bidirectional, message-framed connection to one client.
type Transport interface {
	// Send writes one complete JSON-RPC message.
	Send(ctx context.Context, message []byte) error

	// Receive blocks until the next message arrives.
	Receive(ctx context.Context) ([]byte, error)

	// Close closes the transport
	Close() error
}

// Session is the server side of one MCP session as seen by a transport that
// multiplexes many clients.
type Session interface {
	// HandleMessage processes one JSON-RPC message; nil means no reply.
	HandleMessage(ctx context.Context, msg []byte) ([]byte, error)

	// Notifications yields server-initiated messages for this session.
	Notifications() <-chan []byte

	// Close releases everything the session registered.
	Close() error
}

// SessionFactory builds a fresh Session when a client initializes.
type SessionFactory func(ctx context.Context, sessionID string) (Session, error)
