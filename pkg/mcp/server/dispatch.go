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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/transport"
)

// HandleMessage answers one JSON-RPC message. Notifications produce a nil
// reply. The returned error is reserved for failures to encode a reply.
func (s *MCPServer) HandleMessage(ctx context.Context, msg []byte) ([]byte, error) {
	var req protocol.Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return encodeReply(nil, nil, protocol.NewError(protocol.ParseError, "invalid JSON", nil))
	}
	if err := protocol.ValidateRequest(&req); err != nil {
		return encodeReply(nil, nil, protocol.NewError(protocol.InvalidRequest, err.Error(), nil))
	}

	result, rpcErr := s.dispatch(ctx, &req)
	if req.IsNotification() {
		return nil, nil
	}
	return encodeReply(req.ID, result, rpcErr)
}

// dispatch runs the handler for req inside a span named after the method.
func (s *MCPServer) dispatch(ctx context.Context, req *protocol.Request) (interface{}, *protocol.Error) {
	ctx, span := s.tracer.Start(ctx, "mcp."+req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.system", "jsonrpc"),
			attribute.String("rpc.method", req.Method),
			attribute.String("rpc.jsonrpc.request_id", req.ID.String()),
		))
	defer span.End()

	h, ok := s.handler(req.Method)
	if !ok {
		span.SetStatus(codes.Error, "method not found")
		return nil, protocol.NewError(protocol.MethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}

	var rawID json.RawMessage
	if req.ID != nil {
		b, err := json.Marshal(req.ID)
		if err != nil {
			return nil, protocol.NewError(protocol.InternalError, "failed to marshal request ID", nil)
		}
		rawID = b
	}

	start := time.Now()
	result, err := h(ctx, rawID, req.Params)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		rpcErr := toRPCError(err)
		s.logger.Warn("Request failed",
			zap.String("method", req.Method),
			zap.Int("code", rpcErr.Code),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return nil, rpcErr
	}

	s.logger.Debug("Request handled", zap.String("method", req.Method), zap.Duration("elapsed", elapsed))
	return result, nil
}

// toRPCError maps provider sentinels to their JSON-RPC codes. Anything
// unrecognized is an internal error carrying the error text.
func toRPCError(err error) *protocol.Error {
	var rpcErr *protocol.Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, ErrToolNotFound), errors.Is(err, ErrInvalidArguments):
		return protocol.NewError(protocol.InvalidParams, err.Error(), nil)
	case errors.Is(err, ErrResourceNotFound):
		return protocol.NewError(protocol.ResourceNotFound, err.Error(), nil)
	default:
		return protocol.NewError(protocol.InternalError, err.Error(), nil)
	}
}

func encodeReply(id *protocol.RequestID, result interface{}, rpcErr *protocol.Error) ([]byte, error) {
	resp := protocol.Response{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      id,
		Error:   rpcErr,
	}
	if rpcErr == nil && result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		resp.Result = b
	}
	return json.Marshal(resp)
}

// Serve pumps messages from t through HandleMessage and writes replies and
// queued notifications back until ctx ends or t fails.
func (s *MCPServer) Serve(ctx context.Context, t transport.Transport) error {
	s.logger.Info("Serving MCP session",
		zap.String("name", s.info.Name),
		zap.String("version", s.info.Version))

	inbound := make(chan []byte)
	recvErr := make(chan error, 1)
	go func() {
		for {
			msg, err := t.Receive(ctx)
			if err != nil {
				recvErr <- err
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var out []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-recvErr:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		case msg := <-inbound:
			reply, err := s.HandleMessage(ctx, msg)
			if err != nil {
				s.logger.Error("Failed to encode reply", zap.Error(err))
				continue
			}
			out = reply
		case out = <-s.notifyCh:
		}

		if out == nil {
			continue
		}
		if err := t.Send(ctx, out); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}
