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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultMaxMessageSize bounds a single stdio message.
const DefaultMaxMessageSize = 4 * 1024 * 1024

var errTransportClosed = errors.New("transport closed")

type readResult struct {
	data []byte
	err  error
}

// StdioServerTransport speaks newline-delimited JSON-RPC over a reader and a
// writer, normally the process's stdin and stdout. Nothing else may write to
// the writer while the transport is in use.
type StdioServerTransport struct {
	scanner *bufio.Scanner
	writer  io.Writer

	mu     sync.Mutex // guards writer and closed
	closed bool

	readCh chan readResult
	once   sync.Once
}

// NewStdioServerTransport creates a stdio transport over r and w.
func NewStdioServerTransport(r io.Reader, w io.Writer) *StdioServerTransport {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), DefaultMaxMessageSize)
	return &StdioServerTransport{
		scanner: scanner,
		writer:  w,
		readCh:  make(chan readResult, 1),
	}
}

// startReader starts the single goroutine that owns the scanner. Receive
// calls that are cancelled leave the pending line in readCh for the next call.
func (t *StdioServerTransport) startReader() {
	t.once.Do(func() {
		go func() {
			defer close(t.readCh)
			for t.scanner.Scan() {
				line := bytes.TrimRight(t.scanner.Bytes(), "\r")
				if len(bytes.TrimSpace(line)) == 0 {
					continue
				}
				t.readCh <- readResult{data: append([]byte(nil), line...)}
			}
			err := t.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			t.readCh <- readResult{err: err}
		}()
	})
}

// Send writes message followed by a newline.
func (t *StdioServerTransport) Send(_ context.Context, message []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errTransportClosed
	}

	buf := make([]byte, 0, len(message)+1)
	buf = append(buf, message...)
	buf = append(buf, '\n')
	if _, err := t.writer.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive returns the next non-empty line without its line terminator.
func (t *StdioServerTransport) Receive(ctx context.Context) ([]byte, error) {
	t.startReader()

	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, errTransportClosed
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-t.readCh:
		if !ok {
			return nil, io.EOF
		}
		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read message: %w", res.err)
		}
		return res.data, nil
	}
}

// Close marks the transport closed. The underlying reader and writer are
// owned by the caller.
func (t *StdioServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
