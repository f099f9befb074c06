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

package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/damixnr/openai-apps-sdk/embedded"
	"github.com/damixnr/openai-apps-sdk/pkg/config"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/transport"
	servertls "github.com/damixnr/openai-apps-sdk/pkg/tls"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/fetcher"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// isolate keeps config discovery and deployment variables from leaking into
// a test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())
	t.Setenv("WORKER_DOMAIN_BASE", "")
	t.Setenv("WIDGET_DOMAIN", "")
	t.Chdir(t.TempDir())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Name:      widgets.DefaultServerName,
			Version:   widgets.DefaultServerVersion,
			Transport: config.TransportStdio,
			Path:      "/mcp",
		},
		Widgets: config.WidgetsConfig{WidgetConfig: widgets.WidgetConfig{BaseDomain: "example.com"}},
		Logging: config.LoggingConfig{Level: "error", Format: "json", File: filepath.Join(os.TempDir(), "widgets-mcp-test.log")},
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "widgets-mcp "))
}

func TestValidateCmd_EmbeddedSample(t *testing.T) {
	isolate(t)

	out, err := execute(t, "validate", "--base-domain", "example.com", "--fetch", "--log-level", "error")
	require.NoError(t, err, out)

	m, err := embedded.Manifest()
	require.NoError(t, err)
	for _, e := range m.Entries() {
		assert.Contains(t, out, protocol.WidgetURI(e.ResourceURI))
	}
	assert.Contains(t, out, "hello-world")
	assert.Contains(t, out, "who-made-you")
	assert.Contains(t, out, "OK")
}

func TestValidateCmd_MissingBaseDomain(t *testing.T) {
	isolate(t)

	out, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, out, "widgets.base_domain")
}

func TestValidateCmd_DanglingTemplate(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "routes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"hello-world": {"resourceURI": "abc123", "resourceName": "Hello", "originalUrlPath": "/hello-world"}
	}`), 0o644))

	out, err := execute(t, "validate", "--base-domain", "example.com", "--manifest", path)
	require.Error(t, err)
	assert.Contains(t, out, `tool "who-made-you"`)
}

func TestValidateCmd_DuplicateAndDanglingTogether(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "routes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"hello-world": {"resourceURI": "abc123", "resourceName": "Hello", "originalUrlPath": "/hello-world"},
		"hello-again": {"resourceURI": "abc123", "resourceName": "Again", "originalUrlPath": "/hello-world"}
	}`), 0o644))

	out, err := execute(t, "validate", "--base-domain", "example.com", "--manifest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problem(s)")
	assert.Equal(t, 1, strings.Count(out, `resource URI "abc123" is used by more than one route`))
	assert.Contains(t, out, `tool "who-made-you"`)

	// Both tools are still listed with their templates.
	assert.Contains(t, out, "ui://widget/abc123")
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "Who made you?")
}

func TestValidateCmd_InvalidConfig(t *testing.T) {
	isolate(t)

	_, err := execute(t, "validate", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestRunServe_Stdio(t *testing.T) {
	cfg := testConfig()

	stdin := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n")
	var stdout bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, runServe(ctx, cfg, stdin, &stdout))

	var responses []protocol.Response
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		var resp protocol.Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.Len(t, responses, 2)

	var tools protocol.ToolListResult
	require.NoError(t, json.Unmarshal(responses[1].Result, &tools))
	require.Len(t, tools.Tools, 2)
	assert.Equal(t, "hello-world", tools.Tools[0].Name)
	assert.Equal(t, "ui://widget/hello-world-5f1c2a", tools.Tools[0].Meta[protocol.MetaOutputTemplate])
}

func TestServeHTTP(t *testing.T) {
	m, err := embedded.Manifest()
	require.NoError(t, err)
	meta, err := widgets.BuildResourceMetadata(widgets.WidgetConfig{BaseDomain: "example.com"}, nil)
	require.NoError(t, err)
	host, err := widgets.NewHost(manifest.NewStatic(m), fetcher.NewFSFetcher(embedded.Assets()), meta, widgets.HostConfig{
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, ln, config.ServerConfig{Path: "/mcp", ShutdownTimeout: 5 * time.Second}, host, zaptest.NewLogger(t))
	}()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Post(base+"/mcp", "application/json", strings.NewReader(body))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get(transport.HeaderSessionID)
	require.NotEmpty(t, sessionID)

	req, err := http.NewRequest(http.MethodPost, base+"/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"ui://widget/who-made-you-9b3e71"}}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(transport.HeaderSessionID, sessionID)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	var rpcResp protocol.Response
	require.NoError(t, json.Unmarshal(data, &rpcResp))
	require.Nil(t, rpcResp.Error)
	var read protocol.ReadResourceResult
	require.NoError(t, json.Unmarshal(rpcResp.Result, &read))
	assert.Contains(t, read.Contents[0].Text, "Who Made You")

	resp, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	_ = resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["sessions"])

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 0, host.SessionCount())
}

func TestServeHTTP_SelfSignedTLS(t *testing.T) {
	m, err := embedded.Manifest()
	require.NoError(t, err)
	meta, err := widgets.BuildResourceMetadata(widgets.WidgetConfig{BaseDomain: "example.com"}, nil)
	require.NoError(t, err)
	host, err := widgets.NewHost(manifest.NewStatic(m), fetcher.NewFSFetcher(embedded.Assets()), meta, widgets.HostConfig{
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "https://" + ln.Addr().String()

	cfg := config.ServerConfig{
		Path:            "/mcp",
		ShutdownTimeout: 5 * time.Second,
		TLS:             servertls.Config{Mode: servertls.ModeSelfSigned},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, ln, cfg, host, zaptest.NewLogger(t))
	}()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed test certificate
	}}
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get(base + "/healthz")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	require.NotNil(t, resp.TLS)
	assert.Equal(t, "localhost", resp.TLS.PeerCertificates[0].Subject.CommonName)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeHTTP_InvalidTLS(t *testing.T) {
	host, err := widgets.NewHost(manifest.NewStatic(manifest.MustNew()), fetcher.NewFSFetcher(embedded.Assets()),
		widgets.ResourceMetadata{}, widgets.HostConfig{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	cfg := config.ServerConfig{
		Path: "/mcp",
		TLS:  servertls.Config{Mode: servertls.ModeManual, CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
	}
	err = serveHTTP(context.Background(), ln, cfg, host, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load certificate")
}

func TestBuildFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<div>"+r.URL.Path+"</div>")
	}))
	defer ts.Close()
	f, err := buildFetcher(config.AssetsConfig{BaseURL: ts.URL, Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &fetcher.HTTPFetcher{}, f)
	html, err := f.Fetch(context.Background(), "/who-made-you")
	require.NoError(t, err)
	assert.Equal(t, "<div>/who-made-you</div>", html)

	f, err = buildFetcher(config.AssetsConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &fetcher.FSFetcher{}, f)

	f, err = buildFetcher(config.AssetsConfig{})
	require.NoError(t, err)
	html, err = f.Fetch(context.Background(), "/hello-world")
	require.NoError(t, err)
	assert.Contains(t, html, "Hello World")

	_, err = buildFetcher(config.AssetsConfig{BaseURL: "ftp://nope"})
	assert.Error(t, err)
}

func TestBuildMetadata_ConfigErrorIsNotFatal(t *testing.T) {
	meta, err := buildMetadata(config.WidgetsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Empty(t, meta.ResourceDomains())
}

func TestBuildManifestSource(t *testing.T) {
	src, w, err := buildManifestSource(config.ManifestConfig{}, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.Equal(t, 2, src.Current().Len())

	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a:\n  resourceURI: x\n  originalUrlPath: /a\n"), 0o644))

	src, w, err = buildManifestSource(config.ManifestConfig{Path: path, Watch: true}, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	require.NotNil(t, w)
	defer func() { _ = w.Stop() }()
	assert.Equal(t, 1, src.Current().Len())
}

func TestBuildLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := buildLogger(config.LoggingConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"ts":`)

	_, err = buildLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
