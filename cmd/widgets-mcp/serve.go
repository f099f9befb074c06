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
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/damixnr/openai-apps-sdk/pkg/config"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/transport"
	servertls "github.com/damixnr/openai-apps-sdk/pkg/tls"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve widgets over MCP (stdio or streamable HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a.cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("transport", config.TransportStdio, "transport (stdio, http)")
	flags.String("addr", "127.0.0.1:8787", "HTTP listen address")
	flags.String("path", "/mcp", "HTTP endpoint path")
	flags.Bool("watch", false, "reload the manifest file when it changes")
	flags.String("tls", "", "serve HTTP over TLS (manual, self-signed)")

	_ = a.v.BindPFlag("server.transport", flags.Lookup("transport"))
	_ = a.v.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = a.v.BindPFlag("server.path", flags.Lookup("path"))
	_ = a.v.BindPFlag("manifest.watch", flags.Lookup("watch"))
	_ = a.v.BindPFlag("server.tls.mode", flags.Lookup("tls"))

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	meta, err := buildMetadata(cfg.Widgets, logger)
	if err != nil {
		return err
	}

	var host *widgets.Host
	src, watcher, err := buildManifestSource(cfg.Manifest, logger, func(m *manifest.Manifest) {
		host.ManifestChanged(m)
	})
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}

	f, err := buildFetcher(cfg.Assets)
	if err != nil {
		return err
	}

	host, err = widgets.NewHost(src, f, meta, widgets.HostConfig{
		Name:         cfg.Server.Name,
		Version:      cfg.Server.Version,
		Instructions: cfg.Server.Instructions,
		Strict:       cfg.Widgets.Strict,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = host.Close() }()

	g, gctx := errgroup.WithContext(ctx)

	if watcher != nil {
		if err := watcher.Start(gctx); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
		}
		g.Go(func() error {
			return serveHTTP(gctx, ln, cfg.Server, host, logger)
		})
	default:
		g.Go(func() error {
			return serveStdio(gctx, host, stdin, stdout)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serveStdio runs a single session on stdin/stdout until EOF or
// cancellation.
func serveStdio(ctx context.Context, host *widgets.Host, stdin io.Reader, stdout io.Writer) error {
	session, err := host.NewSession(ctx, "stdio")
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	t := transport.NewStdioServerTransport(stdin, stdout)
	defer func() { _ = t.Close() }()

	err = session.Serve(ctx, t)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// newHTTPHandler mounts the MCP endpoint and a health check.
func newHTTPHandler(cfg config.ServerConfig, host *widgets.Host, logger *zap.Logger) (http.Handler, *transport.StreamableHTTPServer, error) {
	mcp, err := transport.NewStreamableHTTPServer(transport.StreamableHTTPServerConfig{
		Factory:        host.SessionFactory(),
		Logger:         logger.Named("http"),
		SessionTTL:     cfg.SessionTTL,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, otelhttp.NewHandler(mcp, "mcp"))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"sessions": mcp.SessionCount(),
		})
	})
	return mux, mcp, nil
}

// serveHTTP serves the streamable HTTP transport on ln until ctx ends.
func serveHTTP(ctx context.Context, ln net.Listener, cfg config.ServerConfig, host *widgets.Host, logger *zap.Logger) error {
	handler, mcp, err := newHTTPHandler(cfg, host, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheme := "http"
	if cfg.TLS.Enabled() {
		mgr, err := servertls.NewManager(cfg.TLS)
		if err != nil {
			mcp.Close()
			return err
		}
		status := mgr.Status()
		logger.Info("TLS enabled",
			zap.String("mode", status.Mode),
			zap.Strings("domains", status.Domains),
			zap.Time("expires_at", status.ExpiresAt))
		srv.TLSConfig = mgr.TLSConfig()
		ln = tls.NewListener(ln, srv.TLSConfig)
		scheme = "https"
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving MCP over HTTP",
			zap.String("scheme", scheme),
			zap.String("addr", ln.Addr().String()),
			zap.String("path", cfg.Path))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		mcp.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Event streams only end when their sessions do.
	mcp.Close()

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("HTTP server stopped")
	return ctx.Err()
}
