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
	"errors"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/embedded"
	"github.com/damixnr/openai-apps-sdk/pkg/config"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/fetcher"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets/manifest"
)

// buildMetadata builds widget metadata. A *widgets.ConfigError has already
// been logged by the builder and does not stop the server.
func buildMetadata(cfg config.WidgetsConfig, logger *zap.Logger) (widgets.ResourceMetadata, error) {
	meta, err := widgets.BuildResourceMetadata(cfg.WidgetConfig, logger)
	var cfgErr *widgets.ConfigError
	if err != nil && !errors.As(err, &cfgErr) {
		return widgets.ResourceMetadata{}, err
	}
	return meta, nil
}

// loadManifest loads the configured manifest, or the embedded sample when no
// path is set.
func loadManifest(cfg config.ManifestConfig) (*manifest.Manifest, error) {
	if cfg.Path == "" {
		return embedded.Manifest()
	}
	return manifest.LoadFile(cfg.Path)
}

// buildManifestSource returns the manifest source for the server. With
// watching enabled the returned watcher must be started by the caller.
func buildManifestSource(cfg config.ManifestConfig, logger *zap.Logger, onReload manifest.ReloadCallback) (manifest.Source, *manifest.Watcher, error) {
	if cfg.Watch {
		w, err := manifest.NewWatcher(cfg.Path, manifest.WatcherConfig{
			Debounce: cfg.Debounce,
			Logger:   logger.Named("manifest"),
			OnReload: onReload,
		})
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	}

	m, err := loadManifest(cfg)
	if err != nil {
		return nil, nil, err
	}
	return manifest.NewStatic(m), nil, nil
}

// buildFetcher selects asset storage: HTTP, a local directory, or the
// embedded sample build.
func buildFetcher(cfg config.AssetsConfig) (fetcher.Fetcher, error) {
	switch {
	case cfg.BaseURL != "":
		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		return fetcher.NewHTTPFetcher(cfg.BaseURL,
			fetcher.WithHTTPClient(client),
			fetcher.WithTimeout(cfg.Timeout))
	case cfg.Dir != "":
		return fetcher.NewFSFetcher(os.DirFS(cfg.Dir)), nil
	default:
		return fetcher.NewFSFetcher(embedded.Assets()), nil
	}
}
