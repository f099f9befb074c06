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
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
)

// WidgetConfig holds the deployment settings widget metadata is built from.
type WidgetConfig struct {
	// BaseDomain is the domain widget assets are served from. It is added
	// to the CSP resource domains.
	BaseDomain string `mapstructure:"base_domain"`

	// WidgetDomain is the dedicated origin widgets are rendered under.
	// Left empty, no widget domain is advertised.
	WidgetDomain string `mapstructure:"widget_domain"`

	// ConnectDomains and ResourceDomains are appended to the CSP lists.
	ConnectDomains  []string `mapstructure:"connect_domains"`
	ResourceDomains []string `mapstructure:"resource_domains"`
}

// ResourceMetadata is the _meta attached to every widget resource.
// It is immutable; accessors return copies.
type ResourceMetadata struct {
	connectDomains  []string
	resourceDomains []string
	widgetDomain    *string
}

// BuildResourceMetadata derives widget resource metadata from cfg.
//
// A missing base domain yields a *ConfigError, logged at error level, together
// with metadata that is still valid to serve: widgets then cannot load
// assets from their own origin but the server keeps running.
func BuildResourceMetadata(cfg WidgetConfig, logger *zap.Logger) (ResourceMetadata, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	meta := ResourceMetadata{
		connectDomains:  []string{},
		resourceDomains: []string{},
	}

	var cfgErr error
	if base := strings.TrimSpace(cfg.BaseDomain); base != "" {
		meta.resourceDomains = append(meta.resourceDomains, base)
	} else {
		cfgErr = &ConfigError{
			Key:     "widgets.base_domain",
			Message: "not set, widget resources will not be allowed to load assets",
		}
		logger.Error("Widget base domain is not configured", zap.Error(cfgErr))
	}

	meta.connectDomains = appendDomains(meta.connectDomains, cfg.ConnectDomains)
	meta.resourceDomains = appendDomains(meta.resourceDomains, cfg.ResourceDomains)

	if wd := strings.TrimSpace(cfg.WidgetDomain); wd != "" {
		meta.widgetDomain = &wd
	}

	logger.Debug("Built widget resource metadata",
		zap.Strings("connect_domains", meta.connectDomains),
		zap.Strings("resource_domains", meta.resourceDomains),
		zap.Bool("widget_domain", meta.widgetDomain != nil))

	return meta, cfgErr
}

func appendDomains(dst, src []string) []string {
	for _, d := range src {
		if d = strings.TrimSpace(d); d != "" {
			dst = append(dst, d)
		}
	}
	return dst
}

// ConnectDomains returns the CSP connect domains.
func (m ResourceMetadata) ConnectDomains() []string {
	return append([]string{}, m.connectDomains...)
}

// ResourceDomains returns the CSP resource domains.
func (m ResourceMetadata) ResourceDomains() []string {
	return append([]string{}, m.resourceDomains...)
}

// WidgetDomain returns the widget domain and whether one is configured.
func (m ResourceMetadata) WidgetDomain() (string, bool) {
	if m.widgetDomain == nil {
		return "", false
	}
	return *m.widgetDomain, true
}

// Meta returns the metadata as a fresh _meta map.
func (m ResourceMetadata) Meta() map[string]interface{} {
	meta := map[string]interface{}{
		protocol.MetaWidgetCSP: protocol.WidgetCSP{
			ConnectDomains:  m.ConnectDomains(),
			ResourceDomains: m.ResourceDomains(),
		},
	}
	if wd, ok := m.WidgetDomain(); ok {
		meta[protocol.MetaWidgetDomain] = wd
	}
	return meta
}

// MarshalJSON encodes the metadata in its _meta wire form.
func (m ResourceMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Meta())
}
