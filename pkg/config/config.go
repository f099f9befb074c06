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

// Package config loads widgets-mcp configuration.
//
// Values are resolved by viper in the usual order: flags bound by the CLI,
// WIDGETS_* environment variables, the config file, then defaults. The
// config file is widgets-mcp.yaml, searched in the widgets-mcp home
// directory, the working directory and /etc/widgets-mcp/.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	servertls "github.com/damixnr/openai-apps-sdk/pkg/tls"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets"
)

const (
	// DefaultConfigFileName is the config file name without extension.
	DefaultConfigFileName = "widgets-mcp"

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "WIDGETS"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the complete widgets-mcp configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Widgets  WidgetsConfig  `mapstructure:"widgets"`
	Manifest ManifestConfig `mapstructure:"manifest"`
	Assets   AssetsConfig   `mapstructure:"assets"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig configures the MCP endpoint.
type ServerConfig struct {
	Name            string        `mapstructure:"name"`      // Advertised server name
	Version         string        `mapstructure:"version"`   // Advertised server version
	Transport       string        `mapstructure:"transport"` // "stdio" or "http"
	Addr            string        `mapstructure:"addr"`      // HTTP listen address
	Path            string        `mapstructure:"path"`      // HTTP endpoint path
	Instructions    string        `mapstructure:"instructions"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"` // 0 disables idle expiry
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TLS serves the http transport over HTTPS when a mode is set.
	TLS servertls.Config `mapstructure:"tls"`
}

// WidgetsConfig configures widget metadata and registration.
type WidgetsConfig struct {
	widgets.WidgetConfig `mapstructure:",squash"`

	// Strict rejects duplicate resource URIs and dangling output templates.
	Strict bool `mapstructure:"strict"`
}

// ManifestConfig locates the route manifest. An empty path selects the
// embedded sample manifest.
type ManifestConfig struct {
	Path     string        `mapstructure:"path"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// AssetsConfig locates widget HTML. BaseURL selects HTTP asset storage, Dir
// a local build directory; with neither set the embedded sample is served.
type AssetsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	File   string `mapstructure:"file"`   // empty logs to stderr
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.name", widgets.DefaultServerName)
	v.SetDefault("server.version", widgets.DefaultServerVersion)
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.path", "/mcp")
	v.SetDefault("server.instructions", "")
	v.SetDefault("server.session_ttl", 30*time.Minute)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.tls.mode", servertls.ModeOff)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")
	v.SetDefault("server.tls.hostnames", []string{})
	v.SetDefault("server.tls.ip_addresses", []string{})
	v.SetDefault("server.tls.validity_days", 365)
	v.SetDefault("server.tls.organization", "")

	v.SetDefault("widgets.base_domain", "")
	v.SetDefault("widgets.widget_domain", "")
	v.SetDefault("widgets.connect_domains", []string{})
	v.SetDefault("widgets.resource_domains", []string{})
	v.SetDefault("widgets.strict", false)

	v.SetDefault("manifest.path", "")
	v.SetDefault("manifest.watch", false)
	v.SetDefault("manifest.debounce", 250*time.Millisecond)

	v.SetDefault("assets.base_url", "")
	v.SetDefault("assets.dir", "")
	v.SetDefault("assets.timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
}

// Load reads configuration into a Config. cfgFile, when set, replaces the
// config file search. A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(HomeDir())
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/widgets-mcp/")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Deployment variables used by the widget build tooling.
	if err := v.BindEnv("widgets.base_domain", "WIDGETS_WIDGETS_BASE_DOMAIN", "WORKER_DOMAIN_BASE"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("widgets.widget_domain", "WIDGETS_WIDGETS_WIDGET_DOMAIN", "WIDGET_DOMAIN"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Manifest.Path = ExpandPath(cfg.Manifest.Path)
	cfg.Assets.Dir = ExpandPath(cfg.Assets.Dir)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)
	cfg.Server.TLS.CertFile = ExpandPath(cfg.Server.TLS.CertFile)
	cfg.Server.TLS.KeyFile = ExpandPath(cfg.Server.TLS.KeyFile)

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("server.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Server.Transport))
	}
	if c.Server.Transport == TransportHTTP {
		if c.Server.Addr == "" {
			errs = append(errs, errors.New("server.addr is required for the http transport"))
		}
		if !strings.HasPrefix(c.Server.Path, "/") {
			errs = append(errs, fmt.Errorf("server.path must start with /, got %q", c.Server.Path))
		}
		if err := c.Server.TLS.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("server.tls: %w", err))
		}
	}
	if c.Server.SessionTTL < 0 {
		errs = append(errs, errors.New("server.session_ttl must not be negative"))
	}

	if c.Assets.BaseURL != "" && c.Assets.Dir != "" {
		errs = append(errs, errors.New("assets.base_url and assets.dir are mutually exclusive"))
	}
	if c.Manifest.Watch && c.Manifest.Path == "" {
		errs = append(errs, errors.New("manifest.watch requires manifest.path"))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
