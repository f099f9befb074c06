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

// Package tls serves the HTTP transport over TLS with a certificate that is
// either loaded from files or generated for local development.
package tls

import (
	"crypto/tls"
	"fmt"
	"time"
)

// Certificate modes.
const (
	ModeOff        = ""
	ModeManual     = "manual"
	ModeSelfSigned = "self-signed"
)

// Config selects and configures the certificate source.
type Config struct {
	Mode string `mapstructure:"mode"` // "", "manual" or "self-signed"

	// Manual mode.
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`

	// Self-signed mode.
	Hostnames    []string `mapstructure:"hostnames"`
	IPAddresses  []string `mapstructure:"ip_addresses"`
	ValidityDays int      `mapstructure:"validity_days"`
	Organization string   `mapstructure:"organization"`
}

// Enabled reports whether TLS is configured.
func (c Config) Enabled() bool {
	return c.Mode != ModeOff
}

// Validate checks the configuration without loading any certificate.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeOff:
		return nil
	case ModeManual:
		if c.CertFile == "" || c.KeyFile == "" {
			return fmt.Errorf("cert_file and key_file are required for manual TLS")
		}
		return nil
	case ModeSelfSigned:
		if c.ValidityDays < 0 {
			return fmt.Errorf("validity_days must be positive, got %d", c.ValidityDays)
		}
		return nil
	default:
		return fmt.Errorf("unknown TLS mode: %s (must be manual or self-signed)", c.Mode)
	}
}

// Status describes the certificate being served.
type Status struct {
	Mode            string
	Domains         []string
	Issuer          string
	ExpiresAt       time.Time
	DaysUntilExpiry int
	Valid           bool
}

// Provider is the interface for TLS certificate providers.
type Provider interface {
	// GetCertificate returns a certificate for the given client hello.
	// This is called on every TLS handshake.
	GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error)

	// Status returns the current status of the certificate.
	Status() Status
}

// Manager handles the TLS certificate of the HTTP transport.
type Manager struct {
	config   Config
	provider Provider
}

// NewManager creates a TLS manager from configuration.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var provider Provider
	var err error

	switch config.Mode {
	case ModeManual:
		provider, err = NewManualProvider(config.CertFile, config.KeyFile)
	case ModeSelfSigned:
		provider, err = NewSelfSignedProvider(config)
	default:
		return nil, fmt.Errorf("TLS not enabled")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS provider: %w", err)
	}

	return &Manager{
		config:   config,
		provider: provider,
	}, nil
}

// TLSConfig returns a *tls.Config for use with HTTP servers.
func (m *Manager) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: m.provider.GetCertificate,
		MinVersion:     tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		},
	}
}

// Status returns the current TLS status.
func (m *Manager) Status() Status {
	return m.provider.Status()
}

func certStatus(mode, issuer string, domains []string, notAfter time.Time) Status {
	return Status{
		Mode:            mode,
		Domains:         domains,
		Issuer:          issuer,
		ExpiresAt:       notAfter,
		DaysUntilExpiry: int(time.Until(notAfter).Hours() / 24),
		Valid:           time.Now().Before(notAfter),
	}
}
