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

package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"time"
)

// SelfSignedProvider generates and serves a self-signed certificate for
// local development, e.g. when tunnelling a chat client to localhost.
type SelfSignedProvider struct {
	cert     *tls.Certificate
	x509Cert *x509.Certificate
}

// NewSelfSignedProvider generates a certificate for the configured names.
// Without names it covers localhost and 127.0.0.1.
func NewSelfSignedProvider(config Config) (*SelfSignedProvider, error) {
	if config.ValidityDays == 0 {
		config.ValidityDays = 365
	}
	if config.Organization == "" {
		config.Organization = "widgets-mcp development"
	}
	if len(config.Hostnames) == 0 && len(config.IPAddresses) == 0 {
		config.Hostnames = []string{"localhost"}
		config.IPAddresses = []string{"127.0.0.1"}
	}

	cert, x509Cert, err := generateSelfSignedCertificate(config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}

	return &SelfSignedProvider{
		cert:     cert,
		x509Cert: x509Cert,
	}, nil
}

// GetCertificate returns the generated certificate.
func (p *SelfSignedProvider) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return p.cert, nil
}

// Status returns the current certificate status.
func (p *SelfSignedProvider) Status() Status {
	return certStatus(ModeSelfSigned, "Self-Signed", p.x509Cert.DNSNames, p.x509Cert.NotAfter)
}

func generateSelfSignedCertificate(config Config) (*tls.Certificate, *x509.Certificate, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(time.Duration(config.ValidityDays) * 24 * time.Hour)

	commonName := "localhost"
	if len(config.Hostnames) > 0 {
		commonName = config.Hostnames[0]
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{config.Organization},
			CommonName:   commonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              append([]string{}, config.Hostnames...),
	}

	for _, ipStr := range config.IPAddresses {
		ip := net.ParseIP(ipStr)
		if ip == nil {
			return nil, nil, fmt.Errorf("invalid IP address %q", ipStr)
		}
		template.IPAddresses = append(template.IPAddresses, ip)
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	x509Cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create X509 key pair: %w", err)
	}

	return &tlsCert, x509Cert, nil
}
