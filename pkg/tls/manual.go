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
	"crypto/tls"
	"crypto/x509"
	"fmt"
)

// ManualProvider serves a certificate loaded from PEM files.
type ManualProvider struct {
	cert     *tls.Certificate
	x509Cert *x509.Certificate
}

// NewManualProvider loads the key pair at certFile and keyFile.
func NewManualProvider(certFile, keyFile string) (*ManualProvider, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	var x509Cert *x509.Certificate
	if len(cert.Certificate) > 0 {
		x509Cert, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
	}

	return &ManualProvider{
		cert:     &cert,
		x509Cert: x509Cert,
	}, nil
}

// GetCertificate returns the loaded certificate.
func (p *ManualProvider) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return p.cert, nil
}

// Status returns the current certificate status.
func (p *ManualProvider) Status() Status {
	if p.x509Cert == nil {
		return Status{Mode: ModeManual}
	}
	return certStatus(ModeManual, p.x509Cert.Issuer.CommonName, p.x509Cert.DNSNames, p.x509Cert.NotAfter)
}
