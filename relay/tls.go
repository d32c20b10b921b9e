// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/caddyserver/certmagic"
)

// CertManager hands out certificates for the relay endpoint: self-signed
// for localhost-like names, ACME-managed otherwise.
type CertManager struct {
	cm *certmagic.Config

	mu        sync.Mutex
	selfStore map[string]*tls.Certificate
}

func NewCertManager(storageDir, email, env string) *CertManager {
	certmagic.DefaultACME.Email = email
	certmagic.DefaultACME.Agreed = true
	if env == "production" {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptProductionCA
	} else {
		certmagic.DefaultACME.CA = certmagic.LetsEncryptStagingCA
	}
	cfg := certmagic.NewDefault()
	cfg.Storage = &certmagic.FileStorage{Path: storageDir}
	return &CertManager{
		cm:        cfg,
		selfStore: make(map[string]*tls.Certificate),
	}
}

func (m *CertManager) GetCertificate(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	if chi == nil || chi.ServerName == "" {
		return nil, errors.New("missing SNI")
	}
	name := strings.ToLower(chi.ServerName)
	if isLocalHostlike(name) {
		return m.selfSigned(name)
	}
	// Public name: certmagic manages issuance and renewal.
	if err := m.cm.ManageSync(context.Background(), []string{name}); err != nil {
		return nil, fmt.Errorf("certmagic ManageSync: %w", err)
	}
	return m.cm.GetCertificate(chi)
}

func isLocalHostlike(name string) bool {
	return strings.Contains(name, "localhost") || strings.HasSuffix(name, ".test")
}

// selfSigned returns a cached certificate for a local name, minting one on
// first use. ACME cannot validate these names, so they never reach certmagic.
func (m *CertManager) selfSigned(name string) (*tls.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cert, ok := m.selfStore[name]; ok {
		return cert, nil
	}
	cert, err := mintSelfSigned(name)
	if err != nil {
		return nil, err
	}
	m.selfStore[name] = cert
	return cert, nil
}

func mintSelfSigned(host string) (*tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}
	tmpl := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: host, Organization: []string{"MorseWire Local"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{host},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	return &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}
