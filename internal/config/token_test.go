// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writeKeyFile(t *testing.T, blockType string, der []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
	return path
}

func TestLoadSigningKey_NotConfigured(t *testing.T) {
	key, err := (TokenConfig{}).LoadSigningKey()
	if err != nil {
		t.Fatalf("LoadSigningKey() error = %v, want nil", err)
	}
	if key != nil {
		t.Errorf("LoadSigningKey() = %v, want nil", key)
	}
}

func TestLoadSigningKey_PKCS8(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	cfg := TokenConfig{PrivateKeyFile: writeKeyFile(t, "PRIVATE KEY", der)}
	key, err := cfg.LoadSigningKey()
	if err != nil {
		t.Fatalf("LoadSigningKey() error = %v, want nil", err)
	}
	if _, ok := key.(ed25519.PrivateKey); !ok {
		t.Errorf("LoadSigningKey() = %T, want ed25519.PrivateKey", key)
	}
}

func TestLoadSigningKey_EC(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	cfg := TokenConfig{PrivateKeyFile: writeKeyFile(t, "EC PRIVATE KEY", der)}
	key, err := cfg.LoadSigningKey()
	if err != nil {
		t.Fatalf("LoadSigningKey() error = %v, want nil", err)
	}
	if _, ok := key.(*ecdsa.PrivateKey); !ok {
		t.Errorf("LoadSigningKey() = %T, want *ecdsa.PrivateKey", key)
	}
}

func TestLoadSigningKey_RSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	cfg := TokenConfig{PrivateKeyFile: writeKeyFile(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))}
	key, err := cfg.LoadSigningKey()
	if err != nil {
		t.Fatalf("LoadSigningKey() error = %v, want nil", err)
	}
	if _, ok := key.(*rsa.PrivateKey); !ok {
		t.Errorf("LoadSigningKey() = %T, want *rsa.PrivateKey", key)
	}
}

func TestLoadSigningKey_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cfg := TokenConfig{PrivateKeyFile: filepath.Join(t.TempDir(), "nope.pem")}
		if _, err := cfg.LoadSigningKey(); err == nil {
			t.Error("LoadSigningKey() error = nil, want error")
		}
	})

	t.Run("not pem", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.pem")
		if err := os.WriteFile(path, []byte("not a pem file"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg := TokenConfig{PrivateKeyFile: path}
		if _, err := cfg.LoadSigningKey(); err == nil {
			t.Error("LoadSigningKey() error = nil, want error")
		}
	})

	t.Run("unsupported block type", func(t *testing.T) {
		cfg := TokenConfig{PrivateKeyFile: writeKeyFile(t, "CERTIFICATE", []byte{0x01})}
		if _, err := cfg.LoadSigningKey(); err == nil {
			t.Error("LoadSigningKey() error = nil, want error")
		}
	})
}
