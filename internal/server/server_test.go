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

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-passkey/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	if srv.Service() == nil {
		t.Error("Service() = nil")
	}
	if srv.Handler() == nil {
		t.Error("Handler() = nil")
	}

	if err := srv.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v, want nil", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) error = nil, want error")
	}
}

func TestNew_FileStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "file"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "credentials")

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	defer srv.Stop(context.Background())
}

func TestHealthEndpoint(t *testing.T) {
	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Stop(context.Background())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("GET /health body = %q, want status ok", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Stop(context.Background())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", rec.Code)
	}
}

func TestCeremonyRoutesMounted(t *testing.T) {
	srv, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Stop(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/passkey/registration/begin", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "alice")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("POST /registration/begin status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRateLimiting(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.RequestsPerMinute = 60
	cfg.RateLimit.Burst = 2

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Stop(context.Background())

	status := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/passkey/registration/status", nil)
		req.Header.Set("X-User-Id", "alice")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	if got := status(); got != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", got)
	}
	if got := status(); got != http.StatusOK {
		t.Fatalf("second request status = %d, want 200", got)
	}
	if got := status(); got != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", got)
	}

	// Health endpoint is not rate limited
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", rec.Code)
	}
}
