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

package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMountChi(t *testing.T) {
	h, _ := newTestHandler(t)

	r := chi.NewRouter()
	r.Route("/api/v1/passkey", func(r chi.Router) {
		MountChi(r, h)
	})

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/v1/passkey/registration/begin", "{}", http.StatusOK},
		{http.MethodPost, "/api/v1/passkey/registration/finish", "{}", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/passkey/registration/status", "", http.StatusOK},
		{http.MethodPost, "/api/v1/passkey/login/begin", "{}", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/passkey/login/finish", "", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/passkey/passkeys", "", http.StatusOK},
		{http.MethodDelete, "/api/v1/passkey/passkeys/bad!id", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(HeaderUserID, "alice")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

// mockMuxRouter implements MuxRouter for testing
type mockMuxRouter struct {
	routes map[string]mockMuxRoute
}

func newMockMuxRouter() *mockMuxRouter {
	return &mockMuxRouter{routes: make(map[string]mockMuxRoute)}
}

func (m *mockMuxRouter) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) MuxRoute {
	route := mockMuxRoute{path: path, handler: f}
	m.routes[path] = route
	return &route
}

type mockMuxRoute struct {
	path    string
	methods []string
	handler func(http.ResponseWriter, *http.Request)
}

func (m *mockMuxRoute) Methods(methods ...string) MuxRoute {
	m.methods = methods
	return m
}

func TestMountMux(t *testing.T) {
	h, _ := newTestHandler(t)

	r := newMockMuxRouter()
	MountMux(r, h)

	// Verify all routes are registered
	expectedRoutes := []string{
		"/registration/begin",
		"/registration/finish",
		"/registration/status",
		"/login/begin",
		"/login/finish",
		"/passkeys",
		"/passkeys/{id}",
	}

	for _, path := range expectedRoutes {
		route, ok := r.routes[path]
		assert.True(t, ok, "route %s should be registered", path)
		assert.NotNil(t, route.handler, "route %s should have handler", path)
	}
}

func TestMountStdlib(t *testing.T) {
	h, _ := newTestHandler(t)

	mux := http.NewServeMux()
	MountStdlib(mux, "/api/v1/passkey", h)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/api/v1/passkey/registration/begin", "{}", http.StatusOK},
		{http.MethodPost, "/api/v1/passkey/registration/finish", "{}", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/passkey/registration/status", "", http.StatusOK},
		{http.MethodPost, "/api/v1/passkey/login/begin", "{}", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/passkey/passkeys", "", http.StatusOK},
		{http.MethodDelete, "/api/v1/passkey/passkeys/bad!id", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(HeaderUserID, "alice")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_Routes(t *testing.T) {
	h, _ := newTestHandler(t)

	routes := h.Routes()

	assert.Len(t, routes, 7)

	expectedRoutes := map[string]string{
		"/registration/begin":  "POST",
		"/registration/finish": "POST",
		"/registration/status": "GET",
		"/login/begin":         "POST",
		"/login/finish":        "POST",
		"/passkeys":            "GET",
		"/passkeys/{id}":       "DELETE",
	}

	for _, route := range routes {
		expectedMethod, ok := expectedRoutes[route.Path]
		assert.True(t, ok, "unexpected route path: %s", route.Path)
		assert.Equal(t, expectedMethod, route.Method)
		assert.NotNil(t, route.Handler)
	}
}

func TestHandler_HandlerFunc(t *testing.T) {
	h, _ := newTestHandler(t)

	handlerFunc := h.HandlerFunc()

	tests := []struct {
		path   string
		method string
		body   string
		want   int
	}{
		{"/registration/begin", http.MethodPost, "{}", http.StatusOK},
		{"/registration/finish", http.MethodPost, "{}", http.StatusBadRequest},
		{"/registration/status", http.MethodGet, "", http.StatusOK},
		{"/login/begin", http.MethodPost, "{}", http.StatusBadRequest},
		{"/passkeys", http.MethodGet, "", http.StatusOK},
		{"/passkeys/bad!id", http.MethodDelete, "", http.StatusBadRequest},
		{"/unknown", http.MethodGet, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(HeaderUserID, "alice")
			rec := httptest.NewRecorder()
			handlerFunc(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_HandlerFunc_WithStripPrefix(t *testing.T) {
	h, _ := newTestHandler(t)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/passkey/", http.StripPrefix("/api/v1/passkey", h.HandlerFunc()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/passkey/registration/begin", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderUserID, "alice")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
