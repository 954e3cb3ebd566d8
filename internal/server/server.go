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
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
	passkeyhttp "github.com/jeremyhahn/go-passkey/pkg/passkey/http"
	"github.com/jeremyhahn/go-passkey/pkg/ratelimit"
)

// Server wires the passkey service, HTTP handlers and middleware into a
// runnable HTTP server.
type Server struct {
	config     *config.Config
	logger     *slog.Logger
	service    *passkey.Service
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	collector  *metrics.ResourceCollector
}

// New creates a server from the loaded configuration.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := logging.NewLogger(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	credentials, err := newCredentialStore(cfg)
	if err != nil {
		return nil, err
	}

	params := passkey.ServiceParams{
		Config:          &cfg.Passkey,
		ChallengeStore:  passkey.NewMemoryChallengeStore(),
		CredentialStore: credentials,
		Logger:          logger,
	}

	signingKey, err := cfg.Token.LoadSigningKey()
	if err != nil {
		return nil, err
	}
	if signingKey != nil {
		generator, err := passkey.NewDefaultJWTGenerator(&passkey.JWTGeneratorConfig{
			PrivateKey: signingKey,
			Issuer:     cfg.Token.Issuer,
			Audience:   cfg.Token.Audience,
			ExpiresIn:  cfg.Token.ExpiresIn,
			KeyID:      cfg.Token.KeyID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create token generator: %w", err)
		}
		params.TokenGenerator = generator
	}

	service, err := passkey.NewService(params)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:  cfg,
		logger:  logger,
		service: service,
	}

	if cfg.RateLimit.Enabled {
		server.limiter = ratelimit.New(&ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
	}

	if cfg.Metrics.Enabled {
		metrics.Enable()
		server.collector = metrics.StartResourceCollector(context.Background(), 30*time.Second)
	}

	server.httpServer = &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      server.setupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	if s.config.Metrics.Enabled {
		r.Use(metrics.HTTPMiddleware)
	}

	r.Get("/health", s.healthHandler)
	r.Head("/health", s.healthHandler)

	if s.config.Metrics.Enabled {
		r.Handle(s.config.Metrics.Path, promhttp.Handler())
	}

	handler := passkeyhttp.NewHandler(s.service).WithLogger(s.logger)
	r.Route("/api/v1/passkey", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		passkeyhttp.MountChi(r, handler)
	})

	return r
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		fmt.Fprintln(w, `{"status":"ok"}`)
	}
}

// Service returns the underlying passkey service.
func (s *Server) Service() *passkey.Service {
	return s.service
}

// Handler returns the configured HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"rp_id", s.config.Passkey.RPID,
		"storage", s.config.Storage.Backend)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.collector != nil {
		s.collector.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server", "error", err)
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

func newCredentialStore(cfg *config.Config) (passkey.CredentialStore, error) {
	switch cfg.Storage.Backend {
	case "file":
		return passkey.NewFileCredentialStore(cfg.Storage.Path)
	default:
		return passkey.NewMemoryCredentialStore(), nil
	}
}
