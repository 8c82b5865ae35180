// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

// Package web exposes the auth flows as a JSON API and binds sessions to the
// transport cookie. All session state is request-scoped: the middleware
// resolves the cookie once per request and the handlers read the result from
// the request context, never from ambient state.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/driftfile/driftfile/internal/auth"
	"github.com/driftfile/driftfile/internal/observability"
)

// Server serves the authentication API.
type Server struct {
	addr         string
	flow         *auth.Flow
	metrics      *observability.Metrics
	logger       *slog.Logger
	cookieSecure bool

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Options configures a Server.
type Options struct {
	Addr string

	// CookieSecure controls the Secure attribute on the session cookie.
	// Disable only for plain-HTTP local development.
	CookieSecure bool

	// Metrics is optional; a nil value disables flow counters.
	Metrics *observability.Metrics

	// Logger is optional and falls back to slog.Default.
	Logger *slog.Logger
}

// NewServer creates a new Server.
func NewServer(flow *auth.Flow, opts Options) (*Server, error) {
	if flow == nil {
		return nil, oops.Errorf("auth flow is required")
	}
	if opts.Addr == "" {
		return nil, oops.Errorf("listen address is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:         opts.Addr,
		flow:         flow,
		metrics:      opts.Metrics,
		logger:       logger,
		cookieSecure: opts.CookieSecure,
	}, nil
}

// Router builds the chi router for the API. Exposed for httptest use.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/sign-up", s.handleSignUp)
		r.Post("/sign-in", s.handleSignIn)
		r.Post("/verify", s.handleVerify)
		r.Post("/resend", s.handleResend)
		r.Post("/sign-out", s.handleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/me", s.handleMe)
			r.Get("/role", s.handleRole)
		})
	})

	return r
}

// Start begins serving the API. It returns an error channel that receives
// any error from the HTTP server after it starts; the channel is closed when
// the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// requestLogger logs one line per request with method, path, status and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
