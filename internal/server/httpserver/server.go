// Package httpserver exposes the account service over HTTP with a chi router.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// AccountService is the part of accounts.Service the HTTP layer needs.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*accounts.Account, error)
	Authenticate(ctx context.Context, identifier, password string) (*accounts.AuthResult, error)
	RegisterAndLogin(ctx context.Context, in accounts.RegisterInput) (*accounts.AuthResult, error)
	ResolveIdentity(ctx context.Context, token string) (*accounts.Account, error)
}

type HTTPServer struct {
	address string
	svc     AccountService
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, svc AccountService, m *metrics.Metrics) *HTTPServer {
	if m == nil {
		m = metrics.New()
	}
	return &HTTPServer{
		address: a,
		svc:     svc,
		metrics: m,
		logger:  l.With("module", "http_server"),
	}
}

// Router builds the route table.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegisterAndLogin)
		r.Post("/login", s.handleLogin)
	})
	r.With(s.requireIdentity).Get("/me", s.handleMe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
