// Package grpc hosts the gRPC endpoint: the standard health service, the
// Identity service and the bearer-token gate in front of it.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// IdentityResolver turns a bearer token into an active account.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*accounts.Account, error)
}

type GRPCServer struct {
	address  string
	identity IdentityResolver
	metrics  *metrics.Metrics
	health   *health.Server
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, identity IdentityResolver, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		identity: identity,
		metrics:  m,
		health:   health.NewServer(),
		logger:   l.With("module", "grpc_server"),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.identityInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	srv.RegisterService(&identityServiceDesc, &identityService{})
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(IdentityServiceName, healthpb.HealthCheckResponse_SERVING)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			s.health.Shutdown()
			srv.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	err := srv.Serve(lis)
	close(done)
	if err != nil {
		s.health.Shutdown()
		srv.Stop()
		<-stopped
		return err
	}

	<-stopped
	return nil
}
