// Package server exposes the control operations over gRPC.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server bundles the gRPC server with its health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// New builds a gRPC server serving ctl and the standard health service.
func New(ctl ControlServiceServer, logger *slog.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(unaryInterceptor(logger))}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterControlServiceServer(gs, ctl)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: gs, health: hs, logger: logger}
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("grpc.listening", "addr", lis.Addr().String())
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(lis) }()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("grpc.shutdown")
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	}
}
