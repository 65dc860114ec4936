// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/beacon/internal/core/api"
	"github.com/solatis/beacon/internal/core/auth"
	"github.com/solatis/beacon/internal/core/config"
)

const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config *config.InspectorConfig
	logger *slog.Logger
}

// NewGRPCServer creates a gRPC server with auth and timeout interceptors and
// registers the inspector and health services.
func NewGRPCServer(cfg *config.InspectorConfig, service api.InspectorServer, authenticator *auth.Authenticator, logger *slog.Logger) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			authenticator.UnaryInterceptor(),
			timeoutInterceptor(cfg.RequestTimeout),
			loggingInterceptor(logger),
		),
	)
	api.RegisterInspectorServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the configured address and serves until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.logger.Info("inspector API listening", "addr", listener.Addr().String())
	return s.server.Serve(listener)
}

// Shutdown marks the server not serving and stops it gracefully,
// forcing a stop after 30 seconds or when ctx is done.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

// timeoutInterceptor bounds each request by the configured timeout.
func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("inspector request",
			"method", info.FullMethod,
			"key_id", auth.KeyIDFromContext(ctx),
			"duration", time.Since(start),
			"error", err,
		)
		return resp, err
	}
}
