package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/Posteriot/makalah-app-sub005/internal/config"
	apperrors "github.com/Posteriot/makalah-app-sub005/pkg/errors"
	"github.com/Posteriot/makalah-app-sub005/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported by the health service.
const ServiceName = "makalah.payment.v1.PaymentCore"

// Server exposes gRPC health checking for the payment core.
type Server struct {
	config   *config.GRPCConfig
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func NewServer(cfg *config.GRPCConfig, log *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: log,
		health: health.NewServer(),
	}

	s.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.NewGrpcUnaryServerInterceptor(log),
			apperrors.UnaryServerInterceptor(),
		),
		grpc.StreamInterceptor(logger.NewGrpcStreamServerInterceptor(log)),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	return nil
}

// Start serves on the bound listener, binding first if needed.
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.SetServing(true)
	s.logger.Info("Starting gRPC server", zap.String("address", s.listener.Addr().String()))

	return s.server.Serve(s.listener)
}

// SetServing flips the reported health of the payment core.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.SetServing(false)

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
