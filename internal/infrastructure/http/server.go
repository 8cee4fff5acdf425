package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Posteriot/makalah-app-sub005/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Server wraps the echo instance of the payment core.
type Server struct {
	echo      *echo.Echo
	logger    *zap.Logger
	host      string
	port      int
	readiness ReadinessCheck
}

// ServerOption configures a Server.
type ServerOption func(*Server)

func WithAddress(host string, port int) ServerOption {
	return func(s *Server) {
		s.host = host
		s.port = port
	}
}

func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithReadiness makes /ready fail while check fails.
func WithReadiness(check ReadinessCheck) ServerOption {
	return func(s *Server) {
		s.readiness = check
	}
}

// NewServer creates an echo server with logging, recovery and health routes.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		echo:   echo.New(),
		logger: zap.NewNop(),
		port:   8080,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	logger.WithEchoLogger(e, s.logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(s.logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})
	e.GET("/ready", s.ready)

	return s
}

func (s *Server) ready(c echo.Context) error {
	if s.readiness != nil {
		if err := s.readiness(c.Request().Context()); err != nil {
			s.logger.Warn("Readiness check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// RegisterRoutes hands the echo instance to registerFunc.
func (s *Server) RegisterRoutes(registerFunc func(e *echo.Echo)) {
	registerFunc(s.echo)
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// GetEcho returns the underlying echo instance.
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}
