package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handler "github.com/Posteriot/makalah-app-sub005/internal/adapter/handler/http"
	"github.com/Posteriot/makalah-app-sub005/internal/app"
	"github.com/Posteriot/makalah-app-sub005/internal/config"
	grpcServer "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/grpc"
	httpServer "github.com/Posteriot/makalah-app-sub005/internal/infrastructure/http"
	"github.com/Posteriot/makalah-app-sub005/internal/middleware/auth"
	"github.com/Posteriot/makalah-app-sub005/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Name))

	a, err := app.New(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := a.ListenForConfigChanges(ctx); err != nil {
			zapLogger.Error("Provider config listener stopped", zap.Error(err))
		}
	}()

	httpSrv := httpServer.NewServer(
		httpServer.WithAddress(cfg.Server.HTTP.Host, cfg.Server.HTTP.Port),
		httpServer.WithLogger(zapLogger),
		httpServer.WithReadiness(a.Ping),
	)
	httpSrv.RegisterRoutes(func(e *echo.Echo) {
		handler.RegisterRoutes(e, &handler.Handlers{
			Webhook:      handler.NewWebhookHandler(a.Factory, a.Webhooks, cfg.Webhook.Timeout, zapLogger.Named("webhook")),
			Internal:     handler.NewInternalHandler(a.Payments, a.Reconcile, a.Subscriptions, cfg.Reconcile.PastDueGrace, zapLogger),
			Admin:        handler.NewAdminHandler(a.ProviderAdmin, a.Payments, zapLogger),
			Subscription: handler.NewSubscriptionHandler(zapLogger, a.Subscriptions),
			Account:      handler.NewAccountHandler(a.Credits, a.Quotas, a.Payments, zapLogger),
		}, handler.RouteGuards{
			User: auth.JWTMiddleware(auth.JWTConfig{
				Secret: cfg.JWT.Secret,
				Issuer: cfg.JWT.Issuer,
				Logger: zapLogger,
			}),
			Internal:         auth.InternalKeyMiddleware(cfg.Service.InternalKey, zapLogger),
			WebhookBodyLimit: fmt.Sprintf("%dB", cfg.Webhook.MaxBodyBytes),
		})
	})

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	var grpcSrv *grpcServer.Server
	if cfg.Server.GRPC.Enabled {
		grpcSrv = grpcServer.NewServer(&cfg.Server.GRPC, zapLogger)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
		}
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
