package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/handler"
	m "github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/middleware"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/api/router"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/appcontext"
	"github.com/chhunhongteforwork-byte/Self-Service-KIOSK-System/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the payment HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cf := config.InitConfig(resolveConfigPath())
	logger := appcontext.NewLogger(cf.LogLevel, cf.IsDevelopment())

	// log level 可以不重啟調整
	config.OnChange(func(c *config.Config) {
		zerolog.SetGlobalLevel(appcontext.ParseLevel(c.LogLevel))
	})

	app, err := appcontext.NewApplicationContext(cf, logger)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	// 初始化 handler
	paymentHandler := handler.NewPaymentHandler(app.CheckoutService, app.ReconcileService, logger)
	server := api.NewServer(paymentHandler)

	// 設置路由
	limiter := m.NewTokenBucket(cf.RateLimitCapacity, cf.RateLimitRefill)
	r := router.SetupRouter(server, limiter, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		logger.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("application shutdown error")
		}
		shutdownCompleted <- struct{}{}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("Server starting")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		app.Shutdown(context.Background())
		return err
	}
	<-shutdownCompleted
	logger.Info().Msg("closed completed")
	return nil
}
