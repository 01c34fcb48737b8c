package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"notification-hub/internal/config"
	"notification-hub/internal/handler"
	"notification-hub/internal/logging"
	"notification-hub/internal/worker"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(runCtx, cfg, ctx.logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg, q, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	sink, closeSink, err := openSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	dispatcher := worker.NewDispatcher(reg, cfg.RequestTimeoutDuration(), sink, logger)
	dispatcher.UserAgent = cfg.Dispatch.UserAgent
	dispatcher.MaxConcurrency = cfg.Dispatch.MaxConcurrency

	pool := worker.NewPool(cfg.Dispatch.Workers, q, dispatcher, logger)

	poolCtx, cancelPool := context.WithCancel(ctx)
	defer cancelPool()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pool.Run(poolCtx)
	}()

	e := newServer(logger)
	handler.NewHandler(reg, dispatcher, q, logger).Register(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("notification hub started", "bind", cfg.Server.Bind, "registry", cfg.Registry.Backend, "queue", cfg.Dispatch.Queue)
		errCh <- e.Start(cfg.Server.Bind)
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown", "error", shutdownErr)
		}
	}

	cancelPool()
	wg.Wait()
	return err
}

func newServer(logger *slog.Logger) *echo.Echo {
	httpLogger := logging.Component(logger, "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				httpLogger.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			httpLogger.Info("request", attrs...)
			return nil
		},
	}))
	return e
}
