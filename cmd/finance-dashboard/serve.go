package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-dashboard/internal/assistant"
	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"github.com/iwvelando/finance-dashboard/internal/server"
	"github.com/iwvelando/finance-dashboard/internal/settings"
	"github.com/iwvelando/finance-dashboard/internal/upload"
	"github.com/iwvelando/finance-dashboard/pkg/format"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	address string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the dashboard API over HTTP" }
func (*serveCmd) Usage() string {
	return `finance-dashboard serve [-address <host:port>]

  Serves the JSON API and SVG charts until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.address, "address", "", "listen address override (defaults to server.address)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fatal("main.serve", err)
	}
	defer a.close()

	services, err := newServices(a.logger, a.conf)
	if err != nil {
		a.logger.Error("failed to build services",
			zap.String("op", "main.serve"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}
	defer services.Uploads.Close()
	defer services.Conversations.Close()

	address := a.conf.Server.Address
	if c.address != "" {
		address = c.address
	}
	srv := &http.Server{
		Addr:              address,
		Handler:           server.NewHandler(a.logger, services, a.conf.Server.UploadSizeBytes(), version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if idle := a.conf.Server.SessionIdleTimeout; idle > 0 {
		go expireIdle(ctx, a.logger, services, idle)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening",
			zap.String("op", "main.serve"),
			zap.String("address", address),
			zap.String("currency", a.conf.Dashboard.Currency),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server failed",
				zap.String("op", "main.serve"),
				zap.Error(err),
			)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("graceful shutdown failed",
				zap.String("op", "main.serve"),
				zap.Error(err),
			)
			return subcommands.ExitFailure
		}
		a.logger.Info("server stopped", zap.String("op", "main.serve"))
	}
	return subcommands.ExitSuccess
}

// expireIdle drops idle sessions every half of maxIdle until ctx ends.
func expireIdle(ctx context.Context, logger *zap.Logger, services server.Services, maxIdle time.Duration) {
	ticker := time.NewTicker(max(maxIdle/2, time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			uploads, conversations := services.Expire(now, maxIdle)
			logger.Debug("expired idle sessions",
				zap.String("op", "main.expireIdle"),
				zap.Int("uploads", uploads),
				zap.Int("conversations", conversations),
			)
		}
	}
}

// newServices wires the API components from the configuration. The caller
// closes Uploads and Conversations.
func newServices(logger *zap.Logger, conf *config.Configuration) (server.Services, error) {
	catalog, err := dashboard.Default(logger, conf.Dashboard.Currency)
	if err != nil {
		return server.Services{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	formatter, err := format.Currency(conf.Dashboard.Currency)
	if err != nil {
		return server.Services{}, err
	}
	a, err := assistant.New(logger, formatter)
	if err != nil {
		return server.Services{}, fmt.Errorf("failed to load assistant: %w", err)
	}

	return server.Services{
		Catalog: catalog,
		Uploads: upload.NewManager(logger, upload.Timing{
			ProgressInterval: conf.Upload.ProgressInterval,
			ProgressStep:     conf.Upload.ProgressStep,
			AnalysisDelay:    conf.Upload.AnalysisDelay,
		}),
		Conversations: assistant.NewRegistry(logger, a, conf.Assistant.TypingDelay),
		Settings:      settings.NewStore(logger, settings.Defaults()),
	}, nil
}
