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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/textdex/internal/config"
	"github.com/kailas-cloud/textdex/internal/engine"
	"github.com/kailas-cloud/textdex/internal/guard"
	logpkg "github.com/kailas-cloud/textdex/internal/logger"
	"github.com/kailas-cloud/textdex/internal/metrics"
	searchrepo "github.com/kailas-cloud/textdex/internal/repository/search"
	"github.com/kailas-cloud/textdex/internal/snapshot"
	chiTransport "github.com/kailas-cloud/textdex/internal/transport/chi"
	documentuc "github.com/kailas-cloud/textdex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/textdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/textdex/internal/usecase/search"
	"github.com/kailas-cloud/textdex/internal/version"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			logger, err := logpkg.NewLogger(root.env, cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, root.env, logger)
		},
	}
}

// serve is the composition root of the HTTP service. It returns after ctx
// is canceled and the server has drained, or on the first fatal error.
func serve(ctx context.Context, cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting textdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_path", cfg.Index.Path),
		zap.Bool("mem_only", cfg.Index.MemOnly),
		zap.String("concurrency", cfg.Concurrency.Mode),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	mode, err := guard.ParseMode(cfg.Concurrency.Mode)
	if err != nil {
		return err
	}
	idx, err := engine.Open(engine.Config{Path: cfg.Index.Path, MemOnly: cfg.Index.MemOnly})
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	snaps, err := snapshot.New(snapshot.FromIndex(idx), logpkg.Component(logger, "snapshot"))
	if err != nil {
		_ = idx.Close()
		return err
	}
	defer func() {
		snaps.Close()
		if err := idx.Close(); err != nil {
			logger.Error("Error closing index", zap.Error(err))
		}
	}()

	composer, err := searchrepo.NewComposer(cfg.Search.ParseCacheSize)
	if err != nil {
		return err
	}
	g := guard.New(mode)
	docSvc := documentuc.New(idx, snaps, g, logpkg.Component(logger, "writer")).
		WithMaxBatchSize(cfg.Index.MaxBatchSize)
	searchSvc := searchuc.New(snaps, composer, searchrepo.NewExecutor(), g)
	healthSvc := healthuc.New(idx, snaps)

	server := chiTransport.NewServer(docSvc, searchSvc, healthSvc, logpkg.Component(logger, "http")).
		WithPagination(cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
