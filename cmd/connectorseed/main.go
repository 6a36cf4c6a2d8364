package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/manthysbr/connectorseed/internal/adapters/providers"
	"github.com/manthysbr/connectorseed/internal/adapters/scratch"
	appconfig "github.com/manthysbr/connectorseed/internal/config"
	"github.com/manthysbr/connectorseed/internal/core/services"
	"github.com/manthysbr/connectorseed/pkg/gateway"
)

const staleScratchAge = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting connectorseed")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := appconfig.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Info("configuration loaded", "config", appconfig.Masked(cfg))

	// Uploads that died mid-flight leave their payload files behind
	dir := scratch.New(cfg.Destinations.ScratchDir)
	if n, err := dir.Sweep(staleScratchAge); err != nil {
		logger.Warn("scratch sweep failed", "error", err)
	} else if n > 0 {
		logger.Info("removed stale scratch files", "count", n)
	}

	provider, err := providers.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build text provider: %w", err)
	}

	eventBus := services.NewEventBus(logger)
	generator := services.NewContentGenerator(logger, provider)
	pipeline := services.NewBatchPipeline(logger, generator, services.NewNameExtractor(logger, generator))
	pipeline.SetEventBus(eventBus)
	siteUpdater := services.NewSiteContentUpdater(logger, generator)

	apiServer := gateway.NewServer(logger, cfg, generator, pipeline, siteUpdater, eventBus,
		gateway.DefaultFactories(logger, cfg, generator, dir))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
