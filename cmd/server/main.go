package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/neuroscope-selfcheck/internal/api"
	"github.com/neuroscope-selfcheck/internal/catalog"
	"github.com/neuroscope-selfcheck/internal/config"
	"github.com/neuroscope-selfcheck/internal/heuristics"
	"github.com/neuroscope-selfcheck/internal/logging"
	"github.com/neuroscope-selfcheck/internal/report"
	"github.com/neuroscope-selfcheck/internal/scoring"
	"github.com/neuroscope-selfcheck/internal/securestore"
	"github.com/neuroscope-selfcheck/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml if present)")
	flag.Parse()

	// Load configuration
	var (
		configManager *config.Manager
		err           error
	)
	if *configPath != "" {
		configManager, err = config.NewManagerFromFile(*configPath)
	} else {
		configManager, err = config.NewManager()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backends, err := securestore.OpenBackends(ctx, logger, cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open storage")
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close storage")
		}
	}()

	store := securestore.NewStore(logger, backends.Values, backends.Keys, securestore.NewAESGCM(nil))

	norms, err := catalog.LoadNorms(cfg.Scoring.NormsPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load norms")
	}
	cat, err := catalog.New(catalog.WithNorms(norms))
	if err != nil {
		logger.WithError(err).Fatal("Failed to build catalog")
	}

	weights, err := scoring.LoadWeights(cfg.Scoring.WeightsPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load weights")
	}

	engine := heuristics.NewEngine(logger, cat, heuristics.ConfigFrom(cfg.Heuristics))
	builder := report.NewBuilder(logger, cat, engine, report.Options{
		Weights: weights,
		Bootstrap: scoring.BootstrapOptions{
			Resamples:  cfg.Scoring.BootstrapResamples,
			Confidence: cfg.Scoring.BootstrapLevel,
			Seed:       uint64(cfg.Scoring.BootstrapSeed),
		},
	})
	sessions := session.NewManager(logger, store, session.DefaultAutosaveDelay)

	server, err := api.NewServer(configManager, logger, api.Dependencies{
		Store:    store,
		Reports:  builder,
		Sessions: sessions,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
		"driver":  backends.Driver,
		"metrics": len(cat.MetricIDs()),
	}).Info("Starting self-check server")

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server stopped with error")
	}

	if err := sessions.Flush(context.Background()); err != nil {
		logger.WithError(err).Warn("Failed to flush pending session save")
	}
	sessions.Wait()

	logger.Info("Server stopped")
}
