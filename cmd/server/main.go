package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/napolitain/warren/internal/config"
	"github.com/napolitain/warren/internal/loader"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/storage"
)

var (
	configPath = flag.String("config", "config.json", "Path to the JSON config file")
	dataDir    = flag.String("data", "", "Path to data directory (overrides config)")
	port       = flag.String("port", "", "The server port (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *dataDir != "" {
		cfg.Game.DataDir = *dataDir
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	logger, err := config.NewLogger(cfg.Server.LogLevel, false)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cat, err := loader.LoadCatalog(cfg.Game.DataDir)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("dir", cfg.Game.DataDir), zap.Error(err))
	}
	logger.Info("Loaded catalog",
		zap.Int("buildings", len(cat.Buildings)),
		zap.Int("troops", len(cat.Troops)),
		zap.Int("research", len(cat.Research)),
		zap.Int("quests", len(cat.Quests)),
		zap.Int("stages", len(cat.Stages)),
	)

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		logger.Fatal("Failed to open save store", zap.Error(err))
	}
	defer store.Close()

	engine := sim.New(cat)
	engine.SetLogger(logger.Named("sim"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap, err := store.Load(ctx, cfg.Storage.Slot)
	switch {
	case err == nil:
		engine.Restore(snap)
		logger.Info("Resumed save", zap.String("slot", cfg.Storage.Slot), zap.Float64("clock", engine.Now()))
	case errors.Is(err, storage.ErrNoSave):
		logger.Info("Starting a new game", zap.String("slot", cfg.Storage.Slot))
	default:
		logger.Fatal("Failed to load save", zap.String("slot", cfg.Storage.Slot), zap.Error(err))
	}

	srv := newServer(engine, store, cfg, logger)
	go srv.run(ctx)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.routes(),
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown()
	logger.Info("Shutting down")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := srv.save(shutdownCtx, cfg.Storage.Slot); err != nil {
		logger.Error("Final save failed", zap.Error(err))
	}
}

// waitForShutdown waits for interrupt signal
func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
