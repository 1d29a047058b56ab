package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/application/dispatcher"
	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/config"
	"github.com/assetdesk/assetdesk/internal/infrastructure/persistence"
	httpserver "github.com/assetdesk/assetdesk/internal/interfaces/http"
	"github.com/assetdesk/assetdesk/internal/report"
	"github.com/assetdesk/assetdesk/pkg/database"
	"github.com/assetdesk/assetdesk/pkg/utils"
)

func main() {
	// Local overrides from .env, if present
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting asset lifecycle engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll("data", 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	snapshots, err := persistence.NewSnapshotRepository(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize snapshot store", zap.Error(err))
	}

	persisted, err := persistence.LoadState(context.Background(), snapshots, logger)
	if err != nil {
		logger.Fatal("Failed to load persisted state", zap.Error(err))
	}
	initial := store.MergeSeed(persisted, persistence.Seed())

	kvLogger := utils.NewKVLogger(logger)
	bus := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))

	engine := store.New(initial, bus, kvLogger)
	persistence.NewPersister(engine, snapshots, logger).Register(bus)

	reports := report.NewInventoryGenerator(cfg.Report.CompanyName, logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, engine, reports, kvLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	// Drain in-flight snapshot writes before closing the database
	if err := bus.Close(); err != nil {
		logger.Error("Event bus close failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
