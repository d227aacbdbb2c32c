// Package main is the entry point for the TRUEEDGE trade-event service.
// The service ingests trade events over HTTP, persists them to an
// append-only store (SQLite or JSONL) and computes performance metrics
// on demand.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/trueedge/trueedge/internal/config"
	"github.com/trueedge/trueedge/internal/database"
	notify "github.com/trueedge/trueedge/internal/events"
	"github.com/trueedge/trueedge/internal/modules/events"
	"github.com/trueedge/trueedge/internal/modules/reports"
	"github.com/trueedge/trueedge/internal/reliability"
	"github.com/trueedge/trueedge/internal/scheduler"
	"github.com/trueedge/trueedge/internal/server"
	"github.com/trueedge/trueedge/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("backend", cfg.StoreBackend).
		Str("data_dir", cfg.DataDir).
		Msg("Starting TRUEEDGE")

	// Open the configured event store backend. The ledger DB stays nil on
	// the JSONL backend; backups and WAL maintenance adapt accordingly.
	var ledgerDB *database.DB
	var logPath string
	var store events.Store

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		ledgerDB, err = database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, "ledger.db"),
			Profile: database.ProfileLedger,
			Name:    "ledger",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open ledger database")
		}
		defer ledgerDB.Close()

		if err := ledgerDB.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate ledger database")
		}

		store = events.NewRepository(ledgerDB.Conn(), log)

	case config.BackendJSONL:
		logPath = filepath.Join(cfg.DataDir, "trade_events.jsonl")
		logStore, err := events.NewLogStore(logPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open JSONL event log")
		}
		store = logStore

	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("Unknown store backend")
	}

	notifier := notify.NewNotifier()

	// Optional S3 offsite backups
	var s3Client *reliability.S3Client
	if cfg.Backup.Enabled() {
		s3Client, err = reliability.NewS3Client(cfg.Backup, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize S3 client, backups stay local")
			s3Client = nil
		}
	}
	backupService := reliability.NewBackupService(ledgerDB, logPath, cfg.DataDir, s3Client, log)

	reportGenerator := reports.NewGenerator(cfg.DataDir, log)

	// Background maintenance jobs
	sched := scheduler.New(log)
	if ledgerDB != nil {
		if err := sched.Register("*/5 * * * *", scheduler.NewWALCheckpointJob(ledgerDB, log)); err != nil {
			log.Error().Err(err).Msg("Failed to register WAL checkpoint job")
		}
	}
	if err := sched.Register("0 2 * * *", scheduler.NewBackupJob(backupService, log)); err != nil {
		log.Error().Err(err).Msg("Failed to register backup job")
	}
	if err := sched.Register("0 6 * * *", scheduler.NewReportJob(store, reportGenerator, cfg.StartingBalance, log)); err != nil {
		log.Error().Err(err).Msg("Failed to register report job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:      log,
		LedgerDB: ledgerDB,
		Store:    store,
		Notifier: notifier,
		Config:   cfg,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
