package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ledger-indexer/internal/adapter"
	"github.com/feral-file/ledger-indexer/internal/config"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/metrics"
	"github.com/feral-file/ledger-indexer/internal/providers/solana"
	"github.com/feral-file/ledger-indexer/internal/store"
	"github.com/feral-file/ledger-indexer/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	once       = flag.Bool("once", false, "Run a single reconciliation pass and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ledger-sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize clock adapter
	clock := adapter.NewClock()

	// Initialize ledger reader
	reader := solana.NewReader(solana.Config{
		RequestTimeout:    cfg.Solana.RequestTimeout,
		RequestsPerSecond: cfg.Solana.RequestsPerSecond,
		Burst:             cfg.Solana.Burst,
		Commitment:        cfg.Solana.Commitment,
	}, adapter.NewSolanaRPC(cfg.Solana.RPCURL))

	// Initialize ownership sweeper
	ownershipSweeper := sweeper.NewOwnershipSweeper(sweeper.OwnershipSweeperConfig{
		Schedule:         cfg.Reconciliation.Schedule,
		BatchSize:        cfg.Reconciliation.BatchSize,
		MaxBatches:       cfg.Reconciliation.MaxBatches,
		VerificationAge:  cfg.Reconciliation.VerificationAge,
		ConcurrentChecks: cfg.Reconciliation.ConcurrentChecks,
		RPCDelay:         cfg.Reconciliation.RPCDelay,
		RunOnStart:       true,
	}, dataStore, reader, clock, metrics.New())

	logger.InfoCtx(ctx, "Initialized ownership sweeper",
		zap.String("schedule", cfg.Reconciliation.Schedule),
		zap.Int("batch_size", cfg.Reconciliation.BatchSize),
		zap.Duration("verification_age", cfg.Reconciliation.VerificationAge),
	)

	if *once {
		result, err := ownershipSweeper.Sweep(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Reconciliation sweep failed", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Reconciliation sweep completed",
			zap.Int("checked", result.Checked),
			zap.Int("verified", result.Verified),
			zap.Int("removed", result.Removed),
			zap.Int("errors", result.Errors),
			zap.Strings("affected_owners", result.AffectedOwners),
		)
		return
	}

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := ownershipSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := ownershipSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
