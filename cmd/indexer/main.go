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
	"github.com/feral-file/ledger-indexer/internal/api/server"
	"github.com/feral-file/ledger-indexer/internal/config"
	"github.com/feral-file/ledger-indexer/internal/decoder"
	"github.com/feral-file/ledger-indexer/internal/indexer"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/messaging"
	"github.com/feral-file/ledger-indexer/internal/metrics"
	"github.com/feral-file/ledger-indexer/internal/providers/jetstream"
	"github.com/feral-file/ledger-indexer/internal/providers/solana"
	"github.com/feral-file/ledger-indexer/internal/store"
	"github.com/feral-file/ledger-indexer/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
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
			"service":    "ledger-indexer",
			"program_id": cfg.Ingestion.ProgramID,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ledger Indexer", zap.String("program_id", cfg.Ingestion.ProgramID))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if cfg.Database.HasReadReplica() {
		if err := store.ConfigureReadReplica(db, postgres.Open(cfg.Database.ReadDSN())); err != nil {
			logger.FatalCtx(ctx, "Failed to configure read replica", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Configured read replica", zap.String("read_host", cfg.Database.ReadHost))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize adapters
	clock := adapter.NewClock()
	rpcClient := adapter.NewSolanaRPC(cfg.Solana.RPCURL)
	promMetrics := metrics.New()

	// Initialize ledger reader
	reader := solana.NewReader(solana.Config{
		RequestTimeout:    cfg.Solana.RequestTimeout,
		RequestsPerSecond: cfg.Solana.RequestsPerSecond,
		Burst:             cfg.Solana.Burst,
		Commitment:        cfg.Solana.Commitment,
	}, rpcClient)

	// Initialize store
	var storeOpts []store.Option
	if cfg.Ingestion.VerifyOwnershipOnWrite {
		storeOpts = append(storeOpts, store.WithOwnershipVerifier(reader))
	}
	dataStore := store.NewPGStore(db, storeOpts...)

	// Initialize publisher, optional
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
	} else {
		logger.InfoCtx(ctx, "NATS URL not configured, event publishing disabled")
	}

	// Initialize ingestion coordinator
	coordinator := indexer.NewCoordinator(indexer.Config{
		ProgramID:               cfg.Ingestion.ProgramID,
		PollInterval:            cfg.Ingestion.PollInterval,
		BackfillLimit:           cfg.Ingestion.BackfillLimit,
		PollLimit:               cfg.Ingestion.PollLimit,
		MaxRetries:              cfg.Ingestion.MaxRetries,
		RetryDelay:              cfg.Ingestion.RetryDelay,
		MaxConcurrentProcessing: cfg.Ingestion.MaxConcurrentProcessing,
		RateLimitDelay:          cfg.Ingestion.RateLimitDelay,
		MaxCacheSize:            cfg.Ingestion.MaxCacheSize,
		CacheRetention:          cfg.Ingestion.CacheRetention,
		CacheCleanupInterval:    cfg.Ingestion.CacheCleanupInterval,
	}, reader, decoder.NewDecoder(clock), dataStore, publisher, clock, promMetrics)

	errChan := make(chan error, 3)

	// Start the coordinator
	go func() {
		if err := coordinator.Start(ctx); err != nil {
			errChan <- fmt.Errorf("coordinator: %w", err)
		}
	}()

	// Start the reconciliation sweeper
	var ownershipSweeper sweeper.OwnershipSweeper
	if cfg.Reconciliation.Enabled {
		ownershipSweeper = sweeper.NewOwnershipSweeper(sweeper.OwnershipSweeperConfig{
			Schedule:         cfg.Reconciliation.Schedule,
			BatchSize:        cfg.Reconciliation.BatchSize,
			MaxBatches:       cfg.Reconciliation.MaxBatches,
			VerificationAge:  cfg.Reconciliation.VerificationAge,
			ConcurrentChecks: cfg.Reconciliation.ConcurrentChecks,
			RPCDelay:         cfg.Reconciliation.RPCDelay,
		}, dataStore, reader, clock, promMetrics)

		go func() {
			if err := ownershipSweeper.Start(ctx); err != nil {
				errChan <- fmt.Errorf("%s: %w", ownershipSweeper.Name(), err)
			}
		}()
	}

	// Start the API server
	var apiServer *server.Server
	if cfg.Server.Enabled {
		apiServer = server.New(server.Config{
			Debug:        cfg.Debug,
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		}, dataStore, coordinator, promMetrics)

		go func() {
			if err := apiServer.Start(); err != nil {
				errChan <- fmt.Errorf("api server: %w", err)
			}
		}()
	}

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Give components time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if apiServer != nil {
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err)
		}
	}

	if err := coordinator.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	if ownershipSweeper != nil {
		if err := ownershipSweeper.Stop(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err)
		}
	}

	// Cancel context to release anything still waiting on it
	cancel()

	logger.InfoCtx(shutdownCtx, "Ledger Indexer stopped")
}
