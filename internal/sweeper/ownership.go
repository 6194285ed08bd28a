package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ledger-indexer/internal/adapter"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/metrics"
	"github.com/feral-file/ledger-indexer/internal/store"
	"github.com/feral-file/ledger-indexer/internal/store/schema"
)

const (
	DEFAULT_RECONCILIATION_SCHEDULE = "@every 1h"
	DEFAULT_RECONCILIATION_BATCH    = 50
	DEFAULT_RECONCILIATION_BATCHES  = 20
	DEFAULT_VERIFICATION_AGE        = 24 * time.Hour
	DEFAULT_CONCURRENT_CHECKS       = 10
	DEFAULT_RPC_DELAY               = 50 * time.Millisecond
)

// OwnershipSweeperConfig holds configuration for the ownership reconciliation sweeper
type OwnershipSweeperConfig struct {
	Schedule         string        // cron expression, e.g. "@every 1h"
	BatchSize        int           // items checked per batch
	MaxBatches       int           // batches per sweep
	VerificationAge  time.Duration // only check items not verified within this window
	ConcurrentChecks int           // concurrent ownership checks
	RPCDelay         time.Duration // minimum spacing between ownership checks
	RunOnStart       bool          // sweep once immediately after Start

	// Retry policy for store writes
	WriteRetryInitialInterval time.Duration
	WriteRetryMaxElapsedTime  time.Duration
}

// OwnershipSweeper periodically confirms minted items are still held by their recorded owner
//
//go:generate mockgen -source=ownership.go -destination=../mocks/ownership_sweeper.go -package=mocks -mock_names=OwnershipSweeper=MockOwnershipSweeper
type OwnershipSweeper interface {
	Sweeper

	// Sweep runs one reconciliation pass now.
	// Returns ErrSweepInProgress without waiting if a pass is already running.
	Sweep(ctx context.Context) (*ReconciliationResult, error)

	// IsSweeping reports whether a pass is running
	IsSweeping() bool
}

type ownershipSweeper struct {
	config   OwnershipSweeperConfig
	store    store.Store
	verifier store.OwnershipVerifier
	clock    adapter.Clock
	metrics  *metrics.Metrics
	limiter  *rate.Limiter

	scheduler *cron.Cron
	startup   sync.WaitGroup
	running   atomic.Bool
	sweeping  atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewOwnershipSweeper creates a new ownership reconciliation sweeper
func NewOwnershipSweeper(
	config OwnershipSweeperConfig,
	st store.Store,
	verifier store.OwnershipVerifier,
	clock adapter.Clock,
	m *metrics.Metrics,
) OwnershipSweeper {
	config = withDefaults(config)

	return &ownershipSweeper{
		config:    config,
		store:     st,
		verifier:  verifier,
		clock:     clock,
		metrics:   m,
		limiter:   rate.NewLimiter(rate.Every(config.RPCDelay), 1),
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func withDefaults(config OwnershipSweeperConfig) OwnershipSweeperConfig {
	if config.Schedule == "" {
		config.Schedule = DEFAULT_RECONCILIATION_SCHEDULE
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DEFAULT_RECONCILIATION_BATCH
	}
	if config.MaxBatches <= 0 {
		config.MaxBatches = DEFAULT_RECONCILIATION_BATCHES
	}
	if config.VerificationAge < 0 {
		config.VerificationAge = DEFAULT_VERIFICATION_AGE
	}
	if config.ConcurrentChecks <= 0 {
		config.ConcurrentChecks = DEFAULT_CONCURRENT_CHECKS
	}
	if config.RPCDelay <= 0 {
		config.RPCDelay = DEFAULT_RPC_DELAY
	}
	if config.WriteRetryInitialInterval <= 0 {
		config.WriteRetryInitialInterval = time.Second
	}
	if config.WriteRetryMaxElapsedTime <= 0 {
		config.WriteRetryMaxElapsedTime = 2 * time.Minute
	}
	return config
}

// Name returns the sweeper's name
func (s *ownershipSweeper) Name() string {
	return "ownership-sweeper"
}

// IsSweeping reports whether a pass is running
func (s *ownershipSweeper) IsSweeping() bool {
	return s.sweeping.Load()
}

// Start schedules sweeps and blocks until the context is canceled or Stop is called
func (s *ownershipSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	cronLog := cronLogger{log: logger.Named("cron")}
	s.scheduler = cron.New(cron.WithChain(cron.Recover(cronLog)), cron.WithLogger(cronLog))

	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := s.scheduler.AddFunc(s.config.Schedule, func() { s.runScheduled(sweepCtx) }); err != nil {
		return fmt.Errorf("invalid reconciliation schedule %q: %w", s.config.Schedule, err)
	}

	logger.InfoCtx(ctx, "Starting ownership sweeper",
		zap.String("schedule", s.config.Schedule),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("max_batches", s.config.MaxBatches),
		zap.Duration("verification_age", s.config.VerificationAge),
		zap.Int("concurrent_checks", s.config.ConcurrentChecks),
	)

	s.scheduler.Start()
	if s.config.RunOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.runScheduled(sweepCtx)
		}()
	}

	select {
	case <-ctx.Done():
		logger.InfoCtx(ctx, "Ownership sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
	case <-s.stopChan:
		logger.InfoCtx(ctx, "Ownership sweeper stop requested")
	}

	// Cancel any in-progress sweep, then wait for scheduled jobs to return
	cancel()
	<-s.scheduler.Stop().Done()
	s.startup.Wait()

	return nil
}

// Stop gracefully stops the sweeper with timeout support
func (s *ownershipSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping ownership sweeper")

	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Ownership sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Ownership sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

func (s *ownershipSweeper) runScheduled(ctx context.Context) {
	result, err := s.Sweep(ctx)
	if err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			s.metrics.IncReconciliationSkipped()
			logger.InfoCtx(ctx, "Skipping reconciliation tick, previous sweep still running")
			return
		}
		if !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, fmt.Errorf("reconciliation sweep failed: %w", err))
		}
		return
	}

	logger.InfoCtx(ctx, "Reconciliation sweep completed",
		zap.Int("batches", result.Batches),
		zap.Int("checked", result.Checked),
		zap.Int("verified", result.Verified),
		zap.Int("removed", result.Removed),
		zap.Int("errors", result.Errors),
		zap.Strings("affected_owners", result.AffectedOwners),
		zap.Duration("duration", result.Duration),
	)
}

// Sweep runs one reconciliation pass
func (s *ownershipSweeper) Sweep(ctx context.Context) (*ReconciliationResult, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	startTime := s.clock.Now()
	result := &ReconciliationResult{AffectedOwners: []string{}}
	ownersSeen := make(map[string]struct{})

	for result.Batches < s.config.MaxBatches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		items, err := s.store.GetMintedItemsForReconciliation(ctx, s.config.VerificationAge, s.config.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to get items for reconciliation: %w", err)
		}
		if len(items) == 0 {
			break
		}
		result.Batches++

		owned, notOwned, errored := s.checkBatch(ctx, items)
		result.Checked += len(items)
		result.Errors += errored

		if len(notOwned) > 0 {
			owners, err := s.removeWithRetry(ctx, notOwned)
			if err != nil {
				return nil, fmt.Errorf("failed to remove unowned items: %w", err)
			}
			result.Removed += len(notOwned)
			result.addAffectedOwners(ownersSeen, owners)
		}

		if len(owned) > 0 {
			if err := s.touchWithRetry(ctx, owned); err != nil {
				return nil, fmt.Errorf("failed to mark items verified: %w", err)
			}
			result.Verified += len(owned)
		}

		// Errored items stay at the head of the queue; stop instead of rechecking them
		if len(items) < s.config.BatchSize || len(owned)+len(notOwned) == 0 {
			break
		}
	}

	result.Duration = s.clock.Since(startTime)
	s.metrics.ObserveReconciliation(result.Duration.Seconds())

	return result, nil
}

// checkBatch checks ownership of each item concurrently.
// Items whose check errored are left out of both returned lists.
func (s *ownershipSweeper) checkBatch(ctx context.Context, items []schema.MintedItem) (owned []string, notOwned []string, errored int) {
	var (
		mu         sync.Mutex
		errorCount atomic.Int32
	)

	pool := pond.NewPool(
		s.config.ConcurrentChecks,
		pond.WithQueueSize(len(items)),
		pond.WithContext(ctx),
	)

	for _, item := range items {
		pool.Submit(func() {
			if err := s.limiter.Wait(ctx); err != nil {
				errorCount.Add(1)
				return
			}

			isOwned, err := s.verifier.IsOwnedBy(ctx, item.Owner, item.Mint)
			if err != nil {
				errorCount.Add(1)
				logger.WarnCtx(ctx, "Ownership check failed, keeping item",
					zap.String("mint", item.Mint),
					zap.String("owner", item.Owner),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if isOwned {
				owned = append(owned, item.Mint)
			} else {
				logger.InfoCtx(ctx, "Item no longer held by recorded owner",
					zap.String("mint", item.Mint),
					zap.String("owner", item.Owner),
				)
				notOwned = append(notOwned, item.Mint)
			}
		})
	}

	pool.StopAndWait()

	s.metrics.AddReconciliationChecks(metrics.OutcomeOwned, len(owned))
	s.metrics.AddReconciliationChecks(metrics.OutcomeNotOwned, len(notOwned))
	s.metrics.AddReconciliationChecks(metrics.OutcomeError, int(errorCount.Load()))

	return owned, notOwned, int(errorCount.Load())
}

func (s *ownershipSweeper) removeWithRetry(ctx context.Context, mints []string) ([]string, error) {
	var owners []string
	err := s.retry(ctx, "remove unowned items", func() error {
		var err error
		owners, err = s.store.DeleteMintedItemsAndRecalculate(ctx, mints)
		return err
	})
	return owners, err
}

func (s *ownershipSweeper) touchWithRetry(ctx context.Context, mints []string) error {
	return s.retry(ctx, "mark items verified", func() error {
		return s.store.TouchMintedItems(ctx, mints)
	})
}

// retry runs a store write with exponential backoff
func (s *ownershipSweeper) retry(ctx context.Context, op string, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.WriteRetryInitialInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = s.config.WriteRetryMaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Store write failed, retrying",
			zap.String("operation", op),
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return fmt.Errorf("failed after %d attempts: %w", attemptCount+1, err)
	}
	return nil
}

// cronLogger routes scheduler logs through zap
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
