package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ledger-indexer/internal/adapter"
	"github.com/feral-file/ledger-indexer/internal/decoder"
	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/messaging"
	"github.com/feral-file/ledger-indexer/internal/metrics"
	solanaprovider "github.com/feral-file/ledger-indexer/internal/providers/solana"
	"github.com/feral-file/ledger-indexer/internal/store"
)

const (
	DEFAULT_POLL_INTERVAL             = 30 * time.Second
	DEFAULT_BACKFILL_LIMIT            = 20
	DEFAULT_POLL_LIMIT                = 20
	DEFAULT_MAX_RETRIES               = 5
	DEFAULT_RETRY_DELAY               = 2 * time.Second
	DEFAULT_MAX_CONCURRENT_PROCESSING = 3
	DEFAULT_RATE_LIMIT_DELAY          = 100 * time.Millisecond
	DEFAULT_MAX_CACHE_SIZE            = 100_000
	DEFAULT_CACHE_RETENTION           = 24 * time.Hour
	DEFAULT_CACHE_CLEANUP_INTERVAL    = time.Hour
)

// Kind labels of committed transactions
const (
	KindMint           = "mint"
	KindBuyback        = "buyback"
	KindEmpty          = "empty"
	KindFailedOnLedger = "failed_on_ledger"
)

// Config holds the configuration for the ingestion coordinator
type Config struct {
	ProgramID               string
	PollInterval            time.Duration
	BackfillLimit           int
	PollLimit               int
	MaxRetries              int           // attempts per signature, including the first
	RetryDelay              time.Duration // multiplied by the attempt number
	MaxConcurrentProcessing int
	RateLimitDelay          time.Duration // pause between signature submissions
	MaxCacheSize            int
	CacheRetention          time.Duration
	CacheCleanupInterval    time.Duration
}

// Coordinator discovers new program transactions and drives them through decode and store
//
//go:generate mockgen -source=coordinator.go -destination=../mocks/coordinator.go -package=mocks -mock_names=Coordinator=MockCoordinator
type Coordinator interface {
	// Start backfills recent signatures, then polls until Stop is called or ctx is canceled
	Start(ctx context.Context) error
	// Stop signals the loop to exit and waits for in-flight work
	Stop(ctx context.Context) error
	// ProcessSignature fetches, decodes and stores one signature with retries.
	// A signature already cached or being processed elsewhere is a no-op.
	ProcessSignature(ctx context.Context, signature string) error
	// GetStatus returns a snapshot of the coordinator's counters
	GetStatus(ctx context.Context) Status
}

type coordinator struct {
	config    Config
	reader    solanaprovider.Reader
	decoder   decoder.Decoder
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
	metrics   *metrics.Metrics

	pool     pond.Pool
	cache    *processedCache
	inFlight *xsync.Map[string, time.Time]

	processedCount      atomic.Int64
	currentlyProcessing atomic.Int64
	totalErrors         atomic.Int64
	totalRetries        atomic.Int64

	mu              sync.RWMutex
	lastProcessedAt *time.Time
	lastCursor      string
	lastCursorSlot  uint64

	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewCoordinator creates a new ingestion coordinator. publisher and m may be nil.
func NewCoordinator(
	config Config,
	reader solanaprovider.Reader,
	dec decoder.Decoder,
	st store.Store,
	publisher messaging.Publisher,
	clock adapter.Clock,
	m *metrics.Metrics,
) Coordinator {
	config = withDefaults(config)

	return &coordinator{
		config:    config,
		reader:    reader,
		decoder:   dec,
		store:     st,
		publisher: publisher,
		clock:     clock,
		metrics:   m,
		pool:      pond.NewPool(config.MaxConcurrentProcessing),
		cache:     newProcessedCache(config.MaxCacheSize, config.CacheRetention, clock),
		inFlight:  xsync.NewMap[string, time.Time](),
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func withDefaults(config Config) Config {
	if config.PollInterval <= 0 {
		config.PollInterval = DEFAULT_POLL_INTERVAL
	}
	if config.BackfillLimit <= 0 {
		config.BackfillLimit = DEFAULT_BACKFILL_LIMIT
	}
	if config.PollLimit <= 0 {
		config.PollLimit = DEFAULT_POLL_LIMIT
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DEFAULT_MAX_RETRIES
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DEFAULT_RETRY_DELAY
	}
	if config.MaxConcurrentProcessing <= 0 {
		config.MaxConcurrentProcessing = DEFAULT_MAX_CONCURRENT_PROCESSING
	}
	if config.RateLimitDelay <= 0 {
		config.RateLimitDelay = DEFAULT_RATE_LIMIT_DELAY
	}
	if config.MaxCacheSize <= 0 {
		config.MaxCacheSize = DEFAULT_MAX_CACHE_SIZE
	}
	if config.CacheRetention <= 0 {
		config.CacheRetention = DEFAULT_CACHE_RETENTION
	}
	if config.CacheCleanupInterval <= 0 {
		config.CacheCleanupInterval = DEFAULT_CACHE_CLEANUP_INTERVAL
	}
	return config
}

// Start runs the backfill and then the polling loop. It blocks until Stop or ctx cancellation
// and never returns an error for a failed signature.
func (c *coordinator) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("coordinator already running")
	}
	defer func() {
		c.running.Store(false)
		close(c.stoppedCh)
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.InfoCtx(ctx, "Starting ingestion coordinator",
		zap.String("program_id", c.config.ProgramID),
		zap.Duration("poll_interval", c.config.PollInterval),
		zap.Int("max_concurrent_processing", c.config.MaxConcurrentProcessing),
		zap.Int("max_cache_size", c.config.MaxCacheSize),
	)

	c.loadCursor(runCtx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.runCacheCleanup(runCtx)
	}()
	// Stop must also reach work started by the backfill, which is waited on before the loop
	go func() {
		defer wg.Done()
		select {
		case <-c.stopChan:
			cancel()
		case <-runCtx.Done():
		}
	}()

	c.waitAll(c.backfill(runCtx))

	for {
		select {
		case <-runCtx.Done():
			logger.InfoCtx(ctx, "Ingestion coordinator stopping due to context cancellation", zap.Error(runCtx.Err()))
			c.shutdown(cancel, &wg)
			return nil
		case <-c.stopChan:
			logger.InfoCtx(ctx, "Ingestion coordinator stop requested")
			c.shutdown(cancel, &wg)
			return nil
		case <-c.clock.After(c.config.PollInterval):
			c.poll(runCtx)
		}
	}
}

func (c *coordinator) shutdown(cancel context.CancelFunc, wg *sync.WaitGroup) {
	cancel()
	c.pool.StopAndWait()
	wg.Wait()

	logger.Info("Ingestion coordinator stopped",
		zap.Uint64("total_submitted", c.pool.SubmittedTasks()),
		zap.Uint64("total_completed", c.pool.CompletedTasks()),
		zap.Uint64("total_failed", c.pool.FailedTasks()))
}

// Stop gracefully stops the coordinator with timeout support
func (c *coordinator) Stop(ctx context.Context) error {
	if !c.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping ingestion coordinator")

	close(c.stopChan)

	select {
	case <-c.stoppedCh:
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Ingestion coordinator stop interrupted by context timeout")
		return ctx.Err()
	}
}

// backfill lists recent signatures once at startup and submits those not yet recorded
func (c *coordinator) backfill(ctx context.Context) []pond.Task {
	signatures, err := c.reader.ListRecentSignatures(ctx, c.config.ProgramID, c.config.BackfillLimit, "")
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("backfill listing failed: %w", err), zap.String("program_id", c.config.ProgramID))
		return nil
	}

	var pending []domain.SignatureInfo
	for _, info := range signatures {
		if c.skip(info) {
			continue
		}

		processed, err := c.store.IsTransactionProcessed(ctx, info.Signature)
		if err != nil {
			// Processing is idempotent, so fall through and let the store decide
			logger.WarnCtx(ctx, "Failed to check processed state during backfill",
				zap.String("signature", info.Signature),
				zap.Error(err))
		} else if processed {
			c.cache.Add(info.Signature)
			continue
		}

		pending = append(pending, info)
	}

	logger.InfoCtx(ctx, "Backfilling recent signatures",
		zap.String("program_id", c.config.ProgramID),
		zap.Int("listed", len(signatures)),
		zap.Int("pending", len(pending)))

	return c.submit(ctx, pending)
}

// poll lists the newest signatures and submits the unseen ones without waiting for them
func (c *coordinator) poll(ctx context.Context) []pond.Task {
	signatures, err := c.reader.ListRecentSignatures(ctx, c.config.ProgramID, c.config.PollLimit, "")
	if err != nil {
		logger.WarnCtx(ctx, "Polling for signatures failed", zap.String("program_id", c.config.ProgramID), zap.Error(err))
		return nil
	}

	var pending []domain.SignatureInfo
	for _, info := range signatures {
		if c.skip(info) {
			continue
		}
		// Queued or running from an earlier tick
		if _, busy := c.inFlight.Load(info.Signature); busy {
			continue
		}
		pending = append(pending, info)
	}

	if len(pending) > 0 {
		logger.DebugCtx(ctx, "Found new signatures", zap.Int("count", len(pending)))
	}

	return c.submit(ctx, pending)
}

// skip reports whether a listed signature needs no processing.
// Signatures that failed on the ledger are remembered without being fetched.
func (c *coordinator) skip(info domain.SignatureInfo) bool {
	if c.cache.Contains(info.Signature) {
		return true
	}
	if info.Failed {
		c.cache.Add(info.Signature)
		c.metrics.IncProcessed(KindFailedOnLedger)
		return true
	}
	return false
}

// submit claims each signature before queueing it, so a signature waiting in the
// pool is not queued again by the next poll. The claim is released when the task ends.
func (c *coordinator) submit(ctx context.Context, signatures []domain.SignatureInfo) []pond.Task {
	tasks := make([]pond.Task, 0, len(signatures))
	for _, info := range signatures {
		signature := info.Signature
		if !c.claim(signature) {
			continue
		}

		if len(tasks) > 0 && c.config.RateLimitDelay > 0 {
			select {
			case <-ctx.Done():
				c.inFlight.Delete(signature)
				return tasks
			case <-c.clock.After(c.config.RateLimitDelay):
			}
		}

		tasks = append(tasks, c.pool.SubmitErr(func() error {
			return c.processClaimed(ctx, signature)
		}))
	}
	return tasks
}

// claim marks signature as in flight. False when it is already queued or running.
func (c *coordinator) claim(signature string) bool {
	_, loaded := c.inFlight.LoadOrStore(signature, c.clock.Now())
	return !loaded
}

func (c *coordinator) waitAll(tasks []pond.Task) {
	for _, task := range tasks {
		// Failures are already logged and counted by ProcessSignature
		_ = task.Wait()
	}
}

func (c *coordinator) ProcessSignature(ctx context.Context, signature string) error {
	if c.cache.Contains(signature) {
		return nil
	}
	if !c.claim(signature) {
		return nil
	}
	return c.processClaimed(ctx, signature)
}

// processClaimed runs a signature the caller has claimed and releases the claim
func (c *coordinator) processClaimed(ctx context.Context, signature string) error {
	defer c.inFlight.Delete(signature)

	// Committed while it waited in the queue
	if c.cache.Contains(signature) {
		return nil
	}

	c.metrics.SetProcessing(int(c.currentlyProcessing.Add(1)))
	defer func() {
		c.metrics.SetProcessing(int(c.currentlyProcessing.Add(-1)))
	}()

	startTime := c.clock.Now()
	tx, events, attempts, err := c.processWithRetry(ctx, signature)
	c.metrics.ObserveProcessing(c.clock.Since(startTime).Seconds())

	if err != nil {
		if isShutdown(ctx, err) {
			logger.InfoCtx(ctx, "Processing interrupted", zap.String("signature", signature))
			return err
		}

		c.totalErrors.Add(1)
		c.metrics.IncErrors()

		processingErr := &domain.ProcessingError{
			Signature: signature,
			ProgramID: c.config.ProgramID,
			Attempts:  attempts,
			Err:       err,
		}
		logger.ErrorCtx(ctx, processingErr,
			zap.String("signature", signature),
			zap.String("program_id", c.config.ProgramID),
			zap.Bool("retryable", domain.IsRetryable(err)))
		return processingErr
	}

	c.commit(ctx, tx, events)
	return nil
}

// processWithRetry runs processOnce until it succeeds, fails permanently or runs out of attempts
func (c *coordinator) processWithRetry(ctx context.Context, signature string) (*domain.Transaction, []domain.DecodedEvent, int, error) {
	var (
		tx       *domain.Transaction
		events   []domain.DecodedEvent
		attempts int
	)

	operation := func() error {
		attempts++

		var err error
		tx, events, err = c.processOnce(ctx, signature)
		if err != nil && !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notifyOnError := func(err error, duration time.Duration) {
		c.totalRetries.Add(1)
		c.metrics.IncRetries()
		logger.WarnCtx(ctx, "Processing failed, retrying",
			zap.String("signature", signature),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", duration),
			zap.Error(err))
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(c.config.RetryDelay), uint64(c.config.MaxRetries-1)),
		ctx)

	if err := backoff.RetryNotify(operation, b, notifyOnError); err != nil {
		return nil, nil, attempts, err
	}
	return tx, events, attempts, nil
}

// processOnce fetches, decodes and stores one transaction. Returns the events stored.
func (c *coordinator) processOnce(ctx context.Context, signature string) (*domain.Transaction, []domain.DecodedEvent, error) {
	tx, err := c.reader.FetchTransaction(ctx, signature)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	if tx == nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrTransientRPC, domain.ErrTransactionNotFound)
	}

	// Effects of a failed transaction were rolled back on the ledger
	if tx.Failed {
		return tx, nil, nil
	}

	decoded := c.decoder.DecodeTransaction(tx, c.config.ProgramID)
	if len(decoded) == 0 {
		logger.DebugCtx(ctx, "No program event in transaction", zap.String("signature", signature))
		return tx, nil, nil
	}

	for _, event := range decoded {
		if err := c.storeEvent(ctx, tx, event); err != nil {
			return nil, nil, err
		}
	}

	return tx, decoded, nil
}

func (c *coordinator) storeEvent(ctx context.Context, tx *domain.Transaction, event domain.DecodedEvent) error {
	rawEvent, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal event: %w", domain.ErrDecodeFailure, err)
	}

	switch event.Kind {
	case domain.EventKindMint:
		mint := event.Mint
		if mint == nil || mint.Mint == "" || mint.Minter == "" {
			return fmt.Errorf("%w: mint event without mint or minter address", domain.ErrDecodeFailure)
		}

		item, err := c.store.SaveMintedItem(ctx, store.CreateMintedItemInput{
			Mint:                 mint.Mint,
			Owner:                mint.Minter,
			Name:                 mint.Name,
			Symbol:               mint.Symbol,
			URI:                  mint.URI,
			TransactionSignature: tx.Signature,
			Slot:                 tx.Slot,
			BlockTime:            tx.BlockTime,
			EventTimestamp:       c.eventTime(mint.Timestamp, tx),
			Heuristic:            event.Heuristic,
			RawEvent:             rawEvent,
		})
		if err != nil {
			return fmt.Errorf("failed to save minted item %s: %w", mint.Mint, err)
		}

		logger.InfoCtx(ctx, "Recorded minted item",
			zap.String("signature", tx.Signature),
			zap.String("mint", item.Mint),
			zap.String("owner", item.Owner),
			zap.Bool("heuristic", event.Heuristic))

	case domain.EventKindBuyback:
		buyback := event.Buyback
		if buyback == nil {
			return fmt.Errorf("%w: buyback event without payload", domain.ErrDecodeFailure)
		}

		if _, err := c.store.SaveBuybackEvent(ctx, store.CreateBuybackEventInput{
			TransactionSignature: tx.Signature,
			AmountLamports:       buyback.AmountLamports,
			TokenAmount:          buyback.TokenAmount,
			EventTimestamp:       c.eventTime(buyback.Timestamp, tx),
			Slot:                 tx.Slot,
			BlockTime:            tx.BlockTime,
			Heuristic:            event.Heuristic,
			RawEvent:             rawEvent,
		}); err != nil {
			return fmt.Errorf("failed to save buyback event: %w", err)
		}

		logger.InfoCtx(ctx, "Recorded buyback event",
			zap.String("signature", tx.Signature),
			zap.Uint64("amount_lamports", buyback.AmountLamports),
			zap.Uint64("token_amount", buyback.TokenAmount))

	default:
		return fmt.Errorf("%w: unknown event kind %q", domain.ErrDecodeFailure, event.Kind)
	}

	return nil
}

// eventTime falls back to the block time, then to now, for events without a timestamp
func (c *coordinator) eventTime(timestamp time.Time, tx *domain.Transaction) time.Time {
	if !timestamp.IsZero() {
		return timestamp
	}
	if tx.BlockTime != nil {
		return *tx.BlockTime
	}
	return c.clock.Now()
}

// commit marks a signature done and fans out its events. Only called after the store accepted everything.
func (c *coordinator) commit(ctx context.Context, tx *domain.Transaction, events []domain.DecodedEvent) {
	c.cache.Add(tx.Signature)
	c.metrics.SetCacheSize(c.cache.Len())

	now := c.clock.Now()
	c.processedCount.Add(1)
	c.metrics.SetLastProcessedAt(now.Unix())

	switch {
	case tx.Failed:
		c.metrics.IncProcessed(KindFailedOnLedger)
	case len(events) == 0:
		c.metrics.IncProcessed(KindEmpty)
	default:
		for _, event := range events {
			c.metrics.IncProcessed(string(event.Kind))
		}
	}

	c.mu.Lock()
	c.lastProcessedAt = &now
	advance := tx.Slot >= c.lastCursorSlot
	if advance {
		c.lastCursor = tx.Signature
		c.lastCursorSlot = tx.Slot
	}
	c.mu.Unlock()

	if advance {
		if err := c.store.SetKeyValue(ctx, domain.IndexerCursorKey(c.config.ProgramID), tx.Signature); err != nil {
			logger.WarnCtx(ctx, "Failed to save indexer cursor", zap.String("signature", tx.Signature), zap.Error(err))
		}
	}

	c.publish(ctx, tx, events)
}

// publish is best effort; the events are already durable
func (c *coordinator) publish(ctx context.Context, tx *domain.Transaction, events []domain.DecodedEvent) {
	if c.publisher == nil {
		return
	}

	for _, decoded := range events {
		event := messaging.NewEvent(c.clock.Now(), c.config.ProgramID, tx, decoded)
		if err := c.publisher.PublishEvent(ctx, event); err != nil {
			logger.WarnCtx(ctx, "Failed to publish event",
				zap.String("signature", tx.Signature),
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}
	}
}

func (c *coordinator) loadCursor(ctx context.Context) {
	cursor, err := c.store.GetKeyValue(ctx, domain.IndexerCursorKey(c.config.ProgramID))
	if err != nil {
		logger.WarnCtx(ctx, "Failed to load indexer cursor", zap.Error(err))
		return
	}
	if cursor == "" {
		return
	}

	c.mu.Lock()
	c.lastCursor = cursor
	c.mu.Unlock()

	logger.InfoCtx(ctx, "Loaded indexer cursor", zap.String("signature", cursor))
}

func (c *coordinator) runCacheCleanup(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(c.config.CacheCleanupInterval):
			if removed := c.cache.Prune(); removed > 0 {
				logger.DebugCtx(ctx, "Pruned processed signature cache", zap.Int("removed", removed))
			}
			c.metrics.SetCacheSize(c.cache.Len())
		}
	}
}

// linearBackOff waits delay × attempt before each retry
type linearBackOff struct {
	delay   time.Duration
	attempt int
}

func newLinearBackOff(delay time.Duration) *linearBackOff {
	return &linearBackOff{delay: delay}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.delay * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

var _ backoff.BackOff = (*linearBackOff)(nil)

// isShutdown reports whether err came from the caller's context ending rather than the
// ledger or store. A per-call RPC or query timeout is a real failure and does not count.
func isShutdown(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
