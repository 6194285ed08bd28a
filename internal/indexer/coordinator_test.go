package indexer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/indexer"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/messaging"
	"github.com/feral-file/ledger-indexer/internal/metrics"
	"github.com/feral-file/ledger-indexer/internal/mocks"
	"github.com/feral-file/ledger-indexer/internal/store"
	"github.com/feral-file/ledger-indexer/internal/store/schema"
)

const testProgramID = "FAP3mPqWuAWkBMHfjTv1ZnbJ5ZsNvvKeMjYpdhKVBQia"

var testCursorKey = domain.IndexerCursorKey(testProgramID)

// testCoordinatorMocks contains all the mocks needed for testing the coordinator
type testCoordinatorMocks struct {
	ctrl        *gomock.Controller
	reader      *mocks.MockLedgerReader
	decoder     *mocks.MockDecoder
	store       *mocks.MockStore
	publisher   *mocks.MockPublisher
	clock       *mocks.MockClock
	metrics     *metrics.Metrics
	coordinator indexer.Coordinator
	now         time.Time
}

// setupTestCoordinator creates all the mocks and the coordinator for testing
func setupTestCoordinator(t *testing.T, config indexer.Config) *testCoordinatorMocks {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testCoordinatorMocks{
		ctrl:      ctrl,
		reader:    mocks.NewMockLedgerReader(ctrl),
		decoder:   mocks.NewMockDecoder(ctrl),
		store:     mocks.NewMockStore(ctrl),
		publisher: mocks.NewMockPublisher(ctrl),
		clock:     mocks.NewMockClock(ctrl),
		metrics:   metrics.New(),
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	config.ProgramID = testProgramID
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Millisecond
	}

	tm.coordinator = indexer.NewCoordinator(config, tm.reader, tm.decoder, tm.store, tm.publisher, tm.clock, tm.metrics)

	tm.clock.EXPECT().Now().Return(tm.now).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(10 * time.Millisecond).AnyTimes()

	return tm
}

// tearDownTestCoordinator cleans up the test mocks
func tearDownTestCoordinator(mocks *testCoordinatorMocks) {
	mocks.ctrl.Finish()
}

func mintTransaction(signature string, slot uint64) *domain.Transaction {
	blockTime := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	return &domain.Transaction{
		Signature:   signature,
		Slot:        slot,
		BlockTime:   &blockTime,
		LogMessages: []string{"Program " + testProgramID + " invoke [1]"},
	}
}

func mintEvent(mint, minter string) domain.DecodedEvent {
	return domain.DecodedEvent{
		Kind: domain.EventKindMint,
		Mint: &domain.MintEvent{
			Minter: minter,
			Mint:   mint,
			Name:   "Item #1",
			Symbol: "ITEM",
			URI:    "https://example.com/1.json",
		},
	}
}

func TestCoordinator_ProcessSignature_Mint(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{})
	defer tearDownTestCoordinator(mocks)

	ctx := context.Background()
	tx := mintTransaction("sig-1", 100)

	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-1").Return(tx, nil).Times(1)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{mintEvent("M1", "W1")})
	mocks.store.EXPECT().
		SaveMintedItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input store.CreateMintedItemInput) (*schema.MintedItem, error) {
			assert.Equal(t, "M1", input.Mint)
			assert.Equal(t, "W1", input.Owner)
			assert.Equal(t, "sig-1", input.TransactionSignature)
			assert.Equal(t, uint64(100), input.Slot)
			// Event without a timestamp falls back to block time
			assert.Equal(t, *tx.BlockTime, input.EventTimestamp)
			assert.False(t, input.Heuristic)
			assert.Contains(t, string(input.RawEvent), `"mint":"M1"`)
			return &schema.MintedItem{Mint: input.Mint, Owner: input.Owner}, nil
		})
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-1").Return(nil)
	mocks.publisher.EXPECT().
		PublishEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *messaging.Event) error {
			assert.Equal(t, messaging.EventTypeNFTMinted, event.Type)
			assert.Equal(t, "sig-1", event.Signature)
			assert.Equal(t, "W1", event.Owner)
			return nil
		})

	require.NoError(t, mocks.coordinator.ProcessSignature(ctx, "sig-1"))

	// Cached signatures are not fetched again
	require.NoError(t, mocks.coordinator.ProcessSignature(ctx, "sig-1"))

	status := mocks.coordinator.GetStatus(ctx)
	assert.Equal(t, int64(1), status.ProcessedCount)
	assert.Equal(t, int64(0), status.CurrentlyProcessing)
	assert.Equal(t, 1, status.CacheSize)
	assert.Equal(t, "sig-1", status.LastCursor)
	require.NotNil(t, status.LastProcessedAt)
	assert.Equal(t, mocks.now, *status.LastProcessedAt)
}

func TestCoordinator_ProcessSignature_Buyback(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{})
	defer tearDownTestCoordinator(mocks)

	eventTime := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tx := mintTransaction("sig-b", 5)

	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-b").Return(tx, nil)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{{
		Kind:    domain.EventKindBuyback,
		Buyback: &domain.BuybackEvent{AmountLamports: 2_000_000_000, TokenAmount: 12345, Timestamp: eventTime},
	}})
	mocks.store.EXPECT().
		SaveBuybackEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input store.CreateBuybackEventInput) (*schema.BuybackEvent, error) {
			assert.Equal(t, "sig-b", input.TransactionSignature)
			assert.Equal(t, uint64(2_000_000_000), input.AmountLamports)
			assert.Equal(t, uint64(12345), input.TokenAmount)
			assert.Equal(t, eventTime, input.EventTimestamp)
			return &schema.BuybackEvent{}, nil
		})
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-b").Return(nil)
	mocks.publisher.EXPECT().
		PublishEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *messaging.Event) error {
			assert.Equal(t, messaging.EventTypeBuybackExecuted, event.Type)
			return nil
		})

	require.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-b"))
}

func TestCoordinator_ProcessSignature_NothingToStore(t *testing.T) {
	tests := []struct {
		name   string
		tx     *domain.Transaction
		decode bool
	}{
		{
			name:   "no program event",
			tx:     mintTransaction("sig-empty", 1),
			decode: true,
		},
		{
			name: "failed on ledger",
			tx: &domain.Transaction{
				Signature: "sig-empty",
				Slot:      1,
				Failed:    true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := setupTestCoordinator(t, indexer.Config{})
			defer tearDownTestCoordinator(mocks)

			mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-empty").Return(tt.tx, nil)
			if tt.decode {
				mocks.decoder.EXPECT().DecodeTransaction(tt.tx, testProgramID).Return(nil)
			}
			mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-empty").Return(nil)

			require.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-empty"))

			// Committed, so never refetched
			require.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-empty"))
			assert.Equal(t, int64(1), mocks.coordinator.GetStatus(context.Background()).ProcessedCount)
		})
	}
}

func TestCoordinator_ProcessSignature_RetriesTransientErrors(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{MaxRetries: 5})
	defer tearDownTestCoordinator(mocks)

	tx := mintTransaction("sig-r", 9)

	gomock.InOrder(
		mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-r").Return(nil, domain.ErrTransientRPC),
		mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-r").Return(nil, domain.ErrTransactionNotFound),
		mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-r").Return(tx, nil),
		mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-r").Return(tx, nil),
	)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{mintEvent("M1", "W1")})
	gomock.InOrder(
		mocks.store.EXPECT().SaveMintedItem(gomock.Any(), gomock.Any()).Return(nil, domain.ErrStorage),
		mocks.store.EXPECT().SaveMintedItem(gomock.Any(), gomock.Any()).Return(&schema.MintedItem{Mint: "M1", Owner: "W1"}, nil),
	)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{mintEvent("M1", "W1")})
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-r").Return(nil)
	mocks.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-r"))

	status := mocks.coordinator.GetStatus(context.Background())
	assert.Equal(t, int64(3), status.TotalRetries)
	assert.Equal(t, int64(0), status.TotalErrors)
	assert.Equal(t, int64(1), status.ProcessedCount)
}

func TestCoordinator_ProcessSignature_GivesUpAfterMaxRetries(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{MaxRetries: 3})
	defer tearDownTestCoordinator(mocks)

	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-x").Return(nil, domain.ErrTransientRPC).Times(3)

	err := mocks.coordinator.ProcessSignature(context.Background(), "sig-x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransientRPC)

	var processingErr *domain.ProcessingError
	require.True(t, errors.As(err, &processingErr))
	assert.Equal(t, "sig-x", processingErr.Signature)
	assert.Equal(t, testProgramID, processingErr.ProgramID)
	assert.Equal(t, 3, processingErr.Attempts)

	status := mocks.coordinator.GetStatus(context.Background())
	assert.Equal(t, int64(1), status.TotalErrors)
	assert.Equal(t, int64(2), status.TotalRetries)
	assert.Equal(t, int64(0), status.ProcessedCount)
	assert.Equal(t, 0, status.CacheSize)
}

func TestCoordinator_ProcessSignature_QueryTimeoutCountsAsError(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{MaxRetries: 2})
	defer tearDownTestCoordinator(mocks)

	tx := mintTransaction("sig-t", 7)
	timeout := fmt.Errorf("%w: insert minted item: %w", domain.ErrStorage, context.DeadlineExceeded)

	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-t").Return(tx, nil).Times(2)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{mintEvent("M9", "W9")}).Times(2)
	mocks.store.EXPECT().SaveMintedItem(gomock.Any(), gomock.Any()).Return(nil, timeout).Times(2)

	err := mocks.coordinator.ProcessSignature(context.Background(), "sig-t")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	status := mocks.coordinator.GetStatus(context.Background())
	assert.Equal(t, int64(1), status.TotalErrors)
}

func TestCoordinator_ProcessSignature_CanceledContextIsNotAnError(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{MaxRetries: 3})
	defer tearDownTestCoordinator(mocks)

	ctx, cancel := context.WithCancel(context.Background())

	mocks.reader.EXPECT().
		FetchTransaction(gomock.Any(), "sig-c").
		DoAndReturn(func(ctx context.Context, _ string) (*domain.Transaction, error) {
			cancel()
			return nil, ctx.Err()
		})

	err := mocks.coordinator.ProcessSignature(ctx, "sig-c")
	require.ErrorIs(t, err, context.Canceled)

	status := mocks.coordinator.GetStatus(context.Background())
	assert.Equal(t, int64(0), status.TotalErrors)
}

func TestCoordinator_ProcessSignature_PermanentErrors(t *testing.T) {
	tests := []struct {
		name    string
		event   domain.DecodedEvent
		saveErr error
		wantErr error
	}{
		{
			name:    "ownership mismatch",
			event:   mintEvent("M1", "W1"),
			saveErr: domain.ErrOwnershipMismatch,
			wantErr: domain.ErrValidation,
		},
		{
			name: "heuristic mint without minter",
			event: domain.DecodedEvent{
				Kind:      domain.EventKindMint,
				Mint:      &domain.MintEvent{Mint: "M1", Name: "Item"},
				Heuristic: true,
			},
			wantErr: domain.ErrDecodeFailure,
		},
		{
			name:    "unknown kind",
			event:   domain.DecodedEvent{Kind: domain.EventKind("transfer")},
			wantErr: domain.ErrDecodeFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := setupTestCoordinator(t, indexer.Config{MaxRetries: 5})
			defer tearDownTestCoordinator(mocks)

			tx := mintTransaction("sig-p", 1)
			mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-p").Return(tx, nil).Times(1)
			mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{tt.event}).Times(1)
			if tt.saveErr != nil {
				mocks.store.EXPECT().SaveMintedItem(gomock.Any(), gomock.Any()).Return(nil, tt.saveErr).Times(1)
			}

			err := mocks.coordinator.ProcessSignature(context.Background(), "sig-p")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var processingErr *domain.ProcessingError
			require.True(t, errors.As(err, &processingErr))
			assert.Equal(t, 1, processingErr.Attempts)
			assert.Equal(t, int64(0), mocks.coordinator.GetStatus(context.Background()).TotalRetries)
		})
	}
}

func TestCoordinator_ProcessSignature_PublishFailureIsIgnored(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{})
	defer tearDownTestCoordinator(mocks)

	tx := mintTransaction("sig-1", 1)
	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-1").Return(tx, nil)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return([]domain.DecodedEvent{mintEvent("M1", "W1")})
	mocks.store.EXPECT().SaveMintedItem(gomock.Any(), gomock.Any()).Return(&schema.MintedItem{Mint: "M1", Owner: "W1"}, nil)
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-1").Return(errors.New("db down"))
	mocks.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(errors.New("nats down"))

	require.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-1"))
	assert.Equal(t, int64(0), mocks.coordinator.GetStatus(context.Background()).TotalErrors)
}

func TestCoordinator_ProcessSignature_InFlightSignatureIsSkipped(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{})
	defer tearDownTestCoordinator(mocks)

	tx := mintTransaction("sig-1", 1)
	started := make(chan struct{})
	release := make(chan struct{})

	mocks.reader.EXPECT().
		FetchTransaction(gomock.Any(), "sig-1").
		DoAndReturn(func(_ context.Context, _ string) (*domain.Transaction, error) {
			close(started)
			<-release
			return tx, nil
		}).
		Times(1)
	mocks.decoder.EXPECT().DecodeTransaction(tx, testProgramID).Return(nil)
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-1").Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-1"))
	}()

	<-started
	status := mocks.coordinator.GetStatus(context.Background())
	assert.Equal(t, int64(1), status.CurrentlyProcessing)
	assert.Equal(t, 1, status.InFlight)

	require.NoError(t, mocks.coordinator.ProcessSignature(context.Background(), "sig-1"))

	close(release)
	wg.Wait()
	assert.Equal(t, int64(1), mocks.coordinator.GetStatus(context.Background()).ProcessedCount)
}

func TestCoordinator_StartBackfillsAndPolls(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{
		PollInterval:         time.Minute,
		CacheCleanupInterval: time.Hour,
		BackfillLimit:        20,
		PollLimit:            10,
	})
	defer tearDownTestCoordinator(mocks)

	pollCh := make(chan time.Time)
	var never <-chan time.Time = make(chan time.Time)
	mocks.clock.EXPECT().After(time.Minute).Return((<-chan time.Time)(pollCh)).AnyTimes()
	mocks.clock.EXPECT().After(time.Hour).Return(never).AnyTimes()
	mocks.clock.EXPECT().After(gomock.Any()).DoAndReturn(func(d time.Duration) <-chan time.Time {
		return time.After(d)
	}).AnyTimes()

	mocks.store.EXPECT().GetKeyValue(gomock.Any(), testCursorKey).Return("sig-old", nil)

	// Backfill: one failed on ledger, one already recorded, one new
	mocks.reader.EXPECT().
		ListRecentSignatures(gomock.Any(), testProgramID, 20, "").
		Return([]domain.SignatureInfo{
			{Signature: "sig-failed", Failed: true},
			{Signature: "sig-recorded", Slot: 2},
			{Signature: "sig-new", Slot: 3},
		}, nil)
	mocks.store.EXPECT().IsTransactionProcessed(gomock.Any(), "sig-recorded").Return(true, nil)
	mocks.store.EXPECT().IsTransactionProcessed(gomock.Any(), "sig-new").Return(false, nil)

	newTx := mintTransaction("sig-new", 3)
	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-new").Return(newTx, nil)
	mocks.decoder.EXPECT().DecodeTransaction(newTx, testProgramID).Return([]domain.DecodedEvent{mintEvent("M1", "W1")})
	mocks.store.EXPECT().SaveMintedItem(gomock.Any(), gomock.Any()).Return(&schema.MintedItem{Mint: "M1", Owner: "W1"}, nil)
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-new").Return(nil)
	mocks.publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).Return(nil)

	// Poll: only the unseen signature is processed
	polled := make(chan struct{})
	mocks.reader.EXPECT().
		ListRecentSignatures(gomock.Any(), testProgramID, 10, "").
		Return([]domain.SignatureInfo{
			{Signature: "sig-polled", Slot: 4},
			{Signature: "sig-new", Slot: 3},
			{Signature: "sig-recorded", Slot: 2},
			{Signature: "sig-failed", Failed: true},
		}, nil)
	polledTx := mintTransaction("sig-polled", 4)
	mocks.reader.EXPECT().FetchTransaction(gomock.Any(), "sig-polled").Return(polledTx, nil)
	mocks.decoder.EXPECT().DecodeTransaction(polledTx, testProgramID).Return(nil)
	mocks.store.EXPECT().
		SetKeyValue(gomock.Any(), testCursorKey, "sig-polled").
		DoAndReturn(func(_ context.Context, _ string, _ string) error {
			close(polled)
			return nil
		})

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- mocks.coordinator.Start(ctx)
	}()

	select {
	case pollCh <- time.Now():
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not reach the polling loop")
	}

	select {
	case <-polled:
	case <-time.After(5 * time.Second):
		t.Fatal("polled signature was not processed")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, mocks.coordinator.Stop(stopCtx))
	require.NoError(t, <-done)

	status := mocks.coordinator.GetStatus(ctx)
	assert.False(t, status.IsRunning)
	assert.Equal(t, int64(2), status.ProcessedCount)
	assert.Equal(t, "sig-polled", status.LastCursor)
	assert.Equal(t, 4, status.CacheSize)
}

func TestCoordinator_PollDoesNotRequeueWaitingSignatures(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{
		PollInterval:            time.Minute,
		CacheCleanupInterval:    time.Hour,
		PollLimit:               10,
		MaxRetries:              1,
		MaxConcurrentProcessing: 1,
		RateLimitDelay:          time.Millisecond,
	})
	defer tearDownTestCoordinator(mocks)

	pollCh := make(chan time.Time)
	var never <-chan time.Time = make(chan time.Time)
	mocks.clock.EXPECT().After(time.Minute).Return((<-chan time.Time)(pollCh)).AnyTimes()
	mocks.clock.EXPECT().After(time.Hour).Return(never).AnyTimes()
	mocks.clock.EXPECT().After(gomock.Any()).DoAndReturn(func(d time.Duration) <-chan time.Time {
		return time.After(d)
	}).AnyTimes()

	mocks.store.EXPECT().GetKeyValue(gomock.Any(), testCursorKey).Return("", nil)
	mocks.reader.EXPECT().ListRecentSignatures(gomock.Any(), testProgramID, indexer.DEFAULT_BACKFILL_LIMIT, "").Return(nil, nil)
	mocks.reader.EXPECT().
		ListRecentSignatures(gomock.Any(), testProgramID, 10, "").
		Return([]domain.SignatureInfo{{Signature: "sig-a", Slot: 2}, {Signature: "sig-b", Slot: 1}}, nil).
		AnyTimes()

	// sig-a holds the only worker, so sig-b waits in the queue across every tick
	started := make(chan struct{})
	release := make(chan struct{})
	txA := mintTransaction("sig-a", 2)
	mocks.reader.EXPECT().
		FetchTransaction(gomock.Any(), "sig-a").
		DoAndReturn(func(_ context.Context, _ string) (*domain.Transaction, error) {
			close(started)
			<-release
			return txA, nil
		}).
		Times(1)
	mocks.decoder.EXPECT().DecodeTransaction(txA, testProgramID).Return(nil)
	mocks.store.EXPECT().SetKeyValue(gomock.Any(), testCursorKey, "sig-a").Return(nil)

	var fetchesB atomic.Int32
	mocks.reader.EXPECT().
		FetchTransaction(gomock.Any(), "sig-b").
		DoAndReturn(func(_ context.Context, _ string) (*domain.Transaction, error) {
			fetchesB.Add(1)
			return nil, domain.ErrTransientRPC
		}).
		AnyTimes()

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- mocks.coordinator.Start(ctx)
	}()

	// Each send returns once the previous poll has finished
	for i := 0; i < 6; i++ {
		select {
		case pollCh <- time.Now():
		case <-time.After(5 * time.Second):
			t.Fatalf("coordinator did not reach poll %d", i+1)
		}
		if i == 0 {
			<-started
		}
	}

	assert.Equal(t, 2, mocks.coordinator.GetStatus(ctx).InFlight)

	close(release)
	assert.Eventually(t, func() bool {
		return mocks.coordinator.GetStatus(ctx).TotalErrors == 1
	}, 5*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, mocks.coordinator.Stop(stopCtx))
	require.NoError(t, <-done)

	status := mocks.coordinator.GetStatus(ctx)
	assert.Equal(t, int32(1), fetchesB.Load())
	assert.Equal(t, int64(1), status.TotalErrors)
	assert.Equal(t, int64(1), status.ProcessedCount)
	assert.Equal(t, 0, status.InFlight)
}

func TestCoordinator_StopCancelsBackfill(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{PollInterval: time.Minute, CacheCleanupInterval: time.Hour})
	defer tearDownTestCoordinator(mocks)

	var never <-chan time.Time = make(chan time.Time)
	mocks.clock.EXPECT().After(gomock.Any()).Return(never).AnyTimes()
	mocks.store.EXPECT().GetKeyValue(gomock.Any(), testCursorKey).Return("", nil)
	mocks.reader.EXPECT().
		ListRecentSignatures(gomock.Any(), testProgramID, gomock.Any(), "").
		Return([]domain.SignatureInfo{{Signature: "sig-slow", Slot: 1}}, nil)
	mocks.store.EXPECT().IsTransactionProcessed(gomock.Any(), "sig-slow").Return(false, nil)

	started := make(chan struct{})
	mocks.reader.EXPECT().
		FetchTransaction(gomock.Any(), "sig-slow").
		DoAndReturn(func(ctx context.Context, _ string) (*domain.Transaction, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}).
		Times(1)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- mocks.coordinator.Start(ctx)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("backfill did not start")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, mocks.coordinator.Stop(stopCtx))
	require.NoError(t, <-done)

	status := mocks.coordinator.GetStatus(ctx)
	assert.Equal(t, int64(0), status.TotalErrors)
	assert.Equal(t, int64(0), status.ProcessedCount)
}

func TestCoordinator_StartSurvivesListingFailure(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{PollInterval: time.Minute, CacheCleanupInterval: time.Hour})
	defer tearDownTestCoordinator(mocks)

	var never <-chan time.Time = make(chan time.Time)
	mocks.clock.EXPECT().After(gomock.Any()).Return(never).AnyTimes()
	mocks.store.EXPECT().GetKeyValue(gomock.Any(), testCursorKey).Return("", errors.New("db down"))

	listed := make(chan struct{})
	mocks.reader.EXPECT().
		ListRecentSignatures(gomock.Any(), testProgramID, gomock.Any(), "").
		DoAndReturn(func(_ context.Context, _ string, _ int, _ string) ([]domain.SignatureInfo, error) {
			close(listed)
			return nil, domain.ErrTransientRPC
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- mocks.coordinator.Start(ctx)
	}()

	<-listed
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop on context cancellation")
	}
	assert.Equal(t, int64(0), mocks.coordinator.GetStatus(context.Background()).TotalErrors)
}

func TestCoordinator_GetStatusConfiguration(t *testing.T) {
	mocks := setupTestCoordinator(t, indexer.Config{MaxCacheSize: 200})
	defer tearDownTestCoordinator(mocks)

	status := mocks.coordinator.GetStatus(context.Background())
	assert.False(t, status.IsRunning)
	assert.Equal(t, testProgramID, status.ProgramID)
	assert.Equal(t, 200, status.MaxCacheSize)
	assert.Equal(t, float64(0), status.CacheUtilization)
	assert.Nil(t, status.LastProcessedAt)
	assert.Equal(t, "30s", status.Configuration.PollInterval)
	assert.Equal(t, 20, status.Configuration.BackfillLimit)
	assert.Equal(t, 5, status.Configuration.MaxRetries)
	assert.Equal(t, 3, status.Configuration.MaxConcurrentProcessing)
}
