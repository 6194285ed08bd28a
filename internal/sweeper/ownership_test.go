package sweeper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/metrics"
	"github.com/feral-file/ledger-indexer/internal/mocks"
	"github.com/feral-file/ledger-indexer/internal/store/schema"
	"github.com/feral-file/ledger-indexer/internal/sweeper"
)

// testSweeperMocks contains all the mocks needed for testing the sweeper
type testSweeperMocks struct {
	ctrl     *gomock.Controller
	store    *mocks.MockStore
	verifier *mocks.MockOwnershipVerifier
	clock    *mocks.MockClock
	metrics  *metrics.Metrics
	sweeper  sweeper.OwnershipSweeper
}

// setupTestSweeper creates all the mocks and sweeper for testing
func setupTestSweeper(t *testing.T, config sweeper.OwnershipSweeperConfig) *testSweeperMocks {
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testSweeperMocks{
		ctrl:     ctrl,
		store:    mocks.NewMockStore(ctrl),
		verifier: mocks.NewMockOwnershipVerifier(ctrl),
		clock:    mocks.NewMockClock(ctrl),
		metrics:  metrics.New(),
	}

	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	config.ConcurrentChecks = 2
	config.RPCDelay = time.Millisecond
	config.WriteRetryInitialInterval = time.Millisecond
	config.WriteRetryMaxElapsedTime = time.Second

	tm.sweeper = sweeper.NewOwnershipSweeper(config, tm.store, tm.verifier, tm.clock, tm.metrics)

	now := time.Now()
	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()

	return tm
}

// tearDownTestSweeper cleans up the test mocks
func tearDownTestSweeper(mocks *testSweeperMocks) {
	mocks.ctrl.Finish()
}

func mintedItem(mint, owner string) schema.MintedItem {
	return schema.MintedItem{Mint: mint, Owner: owner, TransactionSignature: "sig-" + mint}
}

func TestOwnershipSweeper_Name(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{})
	defer tearDownTestSweeper(mocks)

	assert.Equal(t, "ownership-sweeper", mocks.sweeper.Name())
}

func TestOwnershipSweeper_Sweep_RemovesUnownedAndTouchesOwned(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{VerificationAge: 24 * time.Hour})
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), 24*time.Hour, 10).
		Return([]schema.MintedItem{
			mintedItem("M1", "W1"),
			mintedItem("M2", "W1"),
			mintedItem("M3", "W2"),
		}, nil).
		Times(1)

	mocks.verifier.EXPECT().IsOwnedBy(gomock.Any(), "W1", "M1").Return(false, nil)
	mocks.verifier.EXPECT().IsOwnedBy(gomock.Any(), "W1", "M2").Return(true, nil)
	mocks.verifier.EXPECT().IsOwnedBy(gomock.Any(), "W2", "M3").Return(false, errors.New("rpc timeout"))

	mocks.store.EXPECT().
		DeleteMintedItemsAndRecalculate(gomock.Any(), []string{"M1"}).
		Return([]string{"W1"}, nil)
	mocks.store.EXPECT().
		TouchMintedItems(gomock.Any(), []string{"M2"}).
		Return(nil)

	result, err := mocks.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 1, result.Verified)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, []string{"W1"}, result.AffectedOwners)
	assert.False(t, mocks.sweeper.IsSweeping())
}

func TestOwnershipSweeper_Sweep_NothingToCheck(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{})
	defer tearDownTestSweeper(mocks)

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), gomock.Any(), 10).
		Return([]schema.MintedItem{}, nil)

	result, err := mocks.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Batches)
	assert.Equal(t, 0, result.Checked)
	assert.Empty(t, result.AffectedOwners)
}

func TestOwnershipSweeper_Sweep_BoundedBatches(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{BatchSize: 2, MaxBatches: 3})
	defer tearDownTestSweeper(mocks)

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), gomock.Any(), 2).
		Return([]schema.MintedItem{mintedItem("A", "W"), mintedItem("B", "W")}, nil).
		Times(3)
	mocks.verifier.EXPECT().IsOwnedBy(gomock.Any(), "W", gomock.Any()).Return(true, nil).Times(6)
	mocks.store.EXPECT().
		TouchMintedItems(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, mints []string) error {
			assert.ElementsMatch(t, []string{"A", "B"}, mints)
			return nil
		}).
		Times(3)

	result, err := mocks.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Batches)
	assert.Equal(t, 6, result.Verified)
}

func TestOwnershipSweeper_Sweep_StopsWhenOnlyErrorsRemain(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{BatchSize: 1, MaxBatches: 5})
	defer tearDownTestSweeper(mocks)

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), gomock.Any(), 1).
		Return([]schema.MintedItem{mintedItem("A", "W")}, nil).
		Times(1)
	mocks.verifier.EXPECT().IsOwnedBy(gomock.Any(), "W", "A").Return(false, domain.ErrTransientRPC)

	result, err := mocks.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Batches)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.Removed)
}

func TestOwnershipSweeper_Sweep_RetriesStoreWrites(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{})
	defer tearDownTestSweeper(mocks)

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), gomock.Any(), 10).
		Return([]schema.MintedItem{mintedItem("M1", "W1")}, nil)
	mocks.verifier.EXPECT().IsOwnedBy(gomock.Any(), "W1", "M1").Return(false, nil)

	gomock.InOrder(
		mocks.store.EXPECT().
			DeleteMintedItemsAndRecalculate(gomock.Any(), []string{"M1"}).
			Return(nil, domain.ErrStorage),
		mocks.store.EXPECT().
			DeleteMintedItemsAndRecalculate(gomock.Any(), []string{"M1"}).
			Return([]string{"W1"}, nil),
	)

	result, err := mocks.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, []string{"W1"}, result.AffectedOwners)
}

func TestOwnershipSweeper_Sweep_SkipsWhileRunning(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{})
	defer tearDownTestSweeper(mocks)

	release := make(chan struct{})
	started := make(chan struct{})

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), gomock.Any(), 10).
		Return([]schema.MintedItem{mintedItem("M1", "W1")}, nil)
	mocks.verifier.EXPECT().
		IsOwnedBy(gomock.Any(), "W1", "M1").
		DoAndReturn(func(_ context.Context, _, _ string) (bool, error) {
			close(started)
			<-release
			return true, nil
		})
	mocks.store.EXPECT().TouchMintedItems(gomock.Any(), []string{"M1"}).Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := mocks.sweeper.Sweep(context.Background())
		assert.NoError(t, err)
	}()

	<-started
	assert.True(t, mocks.sweeper.IsSweeping())

	_, err := mocks.sweeper.Sweep(context.Background())
	assert.ErrorIs(t, err, sweeper.ErrSweepInProgress)

	close(release)
	wg.Wait()
	assert.False(t, mocks.sweeper.IsSweeping())
}

func TestOwnershipSweeper_StartStop(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{RunOnStart: true, Schedule: "@every 1h"})
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	swept := make(chan struct{})

	mocks.store.EXPECT().
		GetMintedItemsForReconciliation(gomock.Any(), gomock.Any(), 10).
		DoAndReturn(func(_ context.Context, _ time.Duration, _ int) ([]schema.MintedItem, error) {
			close(swept)
			return []schema.MintedItem{}, nil
		})

	done := make(chan error, 1)
	go func() {
		done <- mocks.sweeper.Start(ctx)
	}()

	select {
	case <-swept:
	case <-time.After(5 * time.Second):
		t.Fatal("startup sweep did not run")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, mocks.sweeper.Stop(stopCtx))
	require.NoError(t, <-done)
}

func TestOwnershipSweeper_InvalidSchedule(t *testing.T) {
	mocks := setupTestSweeper(t, sweeper.OwnershipSweeperConfig{Schedule: "not a schedule"})
	defer tearDownTestSweeper(mocks)

	err := mocks.sweeper.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reconciliation schedule")
}
