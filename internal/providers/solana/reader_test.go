package solana_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/mocks"
	"github.com/feral-file/ledger-indexer/internal/providers/solana"
)

type testReaderMocks struct {
	ctrl   *gomock.Controller
	client *mocks.MockSolanaRPC
	reader solana.Reader
}

func setupTestReader(t *testing.T) *testReaderMocks {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockSolanaRPC(ctrl)

	reader := solana.NewReader(solana.Config{
		RequestTimeout:    time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
	}, client)

	return &testReaderMocks{ctrl: ctrl, client: client, reader: reader}
}

func newKey(t *testing.T) sol.PublicKey {
	t.Helper()
	key, err := sol.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func newSignature(b byte) sol.Signature {
	var sig sol.Signature
	for i := range sig {
		sig[i] = b
	}
	return sig
}

func TestListRecentSignatures(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	program := newKey(t)
	blockTime := sol.UnixTimeSeconds(1700000000)
	until := newSignature(9)

	m.client.EXPECT().
		GetSignaturesForAddressWithOpts(gomock.Any(), program, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ sol.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
			require.NotNil(t, opts.Limit)
			assert.Equal(t, 20, *opts.Limit)
			assert.Equal(t, until, opts.Until)
			assert.Equal(t, rpc.CommitmentConfirmed, opts.Commitment)
			return []*rpc.TransactionSignature{
				{Signature: newSignature(1), Slot: 200, BlockTime: &blockTime},
				nil,
				{Signature: newSignature(2), Slot: 199, Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
			}, nil
		})

	signatures, err := m.reader.ListRecentSignatures(context.Background(), program.String(), 20, until.String())
	require.NoError(t, err)
	require.Len(t, signatures, 2)

	assert.Equal(t, newSignature(1).String(), signatures[0].Signature)
	assert.Equal(t, uint64(200), signatures[0].Slot)
	require.NotNil(t, signatures[0].BlockTime)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), *signatures[0].BlockTime)
	assert.False(t, signatures[0].Failed)

	assert.Nil(t, signatures[1].BlockTime)
	assert.True(t, signatures[1].Failed)
}

func TestListRecentSignatures_InvalidProgramID(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	_, err := m.reader.ListRecentSignatures(context.Background(), "not-a-key", 20, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	assert.False(t, domain.IsRetryable(err))
}

func TestListRecentSignatures_RPCFailureIsTransient(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	m.client.EXPECT().
		GetSignaturesForAddressWithOpts(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("429 too many requests"))

	_, err := m.reader.ListRecentSignatures(context.Background(), newKey(t).String(), 20, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransientRPC)
	assert.True(t, domain.IsRetryable(err))
}

func TestFetchTransaction(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	sig := newSignature(3)
	blockTime := sol.UnixTimeSeconds(1700000100)
	logs := []string{"Program X invoke [1]", "Program X success"}

	m.client.EXPECT().
		GetTransaction(gomock.Any(), sig, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ sol.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
			require.NotNil(t, opts.MaxSupportedTransactionVersion)
			assert.Equal(t, uint64(0), *opts.MaxSupportedTransactionVersion)
			return &rpc.GetTransactionResult{
				Slot:      321,
				BlockTime: &blockTime,
				Meta:      &rpc.TransactionMeta{LogMessages: logs},
			}, nil
		})

	tx, err := m.reader.FetchTransaction(context.Background(), sig.String())
	require.NoError(t, err)
	assert.Equal(t, sig.String(), tx.Signature)
	assert.Equal(t, uint64(321), tx.Slot)
	assert.Equal(t, logs, tx.LogMessages)
	assert.False(t, tx.Failed)
	require.NotNil(t, tx.BlockTime)
	assert.Equal(t, time.Unix(1700000100, 0).UTC(), *tx.BlockTime)
}

func TestFetchTransaction_FailedOnLedger(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	m.client.EXPECT().
		GetTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&rpc.GetTransactionResult{
			Slot: 1,
			Meta: &rpc.TransactionMeta{Err: "InsufficientFunds"},
		}, nil)

	tx, err := m.reader.FetchTransaction(context.Background(), newSignature(4).String())
	require.NoError(t, err)
	assert.True(t, tx.Failed)
}

func TestFetchTransaction_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		result *rpc.GetTransactionResult
		err    error
	}{
		{name: "rpc not found", err: rpc.ErrNotFound},
		{name: "nil result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := setupTestReader(t)
			defer m.ctrl.Finish()

			m.client.EXPECT().
				GetTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(tt.result, tt.err)

			_, err := m.reader.FetchTransaction(context.Background(), newSignature(5).String())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
			assert.ErrorIs(t, err, domain.ErrTransientRPC)
			assert.True(t, domain.IsRetryable(err))
		})
	}
}

func TestFetchTransaction_InvalidSignature(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	_, err := m.reader.FetchTransaction(context.Background(), "???")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIsOwnedBy(t *testing.T) {
	tests := []struct {
		name     string
		result   *rpc.GetTokenAccountBalanceResult
		err      error
		expected bool
		wantErr  error
	}{
		{
			name:     "positive balance",
			result:   &rpc.GetTokenAccountBalanceResult{Value: &rpc.UiTokenAmount{Amount: "1"}},
			expected: true,
		},
		{
			name:   "zero balance",
			result: &rpc.GetTokenAccountBalanceResult{Value: &rpc.UiTokenAmount{Amount: "0"}},
		},
		{
			name: "missing token account",
			err:  errors.New("(*jsonrpc.RPCError)(0xc000)({Code: -32602, Message: \"Invalid param: could not find account\"})"),
		},
		{
			name:    "rpc failure",
			err:     errors.New("connection reset by peer"),
			wantErr: domain.ErrTransientRPC,
		},
		{
			name:    "unparsable amount",
			result:  &rpc.GetTokenAccountBalanceResult{Value: &rpc.UiTokenAmount{Amount: "abc"}},
			wantErr: domain.ErrTransientRPC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := setupTestReader(t)
			defer m.ctrl.Finish()

			owner := newKey(t)
			mint := newKey(t)
			ata, _, err := sol.FindAssociatedTokenAddress(owner, mint)
			require.NoError(t, err)

			m.client.EXPECT().
				GetTokenAccountBalance(gomock.Any(), ata, rpc.CommitmentConfirmed).
				Return(tt.result, tt.err)

			owned, err := m.reader.IsOwnedBy(context.Background(), owner.String(), mint.String())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, owned)
		})
	}
}

func TestIsOwnedBy_InvalidAddress(t *testing.T) {
	m := setupTestReader(t)
	defer m.ctrl.Finish()

	_, err := m.reader.IsOwnedBy(context.Background(), "bad", newKey(t).String())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}
