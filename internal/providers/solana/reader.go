package solana

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/ledger-indexer/internal/adapter"
	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/logger"
)

const (
	DEFAULT_REQUEST_TIMEOUT     = 30 * time.Second
	DEFAULT_REQUESTS_PER_SECOND = 10
	DEFAULT_BURST               = 5
)

// Config holds the ledger reader configuration
type Config struct {
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	Commitment        string
}

// Reader wraps the ledger RPC endpoint. Every call may fail transiently;
// retries are the caller's concern.
//
//go:generate mockgen -source=reader.go -destination=../../mocks/ledger_reader.go -package=mocks -mock_names=Reader=MockLedgerReader,OwnershipVerifier=MockOwnershipVerifier
type Reader interface {
	OwnershipVerifier

	// ListRecentSignatures returns up to limit signatures touching programID, newest first.
	// When until is set, listing stops before that signature.
	ListRecentSignatures(ctx context.Context, programID string, limit int, until string) ([]domain.SignatureInfo, error)

	// FetchTransaction returns the confirmed transaction with its logs, slot and block time
	FetchTransaction(ctx context.Context, signature string) (*domain.Transaction, error)
}

// OwnershipVerifier checks whether an address currently holds an item
type OwnershipVerifier interface {
	// IsOwnedBy reports whether owner's associated token account for mint holds a positive balance.
	// A missing token account means not owned. Any other RPC failure is returned as an error.
	IsOwnedBy(ctx context.Context, owner string, mint string) (bool, error)
}

type reader struct {
	client     adapter.SolanaRPC
	limiter    *rate.Limiter
	timeout    time.Duration
	commitment rpc.CommitmentType
}

// NewReader creates a ledger reader backed by the given RPC client
func NewReader(cfg Config, client adapter.SolanaRPC) Reader {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DEFAULT_REQUEST_TIMEOUT
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DEFAULT_REQUESTS_PER_SECOND
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DEFAULT_BURST
	}

	return &reader{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		timeout:    cfg.RequestTimeout,
		commitment: parseCommitment(cfg.Commitment),
	}
}

func (r *reader) ListRecentSignatures(ctx context.Context, programID string, limit int, until string) ([]domain.SignatureInfo, error) {
	program, err := sol.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("%w: program id %s: %v", domain.ErrInvalidAddress, programID, err)
	}

	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: r.commitment,
	}
	if until != "" {
		untilSig, err := sol.SignatureFromBase58(until)
		if err != nil {
			return nil, fmt.Errorf("%w: until signature %s: %v", domain.ErrValidation, until, err)
		}
		opts.Until = untilSig
	}

	callCtx, cancel, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	results, err := r.client.GetSignaturesForAddressWithOpts(callCtx, program, opts)
	if err != nil {
		return nil, transientError("list signatures", programID, err)
	}

	signatures := make([]domain.SignatureInfo, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		info := domain.SignatureInfo{
			Signature: result.Signature.String(),
			Slot:      result.Slot,
			Failed:    result.Err != nil,
		}
		if result.BlockTime != nil {
			blockTime := result.BlockTime.Time().UTC()
			info.BlockTime = &blockTime
		}
		signatures = append(signatures, info)
	}

	return signatures, nil
}

func (r *reader) FetchTransaction(ctx context.Context, signature string) (*domain.Transaction, error) {
	sig, err := sol.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature %s: %v", domain.ErrValidation, signature, err)
	}

	callCtx, cancel, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	maxVersion := uint64(0)
	result, err := r.client.GetTransaction(callCtx, sig, &rpc.GetTransactionOpts{
		MaxSupportedTransactionVersion: &maxVersion,
		Commitment:                     r.commitment,
		Encoding:                       sol.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w: %s", domain.ErrTransientRPC, domain.ErrTransactionNotFound, signature)
		}
		return nil, transientError("get transaction", signature, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrTransientRPC, domain.ErrTransactionNotFound, signature)
	}
	if result.Meta == nil {
		return nil, fmt.Errorf("%w: transaction %s returned without metadata", domain.ErrTransientRPC, signature)
	}

	tx := &domain.Transaction{
		Signature:   signature,
		Slot:        result.Slot,
		LogMessages: result.Meta.LogMessages,
		Failed:      result.Meta.Err != nil,
	}
	if result.BlockTime != nil {
		blockTime := result.BlockTime.Time().UTC()
		tx.BlockTime = &blockTime
	}

	// Account keys are only needed by the heuristic decoder; a parse failure is not fatal
	if result.Transaction != nil {
		parsed, err := result.Transaction.GetTransaction()
		if err != nil {
			logger.DebugCtx(ctx, "Failed to parse transaction envelope", zap.String("signature", signature), zap.Error(err))
		} else if parsed != nil {
			for _, key := range parsed.Message.AccountKeys {
				tx.AccountKeys = append(tx.AccountKeys, key.String())
			}
		}
	}

	return tx, nil
}

func (r *reader) IsOwnedBy(ctx context.Context, owner string, mint string) (bool, error) {
	ownerKey, err := sol.PublicKeyFromBase58(owner)
	if err != nil {
		return false, fmt.Errorf("%w: owner %s: %v", domain.ErrInvalidAddress, owner, err)
	}
	mintKey, err := sol.PublicKeyFromBase58(mint)
	if err != nil {
		return false, fmt.Errorf("%w: mint %s: %v", domain.ErrInvalidAddress, mint, err)
	}

	ata, _, err := sol.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return false, fmt.Errorf("%w: derive token account for %s/%s: %v", domain.ErrInvalidAddress, owner, mint, err)
	}

	callCtx, cancel, err := r.begin(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	balance, err := r.client.GetTokenAccountBalance(callCtx, ata, r.commitment)
	if err != nil {
		if isAccountMissing(err) {
			return false, nil
		}
		return false, transientError("get token account balance", ata.String(), err)
	}
	if balance == nil || balance.Value == nil {
		return false, nil
	}

	amount, ok := new(big.Int).SetString(balance.Value.Amount, 10)
	if !ok {
		return false, fmt.Errorf("%w: unparsable token amount %q for %s", domain.ErrTransientRPC, balance.Value.Amount, ata)
	}

	return amount.Sign() > 0, nil
}

// begin waits for the rate limiter and returns a context bounded by the request timeout
func (r *reader) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrTransientRPC, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	return callCtx, cancel, nil
}

func transientError(op string, subject string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", domain.ErrTransientRPC, op, subject, err)
}

// isAccountMissing matches the RPC error returned for a token account that does not exist
func isAccountMissing(err error) bool {
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not find account") || strings.Contains(msg, "invalid param: could not find")
}

func parseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}
