package adapter

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaRPC defines the subset of the Solana JSON-RPC client used by the indexer to enable mocking
//
//go:generate mockgen -source=solana.go -destination=../mocks/solana.go -package=mocks -mock_names=SolanaRPC=MockSolanaRPC
type SolanaRPC interface {
	// GetSignaturesForAddressWithOpts lists confirmed signatures touching an account, newest first
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)

	// GetTransaction returns a confirmed transaction with its metadata
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)

	// GetTokenAccountBalance returns the token balance of an SPL token account
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)

	// GetHealth returns the node health status
	GetHealth(ctx context.Context) (string, error)
}

// NewSolanaRPC creates a JSON-RPC client for the given endpoint
func NewSolanaRPC(endpoint string) SolanaRPC {
	return rpc.New(endpoint)
}
