package store

import (
	"context"
	"time"

	"github.com/feral-file/ledger-indexer/internal/store/schema"
)

const (
	DEFAULT_PAGE_LIMIT = 20
	MAX_PAGE_LIMIT     = 100
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// SaveMintedItem records a minted item and recomputes its owner's level in one transaction.
	// An existing row for the same mint (or signature) is returned unchanged.
	// Returns domain.ErrOwnershipMismatch when the configured verifier confirms the owner does not hold the item.
	SaveMintedItem(ctx context.Context, input CreateMintedItemInput) (*schema.MintedItem, error)
	// SaveBuybackEvent records a buyback event; idempotent on transaction signature
	SaveBuybackEvent(ctx context.Context, input CreateBuybackEventInput) (*schema.BuybackEvent, error)
	// IsTransactionProcessed reports whether a signature is already recorded as a mint or a buyback
	IsTransactionProcessed(ctx context.Context, signature string) (bool, error)

	// RecalculateOwnerLevel recomputes an owner's level from their item count.
	// Returns nil when the owner has no items; the level row is removed in that case.
	RecalculateOwnerLevel(ctx context.Context, owner string) (*schema.OwnerLevel, error)
	// GetOwnerLevel retrieves an owner's level, nil if the owner has no items
	GetOwnerLevel(ctx context.Context, owner string) (*schema.OwnerLevel, error)

	// GetMintedItemsForReconciliation returns items not touched within olderThan, oldest first
	GetMintedItemsForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]schema.MintedItem, error)
	// DeleteMintedItemsAndRecalculate deletes items by mint and recomputes every affected owner in one transaction.
	// Returns the affected owners.
	DeleteMintedItemsAndRecalculate(ctx context.Context, mints []string) ([]string, error)
	// TouchMintedItems marks items as verified now
	TouchMintedItems(ctx context.Context, mints []string) error

	// GetMintedItemByMint retrieves an item by mint address, nil if absent
	GetMintedItemByMint(ctx context.Context, mint string) (*schema.MintedItem, error)
	// GetMintedItemsByOwner retrieves an owner's items newest first with the total count
	GetMintedItemsByOwner(ctx context.Context, owner string, limit int, offset int) ([]schema.MintedItem, int64, error)
	// GetBuybackEvents retrieves buyback events newest first with the total count
	GetBuybackEvents(ctx context.Context, limit int, offset int) ([]schema.BuybackEvent, int64, error)
	// GetStatistics retrieves aggregate counts across all tables
	GetStatistics(ctx context.Context) (*Statistics, error)

	// SetKeyValue sets a key-value pair in the key-value store
	SetKeyValue(ctx context.Context, key string, value string) error
	// GetKeyValue retrieves a value by key, "" if absent
	GetKeyValue(ctx context.Context, key string) (string, error)
}

// OwnershipVerifier checks current on-ledger ownership before an item is recorded
type OwnershipVerifier interface {
	IsOwnedBy(ctx context.Context, owner string, mint string) (bool, error)
}

// CreateMintedItemInput represents the input for recording a minted item
type CreateMintedItemInput struct {
	Mint                 string
	Owner                string
	Name                 string
	Symbol               string
	URI                  string
	TransactionSignature string
	Slot                 uint64
	BlockTime            *time.Time
	EventTimestamp       time.Time
	Heuristic            bool
	RawEvent             []byte
}

// CreateBuybackEventInput represents the input for recording a buyback event
type CreateBuybackEventInput struct {
	TransactionSignature string
	AmountLamports       uint64
	TokenAmount          uint64
	EventTimestamp       time.Time
	Slot                 uint64
	BlockTime            *time.Time
	Heuristic            bool
	RawEvent             []byte
}

// Statistics holds aggregate counts
type Statistics struct {
	TotalItems          int64 `json:"totalItems"`
	UniqueOwners        int64 `json:"uniqueOwners"`
	TotalMints          int64 `json:"totalMints"`
	TotalBuybacks       int64 `json:"totalBuybacks"`
	TotalLamportsBought int64 `json:"totalLamportsBought"`
	TotalTokensBought   int64 `json:"totalTokensBought"`
}

// NormalizePagination clamps limit to [1, MAX_PAGE_LIMIT], defaulting to DEFAULT_PAGE_LIMIT,
// and negative offsets to 0
func NormalizePagination(limit int, offset int) (int, int) {
	if limit <= 0 {
		limit = DEFAULT_PAGE_LIMIT
	}
	if limit > MAX_PAGE_LIMIT {
		limit = MAX_PAGE_LIMIT
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
