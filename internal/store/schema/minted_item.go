package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MintedItem represents the minted_items table - one row per item minted by the program
// whose current holder is still the original minter as far as the last ownership check knows
type MintedItem struct {
	// ID is the internal database primary key
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	// Mint is the item's mint address (base58)
	Mint string `gorm:"column:mint;not null;uniqueIndex;type:text"`
	// Owner is the minter's address (base58); cleared only by deleting the row
	Owner string `gorm:"column:owner;not null;index;type:text"`
	// Name is the item name from the mint event
	Name string `gorm:"column:name;not null;type:text"`
	// Symbol is the item symbol from the mint event
	Symbol string `gorm:"column:symbol;not null;type:text"`
	// URI points to the item's off-chain metadata
	URI string `gorm:"column:uri;not null;type:text"`
	// TransactionSignature is the signature of the minting transaction
	TransactionSignature string `gorm:"column:transaction_signature;not null;uniqueIndex;type:text"`
	// Slot is the ledger slot the transaction landed in
	Slot uint64 `gorm:"column:slot;not null"`
	// BlockTime is the ledger's block time, when reported
	BlockTime *time.Time `gorm:"column:block_time;type:timestamptz"`
	// EventTimestamp is the timestamp carried by the mint event itself
	EventTimestamp time.Time `gorm:"column:event_timestamp;not null;type:timestamptz"`
	// Heuristic is true when the event was scraped from log text instead of a tagged payload
	Heuristic bool `gorm:"column:heuristic;not null;default:false"`
	// RawEvent holds the decoded event as JSON for replay
	RawEvent datatypes.JSON `gorm:"column:raw_event;type:jsonb"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is bumped whenever reconciliation confirms ownership
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;index"`
}

// TableName specifies the table name for the MintedItem model
func (MintedItem) TableName() string {
	return "minted_items"
}
