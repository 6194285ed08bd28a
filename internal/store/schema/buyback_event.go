package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BuybackEvent represents the buyback_events table - append-only log of fee buybacks
type BuybackEvent struct {
	ID                   uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()"`
	TransactionSignature string         `gorm:"column:transaction_signature;not null;uniqueIndex;type:text"`
	AmountLamports       uint64         `gorm:"column:amount_lamports;not null;type:bigint"`
	TokenAmount          uint64         `gorm:"column:token_amount;not null;type:bigint"`
	EventTimestamp       time.Time      `gorm:"column:event_timestamp;not null;type:timestamptz;index"`
	Slot                 uint64         `gorm:"column:slot;not null"`
	BlockTime            *time.Time     `gorm:"column:block_time;type:timestamptz"`
	Heuristic            bool           `gorm:"column:heuristic;not null;default:false"`
	RawEvent             datatypes.JSON `gorm:"column:raw_event;type:jsonb"`
	CreatedAt            time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the BuybackEvent model
func (BuybackEvent) TableName() string {
	return "buyback_events"
}
