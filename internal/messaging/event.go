package messaging

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/feral-file/ledger-indexer/internal/domain"
)

// EventType is the kind of a published event and the suffix of its subject
type EventType string

const (
	EventTypeNFTMinted       EventType = "nft.minted"
	EventTypeBuybackExecuted EventType = "buyback.executed"
)

// Event is the envelope published after a transaction is committed
type Event struct {
	// ID is a ULID; unique and time-sortable
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ProgramID string    `json:"programId"`
	Signature string    `json:"signature,omitempty"`
	Slot      uint64    `json:"slot,omitempty"`
	Heuristic bool      `json:"heuristic"`
	Timestamp time.Time `json:"timestamp"`

	Mint    *domain.MintEvent    `json:"mint,omitempty"`
	Buyback *domain.BuybackEvent `json:"buyback,omitempty"`
	Owner   string               `json:"owner,omitempty"`
}

// NewEvent builds the envelope for a decoded event
func NewEvent(now time.Time, programID string, tx *domain.Transaction, decoded domain.DecodedEvent) *Event {
	event := &Event{
		ID:        ulid.MustNewDefault(now).String(),
		ProgramID: programID,
		Heuristic: decoded.Heuristic,
		Timestamp: now.UTC(),
	}
	if tx != nil {
		event.Signature = tx.Signature
		event.Slot = tx.Slot
	}

	switch decoded.Kind {
	case domain.EventKindMint:
		event.Type = EventTypeNFTMinted
		event.Mint = decoded.Mint
		if decoded.Mint != nil {
			event.Owner = decoded.Mint.Minter
		}
	case domain.EventKindBuyback:
		event.Type = EventTypeBuybackExecuted
		event.Buyback = decoded.Buyback
	}

	return event
}
