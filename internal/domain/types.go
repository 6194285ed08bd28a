package domain

import (
	"time"
)

// EventKind identifies which structured program event a log payload encodes
type EventKind string

const (
	EventKindMint    EventKind = "mint"
	EventKindBuyback EventKind = "buyback"
)

// EventTag is the fixed-length discriminator at the head of a program data payload
type EventTag [EVENT_TAG_LENGTH]byte

var (
	// MintEventTag is the discriminator of the program's MintEvent
	MintEventTag = EventTag{62, 73, 213, 84, 217, 70, 37, 55}
	// BuybackEventTag is the discriminator of the program's BuybackEvent
	BuybackEventTag = EventTag{73, 203, 66, 140, 17, 155, 53, 84}
)

// MintEvent is emitted by the program when a new item is minted
type MintEvent struct {
	Minter    string    `json:"minter"`
	Mint      string    `json:"mint"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	URI       string    `json:"uri"`
	Timestamp time.Time `json:"timestamp"`
}

// BuybackEvent is emitted by the program when collected fees are swapped for tokens
type BuybackEvent struct {
	AmountLamports uint64    `json:"amountLamports"`
	TokenAmount    uint64    `json:"tokenAmount"`
	Timestamp      time.Time `json:"timestamp"`
}

// DecodedEvent is the result of decoding a transaction's logs.
// Exactly one of Mint or Buyback is set, matching Kind.
type DecodedEvent struct {
	Kind    EventKind     `json:"kind"`
	Mint    *MintEvent    `json:"mint,omitempty"`
	Buyback *BuybackEvent `json:"buyback,omitempty"`

	// Heuristic is true when the event was scraped from free-form log text
	// instead of a tag-verified payload. Fields may be partial or synthesized.
	Heuristic bool `json:"heuristic"`
}

// SignatureInfo is one entry of a program's recent signature listing
type SignatureInfo struct {
	Signature string
	Slot      uint64
	BlockTime *time.Time
	// Failed is true when the transaction failed on the ledger
	Failed bool
}

// Transaction is the subset of a confirmed ledger transaction the pipeline consumes
type Transaction struct {
	Signature   string
	Slot        uint64
	BlockTime   *time.Time
	LogMessages []string
	AccountKeys []string
	// Failed is true when the transaction failed on the ledger; its effects were rolled back
	Failed bool
}
