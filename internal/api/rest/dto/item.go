package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/store"
	"github.com/feral-file/ledger-indexer/internal/store/schema"
)

// MintedItemResponse represents a minted item
type MintedItemResponse struct {
	Mint                 string          `json:"mint"`
	Owner                string          `json:"owner"`
	Name                 string          `json:"name"`
	Symbol               string          `json:"symbol"`
	URI                  string          `json:"uri"`
	TransactionSignature string          `json:"transaction_signature"`
	Slot                 uint64          `json:"slot"`
	BlockTime            *time.Time      `json:"block_time"`
	EventTimestamp       time.Time       `json:"event_timestamp"`
	Heuristic            bool            `json:"heuristic"`
	RawEvent             json.RawMessage `json:"raw_event,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	LastVerifiedAt       time.Time       `json:"last_verified_at"`
}

// OwnerLevelResponse represents an owner's level
type OwnerLevelResponse struct {
	Owner          string    `json:"owner"`
	TotalMints     int       `json:"total_mints"`
	Level          int       `json:"level"`
	Experience     int       `json:"experience"`
	NextLevelMints int       `json:"next_level_mints"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OwnerItemsResponse represents a page of an owner's items with their level
type OwnerItemsResponse struct {
	Owner  string               `json:"owner"`
	Level  *OwnerLevelResponse  `json:"level"`
	Items  []MintedItemResponse `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// BuybackEventResponse represents a buyback event
type BuybackEventResponse struct {
	TransactionSignature string     `json:"transaction_signature"`
	AmountLamports       uint64     `json:"amount_lamports"`
	AmountSOL            float64    `json:"amount_sol"`
	TokenAmount          uint64     `json:"token_amount"`
	EventTimestamp       time.Time  `json:"event_timestamp"`
	Slot                 uint64     `json:"slot"`
	BlockTime            *time.Time `json:"block_time"`
	Heuristic            bool       `json:"heuristic"`
}

// PaginatedBuybackEvents represents a page of buyback events
type PaginatedBuybackEvents struct {
	Events []BuybackEventResponse `json:"events"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// StatisticsResponse represents aggregate counts
type StatisticsResponse struct {
	TotalItems          int64   `json:"total_items"`
	UniqueOwners        int64   `json:"unique_owners"`
	TotalMints          int64   `json:"total_mints"`
	TotalBuybacks       int64   `json:"total_buybacks"`
	TotalLamportsBought int64   `json:"total_lamports_bought"`
	TotalSOLBought      float64 `json:"total_sol_bought"`
	TotalTokensBought   int64   `json:"total_tokens_bought"`
}

func lamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / domain.LAMPORTS_PER_SOL
}

// MapMintedItemToDTO maps a schema minted item to its response
func MapMintedItemToDTO(item *schema.MintedItem) *MintedItemResponse {
	if item == nil {
		return nil
	}

	return &MintedItemResponse{
		Mint:                 item.Mint,
		Owner:                item.Owner,
		Name:                 item.Name,
		Symbol:               item.Symbol,
		URI:                  item.URI,
		TransactionSignature: item.TransactionSignature,
		Slot:                 item.Slot,
		BlockTime:            item.BlockTime,
		EventTimestamp:       item.EventTimestamp,
		Heuristic:            item.Heuristic,
		RawEvent:             json.RawMessage(item.RawEvent),
		CreatedAt:            item.CreatedAt,
		LastVerifiedAt:       item.UpdatedAt,
	}
}

// MapOwnerLevelToDTO maps a schema owner level to its response
func MapOwnerLevelToDTO(level *schema.OwnerLevel) *OwnerLevelResponse {
	if level == nil {
		return nil
	}

	return &OwnerLevelResponse{
		Owner:          level.Owner,
		TotalMints:     level.TotalMints,
		Level:          level.Level,
		Experience:     level.Experience,
		NextLevelMints: level.NextLevelMints,
		UpdatedAt:      level.UpdatedAt,
	}
}

// MapOwnerItemsToDTO maps an owner's items and level to a paginated response
func MapOwnerItemsToDTO(owner string, items []schema.MintedItem, level *schema.OwnerLevel, total int64, limit, offset int) *OwnerItemsResponse {
	response := &OwnerItemsResponse{
		Owner:  owner,
		Level:  MapOwnerLevelToDTO(level),
		Items:  make([]MintedItemResponse, 0, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range items {
		response.Items = append(response.Items, *MapMintedItemToDTO(&items[i]))
	}
	return response
}

// MapBuybackEventsToDTO maps buyback events to a paginated response
func MapBuybackEventsToDTO(events []schema.BuybackEvent, total int64, limit, offset int) *PaginatedBuybackEvents {
	response := &PaginatedBuybackEvents{
		Events: make([]BuybackEventResponse, 0, len(events)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, event := range events {
		response.Events = append(response.Events, BuybackEventResponse{
			TransactionSignature: event.TransactionSignature,
			AmountLamports:       event.AmountLamports,
			AmountSOL:            lamportsToSOL(event.AmountLamports),
			TokenAmount:          event.TokenAmount,
			EventTimestamp:       event.EventTimestamp,
			Slot:                 event.Slot,
			BlockTime:            event.BlockTime,
			Heuristic:            event.Heuristic,
		})
	}
	return response
}

// MapStatisticsToDTO maps aggregate counts to their response
func MapStatisticsToDTO(stats *store.Statistics) *StatisticsResponse {
	return &StatisticsResponse{
		TotalItems:          stats.TotalItems,
		UniqueOwners:        stats.UniqueOwners,
		TotalMints:          stats.TotalMints,
		TotalBuybacks:       stats.TotalBuybacks,
		TotalLamportsBought: stats.TotalLamportsBought,
		TotalSOLBought:      lamportsToSOL(uint64(max(stats.TotalLamportsBought, 0))),
		TotalTokensBought:   stats.TotalTokensBought,
	}
}
