package rest

import (
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ledger-indexer/internal/api/rest/dto"
	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/indexer"
	"github.com/feral-file/ledger-indexer/internal/store"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetMintedItem retrieves a single minted item by its mint address
	// GET /api/v1/nfts/:mint
	GetMintedItem(c *gin.Context)

	// ListOwnerItems retrieves an owner's items newest first, with the owner's level
	// GET /api/v1/owners/:owner/nfts?limit=<limit>&offset=<offset>
	ListOwnerItems(c *gin.Context)

	// GetOwnerLevel retrieves an owner's level
	// GET /api/v1/owners/:owner/level
	GetOwnerLevel(c *gin.Context)

	// ListBuybackEvents retrieves buyback events newest first
	// GET /api/v1/buybacks?limit=<limit>&offset=<offset>
	ListBuybackEvents(c *gin.Context)

	// GetStatistics retrieves aggregate counts
	// GET /api/v1/statistics
	GetStatistics(c *gin.Context)

	// GetIndexerStatus returns the ingestion coordinator's status
	// GET /api/v1/indexer/status
	GetIndexerStatus(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store       store.Store
	coordinator indexer.Coordinator
}

// NewHandler creates a new REST API handler. coordinator may be nil when ingestion runs elsewhere.
func NewHandler(st store.Store, coordinator indexer.Coordinator) Handler {
	return &handler{
		store:       st,
		coordinator: coordinator,
	}
}

// GetMintedItem retrieves a single minted item by its mint address
func (h *handler) GetMintedItem(c *gin.Context) {
	mint := c.Param("mint")
	if err := validateAddress("mint", mint); err != nil {
		respondBadRequest(c, "Invalid mint address", err.Error())
		return
	}

	item, err := h.store.GetMintedItemByMint(c.Request.Context(), mint)
	if err != nil {
		respondStoreError(c, err, "Failed to get item", zap.String("mint", mint))
		return
	}

	if item == nil {
		respondNotFound(c, "Item not found")
		return
	}

	c.JSON(http.StatusOK, dto.MapMintedItemToDTO(item))
}

// ListOwnerItems retrieves an owner's items with pagination
func (h *handler) ListOwnerItems(c *gin.Context) {
	owner := c.Param("owner")
	if err := validateAddress("owner", owner); err != nil {
		respondBadRequest(c, "Invalid owner address", err.Error())
		return
	}

	// Parse query parameters
	queryParams, err := ParsePaginationQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	// Validate query parameters
	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	items, total, err := h.store.GetMintedItemsByOwner(ctx, owner, queryParams.Limit, queryParams.Offset)
	if err != nil {
		respondStoreError(c, err, "Failed to list items", zap.String("owner", owner))
		return
	}

	level, err := h.store.GetOwnerLevel(ctx, owner)
	if err != nil {
		respondStoreError(c, err, "Failed to get owner level", zap.String("owner", owner))
		return
	}

	c.JSON(http.StatusOK, dto.MapOwnerItemsToDTO(owner, items, level, total, queryParams.Limit, queryParams.Offset))
}

// GetOwnerLevel retrieves an owner's level
func (h *handler) GetOwnerLevel(c *gin.Context) {
	owner := c.Param("owner")
	if err := validateAddress("owner", owner); err != nil {
		respondBadRequest(c, "Invalid owner address", err.Error())
		return
	}

	level, err := h.store.GetOwnerLevel(c.Request.Context(), owner)
	if err != nil {
		respondStoreError(c, err, "Failed to get owner level", zap.String("owner", owner))
		return
	}

	if level == nil {
		respondNotFound(c, "Owner has no items")
		return
	}

	c.JSON(http.StatusOK, dto.MapOwnerLevelToDTO(level))
}

// ListBuybackEvents retrieves buyback events with pagination
func (h *handler) ListBuybackEvents(c *gin.Context) {
	queryParams, err := ParsePaginationQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	events, total, err := h.store.GetBuybackEvents(c.Request.Context(), queryParams.Limit, queryParams.Offset)
	if err != nil {
		respondStoreError(c, err, "Failed to list buyback events")
		return
	}

	c.JSON(http.StatusOK, dto.MapBuybackEventsToDTO(events, total, queryParams.Limit, queryParams.Offset))
}

// GetStatistics retrieves aggregate counts
func (h *handler) GetStatistics(c *gin.Context) {
	stats, err := h.store.GetStatistics(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "Failed to get statistics")
		return
	}

	c.JSON(http.StatusOK, dto.MapStatisticsToDTO(stats))
}

// GetIndexerStatus returns the ingestion coordinator's status
func (h *handler) GetIndexerStatus(c *gin.Context) {
	if h.coordinator == nil {
		respondServiceUnavailable(c, "Ingestion is not running in this process")
		return
	}

	c.JSON(http.StatusOK, h.coordinator.GetStatus(c.Request.Context()))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ledger-indexer-api",
	})
}

// validateAddress checks that address is a base58 public key
func validateAddress(field string, address string) error {
	if address == "" {
		return fmt.Errorf("%w: %s is empty", domain.ErrInvalidAddress, field)
	}
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidAddress, field, address, err)
	}
	return nil
}
