package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes, all read only
	v1 := router.Group("/api/v1")
	{
		// Indexer endpoints
		v1.GET("/indexer/status", handler.GetIndexerStatus)

		// Item endpoints
		v1.GET("/nfts/:mint", handler.GetMintedItem)

		// Owner endpoints
		v1.GET("/owners/:owner/nfts", handler.ListOwnerItems)
		v1.GET("/owners/:owner/level", handler.GetOwnerLevel)

		// Buyback endpoints
		v1.GET("/buybacks", handler.ListBuybackEvents)

		// Statistics endpoints
		v1.GET("/statistics", handler.GetStatistics)
	}
}
