package indexer

import (
	"context"
	"time"
)

// Status is a point-in-time snapshot of the coordinator
type Status struct {
	IsRunning           bool                `json:"isRunning"`
	ProgramID           string              `json:"programId"`
	ProcessedCount      int64               `json:"processedCount"`
	CurrentlyProcessing int64               `json:"currentlyProcessing"`
	InFlight            int                 `json:"inFlight"`
	CacheSize           int                 `json:"cacheSize"`
	MaxCacheSize        int                 `json:"maxCacheSize"`
	CacheUtilization    float64             `json:"cacheUtilization"` // percent of MaxCacheSize
	TotalErrors         int64               `json:"totalErrors"`
	TotalRetries        int64               `json:"totalRetries"`
	LastProcessedAt     *time.Time          `json:"lastProcessedAt"`
	LastCursor          string              `json:"lastCursor,omitempty"`
	Configuration       StatusConfiguration `json:"configuration"`
}

// StatusConfiguration echoes the effective settings
type StatusConfiguration struct {
	PollInterval            string `json:"pollInterval"`
	BackfillLimit           int    `json:"backfillLimit"`
	PollLimit               int    `json:"pollLimit"`
	MaxRetries              int    `json:"maxRetries"`
	RetryDelay              string `json:"retryDelay"`
	MaxConcurrentProcessing int    `json:"maxConcurrentProcessing"`
	RateLimitDelay          string `json:"rateLimitDelay"`
	CacheRetention          string `json:"cacheRetention"`
}

func (c *coordinator) GetStatus(_ context.Context) Status {
	cacheSize := c.cache.Len()

	c.mu.RLock()
	lastProcessedAt := c.lastProcessedAt
	lastCursor := c.lastCursor
	c.mu.RUnlock()

	return Status{
		IsRunning:           c.running.Load(),
		ProgramID:           c.config.ProgramID,
		ProcessedCount:      c.processedCount.Load(),
		CurrentlyProcessing: c.currentlyProcessing.Load(),
		InFlight:            c.inFlight.Size(),
		CacheSize:           cacheSize,
		MaxCacheSize:        c.config.MaxCacheSize,
		CacheUtilization:    float64(cacheSize) / float64(c.config.MaxCacheSize) * 100,
		TotalErrors:         c.totalErrors.Load(),
		TotalRetries:        c.totalRetries.Load(),
		LastProcessedAt:     lastProcessedAt,
		LastCursor:          lastCursor,
		Configuration: StatusConfiguration{
			PollInterval:            c.config.PollInterval.String(),
			BackfillLimit:           c.config.BackfillLimit,
			PollLimit:               c.config.PollLimit,
			MaxRetries:              c.config.MaxRetries,
			RetryDelay:              c.config.RetryDelay.String(),
			MaxConcurrentProcessing: c.config.MaxConcurrentProcessing,
			RateLimitDelay:          c.config.RateLimitDelay.String(),
			CacheRetention:          c.config.CacheRetention.String(),
		},
	}
}
