package sweeper

import (
	"context"
	"errors"
	"time"
)

// ErrSweepInProgress is returned when a sweep is requested while another one runs
var ErrSweepInProgress = errors.New("reconciliation sweep already in progress")

// Sweeper is a scheduled background reconciliation task.
// Start blocks until ctx is canceled or Stop is called; a tick that fires while
// a pass is still running is skipped rather than queued.
type Sweeper interface {
	Start(ctx context.Context) error
	// Stop waits for the in-progress pass, bounded by ctx
	Stop(ctx context.Context) error
	// Name identifies the sweeper in logs and metrics
	Name() string
}

// ReconciliationResult summarizes one sweep
type ReconciliationResult struct {
	Batches        int
	Checked        int
	Verified       int
	Removed        int
	Errors         int
	AffectedOwners []string
	Duration       time.Duration
}

// addAffectedOwners appends owners not already recorded, keeping first-seen order
func (r *ReconciliationResult) addAffectedOwners(seen map[string]struct{}, owners []string) {
	for _, owner := range owners {
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		r.AffectedOwners = append(r.AffectedOwners, owner)
	}
}
