// Package stats wires up the cron job that periodically rebuilds the cached
// applicant counts for every open job.
//
// Counts are a derived read-model: the cache can always be thrown away and
// rebuilt from the candidate lists, so a failed refresh only costs freshness.
package stats

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"campushire/placement-service/internal/placement"
)

// Refresher wraps robfig/cron and manages the refresh loop.
type Refresher struct {
	cron *cron.Cron
	svc  *placement.Service
	spec string // cron spec, e.g. "@every 1h"
}

// New creates a Refresher that fires every intervalHours hours.
func New(svc *placement.Service, intervalHours int) *Refresher {
	return &Refresher{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		svc:  svc,
		spec: fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one refresh
// immediately so the cache is warm without waiting for the first tick.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.refreshAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	r.cron.Start()
	log.Printf("[stats] Cron started — spec: %s", r.spec)

	go r.refreshAll(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (r *Refresher) Stop() {
	r.cron.Stop()
	log.Println("[stats] Cron stopped")
}

// refreshAll recomputes and caches counts for every open job.
func (r *Refresher) refreshAll(ctx context.Context) {
	ids, err := r.svc.OpenJobIDs(ctx)
	if err != nil {
		log.Printf("[stats] OpenJobIDs error: %v", err)
		return
	}
	if len(ids) == 0 {
		log.Println("[stats] No open jobs — nothing to refresh")
		return
	}

	refreshed := 0
	for _, id := range ids {
		if _, err := r.svc.RefreshCounts(ctx, id); err != nil {
			log.Printf("[stats] RefreshCounts error for job %s: %v", id, err)
			continue
		}
		refreshed++
	}
	log.Printf("[stats] Refresh cycle complete — %d/%d job(s)", refreshed, len(ids))
}
