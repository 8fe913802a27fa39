package usecase

import (
	"context"
	"log"
	"time"
)

// Refresher keeps the state containers synchronized with the room backend on
// a fixed poll interval. Alert paging is deliberately not refreshed here --
// the AlertFeed's own opt-in auto-refresh covers that -- but the notifier
// poll watches page 1 for new publications.
type Refresher struct {
	ledger    *PositionLedger
	stats     *StatsSummary
	analytics *PerformanceAnalytics
	notifier  *AlertNotifier
	interval  time.Duration
}

func NewRefresher(
	ledger *PositionLedger,
	stats *StatsSummary,
	analytics *PerformanceAnalytics,
	notifier *AlertNotifier,
	interval time.Duration,
) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{
		ledger:    ledger,
		stats:     stats,
		analytics: analytics,
		notifier:  notifier,
		interval:  interval,
	}
}

// Run polls until ctx is cancelled. The first cycle runs immediately.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

func (r *Refresher) refresh() {
	start := time.Now()

	if err := r.ledger.Fetch(); err != nil {
		log.Printf("refreshing trades: %v", err)
	}
	if err := r.stats.Fetch(); err != nil {
		log.Printf("refreshing stats: %v", err)
	}
	if err := r.analytics.Fetch(); err != nil {
		log.Printf("refreshing analytics: %v", err)
	}
	if r.notifier != nil {
		r.notifier.Poll()
	}

	log.Printf("refresh cycle completed in %v", time.Since(start))
}
