package usecase

import (
	"fmt"
	"sort"
	"sync"

	"traderoom-backend/internal/domain"
)

// trendWindow is how many trailing daily points feed the trend classifier.
const trendWindow = 7

// PerformanceAnalytics holds period-scoped aggregate performance for a room.
//
// Fail-soft like StatsSummary: a failed fetch zeroes the report instead of
// emptying it, so KPI widgets only ever show zeros, never a gap.
type PerformanceAnalytics struct {
	api  domain.AnalyticsAPI
	room string

	mu        sync.RWMutex
	period    string
	report    domain.AnalyticsReport
	isLoading bool
	lastError string
}

func NewPerformanceAnalytics(api domain.AnalyticsAPI, room string) *PerformanceAnalytics {
	return &PerformanceAnalytics{
		api:    api,
		room:   room,
		period: domain.Period30D,
		report: zeroReport(),
	}
}

func zeroReport() domain.AnalyticsReport {
	return domain.AnalyticsReport{
		Daily:   []domain.DailyPerformance{},
		Tickers: []domain.TickerPerformance{},
	}
}

func (a *PerformanceAnalytics) Fetch() error {
	a.mu.Lock()
	a.isLoading = true
	period := a.period
	a.mu.Unlock()

	report, err := a.api.FetchAnalytics(a.room, period)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.isLoading = false
	if err != nil {
		a.report = zeroReport()
		a.lastError = err.Error()
		return err
	}
	a.lastError = ""
	a.report = *report
	if a.report.Daily == nil {
		a.report.Daily = []domain.DailyPerformance{}
	}
	if a.report.Tickers == nil {
		a.report.Tickers = []domain.TickerPerformance{}
	}
	return nil
}

// SetPeriod switches the analytics window and re-fetches. Setting the
// current period is a no-op.
func (a *PerformanceAnalytics) SetPeriod(period string) error {
	if !domain.ValidPeriod(period) {
		return fmt.Errorf("invalid analytics period %q", period)
	}
	a.mu.Lock()
	if period == a.period {
		a.mu.Unlock()
		return nil
	}
	a.period = period
	a.mu.Unlock()
	return a.Fetch()
}

func (a *PerformanceAnalytics) Period() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.period
}

func (a *PerformanceAnalytics) Report() domain.AnalyticsReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report
}

// Trend classifies the last trendWindow daily points by comparing the mean
// of the first half against the second half. Fewer than 3 points is not
// enough signal and reads as stable.
func (a *PerformanceAnalytics) Trend() string {
	a.mu.RLock()
	daily := a.report.Daily
	if len(daily) > trendWindow {
		daily = daily[len(daily)-trendWindow:]
	}
	points := make([]float64, len(daily))
	for i, d := range daily {
		points[i] = d.PnlPercent
	}
	a.mu.RUnlock()

	if len(points) < 3 {
		return domain.TrendStable
	}

	half := len(points) / 2
	diff := mean(points[half:]) - mean(points[:half])
	switch {
	case diff > 1:
		return domain.TrendImproving
	case diff < -1:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func mean(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p
	}
	return sum / float64(len(points))
}

// TopTicker returns the best performer by total P&L percent, or nil when the
// leaderboard is empty. Sorts a copy; the report keeps backend order.
func (a *PerformanceAnalytics) TopTicker() *domain.TickerPerformance {
	return a.rankTicker(func(x, y domain.TickerPerformance) bool {
		return x.TotalPnlPercent > y.TotalPnlPercent
	})
}

// WorstTicker returns the worst performer by total P&L percent, or nil when
// the leaderboard is empty.
func (a *PerformanceAnalytics) WorstTicker() *domain.TickerPerformance {
	return a.rankTicker(func(x, y domain.TickerPerformance) bool {
		return x.TotalPnlPercent < y.TotalPnlPercent
	})
}

func (a *PerformanceAnalytics) rankTicker(less func(x, y domain.TickerPerformance) bool) *domain.TickerPerformance {
	a.mu.RLock()
	ranked := make([]domain.TickerPerformance, len(a.report.Tickers))
	copy(ranked, a.report.Tickers)
	a.mu.RUnlock()

	if len(ranked) == 0 {
		return nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	head := ranked[0]
	return &head
}

func (a *PerformanceAnalytics) IsLoading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isLoading
}

func (a *PerformanceAnalytics) LastError() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastError
}
