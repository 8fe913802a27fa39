package usecase

import (
	"errors"
	"testing"

	"traderoom-backend/internal/domain"
)

type fakeAnalyticsAPI struct {
	report     domain.AnalyticsReport
	calls      int
	lastPeriod string
	failWith   error
}

func (f *fakeAnalyticsAPI) FetchAnalytics(room, period string) (*domain.AnalyticsReport, error) {
	f.calls++
	f.lastPeriod = period
	if f.failWith != nil {
		return nil, f.failWith
	}
	r := f.report
	return &r, nil
}

func daily(points ...float64) []domain.DailyPerformance {
	out := make([]domain.DailyPerformance, len(points))
	for i, p := range points {
		out[i] = domain.DailyPerformance{Date: "2026-08-01", PnlPercent: p, Trades: 1}
	}
	return out
}

func TestTrendClassification(t *testing.T) {
	tests := []struct {
		name   string
		points []float64
		want   string
	}{
		{"improving", []float64{1, 1, 1, 5, 5, 5}, domain.TrendImproving},
		{"declining", []float64{5, 5, 5, 1, 1, 1}, domain.TrendDeclining},
		{"flat", []float64{2, 2, 2, 2}, domain.TrendStable},
		{"small shift stays stable", []float64{1, 1, 1.5, 1.5}, domain.TrendStable},
		{"two points is not enough", []float64{0, 10}, domain.TrendStable},
		{"empty", nil, domain.TrendStable},
		// Ten points; only the trailing seven count, and those improve.
		{"window truncates", []float64{9, 9, 9, 0, 0, 0, 5, 5, 5, 5}, domain.TrendImproving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAnalyticsAPI{report: domain.AnalyticsReport{Daily: daily(tt.points...)}}
			analytics := NewPerformanceAnalytics(api, "day-trading")
			if err := analytics.Fetch(); err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if got := analytics.Trend(); got != tt.want {
				t.Errorf("Trend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopAndWorstTicker(t *testing.T) {
	api := &fakeAnalyticsAPI{report: domain.AnalyticsReport{
		Tickers: []domain.TickerPerformance{
			{Ticker: "AAA", TotalPnlPercent: 5},
			{Ticker: "BBB", TotalPnlPercent: -2},
			{Ticker: "CCC", TotalPnlPercent: 9},
		},
	}}
	analytics := NewPerformanceAnalytics(api, "day-trading")
	if err := analytics.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	top := analytics.TopTicker()
	if top == nil || top.Ticker != "CCC" {
		t.Errorf("TopTicker = %+v, want CCC", top)
	}
	worst := analytics.WorstTicker()
	if worst == nil || worst.Ticker != "BBB" {
		t.Errorf("WorstTicker = %+v, want BBB", worst)
	}

	// Ranking sorts a copy; the report keeps backend order.
	tickers := analytics.Report().Tickers
	if tickers[0].Ticker != "AAA" || tickers[1].Ticker != "BBB" || tickers[2].Ticker != "CCC" {
		t.Errorf("report order changed: %+v", tickers)
	}
}

func TestTickerRankingEmpty(t *testing.T) {
	api := &fakeAnalyticsAPI{report: domain.AnalyticsReport{}}
	analytics := NewPerformanceAnalytics(api, "day-trading")
	if err := analytics.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if analytics.TopTicker() != nil || analytics.WorstTicker() != nil {
		t.Error("empty leaderboard should rank to nil")
	}
}

func TestAnalyticsFetchFailureZeroesReport(t *testing.T) {
	api := &fakeAnalyticsAPI{report: domain.AnalyticsReport{
		Metrics: domain.PerformanceMetrics{TotalTrades: 12, WinRate: 58},
		Daily:   daily(1, 2, 3),
		Tickers: []domain.TickerPerformance{{Ticker: "AAA", TotalPnlPercent: 5}},
	}}
	analytics := NewPerformanceAnalytics(api, "day-trading")
	if err := analytics.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	api.failWith = errors.New("room not found")
	if err := analytics.Fetch(); err == nil {
		t.Fatal("expected fetch error")
	}

	report := analytics.Report()
	if report.Metrics.TotalTrades != 0 {
		t.Errorf("Metrics.TotalTrades = %d, want zeroed", report.Metrics.TotalTrades)
	}
	if report.Daily == nil || len(report.Daily) != 0 {
		t.Errorf("Daily = %v, want empty non-nil slice", report.Daily)
	}
	if report.Tickers == nil || len(report.Tickers) != 0 {
		t.Errorf("Tickers = %v, want empty non-nil slice", report.Tickers)
	}
	if analytics.LastError() != "room not found" {
		t.Errorf("LastError = %q, want %q", analytics.LastError(), "room not found")
	}
	if analytics.IsLoading() {
		t.Error("IsLoading should clear after a failed fetch")
	}
}

func TestSetPeriod(t *testing.T) {
	api := &fakeAnalyticsAPI{}
	analytics := NewPerformanceAnalytics(api, "day-trading")

	if analytics.Period() != domain.Period30D {
		t.Fatalf("default period = %q, want %q", analytics.Period(), domain.Period30D)
	}

	// The default period is already active; re-selecting it must not fetch.
	if err := analytics.SetPeriod(domain.Period30D); err != nil {
		t.Fatalf("SetPeriod same: %v", err)
	}
	if api.calls != 0 {
		t.Errorf("calls = %d, want 0 after same-period SetPeriod", api.calls)
	}

	if err := analytics.SetPeriod(domain.Period7D); err != nil {
		t.Fatalf("SetPeriod: %v", err)
	}
	if api.calls != 1 || api.lastPeriod != domain.Period7D {
		t.Errorf("calls=%d lastPeriod=%q, want 1/%q", api.calls, api.lastPeriod, domain.Period7D)
	}

	if err := analytics.SetPeriod("14d"); err == nil {
		t.Error("invalid period accepted")
	}
	if analytics.Period() != domain.Period7D {
		t.Errorf("Period = %q after invalid SetPeriod, want unchanged %q", analytics.Period(), domain.Period7D)
	}
}
