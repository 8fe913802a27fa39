package domain

// Stats carries the headline KPIs for a room.
type Stats struct {
	WinRate        float64 `json:"win_rate"`
	WeeklyProfit   float64 `json:"weekly_profit"`
	ActiveTrades   int     `json:"active_trades"`
	ClosedThisWeek int     `json:"closed_this_week"`
}

// WeeklyPerformance is derived from Stats for the dashboard header.
// WinningTrades is an estimate (round(winRate/100 * total)) because the
// backend does not return the count directly; keep it an estimate until the
// API grows a real field.
type WeeklyPerformance struct {
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	ProfitPercent float64 `json:"profitPercent"`
}

// Analytics periods accepted by the backend.
const (
	Period7D  = "7d"
	Period30D = "30d"
	Period90D = "90d"
	PeriodYTD = "ytd"
	PeriodAll = "all"
)

// ValidPeriod reports whether p is an accepted analytics period.
func ValidPeriod(p string) bool {
	switch p {
	case Period7D, Period30D, Period90D, PeriodYTD, PeriodAll:
		return true
	}
	return false
}

// PerformanceMetrics are the aggregate numbers the backend computes for a
// period. Held verbatim; this service adds only trend/leaderboard views.
type PerformanceMetrics struct {
	TotalTrades       int     `json:"total_trades"`
	WinningTrades     int     `json:"winning_trades"`
	LosingTrades      int     `json:"losing_trades"`
	WinRate           float64 `json:"win_rate"`
	TotalPnlPercent   float64 `json:"total_pnl_percent"`
	AverageGain       float64 `json:"average_gain"`
	AverageLoss       float64 `json:"average_loss"`
	ProfitFactor      float64 `json:"profit_factor"`
	BestTradePercent  float64 `json:"best_trade_percent"`
	WorstTradePercent float64 `json:"worst_trade_percent"`
	CurrentStreak     int     `json:"current_streak"`
	StreakType        string  `json:"streak_type"`
	MaxWinStreak      int     `json:"max_win_streak"`
	MaxLossStreak     int     `json:"max_loss_streak"`
}

// DailyPerformance is one point of the daily P&L series.
type DailyPerformance struct {
	Date       string  `json:"date"`
	PnlPercent float64 `json:"pnl_percent"`
	Trades     int     `json:"trades"`
}

// TickerPerformance is one row of the per-ticker leaderboard, in
// backend-delivered order.
type TickerPerformance struct {
	Ticker          string  `json:"ticker"`
	Trades          int     `json:"trades"`
	Wins            int     `json:"wins"`
	TotalPnlPercent float64 `json:"total_pnl_percent"`
	WinRate         float64 `json:"win_rate"`
}

// AnalyticsReport is the full analytics payload for one period.
type AnalyticsReport struct {
	Metrics PerformanceMetrics  `json:"metrics"`
	Daily   []DailyPerformance  `json:"daily_performance"`
	Tickers []TickerPerformance `json:"ticker_performance"`
}

// Trend classifications for the recent daily series.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)
