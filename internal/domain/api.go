package domain

import "time"

// TradeDraft is the payload for publishing a new trade to a room.
type TradeDraft struct {
	Ticker     string    `json:"ticker"`
	Direction  string    `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	Target1    float64   `json:"target1,omitempty"`
	Target2    float64   `json:"target2,omitempty"`
	Target3    float64   `json:"target3,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	EntryDate  time.Time `json:"entry_date"`
}

// CloseRequest closes an open trade at an exit price.
type CloseRequest struct {
	ExitPrice float64    `json:"exit_price"`
	ExitDate  *time.Time `json:"exit_date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// TradePatch is a partial amendment of an open trade. Nil fields are left
// untouched by the backend.
type TradePatch struct {
	EntryPrice *float64 `json:"entry_price,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	Target1    *float64 `json:"target1,omitempty"`
	Target2    *float64 `json:"target2,omitempty"`
	Target3    *float64 `json:"target3,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// AlertAPI reads published alerts. Total is the server-reported collection
// size, or -1 when the response omits it.
type AlertAPI interface {
	ListAlerts(room string, limit, offset int) (alerts []Alert, total int, err error)
}

// TradeAPI is the authoritative trade ledger surface. All mutations return
// only success/failure; callers re-fetch for the adjusted record because the
// backend may derive fields (realized P&L) the client cannot compute.
type TradeAPI interface {
	ListTrades(room string, perPage int) ([]Trade, error)
	CloseTrade(id TradeID, req CloseRequest) error
	UpdateTrade(id TradeID, patch TradePatch) error
	InvalidateTrade(id TradeID, reason string) error
	DeleteTrade(id TradeID) error
	CreateTrade(room string, draft TradeDraft) (*Trade, error)
}

// StatsAPI reads headline KPIs.
type StatsAPI interface {
	FetchStats(room string) (*Stats, error)
}

// AnalyticsAPI reads period-scoped aggregate performance.
type AnalyticsAPI interface {
	FetchAnalytics(room string, period string) (*AnalyticsReport, error)
}
