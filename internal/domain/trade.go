package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Trade statuses. The backend is the only writer of status; this service
// requests transitions and re-fetches, it never flips status locally.
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// Trade directions.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// TradeID is the backend-assigned trade identity. The backend serializes it
// as either a JSON string or a JSON number depending on the endpoint, so it
// accepts both on decode.
type TradeID string

func (id *TradeID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TradeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = TradeID(n.String())
	return nil
}

// Trade is the backend ledger's unit of record for a room.
type Trade struct {
	ID         TradeID    `json:"id"`
	Room       string     `json:"room"`
	Ticker     string     `json:"ticker"`
	Direction  string     `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	EntryDate  time.Time  `json:"entry_date"`
	Status     string     `json:"status"`
	StopLoss   float64    `json:"stop_loss,omitempty"`
	Target1    float64    `json:"target1,omitempty"`
	Target2    float64    `json:"target2,omitempty"`
	Target3    float64    `json:"target3,omitempty"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	ExitDate   *time.Time `json:"exit_date,omitempty"`
	ResultPct  *float64   `json:"result_percent,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	WasAmended bool       `json:"was_amended,omitempty"`
	AmendedAt  *time.Time `json:"amended_at,omitempty"`
}

// IsOpen reports whether the trade still counts as an open position.
// Anything the backend does not mark "open" is treated as closed, so the
// open/closed split always partitions the full ledger.
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// TargetLevel is one price target of an active position.
type TargetLevel struct {
	Label            string  `json:"label"`
	Price            float64 `json:"price"`
	PercentFromEntry float64 `json:"percentFromEntry"`
}

// StopLevel describes the stop-loss of an active position.
type StopLevel struct {
	Price            float64 `json:"price"`
	PercentFromEntry float64 `json:"percentFromEntry"`
}

// ActivePosition is the live-priced view of an open trade. It is derived
// from (Trade, PriceSnapshot) on every read and never stored, so price pushes
// and ledger re-fetches can land in any order without drift.
type ActivePosition struct {
	Trade             Trade         `json:"trade"`
	CurrentPrice      float64       `json:"currentPrice"`
	UnrealizedPercent float64       `json:"unrealizedPercent"`
	Targets           []TargetLevel `json:"targets"`
	StopLoss          StopLevel     `json:"stopLoss"`
	ProgressToTarget1 int           `json:"progressToTarget1"`
}

// ClosedTrade is the compact list projection of a closed trade.
type ClosedTrade struct {
	ID          TradeID    `json:"id"`
	Ticker      string     `json:"ticker"`
	GainPercent float64    `json:"gainPercent"`
	IsWin       bool       `json:"isWin"`
	EntryPrice  float64    `json:"entryPrice"`
	ExitPrice   float64    `json:"exitPrice"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}
