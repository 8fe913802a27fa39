package domain

import "time"

// PriceSnapshot is the latest known tick for a ticker. Consumers hold only
// the latest snapshot per ticker, never history.
type PriceSnapshot struct {
	Ticker        string    `json:"ticker"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Timestamp     time.Time `json:"timestamp"`
	MarketOpen    bool      `json:"marketOpen"`
}

// PriceFeed multiplexes live quotes to any number of subscribers over
// overlapping ticker sets. Reference counting is the feed's responsibility:
// consumers just pair Subscribe/Unsubscribe around the same set.
//
// Updates are delivered as a full keyed snapshot map (uppercased ticker ->
// latest snapshot), not deltas, so a late-attaching consumer sees current
// state on its next push.
type PriceFeed interface {
	Subscribe(tickers []string)
	Unsubscribe(tickers []string)
	// OnUpdate registers a push callback and returns its cancel function.
	// Cancelling twice is safe.
	OnUpdate(fn func(map[string]PriceSnapshot)) (cancel func())
}
