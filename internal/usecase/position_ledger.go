package usecase

import (
	"math"
	"sort"
	"strings"
	"sync"

	"traderoom-backend/internal/domain"
)

// TradesPerPage bounds the wholesale ledger fetch.
const TradesPerPage = 100

// DefaultClosedDisplayLimit caps the closed-trade list projection.
const DefaultClosedDisplayLimit = 20

// ConsistencyPolicy names the refresh strategy applied after a confirmed
// mutation.
type ConsistencyPolicy int

const (
	// Pessimistic re-fetches the full ledger after the write so locally
	// held trades always match backend-derived fields (realized P&L etc.).
	Pessimistic ConsistencyPolicy = iota
	// Optimistic applies the change locally for latency and lets the next
	// full fetch reconcile any drift.
	Optimistic
)

// mutationPolicy keeps the per-action consistency tradeoff auditable in one
// place. Delete is the single optimistic action.
var mutationPolicy = map[string]ConsistencyPolicy{
	"create":     Pessimistic,
	"close":      Pessimistic,
	"update":     Pessimistic,
	"invalidate": Pessimistic,
	"delete":     Optimistic,
}

// PositionLedger mirrors a room's authoritative trade ledger and derives
// live-priced active positions from the price feed.
//
// Failure policy is fail-stale: a failed fetch keeps the last good trade
// set. Mutation failures record an error string and also return the error so
// a caller can render an inline failure on the triggering control. Mutating
// methods are not re-entrancy guarded; callers gate on IsLoading.
type PositionLedger struct {
	api  domain.TradeAPI
	feed domain.PriceFeed
	room string

	closedLimit int

	mu         sync.RWMutex
	trades     []domain.Trade
	prices     map[string]domain.PriceSnapshot
	subscribed []string
	cancelFeed func()
	isLoading  bool
	lastError  string
}

func NewPositionLedger(api domain.TradeAPI, feed domain.PriceFeed, room string, closedLimit int) *PositionLedger {
	if closedLimit <= 0 {
		closedLimit = DefaultClosedDisplayLimit
	}
	return &PositionLedger{
		api:         api,
		feed:        feed,
		room:        room,
		closedLimit: closedLimit,
		prices:      make(map[string]domain.PriceSnapshot),
	}
}

// Attach registers the single price-push listener and subscribes any
// already-fetched open-ticker set. Idempotent; pair with Detach around the
// ledger's lifetime.
func (l *PositionLedger) Attach() {
	l.mu.Lock()
	if l.cancelFeed != nil {
		l.mu.Unlock()
		return
	}
	l.cancelFeed = l.feed.OnUpdate(l.applyPrices)
	tickers := l.subscribed
	l.mu.Unlock()

	if len(tickers) > 0 {
		l.feed.Subscribe(tickers)
	}
}

// Detach unsubscribes everything and drops the push listener. Runs its
// cleanup exactly once even when called repeatedly or concurrently with a
// ticker-set change.
func (l *PositionLedger) Detach() {
	l.mu.Lock()
	cancel := l.cancelFeed
	l.cancelFeed = nil
	tickers := l.subscribed
	l.subscribed = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if len(tickers) > 0 {
		l.feed.Unsubscribe(tickers)
	}
}

// applyPrices replaces the local price map wholesale on every push.
// Last-write-wins per ticker; nothing is merged, so a push and a ledger
// re-fetch can land in either order without corrupting derived state.
func (l *PositionLedger) applyPrices(snapshots map[string]domain.PriceSnapshot) {
	l.mu.Lock()
	l.prices = snapshots
	l.mu.Unlock()
}

// Fetch replaces the trade set wholesale and re-syncs the price-feed
// subscription to the new open-ticker set.
func (l *PositionLedger) Fetch() error {
	l.mu.Lock()
	l.isLoading = true
	l.mu.Unlock()

	trades, err := l.api.ListTrades(l.room, TradesPerPage)

	l.mu.Lock()
	l.isLoading = false
	if err != nil {
		l.lastError = err.Error()
		l.mu.Unlock()
		return err
	}
	l.lastError = ""
	l.trades = trades
	prev := l.subscribed
	next := openTickerSet(trades)
	changed := !equalTickerSets(prev, next)
	if changed {
		l.subscribed = next
	}
	attached := l.cancelFeed != nil
	l.mu.Unlock()

	if changed && attached {
		// Previous subscription is always cleaned up before the new one
		// is established; the feed's refcounting handles the overlap.
		if len(prev) > 0 {
			l.feed.Unsubscribe(prev)
		}
		if len(next) > 0 {
			l.feed.Subscribe(next)
		}
	}
	return nil
}

func (l *PositionLedger) CloseTrade(id domain.TradeID, req domain.CloseRequest) error {
	return l.mutate("close", id, func() error { return l.api.CloseTrade(id, req) })
}

func (l *PositionLedger) UpdateTrade(id domain.TradeID, patch domain.TradePatch) error {
	return l.mutate("update", id, func() error { return l.api.UpdateTrade(id, patch) })
}

func (l *PositionLedger) InvalidateTrade(id domain.TradeID, reason string) error {
	return l.mutate("invalidate", id, func() error { return l.api.InvalidateTrade(id, reason) })
}

func (l *PositionLedger) DeleteTrade(id domain.TradeID) error {
	return l.mutate("delete", id, func() error { return l.api.DeleteTrade(id) })
}

func (l *PositionLedger) CreateTrade(draft domain.TradeDraft) error {
	// The created record comes back on the follow-up fetch; the backend
	// assigns all identity.
	return l.mutate("create", "", func() error {
		_, err := l.api.CreateTrade(l.room, draft)
		return err
	})
}

func (l *PositionLedger) mutate(action string, id domain.TradeID, call func() error) error {
	l.mu.Lock()
	l.isLoading = true
	l.mu.Unlock()

	if err := call(); err != nil {
		l.mu.Lock()
		l.isLoading = false
		l.lastError = err.Error()
		l.mu.Unlock()
		return err
	}

	if mutationPolicy[action] == Optimistic {
		l.mu.Lock()
		l.isLoading = false
		l.lastError = ""
		kept := l.trades[:0:0]
		for _, t := range l.trades {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		l.trades = kept
		prev := l.subscribed
		next := openTickerSet(kept)
		changed := !equalTickerSets(prev, next)
		if changed {
			l.subscribed = next
		}
		attached := l.cancelFeed != nil
		l.mu.Unlock()

		if changed && attached {
			if len(prev) > 0 {
				l.feed.Unsubscribe(prev)
			}
			if len(next) > 0 {
				l.feed.Subscribe(next)
			}
		}
		return nil
	}

	l.mu.Lock()
	l.isLoading = false
	l.lastError = ""
	l.mu.Unlock()
	return l.Fetch()
}

// AllTrades returns a copy of the full ledger.
func (l *PositionLedger) AllTrades() []domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// OpenTrades returns the open subset of the ledger.
func (l *PositionLedger) OpenTrades() []domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Trade, 0)
	for _, t := range l.trades {
		if t.IsOpen() {
			out = append(out, t)
		}
	}
	return out
}

// ClosedTrades projects the closed subset for list display, newest close
// first, capped to the configured display limit.
func (l *PositionLedger) ClosedTrades() []domain.ClosedTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.ClosedTrade, 0)
	for _, t := range l.trades {
		if t.IsOpen() {
			continue
		}
		ct := domain.ClosedTrade{
			ID:         t.ID,
			Ticker:     t.Ticker,
			EntryPrice: t.EntryPrice,
			ClosedAt:   t.ExitDate,
		}
		if t.ExitPrice != nil {
			ct.ExitPrice = *t.ExitPrice
		}
		switch {
		case t.ResultPct != nil:
			ct.GainPercent = round2(*t.ResultPct)
		case t.EntryPrice > 0 && t.ExitPrice != nil:
			ct.GainPercent = round2((*t.ExitPrice - t.EntryPrice) / t.EntryPrice * 100)
		}
		ct.IsWin = ct.GainPercent > 0
		out = append(out, ct)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ClosedAt, out[j].ClosedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	if len(out) > l.closedLimit {
		out = out[:l.closedLimit]
	}
	return out
}

// ActivePositions derives the live view of every open trade from the ledger
// and the latest price map. Nothing here is stored; each call recomputes
// from scratch.
func (l *PositionLedger) ActivePositions() []domain.ActivePosition {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.ActivePosition, 0)
	for _, t := range l.trades {
		if !t.IsOpen() {
			continue
		}
		var snap *domain.PriceSnapshot
		if s, ok := l.prices[strings.ToUpper(t.Ticker)]; ok {
			snap = &s
		}
		out = append(out, DeriveActivePosition(t, snap))
	}
	return out
}

func (l *PositionLedger) IsLoading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isLoading
}

func (l *PositionLedger) LastError() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastError
}

// SubscribedTickers returns the ticker set currently registered with the
// price feed.
func (l *PositionLedger) SubscribedTickers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.subscribed))
	copy(out, l.subscribed)
	return out
}

// DeriveActivePosition recomputes the live view of an open trade purely from
// the trade record and the latest snapshot. A nil snapshot means no tick has
// arrived yet: the position is assumed flat at entry rather than showing a
// misleading initial P&L.
func DeriveActivePosition(t domain.Trade, snap *domain.PriceSnapshot) domain.ActivePosition {
	current := t.EntryPrice
	if snap != nil && snap.Price > 0 {
		current = snap.Price
	}

	pos := domain.ActivePosition{
		Trade:        t,
		CurrentPrice: current,
		Targets:      []domain.TargetLevel{},
	}

	if t.EntryPrice > 0 {
		pos.UnrealizedPercent = round2((current - t.EntryPrice) / t.EntryPrice * 100)
		pos.Targets = targetLevels(t)
	}
	pos.StopLoss = stopLevel(t)
	pos.ProgressToTarget1 = progressToTarget1(t, current)
	return pos
}

// targetLevels builds the ordered target list, skipping unset targets.
// Caller guarantees entry price > 0.
func targetLevels(t domain.Trade) []domain.TargetLevel {
	labels := [3]string{"Target 1", "Target 2", "Target 3"}
	prices := [3]float64{t.Target1, t.Target2, t.Target3}

	levels := make([]domain.TargetLevel, 0, 3)
	for i, price := range prices {
		if price <= 0 {
			continue
		}
		levels = append(levels, domain.TargetLevel{
			Label:            labels[i],
			Price:            price,
			PercentFromEntry: round2((price - t.EntryPrice) / t.EntryPrice * 100),
		})
	}
	return levels
}

// stopLevel describes the stop-loss, defaulting to -5% from entry when the
// trade has none set.
func stopLevel(t domain.Trade) domain.StopLevel {
	if t.EntryPrice <= 0 {
		return domain.StopLevel{Price: t.StopLoss}
	}
	if t.StopLoss <= 0 {
		return domain.StopLevel{
			Price:            round2(t.EntryPrice * 0.95),
			PercentFromEntry: -5,
		}
	}
	return domain.StopLevel{
		Price:            t.StopLoss,
		PercentFromEntry: round2((t.StopLoss - t.EntryPrice) / t.EntryPrice * 100),
	}
}

// progressToTarget1 is the clamped percent of the way from entry to the
// first target. Zero when target1 is unset or not above entry (short-side
// targets are not modeled).
func progressToTarget1(t domain.Trade, current float64) int {
	if t.EntryPrice <= 0 || t.Target1 <= t.EntryPrice {
		return 0
	}
	progress := (current - t.EntryPrice) / (t.Target1 - t.EntryPrice) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return int(math.Round(progress))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// openTickerSet returns the deduped, uppercased, sorted tickers of all open
// trades. Sorted so two sets compare by position.
func openTickerSet(trades []domain.Trade) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, t := range trades {
		if !t.IsOpen() {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(t.Ticker))
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

func equalTickerSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
