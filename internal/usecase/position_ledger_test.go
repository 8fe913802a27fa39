package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"traderoom-backend/internal/domain"
)

type fakeTradeAPI struct {
	mu     sync.Mutex
	trades []domain.Trade

	listCalls       int
	closeCalls      int
	updateCalls     int
	invalidateCalls int
	deleteCalls     int
	createCalls     int

	failWith error
}

func (f *fakeTradeAPI) ListTrades(room string, perPage int) ([]domain.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]domain.Trade, len(f.trades))
	copy(out, f.trades)
	return out, nil
}

func (f *fakeTradeAPI) CloseTrade(id domain.TradeID, req domain.CloseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.trades {
		if f.trades[i].ID == id {
			exit := req.ExitPrice
			now := time.Now()
			f.trades[i].Status = domain.TradeStatusClosed
			f.trades[i].ExitPrice = &exit
			f.trades[i].ExitDate = &now
		}
	}
	return nil
}

func (f *fakeTradeAPI) UpdateTrade(id domain.TradeID, patch domain.TradePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.trades {
		if f.trades[i].ID == id && patch.StopLoss != nil {
			f.trades[i].StopLoss = *patch.StopLoss
			f.trades[i].WasAmended = true
		}
	}
	return nil
}

func (f *fakeTradeAPI) InvalidateTrade(id domain.TradeID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateCalls++
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.trades {
		if f.trades[i].ID == id {
			f.trades[i].Status = domain.TradeStatusClosed
		}
	}
	return nil
}

func (f *fakeTradeAPI) DeleteTrade(id domain.TradeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failWith != nil {
		return f.failWith
	}
	kept := f.trades[:0:0]
	for _, t := range f.trades {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	f.trades = kept
	return nil
}

func (f *fakeTradeAPI) CreateTrade(room string, draft domain.TradeDraft) (*domain.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	t := domain.Trade{
		ID:         domain.TradeID("created"),
		Room:       room,
		Ticker:     draft.Ticker,
		Direction:  draft.Direction,
		EntryPrice: draft.EntryPrice,
		Status:     domain.TradeStatusOpen,
	}
	f.trades = append(f.trades, t)
	return &t, nil
}

// fakeFeed records subscribe/unsubscribe calls and lets tests push snapshot
// maps directly at registered listeners.
type fakeFeed struct {
	mu           sync.Mutex
	subscribes   [][]string
	unsubscribes [][]string
	listeners    []func(map[string]domain.PriceSnapshot)
}

func (f *fakeFeed) Subscribe(tickers []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make([]string, len(tickers))
	copy(set, tickers)
	f.subscribes = append(f.subscribes, set)
}

func (f *fakeFeed) Unsubscribe(tickers []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make([]string, len(tickers))
	copy(set, tickers)
	f.unsubscribes = append(f.unsubscribes, set)
}

func (f *fakeFeed) OnUpdate(fn func(map[string]domain.PriceSnapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeFeed) push(snapshots map[string]domain.PriceSnapshot) {
	f.mu.Lock()
	fns := make([]func(map[string]domain.PriceSnapshot), len(f.listeners))
	copy(fns, f.listeners)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(snapshots)
	}
}

func (f *fakeFeed) counts() (subs, unsubs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribes), len(f.unsubscribes)
}

func openTrade(id, ticker string, entry, stop, t1 float64) domain.Trade {
	return domain.Trade{
		ID:         domain.TradeID(id),
		Room:       "day-trading",
		Ticker:     ticker,
		Direction:  domain.DirectionLong,
		EntryPrice: entry,
		EntryDate:  time.Now(),
		Status:     domain.TradeStatusOpen,
		StopLoss:   stop,
		Target1:    t1,
	}
}

func closedTrade(id, ticker string, entry, exit float64, closedAt time.Time) domain.Trade {
	return domain.Trade{
		ID:         domain.TradeID(id),
		Room:       "day-trading",
		Ticker:     ticker,
		EntryPrice: entry,
		Status:     domain.TradeStatusClosed,
		ExitPrice:  &exit,
		ExitDate:   &closedAt,
	}
}

func TestPositionLedgerSplitsOpenAndClosed(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{
		openTrade("1", "XYZ", 100, 95, 110),
		openTrade("2", "ABC", 50, 0, 60),
		closedTrade("3", "DEF", 20, 25, time.Now()),
	}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 20)

	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	open := ledger.OpenTrades()
	closed := ledger.ClosedTrades()
	all := ledger.AllTrades()
	if len(open) != 2 || len(closed) != 1 {
		t.Fatalf("open=%d closed=%d, want 2/1", len(open), len(closed))
	}
	if len(open)+len(closed) != len(all) {
		t.Fatalf("open+closed=%d, want %d", len(open)+len(closed), len(all))
	}
	seen := make(map[domain.TradeID]bool)
	for _, tr := range open {
		seen[tr.ID] = true
	}
	for _, ct := range closed {
		if seen[ct.ID] {
			t.Fatalf("trade %s in both open and closed sets", ct.ID)
		}
	}
}

func TestActivePositionDerivation(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{openTrade("1", "XYZ", 100, 95, 110)}}
	feed := &fakeFeed{}
	ledger := NewPositionLedger(api, feed, "day-trading", 20)
	ledger.Attach()
	defer ledger.Detach()

	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	feed.push(map[string]domain.PriceSnapshot{
		"XYZ": {Ticker: "XYZ", Price: 105, Timestamp: time.Now()},
	})

	positions := ledger.ActivePositions()
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	pos := positions[0]
	if pos.CurrentPrice != 105 {
		t.Errorf("CurrentPrice = %v, want 105", pos.CurrentPrice)
	}
	if pos.UnrealizedPercent != 5.0 {
		t.Errorf("UnrealizedPercent = %v, want 5.0", pos.UnrealizedPercent)
	}
	if pos.ProgressToTarget1 != 50 {
		t.Errorf("ProgressToTarget1 = %v, want 50", pos.ProgressToTarget1)
	}
	if pos.StopLoss.Price != 95 || pos.StopLoss.PercentFromEntry != -5.0 {
		t.Errorf("StopLoss = %+v, want price 95 at -5.0%%", pos.StopLoss)
	}
	if len(pos.Targets) != 1 || pos.Targets[0].Label != "Target 1" || pos.Targets[0].Price != 110 {
		t.Errorf("Targets = %+v, want single Target 1 at 110", pos.Targets)
	}
}

func TestActivePositionWithoutQuoteSitsAtEntry(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{openTrade("1", "XYZ", 100, 95, 110)}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 20)
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	pos := ledger.ActivePositions()[0]
	if pos.CurrentPrice != 100 {
		t.Errorf("CurrentPrice = %v, want entry 100", pos.CurrentPrice)
	}
	if pos.UnrealizedPercent != 0 {
		t.Errorf("UnrealizedPercent = %v, want 0", pos.UnrealizedPercent)
	}
	if pos.ProgressToTarget1 != 0 {
		t.Errorf("ProgressToTarget1 = %v, want 0", pos.ProgressToTarget1)
	}
}

func TestDeriveActivePositionDegenerateEntry(t *testing.T) {
	trade := openTrade("1", "XYZ", 0, 0, 110)
	snap := &domain.PriceSnapshot{Ticker: "XYZ", Price: 50}

	pos := DeriveActivePosition(trade, snap)
	if pos.UnrealizedPercent != 0 {
		t.Errorf("UnrealizedPercent = %v, want 0", pos.UnrealizedPercent)
	}
	if len(pos.Targets) != 0 {
		t.Errorf("Targets = %+v, want empty", pos.Targets)
	}
	if pos.ProgressToTarget1 != 0 {
		t.Errorf("ProgressToTarget1 = %v, want 0", pos.ProgressToTarget1)
	}
}

func TestDeriveActivePositionDefaultStop(t *testing.T) {
	trade := openTrade("1", "XYZ", 200, 0, 220)
	pos := DeriveActivePosition(trade, nil)
	if pos.StopLoss.Price != 190 {
		t.Errorf("default stop price = %v, want 190", pos.StopLoss.Price)
	}
	if pos.StopLoss.PercentFromEntry != -5 {
		t.Errorf("default stop percent = %v, want -5", pos.StopLoss.PercentFromEntry)
	}
}

func TestProgressToTarget1Clamped(t *testing.T) {
	trade := openTrade("1", "XYZ", 100, 95, 110)

	tests := []struct {
		name  string
		price float64
		want  int
	}{
		{"below entry", 90, 0},
		{"at entry", 100, 0},
		{"halfway", 105, 50},
		{"at target", 110, 100},
		{"past target", 130, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &domain.PriceSnapshot{Ticker: "XYZ", Price: tt.price}
			pos := DeriveActivePosition(trade, snap)
			if pos.ProgressToTarget1 != tt.want {
				t.Errorf("price %v: progress = %d, want %d", tt.price, pos.ProgressToTarget1, tt.want)
			}
		})
	}
}

func TestTargetLevelsSkipUnset(t *testing.T) {
	trade := openTrade("1", "XYZ", 100, 95, 110)
	trade.Target3 = 130 // target2 left unset

	pos := DeriveActivePosition(trade, nil)
	if len(pos.Targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(pos.Targets))
	}
	if pos.Targets[0].Label != "Target 1" || pos.Targets[1].Label != "Target 3" {
		t.Errorf("labels = %q/%q, want Target 1/Target 3", pos.Targets[0].Label, pos.Targets[1].Label)
	}
	if pos.Targets[1].PercentFromEntry != 30 {
		t.Errorf("Target 3 percent = %v, want 30", pos.Targets[1].PercentFromEntry)
	}
}

func TestCloseTradeRefetchesLedger(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{
		openTrade("1", "XYZ", 100, 95, 110),
		openTrade("2", "ABC", 50, 0, 60),
	}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 20)
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := ledger.CloseTrade("1", domain.CloseRequest{ExitPrice: 108}); err != nil {
		t.Fatalf("CloseTrade: %v", err)
	}

	if api.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", api.closeCalls)
	}
	if api.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2 (initial fetch + pessimistic re-fetch)", api.listCalls)
	}
	for _, pos := range ledger.ActivePositions() {
		if pos.Trade.ID == "1" {
			t.Error("closed trade still listed as active position")
		}
	}
	closed := ledger.ClosedTrades()
	if len(closed) != 1 || closed[0].ID != "1" {
		t.Fatalf("closed projection = %+v, want single trade 1", closed)
	}
	if closed[0].GainPercent != 8 || !closed[0].IsWin {
		t.Errorf("gain = %v win = %v, want 8 true", closed[0].GainPercent, closed[0].IsWin)
	}
}

func TestDeleteTradeIsOptimistic(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{
		openTrade("1", "XYZ", 100, 95, 110),
		openTrade("2", "ABC", 50, 0, 60),
	}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 20)
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := ledger.DeleteTrade("2"); err != nil {
		t.Fatalf("DeleteTrade: %v", err)
	}

	if api.deleteCalls != 1 {
		t.Errorf("deleteCalls = %d, want 1", api.deleteCalls)
	}
	if api.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1 (no re-fetch after optimistic delete)", api.listCalls)
	}
	for _, tr := range ledger.AllTrades() {
		if tr.ID == "2" {
			t.Error("deleted trade still in ledger")
		}
	}
}

func TestMutationFailureRecordsError(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{openTrade("1", "XYZ", 100, 95, 110)}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 20)
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	api.failWith = errors.New("backend unavailable")
	err := ledger.CloseTrade("1", domain.CloseRequest{ExitPrice: 108})
	if err == nil {
		t.Fatal("expected close error")
	}
	if ledger.LastError() != "backend unavailable" {
		t.Errorf("LastError = %q, want %q", ledger.LastError(), "backend unavailable")
	}
	if ledger.IsLoading() {
		t.Error("IsLoading should be false after failed mutation")
	}
	if len(ledger.AllTrades()) != 1 {
		t.Error("trade set changed by failed mutation")
	}
}

func TestFetchFailureKeepsStaleTrades(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{openTrade("1", "XYZ", 100, 95, 110)}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 20)
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	api.failWith = errors.New("timeout")
	if err := ledger.Fetch(); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(ledger.AllTrades()) != 1 {
		t.Error("failed fetch discarded previously fetched trades")
	}
	if ledger.LastError() != "timeout" {
		t.Errorf("LastError = %q, want %q", ledger.LastError(), "timeout")
	}
}

func TestFetchResyncsSubscription(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{
		openTrade("1", "xyz", 100, 95, 110),
		openTrade("2", "abc", 50, 0, 60),
	}}
	feed := &fakeFeed{}
	ledger := NewPositionLedger(api, feed, "day-trading", 20)
	ledger.Attach()
	defer ledger.Detach()

	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	subs, unsubs := feed.counts()
	if subs != 1 || unsubs != 0 {
		t.Fatalf("after first fetch: subs=%d unsubs=%d, want 1/0", subs, unsubs)
	}
	got := feed.subscribes[0]
	if len(got) != 2 || got[0] != "ABC" || got[1] != "XYZ" {
		t.Fatalf("subscribed set = %v, want [ABC XYZ]", got)
	}

	// ABC closes; the next fetch swaps the subscription to XYZ only.
	api.mu.Lock()
	exit := 55.0
	now := time.Now()
	api.trades[1].Status = domain.TradeStatusClosed
	api.trades[1].ExitPrice = &exit
	api.trades[1].ExitDate = &now
	api.mu.Unlock()

	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	subs, unsubs = feed.counts()
	if subs != 2 || unsubs != 1 {
		t.Fatalf("after second fetch: subs=%d unsubs=%d, want 2/1", subs, unsubs)
	}
	if set := feed.unsubscribes[0]; len(set) != 2 {
		t.Errorf("unsubscribed set = %v, want the previous [ABC XYZ]", set)
	}
	if set := feed.subscribes[1]; len(set) != 1 || set[0] != "XYZ" {
		t.Errorf("resubscribed set = %v, want [XYZ]", set)
	}

	// Identical set on a third fetch must not churn the feed.
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	subs, unsubs = feed.counts()
	if subs != 2 || unsubs != 1 {
		t.Errorf("after no-change fetch: subs=%d unsubs=%d, want 2/1", subs, unsubs)
	}
}

func TestDetachUnsubscribesExactlyOnce(t *testing.T) {
	api := &fakeTradeAPI{trades: []domain.Trade{openTrade("1", "XYZ", 100, 95, 110)}}
	feed := &fakeFeed{}
	ledger := NewPositionLedger(api, feed, "day-trading", 20)
	ledger.Attach()
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	ledger.Detach()
	ledger.Detach()

	_, unsubs := feed.counts()
	if unsubs != 1 {
		t.Errorf("unsubscribe calls = %d, want exactly 1", unsubs)
	}
	if got := ledger.SubscribedTickers(); len(got) != 0 {
		t.Errorf("SubscribedTickers after detach = %v, want empty", got)
	}
}

func TestClosedTradesSortedAndCapped(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeTradeAPI{trades: []domain.Trade{
		closedTrade("1", "AAA", 10, 11, base),
		closedTrade("2", "BBB", 10, 9, base.Add(48*time.Hour)),
		closedTrade("3", "CCC", 10, 12, base.Add(24*time.Hour)),
	}}
	ledger := NewPositionLedger(api, &fakeFeed{}, "day-trading", 2)
	if err := ledger.Fetch(); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	closed := ledger.ClosedTrades()
	if len(closed) != 2 {
		t.Fatalf("got %d closed trades, want cap of 2", len(closed))
	}
	if closed[0].ID != "2" || closed[1].ID != "3" {
		t.Errorf("order = %s,%s, want newest-close first 2,3", closed[0].ID, closed[1].ID)
	}
	if closed[0].IsWin {
		t.Error("losing trade marked as win")
	}
}
