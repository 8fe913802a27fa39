package pricefeed

import (
	"strings"
	"sync"

	"traderoom-backend/internal/domain"
)

// Source is the upstream quote transport driven by the multiplexer. Watch is
// called when a ticker's reference count goes 0->1, Unwatch on 1->0.
type Source interface {
	Watch(ticker string)
	Unwatch(ticker string)
}

// Multiplexer fans live quotes out to any number of subscribers over
// overlapping ticker sets. It owns the reference counting so consumers only
// pair Subscribe/Unsubscribe around their own set, and it always delivers
// the full snapshot map, never deltas.
type Multiplexer struct {
	mu        sync.Mutex
	source    Source
	refs      map[string]int
	snapshots map[string]domain.PriceSnapshot
	listeners map[int]func(map[string]domain.PriceSnapshot)
	nextID    int
}

func NewMultiplexer(source Source) *Multiplexer {
	return &Multiplexer{
		source:    source,
		refs:      make(map[string]int),
		snapshots: make(map[string]domain.PriceSnapshot),
		listeners: make(map[int]func(map[string]domain.PriceSnapshot)),
	}
}

// Subscribe adds one reference per ticker, starting the upstream watch on
// first reference.
func (m *Multiplexer) Subscribe(tickers []string) {
	var started []string

	m.mu.Lock()
	for _, t := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(t))
		if ticker == "" {
			continue
		}
		m.refs[ticker]++
		if m.refs[ticker] == 1 {
			started = append(started, ticker)
		}
	}
	m.mu.Unlock()

	if m.source != nil {
		for _, t := range started {
			m.source.Watch(t)
		}
	}
}

// Unsubscribe drops one reference per ticker. When the last reference goes,
// the upstream watch stops and the cached snapshot is discarded so a stale
// price can never be served to a later subscriber.
func (m *Multiplexer) Unsubscribe(tickers []string) {
	var stopped []string

	m.mu.Lock()
	for _, t := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(t))
		count, ok := m.refs[ticker]
		if !ok {
			continue
		}
		if count <= 1 {
			delete(m.refs, ticker)
			delete(m.snapshots, ticker)
			stopped = append(stopped, ticker)
		} else {
			m.refs[ticker] = count - 1
		}
	}
	m.mu.Unlock()

	if m.source != nil {
		for _, t := range stopped {
			m.source.Unwatch(t)
		}
	}
}

// OnUpdate registers a push callback and returns its cancel function.
// Cancelling twice is a no-op.
func (m *Multiplexer) OnUpdate(fn func(map[string]domain.PriceSnapshot)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Publish records a fresh snapshot and pushes the full map to every
// listener. Ticks for tickers nobody references are dropped.
func (m *Multiplexer) Publish(snap domain.PriceSnapshot) {
	ticker := strings.ToUpper(strings.TrimSpace(snap.Ticker))

	m.mu.Lock()
	if _, watched := m.refs[ticker]; !watched {
		m.mu.Unlock()
		return
	}
	snap.Ticker = ticker
	m.snapshots[ticker] = snap

	view := make(map[string]domain.PriceSnapshot, len(m.snapshots))
	for k, v := range m.snapshots {
		view[k] = v
	}
	fns := make([]func(map[string]domain.PriceSnapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}

// WatchedTickers returns the tickers with at least one reference.
func (m *Multiplexer) WatchedTickers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tickers := make([]string, 0, len(m.refs))
	for t := range m.refs {
		tickers = append(tickers, t)
	}
	return tickers
}
