package pricefeed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"traderoom-backend/internal/domain"
)

// StreamSource feeds the multiplexer from the upstream quote websocket.
// The watched set survives reconnects: every (re)connect replays a
// subscribe command for all currently watched tickers.
type StreamSource struct {
	url            string
	reconnectDelay time.Duration

	mu   sync.RWMutex
	conn *websocket.Conn

	watchMu sync.RWMutex
	watched map[string]bool

	mux *Multiplexer
}

func NewStreamSource(url string, reconnectDelay time.Duration) *StreamSource {
	if reconnectDelay <= 0 {
		reconnectDelay = 2 * time.Second
	}
	return &StreamSource{
		url:            url,
		reconnectDelay: reconnectDelay,
		watched:        make(map[string]bool),
	}
}

// Bind attaches the multiplexer that receives decoded ticks.
func (s *StreamSource) Bind(mux *Multiplexer) {
	s.mux = mux
}

// Run connects to the quote stream and processes messages until ctx is
// cancelled, reconnecting after transient failures.
func (s *StreamSource) Run(ctx context.Context) error {
	for {
		if err := s.connect(ctx); err != nil {
			log.Printf("quote stream disconnected: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
			log.Println("quote stream reconnecting...")
		}
	}
}

func (s *StreamSource) connect(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	defer func() {
		conn.Close()
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
	}()

	log.Println("quote stream connected")

	if tickers := s.watchedList(); len(tickers) > 0 {
		if err := s.sendCommand(conn, "subscribe", tickers); err != nil {
			log.Printf("quote stream resubscribe failed: %v", err)
		} else {
			log.Printf("quote stream resubscribed to %d tickers", len(tickers))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.handleMessage(msg)
	}
}

// Watch starts streaming a ticker. Called by the multiplexer on the first
// reference; if the stream is down the ticker is subscribed on reconnect.
func (s *StreamSource) Watch(ticker string) {
	s.watchMu.Lock()
	s.watched[ticker] = true
	s.watchMu.Unlock()

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := s.sendCommand(conn, "subscribe", []string{ticker}); err != nil {
		log.Printf("quote stream subscribe %s failed: %v", ticker, err)
	}
}

// Unwatch stops streaming a ticker.
func (s *StreamSource) Unwatch(ticker string) {
	s.watchMu.Lock()
	delete(s.watched, ticker)
	s.watchMu.Unlock()

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := s.sendCommand(conn, "unsubscribe", []string{ticker}); err != nil {
		log.Printf("quote stream unsubscribe %s failed: %v", ticker, err)
	}
}

type streamCommand struct {
	Action  string   `json:"action"`
	Tickers []string `json:"tickers"`
}

func (s *StreamSource) sendCommand(conn *websocket.Conn, action string, tickers []string) error {
	return conn.WriteJSON(streamCommand{Action: action, Tickers: tickers})
}

func (s *StreamSource) watchedList() []string {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	tickers := make([]string, 0, len(s.watched))
	for t := range s.watched {
		tickers = append(tickers, t)
	}
	return tickers
}

type streamTick struct {
	Ticker        string  `json:"ticker"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Timestamp     int64   `json:"timestamp"` // unix millis
	MarketOpen    bool    `json:"marketOpen"`
}

func (s *StreamSource) handleMessage(data []byte) {
	var tick streamTick
	if err := json.Unmarshal(data, &tick); err != nil {
		log.Printf("bad quote message: %v", err)
		return
	}
	if tick.Ticker == "" || tick.Price <= 0 {
		return
	}
	if s.mux == nil {
		return
	}

	ts := time.Now()
	if tick.Timestamp > 0 {
		ts = time.UnixMilli(tick.Timestamp)
	}

	s.mux.Publish(domain.PriceSnapshot{
		Ticker:        tick.Ticker,
		Price:         tick.Price,
		Change:        tick.Change,
		ChangePercent: tick.ChangePercent,
		Timestamp:     ts,
		MarketOpen:    tick.MarketOpen,
	})
}
