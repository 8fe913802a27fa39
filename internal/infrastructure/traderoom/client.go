package traderoom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"traderoom-backend/internal/domain"
)

// Client talks to the trade-room REST backend. Every response is wrapped in
// a {success, data, total?, error?} envelope; success=false or a transport
// failure surfaces as an error carrying the server's message when present.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Total   *int            `json:"total"`
	Error   string          `json:"error"`
}

func (c *Client) do(method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && env.Error != "" {
			return nil, fmt.Errorf("%s", env.Error)
		}
		return nil, fmt.Errorf("traderoom API error: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%s", env.Error)
		}
		return nil, fmt.Errorf("request failed")
	}
	return &env, nil
}

// ListAlerts fetches one page of published alerts for a room. The second
// return value is the server-reported total, or -1 when the response omits
// it (older backend versions).
func (c *Client) ListAlerts(room string, limit, offset int) ([]domain.Alert, int, error) {
	path := fmt.Sprintf("/api/alerts/%s?limit=%d&offset=%d", url.PathEscape(room), limit, offset)
	env, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}

	var alerts []domain.Alert
	if err := json.Unmarshal(env.Data, &alerts); err != nil {
		return nil, 0, fmt.Errorf("decoding alerts: %w", err)
	}
	total := -1
	if env.Total != nil {
		total = *env.Total
	}
	return alerts, total, nil
}

// ListTrades fetches the full trade set for a room, bounded by perPage.
func (c *Client) ListTrades(room string, perPage int) ([]domain.Trade, error) {
	path := fmt.Sprintf("/api/trades/%s?per_page=%d", url.PathEscape(room), perPage)
	env, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var trades []domain.Trade
	if err := json.Unmarshal(env.Data, &trades); err != nil {
		return nil, fmt.Errorf("decoding trades: %w", err)
	}
	return trades, nil
}

func (c *Client) CloseTrade(id domain.TradeID, req domain.CloseRequest) error {
	path := fmt.Sprintf("/api/admin/trades/%s/close", url.PathEscape(string(id)))
	_, err := c.do(http.MethodPost, path, req)
	return err
}

func (c *Client) UpdateTrade(id domain.TradeID, patch domain.TradePatch) error {
	path := fmt.Sprintf("/api/admin/trades/%s", url.PathEscape(string(id)))
	_, err := c.do(http.MethodPatch, path, patch)
	return err
}

func (c *Client) InvalidateTrade(id domain.TradeID, reason string) error {
	path := fmt.Sprintf("/api/admin/trades/%s/invalidate", url.PathEscape(string(id)))
	body := struct {
		Reason string `json:"reason"`
	}{Reason: reason}
	_, err := c.do(http.MethodPost, path, body)
	return err
}

func (c *Client) DeleteTrade(id domain.TradeID) error {
	path := fmt.Sprintf("/api/admin/trades/%s", url.PathEscape(string(id)))
	_, err := c.do(http.MethodDelete, path, nil)
	return err
}

// CreateTrade publishes a new trade. The backend assigns the id; the
// returned trade is nil when the response carries no data payload.
func (c *Client) CreateTrade(room string, draft domain.TradeDraft) (*domain.Trade, error) {
	path := fmt.Sprintf("/api/admin/trades/%s", url.PathEscape(room))
	env, err := c.do(http.MethodPost, path, draft)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}

	var trade domain.Trade
	if err := json.Unmarshal(env.Data, &trade); err != nil {
		return nil, fmt.Errorf("decoding created trade: %w", err)
	}
	return &trade, nil
}

func (c *Client) FetchStats(room string) (*domain.Stats, error) {
	path := fmt.Sprintf("/api/stats/%s", url.PathEscape(room))
	env, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var stats domain.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}
	return &stats, nil
}

func (c *Client) FetchAnalytics(room string, period string) (*domain.AnalyticsReport, error) {
	path := fmt.Sprintf("/api/analytics/%s?period=%s", url.PathEscape(room), url.QueryEscape(period))
	env, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var report domain.AnalyticsReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		return nil, fmt.Errorf("decoding analytics: %w", err)
	}
	return &report, nil
}
