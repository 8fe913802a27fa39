package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"traderoom-backend/internal/usecase"
)

// AlertHandler serves the alert feed to dashboard clients.
type AlertHandler struct {
	feed *usecase.AlertFeed
}

func NewAlertHandler(feed *usecase.AlertFeed) *AlertHandler {
	return &AlertHandler{feed: feed}
}

// HandleAlerts handles GET /api/dashboard/alerts?page={n}&filter={f}.
// page and filter navigate the feed; omitting both returns current state.
func (h *AlertHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if f := r.URL.Query().Get("filter"); f != "" {
		if err := h.feed.SetFilter(f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if p := r.URL.Query().Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, "Invalid page parameter", http.StatusBadRequest)
			return
		}
		// Out-of-range pages are a no-op; the response carries the
		// unchanged state.
		if err := h.feed.GoToPage(page); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    h.feed.State(),
	})
}

// HandleRefresh handles POST /api/dashboard/alerts/refresh.
func (h *AlertHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.feed.Fetch(); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    h.feed.State(),
	})
}
