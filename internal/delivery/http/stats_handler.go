package http

import (
	"encoding/json"
	"net/http"

	"traderoom-backend/internal/usecase"
)

// StatsHandler serves headline KPIs and period analytics.
type StatsHandler struct {
	stats     *usecase.StatsSummary
	analytics *usecase.PerformanceAnalytics
}

func NewStatsHandler(stats *usecase.StatsSummary, analytics *usecase.PerformanceAnalytics) *StatsHandler {
	return &StatsHandler{stats: stats, analytics: analytics}
}

// HandleStats handles GET /api/dashboard/stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"stats":             h.stats.Stats(),
			"weeklyPerformance": h.stats.WeeklyPerformance(),
			"isLoading":         h.stats.IsLoading(),
			"error":             h.stats.LastError(),
		},
	})
}

// HandleAnalytics handles GET /api/dashboard/analytics?period={p}.
func (h *StatsHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if p := r.URL.Query().Get("period"); p != "" {
		if err := h.analytics.SetPeriod(p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	data := map[string]interface{}{
		"period":    h.analytics.Period(),
		"report":    h.analytics.Report(),
		"trend":     h.analytics.Trend(),
		"isLoading": h.analytics.IsLoading(),
		"error":     h.analytics.LastError(),
	}
	if top := h.analytics.TopTicker(); top != nil {
		data["topTicker"] = top
	}
	if worst := h.analytics.WorstTicker(); worst != nil {
		data["worstTicker"] = worst
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
	})
}
