package http

import (
	"encoding/json"
	"net/http"
	"time"

	"traderoom-backend/internal/domain"
	"traderoom-backend/internal/usecase"
)

// TradeHandler exposes the position ledger: member-facing position views and
// operator mutations that proxy to the authoritative backend.
type TradeHandler struct {
	ledger *usecase.PositionLedger
}

func NewTradeHandler(ledger *usecase.PositionLedger) *TradeHandler {
	return &TradeHandler{ledger: ledger}
}

func (h *TradeHandler) writeState(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"activePositions": h.ledger.ActivePositions(),
			"closedTrades":    h.ledger.ClosedTrades(),
			"isLoading":       h.ledger.IsLoading(),
			"error":           h.ledger.LastError(),
		},
	})
}

func writeActionError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// HandlePositions handles GET /api/dashboard/positions.
func (h *TradeHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeState(w)
}

// HandleCreate handles POST /api/admin/trades.
func (h *TradeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var draft domain.TradeDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if draft.Ticker == "" || draft.EntryPrice <= 0 {
		http.Error(w, "ticker and entry_price are required", http.StatusBadRequest)
		return
	}
	if draft.Direction == "" {
		draft.Direction = domain.DirectionLong
	}
	if draft.EntryDate.IsZero() {
		draft.EntryDate = time.Now()
	}

	if err := h.ledger.CreateTrade(draft); err != nil {
		writeActionError(w, err)
		return
	}
	h.writeState(w)
}

// HandleClose handles POST /api/admin/trades/close?id={id}.
func (h *TradeHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var req domain.CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ExitPrice <= 0 {
		http.Error(w, "exit_price is required", http.StatusBadRequest)
		return
	}
	if req.ExitDate == nil {
		now := time.Now()
		req.ExitDate = &now
	}

	if err := h.ledger.CloseTrade(domain.TradeID(id), req); err != nil {
		writeActionError(w, err)
		return
	}
	h.writeState(w)
}

// HandleUpdate handles PATCH /api/admin/trades/update?id={id}.
func (h *TradeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var patch domain.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.ledger.UpdateTrade(domain.TradeID(id), patch); err != nil {
		writeActionError(w, err)
		return
	}
	h.writeState(w)
}

// HandleInvalidate handles POST /api/admin/trades/invalidate?id={id}.
func (h *TradeHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}

	if err := h.ledger.InvalidateTrade(domain.TradeID(id), body.Reason); err != nil {
		writeActionError(w, err)
		return
	}
	h.writeState(w)
}

// HandleDelete handles DELETE /api/admin/trades/delete?id={id}.
func (h *TradeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	if err := h.ledger.DeleteTrade(domain.TradeID(id)); err != nil {
		writeActionError(w, err)
		return
	}
	h.writeState(w)
}
