package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"traderoom-backend/internal/domain"
	"traderoom-backend/internal/usecase"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Handler streams live position snapshots to connected dashboard clients.
type Handler struct {
	ledger       *usecase.PositionLedger
	pushInterval time.Duration
}

func NewHandler(ledger *usecase.PositionLedger, pushInterval time.Duration) *Handler {
	if pushInterval <= 0 {
		pushInterval = 5 * time.Second
	}
	return &Handler{
		ledger:       ledger,
		pushInterval: pushInterval,
	}
}

type positionsPayload struct {
	ActivePositions []domain.ActivePosition `json:"activePositions"`
	ClosedTrades    []domain.ClosedTrade    `json:"closedTrades"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func (h *Handler) snapshot() positionsPayload {
	return positionsPayload{
		ActivePositions: h.ledger.ActivePositions(),
		ClosedTrades:    h.ledger.ClosedTrades(),
		UpdatedAt:       time.Now(),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log.Printf("dashboard client connected: %s", connID)
	defer log.Printf("dashboard client disconnected: %s", connID)

	// Send initial data immediately
	if err := conn.WriteJSON(h.snapshot()); err != nil {
		log.Printf("write error (%s): %v", connID, err)
		return
	}

	ticker := time.NewTicker(h.pushInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(h.snapshot()); err != nil {
			log.Printf("write error (%s): %v", connID, err)
			return
		}
	}
}
