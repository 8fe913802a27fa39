package http

import (
	"encoding/json"
	"net/http"

	"traderoom-backend/internal/domain"
	"traderoom-backend/internal/infrastructure/fcm"
)

type TestHandler struct {
	fcmClient *fcm.Client
	tokenRepo domain.TokenRepository
}

func NewTestHandler(fcmClient *fcm.Client, tokenRepo domain.TokenRepository) *TestHandler {
	return &TestHandler{
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
	}
}

func (h *TestHandler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.fcmClient == nil || !h.fcmClient.IsEnabled() {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "FCM not configured",
		})
		return
	}

	tokens, err := h.tokenRepo.GetAllTokens()
	if err != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Failed to load tokens: " + err.Error(),
		})
		return
	}
	if len(tokens) == 0 {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "No registered devices",
			"count":   0,
		})
		return
	}

	// Send test notification
	title := "🧪 Test Notification"
	body := "This is a test notification from Traderoom Backend. If you see this, notifications are working! ✅"
	data := map[string]string{
		"type":      "test",
		"timestamp": "now",
	}

	if err := h.fcmClient.SendMulticast(tokens, title, body, data); err != nil {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Failed to send notification: " + err.Error(),
			"count":   len(tokens),
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Test notification sent successfully",
		"count":   len(tokens),
	})
}
