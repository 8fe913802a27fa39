package usecase

import (
	"fmt"
	"log"
	"sync"
	"time"

	"traderoom-backend/internal/domain"
	"traderoom-backend/internal/infrastructure/fcm"
	"traderoom-backend/internal/telegram"
)

// notifiedRetention is how long a pushed alert id is remembered for dedupe.
const notifiedRetention = time.Hour

// AlertNotifier watches page 1 of the room's alerts and fans newly published
// ones out: prepend into the AlertFeed (so members see them ahead of the
// next page fetch), FCM multicast to registered devices, and an optional
// Telegram channel message.
type AlertNotifier struct {
	api       domain.AlertAPI
	feed      *AlertFeed
	room      string
	fcmClient *fcm.Client
	tokenRepo domain.TokenRepository
	tg        *telegram.Notifier

	mu       sync.Mutex
	notified map[domain.TradeID]time.Time
	primed   bool
}

func NewAlertNotifier(
	api domain.AlertAPI,
	feed *AlertFeed,
	room string,
	fcmClient *fcm.Client,
	tokenRepo domain.TokenRepository,
	tg *telegram.Notifier,
) *AlertNotifier {
	return &AlertNotifier{
		api:       api,
		feed:      feed,
		room:      room,
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		tg:        tg,
		notified:  make(map[domain.TradeID]time.Time),
	}
}

// Poll fetches the newest alerts and pushes the ones not seen before.
// The first poll only primes the seen set so a restart does not re-push the
// whole front page.
func (n *AlertNotifier) Poll() {
	alerts, _, err := n.api.ListAlerts(n.room, AlertsPerPage, 0)
	if err != nil {
		log.Printf("alert notifier poll: %v", err)
		return
	}

	now := time.Now()

	n.mu.Lock()
	primed := n.primed
	n.primed = true
	var fresh []domain.Alert
	// Walk oldest-first so prepends land in arrival order.
	for i := len(alerts) - 1; i >= 0; i-- {
		a := alerts[i]
		if _, seen := n.notified[a.ID]; seen {
			continue
		}
		n.notified[a.ID] = now
		if primed {
			fresh = append(fresh, a)
		}
	}
	for id, at := range n.notified {
		if now.Sub(at) > notifiedRetention {
			delete(n.notified, id)
		}
	}
	n.mu.Unlock()

	for _, alert := range fresh {
		n.feed.Prepend(alert)
		n.push(alert)
	}
}

func (n *AlertNotifier) push(alert domain.Alert) {
	if n.tg != nil {
		n.tg.NotifyAlert(alert)
	}

	if n.fcmClient == nil || !n.fcmClient.IsEnabled() || n.tokenRepo == nil {
		return
	}
	tokens, err := n.tokenRepo.GetAllTokens()
	if err != nil {
		log.Printf("loading device tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	var emoji string
	switch alert.Type {
	case domain.AlertTypeEntry:
		emoji = "🚀"
	case domain.AlertTypeExit:
		emoji = "💰"
	default:
		emoji = "⚡"
	}
	title := fmt.Sprintf("%s %s %s", emoji, alert.Ticker, alert.Type)
	if alert.Title != "" {
		title = fmt.Sprintf("%s %s", emoji, alert.Title)
	}

	data := map[string]string{
		"id":     string(alert.ID),
		"type":   alert.Type,
		"ticker": alert.Ticker,
		"room":   n.room,
	}

	if err := n.fcmClient.SendMulticast(tokens, title, alert.Message, data); err != nil {
		log.Printf("error pushing alert %s: %v", alert.ID, err)
	} else {
		log.Printf("pushed alert %s to %d devices", alert.ID, len(tokens))
	}
}
