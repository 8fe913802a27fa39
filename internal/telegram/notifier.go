package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"traderoom-backend/internal/domain"
)

// Notifier mirrors newly published room alerts into a Telegram channel.
// Disabled notifiers swallow every call so callers never have to branch.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
}

func NewNotifier(botToken string, chatID int64) *Notifier {
	if botToken == "" || chatID == 0 {
		return &Notifier{enabled: false}
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("failed to create telegram bot: %v", err)
		return &Notifier{enabled: false}
	}

	log.Printf("telegram bot connected as %s", bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID, enabled: true}
}

func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

func (n *Notifier) NotifyAlert(alert domain.Alert) {
	if !n.enabled {
		return
	}

	var emoji string
	switch alert.Type {
	case domain.AlertTypeEntry:
		emoji = "🟢"
	case domain.AlertTypeExit:
		emoji = "🔴"
	default:
		emoji = "🟡"
	}

	text := fmt.Sprintf("%s *%s* — %s\n%s", emoji, alert.Ticker, alert.Type, alert.Message)
	if alert.BrokerOrder != "" {
		text += fmt.Sprintf("\n`%s`", alert.BrokerOrder)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("telegram send failed: %v", err)
	}
}
