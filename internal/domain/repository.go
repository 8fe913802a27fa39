package domain

import "time"

// DeviceToken is one registered push-notification target.
type DeviceToken struct {
	Token     string
	Platform  string // "android", "ios" or "web"
	CreatedAt time.Time
}

// TokenRepository stores device tokens for alert push notifications.
// Implementations: in-memory (for dev) and Postgres (for production).
type TokenRepository interface {
	RegisterToken(token, platform string, at time.Time) error
	UnregisterToken(token string) error
	GetAllTokens() ([]string, error)
	GetTokenCount() (int, error)
}
