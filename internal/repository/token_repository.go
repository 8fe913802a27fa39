package repository

import (
	"sync"
	"time"

	"traderoom-backend/internal/domain"
)

// InMemoryTokenRepository keeps device tokens in memory. Good enough for
// dev; production uses the Postgres implementation so tokens survive a
// restart.
type InMemoryTokenRepository struct {
	tokens map[string]*domain.DeviceToken
	mu     sync.RWMutex
}

func NewInMemoryTokenRepository() *InMemoryTokenRepository {
	return &InMemoryTokenRepository{
		tokens: make(map[string]*domain.DeviceToken),
	}
}

// RegisterToken adds or refreshes a device token.
func (r *InMemoryTokenRepository) RegisterToken(token, platform string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = &domain.DeviceToken{
		Token:     token,
		Platform:  platform,
		CreatedAt: at,
	}
	return nil
}

// UnregisterToken removes a device token.
func (r *InMemoryTokenRepository) UnregisterToken(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

// GetAllTokens returns all registered tokens.
func (r *InMemoryTokenRepository) GetAllTokens() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.tokens))
	for token := range r.tokens {
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// GetTokenCount returns the number of registered tokens.
func (r *InMemoryTokenRepository) GetTokenCount() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tokens), nil
}
