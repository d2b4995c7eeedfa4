package session

import (
	"context"
	"sync"
)

// TokenStore is the durable storage boundary for the auth token. It holds
// exactly one value per browser session and must be idempotent.
type TokenStore interface {
	Load(ctx context.Context) (string, bool)
	Save(ctx context.Context, token string)
	Clear(ctx context.Context)
}

// MemoryTokenStore keeps the token in process memory. Used in tests and as
// the degraded mode when cookie storage is unavailable.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load(_ context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *MemoryTokenStore) Save(_ context.Context, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MemoryTokenStore) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}
