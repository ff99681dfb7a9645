package mocks

import (
	"context"
	"sync"
)

// MockTokenStore is an in-memory stand-in for the redis session store.
type MockTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{tokens: make(map[string]string)}
}

func (m *MockTokenStore) Put(ctx context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *MockTokenStore) Remove(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *MockTokenStore) Lookup(ctx context.Context, token string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.tokens[token]
	return userID, ok, nil
}
