package notify

import (
	"context"
	"sync"
)

// MockNotifier is a test implementation of Notifier that records messages.
type MockNotifier struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

// NewMockNotifier creates an empty recording notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Success(ctx context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Successes = append(m.Successes, message)
}

func (m *MockNotifier) Error(ctx context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, message)
}

// Reset clears recorded messages.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Successes = nil
	m.Errors = nil
}
