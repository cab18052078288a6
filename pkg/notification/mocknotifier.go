package notification

import (
	"context"
	"sync"
)

// MockNotifier implements Notifier for tests: it records every send and can
// be forced to fail.
type MockNotifier struct {
	mu   sync.Mutex
	sent []Notification
	Err  error // returned by Send when non-nil
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the notification, or fails when Err is set
func (m *MockNotifier) Send(ctx context.Context, notification Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, notification)
	return nil
}

// Sent returns a copy of the recorded notifications
func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
