package notification

import "context"

// Notification is a single outbound message.
type Notification struct {
	To      string // Recipient email address
	Subject string
	Text    string // Plain-text body
	HTML    string // Optional HTML alternative
}

// Notifier delivers notifications. Delivery is best effort on the
// anti-enumeration flows: the forgot-password use-case swallows send
// failures.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}
