// Package notification delivers outbound email for the authentication
// service.
//
// The Notifier interface keeps delivery swappable: production uses the SMTP
// EmailNotifier, tests use MockNotifier. Reset-code mail content is built
// here so the orchestrator stays free of presentation concerns.
package notification
