// Package user defines the durable identity records of the clinic platform
// and the repository interface the authentication and profile services
// consume.
//
// Two implementations ship: an in-memory repository for development and
// tests, and a PostgreSQL repository backed by pgx. The interface is total —
// every implementation supports every operation, the orchestrator never
// probes for optional capabilities.
package user
