package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both a pgx pool and a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL device repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetDevice retrieves a device registration for a (user, device) pair
func (r *PostgresRepository) GetDevice(ctx context.Context, userID int64, deviceID string) (BiometricDevice, error) {
	query := `
		SELECT user_id, device_id, device_name, device_type, is_active,
		       is_revoked, registered_at, last_used_at, provider_user_id
		FROM biometric_devices
		WHERE user_id = $1 AND device_id = $2`

	var d BiometricDevice
	err := r.db.QueryRow(ctx, query, userID, deviceID).Scan(
		&d.UserID, &d.DeviceID, &d.DeviceName, &d.DeviceType, &d.IsActive,
		&d.IsRevoked, &d.RegisteredAt, &d.LastUsedAt, &d.ProviderUserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BiometricDevice{}, ErrNotFound
		}
		return BiometricDevice{}, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

// RegisterDevice stores a new device registration
func (r *PostgresRepository) RegisterDevice(ctx context.Context, device BiometricDevice) error {
	if device.RegisteredAt.IsZero() {
		device.RegisteredAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO biometric_devices (
			user_id, device_id, device_name, device_type, is_active,
			is_revoked, registered_at, provider_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		device.UserID, device.DeviceID, device.DeviceName, device.DeviceType,
		device.IsActive, device.IsRevoked, device.RegisteredAt,
		device.ProviderUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// UpdateDeviceUsage stamps last_used_at on an existing registration
func (r *PostgresRepository) UpdateDeviceUsage(ctx context.Context, deviceID string, userID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE biometric_devices SET last_used_at = $1
		WHERE device_id = $2 AND user_id = $3`,
		time.Now().UTC(), deviceID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update device usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordLoginAttempt appends an audit record
func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO biometric_login_attempts (
			id, user_id, device_id, success, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.UserID, attempt.DeviceID, attempt.Success,
		attempt.Message, attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}
