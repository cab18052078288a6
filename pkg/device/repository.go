package device

import (
	"context"
	"errors"
	"time"
)

// Device types accepted by the registry.
const (
	TypeIOS     = "ios"
	TypeAndroid = "android"
	TypeWeb     = "web"
)

// ErrNotFound is returned by repositories when no device matches the lookup.
var ErrNotFound = errors.New("device not found")

// BiometricDevice is a device bound to a user for biometric login. Devices
// are never auto-deleted; revocation is an explicit flag.
type BiometricDevice struct {
	UserID         int64      `json:"user_id"`
	DeviceID       string     `json:"device_id"`
	DeviceName     string     `json:"device_name"`
	DeviceType     string     `json:"device_type"`
	IsActive       bool       `json:"is_active"`
	IsRevoked      bool       `json:"is_revoked"`
	RegisteredAt   time.Time  `json:"registered_at"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	ProviderUserID string     `json:"-"`
}

// Usable reports whether the device may authenticate a login.
func (d BiometricDevice) Usable() bool {
	return d.IsActive && !d.IsRevoked
}

// LoginAttempt is an audit record of a biometric login attempt. Every
// attempt is recordable, independent of whether the login succeeds.
type LoginAttempt struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository defines the durable store for biometric devices and their
// audit trail.
type Repository interface {
	GetDevice(ctx context.Context, userID int64, deviceID string) (BiometricDevice, error)
	RegisterDevice(ctx context.Context, device BiometricDevice) error
	UpdateDeviceUsage(ctx context.Context, deviceID string, userID int64) error
	RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error
}
