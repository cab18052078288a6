package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type deviceKey struct {
	userID   int64
	deviceID string
}

// InMemRepository implements Repository using in-memory maps
type InMemRepository struct {
	mu       sync.Mutex
	devices  map[deviceKey]BiometricDevice
	attempts []LoginAttempt
}

// NewInMemRepository creates a new in-memory device repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		devices: make(map[deviceKey]BiometricDevice),
	}
}

// GetDevice retrieves a device registration for a (user, device) pair
func (r *InMemRepository) GetDevice(ctx context.Context, userID int64, deviceID string) (BiometricDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceKey{userID: userID, deviceID: deviceID}]
	if !ok {
		return BiometricDevice{}, ErrNotFound
	}
	return d, nil
}

// RegisterDevice stores a new device registration
func (r *InMemRepository) RegisterDevice(ctx context.Context, device BiometricDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey{userID: device.UserID, deviceID: device.DeviceID}
	if _, exists := r.devices[key]; exists {
		return errors.New("device already registered")
	}
	if device.RegisteredAt.IsZero() {
		device.RegisteredAt = time.Now().UTC()
	}
	r.devices[key] = device
	return nil
}

// UpdateDeviceUsage stamps LastUsedAt on an existing registration
func (r *InMemRepository) UpdateDeviceUsage(ctx context.Context, deviceID string, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := deviceKey{userID: userID, deviceID: deviceID}
	d, ok := r.devices[key]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	d.LastUsedAt = &now
	r.devices[key] = d
	return nil
}

// RecordLoginAttempt appends an audit record
func (r *InMemRepository) RecordLoginAttempt(ctx context.Context, attempt LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	r.attempts = append(r.attempts, attempt)
	return nil
}

// Attempts returns a copy of the recorded login attempts. Test helper.
func (r *InMemRepository) Attempts() []LoginAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LoginAttempt, len(r.attempts))
	copy(out, r.attempts)
	return out
}
