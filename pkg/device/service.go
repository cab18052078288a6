package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service handles biometric device registration and usage tracking
type Service struct {
	repository Repository
}

// NewService creates a new device service with the given repository
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// EnsureRegisteredParams describes the device seen during a biometric login.
type EnsureRegisteredParams struct {
	UserID         int64
	DeviceID       string
	DeviceName     string
	DeviceType     string
	ProviderUserID string
}

// EnsureRegistered applies trust-on-first-use: an unknown device is
// registered, a known usable device gets its last-used stamp refreshed.
// Lookup failures are treated as "not registered" so a transient read error
// re-registers instead of blocking the login.
func (s *Service) EnsureRegistered(ctx context.Context, params EnsureRegisteredParams) (BiometricDevice, error) {
	existing, err := s.repository.GetDevice(ctx, params.UserID, params.DeviceID)
	if err == nil && existing.Usable() {
		slog.Info("device already registered, updating last used",
			"userID", params.UserID, "deviceID", params.DeviceID)
		if err := s.repository.UpdateDeviceUsage(ctx, params.DeviceID, params.UserID); err != nil {
			slog.Error("Failed to update device usage",
				"userID", params.UserID, "deviceID", params.DeviceID, "err", err)
		}
		return existing, nil
	}
	if err != nil && err != ErrNotFound {
		slog.Error("Device lookup failed, treating as not registered",
			"userID", params.UserID, "deviceID", params.DeviceID, "err", err)
	}

	slog.Info("registering new biometric device",
		"userID", params.UserID, "deviceID", params.DeviceID, "deviceType", params.DeviceType)
	newDevice := BiometricDevice{
		UserID:         params.UserID,
		DeviceID:       params.DeviceID,
		DeviceName:     params.DeviceName,
		DeviceType:     params.DeviceType,
		IsActive:       true,
		IsRevoked:      false,
		RegisteredAt:   time.Now().UTC(),
		ProviderUserID: params.ProviderUserID,
	}
	if err := s.repository.RegisterDevice(ctx, newDevice); err != nil {
		return BiometricDevice{}, fmt.Errorf("failed to register device: %w", err)
	}
	return newDevice, nil
}

// RecordAttempt writes an audit record for a login attempt. Best effort: a
// failed write is logged and never blocks the login itself.
func (s *Service) RecordAttempt(ctx context.Context, userID int64, deviceID string, success bool, message string) {
	err := s.repository.RecordLoginAttempt(ctx, LoginAttempt{
		UserID:   userID,
		DeviceID: deviceID,
		Success:  success,
		Message:  message,
	})
	if err != nil {
		slog.Error("Failed to record login attempt",
			"userID", userID, "deviceID", deviceID, "success", success, "err", err)
	}
}
