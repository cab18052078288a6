package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*Service, *InMemRepository) {
	repo := NewInMemRepository()
	return NewService(repo), repo
}

func TestService_EnsureRegistered_FirstUse(t *testing.T) {
	service, repo := setupService(t)
	ctx := context.Background()

	d, err := service.EnsureRegistered(ctx, EnsureRegisteredParams{
		UserID:         1,
		DeviceID:       "device-1",
		DeviceName:     "iOS Device",
		DeviceType:     TypeIOS,
		ProviderUserID: "001234.abcdef",
	})
	require.NoError(t, err)
	assert.True(t, d.IsActive)
	assert.False(t, d.IsRevoked)
	assert.True(t, d.Usable())
	assert.Nil(t, d.LastUsedAt)

	stored, err := repo.GetDevice(ctx, 1, "device-1")
	require.NoError(t, err)
	assert.Equal(t, TypeIOS, stored.DeviceType)
}

func TestService_EnsureRegistered_SecondUseTouchesInsteadOfReregistering(t *testing.T) {
	service, repo := setupService(t)
	ctx := context.Background()

	params := EnsureRegisteredParams{
		UserID:     1,
		DeviceID:   "device-1",
		DeviceName: "iOS Device",
		DeviceType: TypeIOS,
	}
	_, err := service.EnsureRegistered(ctx, params)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = service.EnsureRegistered(ctx, params)
	require.NoError(t, err)

	stored, err := repo.GetDevice(ctx, 1, "device-1")
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt, "second login must stamp last used")
	assert.True(t, stored.LastUsedAt.After(stored.RegisteredAt))
}

func TestService_EnsureRegistered_RevokedDeviceIsReplacedByLookupPolicy(t *testing.T) {
	service, repo := setupService(t)
	ctx := context.Background()

	err := repo.RegisterDevice(ctx, BiometricDevice{
		UserID:     1,
		DeviceID:   "device-1",
		DeviceType: TypeIOS,
		IsActive:   true,
		IsRevoked:  true,
	})
	require.NoError(t, err)

	// A revoked device is not usable; re-registration collides with the
	// existing record and the failure surfaces to the caller.
	_, err = service.EnsureRegistered(ctx, EnsureRegisteredParams{
		UserID:     1,
		DeviceID:   "device-1",
		DeviceType: TypeIOS,
	})
	assert.Error(t, err)
}

func TestService_RecordAttempt(t *testing.T) {
	service, repo := setupService(t)
	ctx := context.Background()

	service.RecordAttempt(ctx, 1, "device-1", true, "biometric login successful")
	service.RecordAttempt(ctx, 1, "device-1", false, "invalid identity token")

	attempts := repo.Attempts()
	require.Len(t, attempts, 2)
	assert.True(t, attempts[0].Success)
	assert.False(t, attempts[1].Success)
	assert.NotEmpty(t, attempts[0].ID)
	assert.False(t, attempts[0].CreatedAt.IsZero())
}

func TestBiometricDevice_Usable(t *testing.T) {
	assert.True(t, BiometricDevice{IsActive: true}.Usable())
	assert.False(t, BiometricDevice{IsActive: true, IsRevoked: true}.Usable())
	assert.False(t, BiometricDevice{IsActive: false}.Usable())
}
