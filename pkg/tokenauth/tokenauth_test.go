package tokenauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/auth-service/pkg/errors"
)

func TestJwtTokenService_RoundTrip(t *testing.T) {
	svc := NewJwtTokenService("test-secret", "auth-service-test")

	token, expiresAt, err := svc.Issue("42", 15*time.Minute, ExtraClaims{
		Email:  "patient@example.com",
		RoleID: 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, int64(42), claims.UserID())
	assert.Equal(t, "patient@example.com", claims.Email)
	assert.Equal(t, 1, claims.RoleID)
	assert.Empty(t, claims.Purpose)
	assert.NotEmpty(t, claims.ID)
}

func TestJwtTokenService_PurposeClaimSurvivesRoundTrip(t *testing.T) {
	svc := NewJwtTokenService("test-secret", "auth-service-test")

	token, _, err := svc.Issue("7", 10*time.Minute, ExtraClaims{
		Email:   "patient@example.com",
		Purpose: PurposePasswordReset,
	})
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, PurposePasswordReset, claims.Purpose)
}

func TestJwtTokenService_ZeroTTLIsExpired(t *testing.T) {
	svc := NewJwtTokenService("test-secret", "auth-service-test")

	token, _, err := svc.Issue("42", 0, ExtraClaims{})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
}

func TestJwtTokenService_WrongSecretFails(t *testing.T) {
	svc := NewJwtTokenService("test-secret", "auth-service-test")
	other := NewJwtTokenService("other-secret", "auth-service-test")

	token, _, err := svc.Issue("42", time.Minute, ExtraClaims{})
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
}

func TestJwtTokenService_GarbageTokenFails(t *testing.T) {
	svc := NewJwtTokenService("test-secret", "auth-service-test")

	_, err := svc.Verify("not-a-token")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTokenInvalid))
}

func TestAccessClaims_UserIDFallback(t *testing.T) {
	claims := &AccessClaims{}
	assert.Equal(t, int64(0), claims.UserID())

	claims.Subject = "abc"
	assert.Equal(t, int64(0), claims.UserID())
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "900", want: 900 * time.Second},
		{raw: "15m", want: 15 * time.Minute},
		{raw: "1h30m", want: 90 * time.Minute},
		{raw: "", wantErr: true},
		{raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTTL(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "ttl %q", tt.raw)
			continue
		}
		require.NoError(t, err, "ttl %q", tt.raw)
		assert.Equal(t, tt.want, got, "ttl %q", tt.raw)
	}
}
