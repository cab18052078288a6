package tokenauth

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicore/auth-service/pkg/errors"
)

// PurposePasswordReset scopes a token to the password-reset flow. Tokens
// carrying this purpose must be rejected everywhere except ResetPassword.
const PurposePasswordReset = "password_reset"

// ExtraClaims carries the application claims embedded alongside the
// registered JWT claims.
type ExtraClaims struct {
	Email          string
	RoleID         int
	Purpose        string
	AuthType       string
	Provider       string
	DeviceID       string
	ProviderUserID string
}

// AccessClaims is the full claim set of an issued access token.
type AccessClaims struct {
	Email          string `json:"email,omitempty"`
	RoleID         int    `json:"role_id"`
	Purpose        string `json:"purpose,omitempty"`
	AuthType       string `json:"auth_type,omitempty"`
	Provider       string `json:"provider,omitempty"`
	DeviceID       string `json:"device_id,omitempty"`
	ProviderUserID string `json:"provider_user_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token, or 0 when the subject is
// absent or not numeric.
func (c *AccessClaims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// TokenService defines issuing and verification of signed access tokens.
// Purpose semantics are enforced by callers, not here: Verify only checks
// signature, expiry and payload shape.
type TokenService interface {
	// Issue generates a token for the given subject with the given lifetime.
	Issue(subject string, ttl time.Duration, extra ExtraClaims) (string, time.Time, error)

	// Verify parses and validates a token, returning its claims.
	Verify(tokenStr string) (*AccessClaims, error)
}

// JwtTokenService implements TokenService with symmetric HS256 signing.
type JwtTokenService struct {
	Secret string
	Issuer string
}

// NewJwtTokenService creates a new JwtTokenService
func NewJwtTokenService(secret, issuer string) *JwtTokenService {
	return &JwtTokenService{
		Secret: secret,
		Issuer: issuer,
	}
}

// Issue creates a new signed token for the given subject and claims
func (s *JwtTokenService) Issue(subject string, ttl time.Duration, extra ExtraClaims) (string, time.Time, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		Email:          extra.Email,
		RoleID:         extra.RoleID,
		Purpose:        extra.Purpose,
		AuthType:       extra.AuthType,
		Provider:       extra.Provider,
		DeviceID:       extra.DeviceID,
		ProviderUserID: extra.ProviderUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.Issuer,
			Subject:   subject,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(s.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claim string", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// Verify parses and validates a token string
func (s *JwtTokenService) Verify(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		slog.Debug("Failed to parse JWT string", "err", err)
		return nil, errors.Wrap(err, errors.ErrCodeTokenInvalid, "invalid token")
	}
	if !token.Valid {
		return nil, errors.New(errors.ErrCodeTokenInvalid, "invalid token")
	}
	return claims, nil
}

var numericTTL = regexp.MustCompile(`^[0-9]+$`)

// ParseTTL resolves a lifetime expressed either as bare seconds ("900") or as
// a duration string ("15m"). Resolved once at startup.
func ParseTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty ttl")
	}
	if numericTTL.MatchString(raw) {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid ttl %q: %w", raw, err)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q: %w", raw, err)
	}
	return d, nil
}
