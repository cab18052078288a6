package apple

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicore/auth-service/pkg/errors"
)

const (
	// Issuer of Apple identity tokens.
	Issuer = "https://appleid.apple.com"

	// KeysURL is Apple's published signing key endpoint.
	KeysURL = "https://appleid.apple.com/auth/keys"

	// TokenURL redeems authorization codes.
	TokenURL = "https://appleid.apple.com/auth/token"

	// keyRefreshInterval bounds how long fetched signing keys are reused.
	keyRefreshInterval = 24 * time.Hour
)

// IdentityClaims are the verified fields extracted from an Apple identity
// token.
type IdentityClaims struct {
	Subject        string // Apple's opaque user identifier
	Email          string // may be empty or a private relay address
	EmailVerified  bool
	IsPrivateEmail bool
}

// looseBool tolerates Apple's string-or-bool claim encoding
// ("email_verified": "true" vs true).
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"true"`:
		*b = true
	case "false", `"false"`, "null":
		*b = false
	default:
		return fmt.Errorf("unexpected boolean encoding %s", data)
	}
	return nil
}

type identityTokenClaims struct {
	Email          string    `json:"email,omitempty"`
	EmailVerified  looseBool `json:"email_verified,omitempty"`
	IsPrivateEmail looseBool `json:"is_private_email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates Apple identity tokens and redeems authorization codes.
type Verifier struct {
	cfg        Config
	keyfunc    jwt.Keyfunc
	httpClient *http.Client
}

// NewVerifier creates a verifier backed by Apple's published key set,
// cached and refreshed in the background. Fails fast when the configuration
// is incomplete.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	jwks, err := keyfunc.Get(KeysURL, keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			slog.Error("Failed background refresh of Apple key set", "err", err)
		},
		RefreshInterval:   keyRefreshInterval,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "failed to fetch Apple signing keys")
	}
	return &Verifier{
		cfg:        cfg,
		keyfunc:    jwks.Keyfunc,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// NewVerifierWithKeyfunc creates a verifier with a caller-supplied key
// function. Used by tests and by deployments that pin keys.
func NewVerifierWithKeyfunc(cfg Config, kf jwt.Keyfunc) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{
		cfg:        cfg,
		keyfunc:    kf,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// VerifyIdentityToken validates signature, issuer, audience and expiry of an
// Apple identity token and returns its identity claims.
func (v *Verifier) VerifyIdentityToken(ctx context.Context, identityToken string) (*IdentityClaims, error) {
	claims := &identityTokenClaims{}
	token, err := jwt.ParseWithClaims(identityToken, claims, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(v.cfg.BundleID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		slog.Debug("Apple identity token parse failed", "err", err)
		return nil, errors.Wrap(err, errors.ErrCodeTokenInvalid, "invalid Apple identity token")
	}
	if !token.Valid {
		return nil, errors.New(errors.ErrCodeTokenInvalid, "invalid Apple identity token")
	}
	if claims.Subject == "" {
		return nil, errors.New(errors.ErrCodeTokenInvalid, "Apple identity token has no subject")
	}

	return &IdentityClaims{
		Subject:        claims.Subject,
		Email:          claims.Email,
		EmailVerified:  bool(claims.EmailVerified),
		IsPrivateEmail: bool(claims.IsPrivateEmail),
	}, nil
}
