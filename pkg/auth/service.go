package auth

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/clinicore/auth-service/pkg/device"
	"github.com/clinicore/auth-service/pkg/errors"
	"github.com/clinicore/auth-service/pkg/notification"
	"github.com/clinicore/auth-service/pkg/password"
	"github.com/clinicore/auth-service/pkg/provider/apple"
	"github.com/clinicore/auth-service/pkg/provider/google"
	"github.com/clinicore/auth-service/pkg/resetcode"
	"github.com/clinicore/auth-service/pkg/tokenauth"
	"github.com/clinicore/auth-service/pkg/user"
)

const (
	// ResetCodeTTL bounds how long a forgot-password code stays valid.
	ResetCodeTTL = 10 * time.Minute

	// ResetTokenTTL bounds the window between code verification and the
	// password update.
	ResetTokenTTL = 10 * time.Minute

	// DefaultAccessTokenTTL applies when no lifetime is configured.
	DefaultAccessTokenTTL = 15 * time.Minute
)

// invalidCredentials is the single client-facing message for both unknown
// email and wrong password, preventing user enumeration.
const invalidCredentials = "invalid credentials"

// AppleVerifier is the subset of the Apple provider used by the biometric
// flow.
type AppleVerifier interface {
	VerifyIdentityToken(ctx context.Context, identityToken string) (*apple.IdentityClaims, error)
	ValidateAuthorizationCode(ctx context.Context, authorizationCode string) (bool, error)
}

// Service orchestrates the authentication use-cases over the collaborator
// interfaces: credential verification, federated login, the password-reset
// flow and token issuance.
type Service struct {
	users          user.Repository
	hasher         password.Hasher
	tokens         tokenauth.TokenService
	resetCodes     resetcode.Store
	notifier       notification.Notifier
	googleVerifier google.Verifier
	appleVerifier  AppleVerifier
	devices        *device.Service
	accessTokenTTL time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithGoogleVerifier enables the Google login flow
func WithGoogleVerifier(v google.Verifier) Option {
	return func(s *Service) {
		s.googleVerifier = v
	}
}

// WithAppleVerifier enables the biometric login flow
func WithAppleVerifier(v AppleVerifier) Option {
	return func(s *Service) {
		s.appleVerifier = v
	}
}

// WithDeviceService sets the registry used for biometric device binding
func WithDeviceService(d *device.Service) Option {
	return func(s *Service) {
		s.devices = d
	}
}

// WithAccessTokenTTL overrides the default access token lifetime
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.accessTokenTTL = ttl
	}
}

// NewService creates a new auth orchestrator
func NewService(
	users user.Repository,
	hasher password.Hasher,
	tokens tokenauth.TokenService,
	resetCodes resetcode.Store,
	notifier notification.Notifier,
	opts ...Option,
) *Service {
	s := &Service{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		resetCodes:     resetCodes,
		notifier:       notifier,
		accessTokenTTL: DefaultAccessTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is the outcome of a successful credential or federated login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies an email/password pair and issues an access token. The
// error for an unknown email and for a wrong password is identical.
func (s *Service) Login(ctx context.Context, email, pw string) (LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		slog.Debug("login lookup failed", "err", err)
		return LoginResult{}, errors.New(errors.ErrCodeInvalidCredentials, invalidCredentials)
	}

	ok, err := s.hasher.Verify(pw, u.PasswordHash)
	if err != nil || !ok {
		if err != nil {
			slog.Debug("password verification errored", "err", err)
		}
		return LoginResult{}, errors.New(errors.ErrCodeInvalidCredentials, invalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(strconv.FormatInt(u.ID, 10), s.accessTokenTTL, tokenauth.ExtraClaims{
		Email:  u.Email,
		RoleID: u.RoleID,
	})
	if err != nil {
		return LoginResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to issue access token")
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// ForgotPassword issues a one-time reset code and mails it. The caller
// always observes success: repository failures, unknown emails and mail
// failures are logged internally and never surfaced, so the response cannot
// be used to probe which emails exist.
func (s *Service) ForgotPassword(ctx context.Context, email string) {
	// Best-effort capture of the user ID; absence is not revealed.
	var userID int64
	if u, err := s.users.FindByEmail(ctx, email); err == nil {
		userID = u.ID
	}

	code, err := resetcode.GenerateCode()
	if err != nil {
		slog.Error("Failed to generate reset code", "err", err)
		return
	}

	s.resetCodes.Put(email, code, ResetCodeTTL, userID)
	slog.Debug("issued password reset code", "email", email, "code", code)

	if err := s.notifier.Send(ctx, notification.ResetCodeEmail(email, code, ResetCodeTTL)); err != nil {
		slog.Error("Failed to send reset code email", "email", email, "err", err)
	}
}

// ResetTokenResult carries the scoped token issued after code verification.
type ResetTokenResult struct {
	ResetToken string `json:"resetToken"`
}

// VerifyResetCode consumes a reset code and exchanges it for a token scoped
// to the password-reset flow. Consumption is single-use: a replay of the
// same code fails even inside the TTL window.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) (ResetTokenResult, error) {
	entry, ok := s.resetCodes.Get(email)
	if !ok || entry.Used || entry.Code != code {
		return ResetTokenResult{}, errors.New(errors.ErrCodeResetCodeInvalid, "invalid or expired code")
	}
	s.resetCodes.MarkUsed(email)

	// Subject falls back to "0" when no user ID was captured at issue time;
	// ResetPassword then resolves the account by the email claim.
	token, _, err := s.tokens.Issue(strconv.FormatInt(entry.UserID, 10), ResetTokenTTL, tokenauth.ExtraClaims{
		Email:   email,
		Purpose: tokenauth.PurposePasswordReset,
	})
	if err != nil {
		return ResetTokenResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to issue reset token")
	}
	return ResetTokenResult{ResetToken: token}, nil
}

// ResetPassword completes the reset flow: it accepts only tokens scoped
// with the password-reset purpose, resolves the account and stores the new
// password hash.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.Verify(resetToken)
	if err != nil {
		slog.Debug("reset token verification failed", "err", err)
		return errors.New(errors.ErrCodeResetTokenInvalid, "invalid reset token")
	}
	if claims.Purpose != tokenauth.PurposePasswordReset {
		return errors.New(errors.ErrCodeResetTokenInvalid, "invalid reset token")
	}

	userID := claims.UserID()
	if userID == 0 && claims.Email != "" {
		u, err := s.users.FindByEmail(ctx, claims.Email)
		if err != nil {
			return errors.New(errors.ErrCodeUserNotFound, "user not found")
		}
		userID = u.ID
	}
	if userID == 0 {
		return errors.New(errors.ErrCodeResetTokenInvalid, "invalid reset token")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if err == user.ErrNotFound {
			return errors.New(errors.ErrCodeUserNotFound, "user not found")
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update password")
	}
	return nil
}

// ProviderLoginResult is the outcome of a federated login.
type ProviderLoginResult struct {
	Token    string `json:"token"`
	Provider string `json:"provider"`
}

// GoogleLogin verifies a Google ID token and issues an access token for the
// matching local account. Federated login via Google never creates an
// account: an unknown email fails with UserNotRegistered.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (ProviderLoginResult, error) {
	if idToken == "" {
		return ProviderLoginResult{}, errors.New(errors.ErrCodeInvalidInput, "missing Google id_token")
	}
	if s.googleVerifier == nil {
		return ProviderLoginResult{}, errors.New(errors.ErrCodeProviderConfigMissing, "Google login not configured")
	}

	claims, err := s.googleVerifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return ProviderLoginResult{}, err
	}

	u, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		return ProviderLoginResult{}, errors.New(errors.ErrCodeUserNotRegistered, "user not registered")
	}

	token, _, err := s.tokens.Issue(strconv.FormatInt(u.ID, 10), s.accessTokenTTL, tokenauth.ExtraClaims{
		Email:    u.Email,
		RoleID:   u.RoleID,
		Provider: "google",
	})
	if err != nil {
		return ProviderLoginResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to issue access token")
	}
	return ProviderLoginResult{Token: token, Provider: "google"}, nil
}
