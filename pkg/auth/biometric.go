package auth

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/clinicore/auth-service/pkg/device"
	"github.com/clinicore/auth-service/pkg/errors"
	"github.com/clinicore/auth-service/pkg/provider/apple"
	"github.com/clinicore/auth-service/pkg/tokenauth"
	"github.com/clinicore/auth-service/pkg/user"
)

// BiometricLoginRequest carries the Apple identity assertion and the device
// identity observed by the client.
type BiometricLoginRequest struct {
	IdentityToken     string `json:"identityToken"`
	AuthorizationCode string `json:"authorizationCode,omitempty"`
	ProviderUserID    string `json:"userIdentifier"`
	DeviceID          string `json:"deviceId"`
	DeviceName        string `json:"deviceName,omitempty"`
	Email             string `json:"email,omitempty"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
}

// BiometricUser is the account summary returned after a biometric login.
type BiometricUser struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	RoleID int    `json:"role_id"`
}

// BiometricLoginResult is the outcome of a successful biometric login.
type BiometricLoginResult struct {
	Token    string        `json:"token"`
	User     BiometricUser `json:"user"`
	Provider string        `json:"provider"`
}

// BiometricLogin verifies an Apple identity token and signs the user in,
// provisioning both the account and the device on first use. Unlike Google
// login, a verified Apple assertion with no matching account creates one:
// Apple only discloses the email on the first authorization, so a later
// login must still succeed without it.
func (s *Service) BiometricLogin(ctx context.Context, req BiometricLoginRequest) (BiometricLoginResult, error) {
	if req.IdentityToken == "" || req.ProviderUserID == "" || req.DeviceID == "" {
		return BiometricLoginResult{}, errors.New(errors.ErrCodeInvalidInput,
			"identityToken, userIdentifier and deviceId are required")
	}
	if s.appleVerifier == nil {
		return BiometricLoginResult{}, errors.New(errors.ErrCodeProviderConfigMissing, "Apple login not configured")
	}

	claims, err := s.appleVerifier.VerifyIdentityToken(ctx, req.IdentityToken)
	if err != nil {
		return BiometricLoginResult{}, err
	}

	if req.AuthorizationCode != "" {
		ok, err := s.appleVerifier.ValidateAuthorizationCode(ctx, req.AuthorizationCode)
		if err != nil || !ok {
			slog.Warn("Apple authorization code validation failed, proceeding on identity token",
				"userIdentifier", req.ProviderUserID, "err", err)
		}
	}

	u, err := s.findOrProvisionAppleUser(ctx, req, claims)
	if err != nil {
		return BiometricLoginResult{}, err
	}

	if s.devices != nil {
		_, err = s.devices.EnsureRegistered(ctx, device.EnsureRegisteredParams{
			UserID:         u.ID,
			DeviceID:       req.DeviceID,
			DeviceName:     req.DeviceName,
			DeviceType:     device.TypeIOS,
			ProviderUserID: req.ProviderUserID,
		})
		if err != nil {
			return BiometricLoginResult{}, errors.Wrap(err, errors.ErrCodeDeviceRegistrationFailed,
				"failed to register biometric device")
		}
		s.devices.RecordAttempt(ctx, u.ID, req.DeviceID, true, "biometric login successful")
	}

	token, _, err := s.tokens.Issue(strconv.FormatInt(u.ID, 10), s.accessTokenTTL, tokenauth.ExtraClaims{
		Email:          u.Email,
		RoleID:         u.RoleID,
		AuthType:       "biometric",
		Provider:       "ios-biometric",
		DeviceID:       req.DeviceID,
		ProviderUserID: req.ProviderUserID,
	})
	if err != nil {
		return BiometricLoginResult{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to issue access token")
	}

	name := u.FullName()
	if name == "" {
		name = "iOS User"
	}
	return BiometricLoginResult{
		Token: token,
		User: BiometricUser{
			ID:     u.ID,
			Email:  u.Email,
			Name:   name,
			RoleID: u.RoleID,
		},
		Provider: "ios-biometric",
	}, nil
}

// findOrProvisionAppleUser resolves the account for a verified Apple
// assertion: first by the stable provider identifier, then by the token
// email, then by the client-supplied email (linking the provider ID to the
// matched account), and finally by provisioning a fresh account.
func (s *Service) findOrProvisionAppleUser(ctx context.Context, req BiometricLoginRequest, claims *apple.IdentityClaims) (user.User, error) {
	u, err := s.users.FindByProviderID(ctx, req.ProviderUserID)
	if err == nil {
		return u, nil
	}
	if err != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up user")
	}

	for _, email := range []string{claims.Email, req.Email} {
		if email == "" {
			continue
		}
		u, err = s.users.FindByEmail(ctx, email)
		if err == user.ErrNotFound {
			continue
		}
		if err != nil {
			return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to look up user")
		}
		if err := s.users.LinkProviderAccount(ctx, u.ID, req.ProviderUserID); err != nil {
			return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to link Apple account")
		}
		slog.Info("linked Apple identity to existing account", "userID", u.ID, "email", email)
		return u, nil
	}

	email := claims.Email
	if email == "" {
		email = req.Email
	}
	if email == "" {
		// Apple withholds the email on repeat authorizations; a placeholder
		// relay-style address keeps the record well-formed.
		email = claims.Subject + "@privaterelay.appleid.com"
	}
	u, err = s.users.CreateFromProvider(ctx, user.CreateFromProviderParams{
		Email:          email,
		ProviderUserID: req.ProviderUserID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		EmailVerified:  claims.EmailVerified,
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to provision user from Apple identity")
	}
	slog.Info("provisioned user from Apple identity", "userID", u.ID, "email", email)
	return u, nil
}
