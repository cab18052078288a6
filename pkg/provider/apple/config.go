package apple

import (
	"github.com/clinicore/auth-service/pkg/errors"
)

// Config holds the Apple developer credentials required for Sign in with
// Apple. All four fields are required for the biometric flow; any missing
// one fails fast before a provider call is attempted.
type Config struct {
	BundleID   string // audience of identity tokens
	TeamID     string // issuer of the developer client secret
	KeyID      string // kid header of the developer client secret
	PrivateKey string // PEM-encoded ES256 private key
}

// Validate reports the first missing credential.
func (c Config) Validate() error {
	switch {
	case c.BundleID == "":
		return errors.New(errors.ErrCodeProviderConfigMissing, "APPLE_BUNDLE_ID not configured")
	case c.TeamID == "":
		return errors.New(errors.ErrCodeProviderConfigMissing, "APPLE_TEAM_ID not configured")
	case c.KeyID == "":
		return errors.New(errors.ErrCodeProviderConfigMissing, "APPLE_KEY_ID not configured")
	case c.PrivateKey == "":
		return errors.New(errors.ErrCodeProviderConfigMissing, "APPLE_PRIVATE_KEY not configured")
	}
	return nil
}
