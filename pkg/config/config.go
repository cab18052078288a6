package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port string `env:"SERVER_PORT" env-default:"8080"`
}

// Addr returns the listen address in host:port form
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// JWTConfig holds token signing settings. The TTL accepts bare seconds
// ("900") or a duration string ("15m").
type JWTConfig struct {
	Secret string `env:"JWT_SECRET" env-required:"true"`
	Issuer string `env:"JWT_ISSUER" env-default:"clinicore-auth"`
	TTL    string `env:"JWT_EXPIRES_IN" env-default:"15m"`
}

// EmailConfig holds SMTP settings for outbound notifications
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST"`
	Port     int    `env:"EMAIL_PORT" env-default:"587"`
	Username string `env:"EMAIL_USERNAME"`
	Password string `env:"EMAIL_PASSWORD"`
	From     string `env:"EMAIL_FROM"`
	UseTLS   bool   `env:"EMAIL_TLS" env-default:"true"`
}

// Enabled reports whether outbound email is configured
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// GoogleConfig holds the Google federated login settings
type GoogleConfig struct {
	// ClientIDs is a comma-separated allow-list of OAuth client IDs. When
	// empty the audience check is skipped (development fallback).
	ClientIDs string `env:"GOOGLE_CLIENT_IDS"`
	Enabled   bool   `env:"GOOGLE_LOGIN_ENABLED" env-default:"false"`
}

// Audiences returns the configured client IDs as a slice
func (c GoogleConfig) Audiences() []string {
	if strings.TrimSpace(c.ClientIDs) == "" {
		return nil
	}
	parts := strings.Split(c.ClientIDs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// AppleConfig holds the Sign in with Apple settings
type AppleConfig struct {
	BundleID   string `env:"APPLE_BUNDLE_ID"`
	TeamID     string `env:"APPLE_TEAM_ID"`
	KeyID      string `env:"APPLE_KEY_ID"`
	PrivateKey string `env:"APPLE_PRIVATE_KEY"`
}

// NormalizedPrivateKey returns the PEM key with literal "\n" sequences
// expanded. Deployment tooling often flattens multi-line secrets.
func (c AppleConfig) NormalizedPrivateKey() string {
	return strings.ReplaceAll(c.PrivateKey, `\n`, "\n")
}

// Enabled reports whether any Apple setting is present
func (c AppleConfig) Enabled() bool {
	return c.BundleID != "" || c.TeamID != "" || c.KeyID != "" || c.PrivateKey != ""
}

// DatabaseConfig holds the storage settings. An empty URL selects the
// in-memory repositories.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

// Config is the full environment surface of the service
type Config struct {
	Server   ServerConfig
	JWT      JWTConfig
	Email    EmailConfig
	Google   GoogleConfig
	Apple    AppleConfig
	Database DatabaseConfig
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	return cfg, nil
}
