// Package google verifies Google-issued OAuth2 ID tokens.
//
// Verification is delegated to signature checks against Google's published
// key set, plus issuer and expiry validation. The audience is restricted to
// the configured client-ID allow-list; an empty list skips the check, which
// is an explicit development fallback and must be guarded by configuration
// in production.
package google
