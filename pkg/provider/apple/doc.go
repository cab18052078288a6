// Package apple verifies Sign in with Apple identity tokens.
//
// Signing keys come from Apple's published key endpoint, cached with a
// bounded refresh interval so an in-progress verification is never
// invalidated mid-flight. Verification checks signature, issuer, audience
// (the configured bundle identifier) and expiry. The package also mints the
// ES256 developer client secret and can redeem authorization codes against
// the token endpoint.
package apple
