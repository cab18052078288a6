// Package auth orchestrates the authentication use-cases: password login,
// the forgot/verify/reset password flow, Google federated login and Apple
// biometric login with device binding.
//
// The package composes the credential, token, reset-code, provider and
// device packages behind a single Service; it holds the cross-cutting
// security rules (anti-enumeration responses, single-use codes,
// purpose-scoped reset tokens) while the leaf packages stay mechanism-only.
package auth
