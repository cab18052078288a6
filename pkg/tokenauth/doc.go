// Package tokenauth issues and verifies the signed access tokens of the
// authentication service.
//
// Tokens are stateless: validity is purely signature + expiry + claim shape.
// Security-sensitive scoping (for example "this token may only reset a
// password") is embedded as the purpose claim and must be checked by the
// consuming use-case; the token service itself does not enforce purpose
// semantics.
package tokenauth
