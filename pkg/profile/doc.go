// Package profile handles account registration and profile management,
// separate from the authentication flows so the auth service never touches
// profile fields.
package profile
