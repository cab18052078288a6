// Package errors provides structured error handling with error codes for the
// authentication service.
//
// Every error surfaced by a service carries a stable ErrorCode that the
// transport layer maps to an HTTP status. Internal diagnostic detail travels
// in the wrapped error and is logged, never returned to clients on
// enumeration-sensitive flows.
//
// Creating errors:
//
//	err := errors.New(errors.ErrCodeInvalidCredentials, "invalid credentials")
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to query user")
//
// Inspecting errors:
//
//	if errors.IsCode(err, errors.ErrCodeResetCodeInvalid) { ... }
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
package errors
