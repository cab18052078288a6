// Package device tracks the biometric devices bound to user accounts.
//
// Registration follows trust-on-first-use: the first successful biometric
// login for a (user, device) pair registers the device, subsequent logins
// refresh its last-used stamp. Devices are never auto-deleted — revocation
// is an explicit flag, and a revoked or inactive device is not usable.
// Every login attempt, successful or not, is recordable for audit.
package device
