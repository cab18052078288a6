// Package resetcode holds the one-time numeric codes that authorize a
// password reset before token issuance.
//
// Codes are stored in a process-local TTL cache keyed by email, one entry per
// email, overwritten whole on re-issue. An entry is consumable only while it
// is unexpired and unused; consumption is single-use and a replay within the
// TTL window still fails.
package resetcode
