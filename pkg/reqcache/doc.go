// Package reqcache provides a cache whose lifetime is exactly one inbound
// request.
//
// The original class of bug this module exists to eliminate is a
// process-wide cache of authentication state: one user's resolved identity
// served to another user sharing the process. The fix is structural, not a
// convention — a Cache can only be obtained from New, the HTTP middleware
// calls New once per request, and nothing in this module holds a Cache in a
// package variable.
//
// Entries move through three temporal regimes relative to their fetch time:
// fresh (served unconditionally), stale (served only as a fallback while the
// upstream is rate limited), and void (purged, never served). Each entry
// also carries the client fingerprint it was fetched for; a mismatch is
// treated as a miss and flagged to the diagnostic recorder.
package reqcache
