// Package fingerprint derives a short stable token from client request
// signals (User-Agent, Accept headers, client IP, header order).
//
// The token serves two purposes: request-scoped cache entries are validated
// against it so a cached principal is never served to a client that looks
// different from the one it was fetched for, and the anomaly detector uses
// it to spot fingerprint collisions across users.
package fingerprint
