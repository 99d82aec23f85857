// Package requestid assigns each inbound request a stable identifier and
// carries it through context. The request ID keys every request-scoped cache
// instance and every diagnostic event, so correlation between the two is
// always possible.
package requestid
