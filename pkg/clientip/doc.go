// Package clientip extracts the originating client IP address from HTTP
// requests behind common reverse proxy setups. The address feeds the client
// fingerprint and the anomaly detector's per-address heuristics.
package clientip
