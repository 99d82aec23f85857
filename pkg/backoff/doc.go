// Package backoff provides pure delay calculation for retry loops.
// Strategies hold no state and perform no sleeping; callers decide how to
// wait (timer, channel, or recording a not-before timestamp).
package backoff
