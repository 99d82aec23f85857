// Package statemachine implements a small finite state machine with guarded
// transitions. The tenant-switch coordinator builds one machine per switch
// attempt so every attempt's progression through its lifecycle is explicit
// and illegal shortcuts (for example applying a switch without holding the
// lock) are structurally impossible.
package statemachine
