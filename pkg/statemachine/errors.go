package statemachine

import "errors"

var (
	// ErrNoTransition indicates no transition exists for the state/event pair.
	ErrNoTransition = errors.New("no transition available")

	// ErrTransitionRejected indicates every candidate transition was blocked
	// by its guards.
	ErrTransitionRejected = errors.New("transition rejected by guards")
)
