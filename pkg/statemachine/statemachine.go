package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State names a state in the machine.
type State string

// Event names a trigger for a state transition.
type Event string

// Guard evaluates whether a transition should be allowed.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action executes side effects during a transition. Returning an error
// prevents the state change.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Transition defines a state change triggered by an event, with optional
// guards and actions.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // all must pass
	Actions []Action // executed in order before the state change
}

// Machine is a finite state machine over a fixed transition table.
// It is safe for concurrent use, though typical callers create one machine
// per workflow attempt and drive it sequentially.
type Machine struct {
	mu          sync.Mutex
	initial     State
	current     State
	transitions map[State]map[Event][]Transition
}

// New builds a machine starting in initial with the given transition table.
func New(initial State, transitions ...Transition) *Machine {
	m := &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event][]Transition),
	}
	for _, t := range transitions {
		if m.transitions[t.From] == nil {
			m.transitions[t.From] = make(map[Event][]Transition)
		}
		// Several transitions may share from/event; guards pick the branch.
		m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	}
	return m
}

// Current returns the machine's current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire attempts the transition triggered by event. The first transition
// whose guards all pass wins; its actions run before the state changes and
// any action error aborts the transition.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: from %q on %q", ErrNoTransition, m.current, event)
	}

	for _, t := range candidates {
		if !guardsPass(ctx, t, m.current, event, data) {
			continue
		}
		for _, action := range t.Actions {
			if err := action(ctx, m.current, t.To, event, data); err != nil {
				return err
			}
		}
		m.current = t.To
		return nil
	}

	return fmt.Errorf("%w: from %q on %q", ErrTransitionRejected, m.current, event)
}

// CanFire reports whether event would transition from the current state.
func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.transitions[m.current][event] {
		if guardsPass(ctx, t, m.current, event, data) {
			return true
		}
	}
	return false
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func guardsPass(ctx context.Context, t Transition, from State, event Event, data any) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
