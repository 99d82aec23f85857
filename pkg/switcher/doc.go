// Package switcher coordinates atomic tenant switches.
//
// Every attempt is a short state machine: requested, lock acquired,
// validating, applying, committed — or one of the terminal failures (lock
// denied, validation failed, apply failed). The distributed switch lock is
// held across validate and apply, so the session record's active tenant is
// only ever mutated under mutual exclusion; the lock's TTL bounds the harm
// of a crashed attempt.
//
// Lock acquisition is non-blocking by contract: a concurrent attempt for
// the same user is told "switch already in progress" immediately and may
// retry later. Attempts for different users never contend.
package switcher
