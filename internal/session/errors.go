package session

import "errors"

var (
	// ErrNotFound is returned when a session id is unknown to the registry.
	ErrNotFound = errors.New("session not found")

	// ErrSessionSealed is returned when a fragment or control event arrives
	// after finalization has started. Sealed traffic is dropped, not surfaced
	// to clients.
	ErrSessionSealed = errors.New("session sealed")

	// ErrDuplicateInit is returned when the id generator collides with an
	// existing session.
	ErrDuplicateInit = errors.New("session id already exists")

	// ErrInvalidTransition is returned for a control event that has no edge
	// from the session's current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
