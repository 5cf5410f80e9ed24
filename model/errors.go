package model

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component that mutates the tree.
var (
	// ErrScriptRejected is returned when a change script cannot be applied.
	ErrScriptRejected = errors.New("script rejected")
	// ErrNonScriptable is returned when a direct, non-scripted mutation fails.
	ErrNonScriptable = errors.New("non-scriptable mutation failed")
	// ErrOrphanReference is returned when a location cannot be propagated.
	ErrOrphanReference = errors.New("orphan reference")
	// ErrConcurrentAccess is returned when exclusive access cannot be obtained.
	ErrConcurrentAccess = errors.New("concurrent access denied")

	ErrNameCollision = errors.New("name collision")
	ErrNotFound      = errors.New("not found")
	ErrInvalidLink   = errors.New("invalid link")
	ErrInvalidName   = errors.New("invalid name")
)

// FatalError marks a broken tree invariant. It is not user-recoverable.
type FatalError struct {
	Element string
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal model error at %s: %v", e.Element, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
