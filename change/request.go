// Package change serializes change scripts against a model tree, records
// their compensations on an undo stack and notifies listeners.
package change

import (
	"sync/atomic"
)

type replayKind int

const (
	replayNone replayKind = iota
	replayUndo
	replayRedo
)

// Request is one atomic change script issued against a tree.
type Request struct {
	// Origin identifies the issuer. Listeners compare it by value to skip
	// their own changes.
	Origin      string
	Description string
	// Context is the full name of the element the script runs in. Empty
	// means the queue's root.
	Context string
	Script  string
	// Persistent requests mark the document modified.
	Persistent bool
	Undoable   bool
	// UndoScript, when set, replaces the compensation generated by the
	// executor.
	UndoScript string

	replay        replayKind
	structural    bool
	errorReported atomic.Bool
}

// NewRequest creates a persistent, undoable request.
func NewRequest(origin, description, context, script string) *Request {
	return &Request{
		Origin:      origin,
		Description: description,
		Context:     context,
		Script:      script,
		Persistent:  true,
		Undoable:    true,
	}
}

// Structural reports whether the executed script changed the tree's
// structure. It is meaningful once the request has executed.
func (r *Request) Structural() bool { return r.structural }

// MarkErrorReported claims the single failure report for r. It returns true
// only for the first caller.
func (r *Request) MarkErrorReported() bool {
	return r.errorReported.CompareAndSwap(false, true)
}

// ErrorReported reports whether a failure of r has been reported.
func (r *Request) ErrorReported() bool { return r.errorReported.Load() }
