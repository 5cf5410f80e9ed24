package change

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flowedit/model"
	"flowedit/moml"
)

// ErrEmptyHistory is returned by Undo and Redo when there is nothing to
// replay.
var ErrEmptyHistory = errors.New("nothing to replay")

// Listener observes the outcome of every request run by a queue. Both
// methods are called after the workspace lock has been released.
type Listener interface {
	ChangeExecuted(req *Request)
	ChangeFailed(req *Request, err error)
}

// ErrorReporter emits the single user-visible report of a failed request
// when no listener has claimed it.
type ErrorReporter func(req *Request, err error)

// Queue serializes change requests against one tree root.
type Queue struct {
	root   *model.Element
	undo   *UndoStack
	logger *slog.Logger
	report ErrorReporter

	mu        sync.Mutex
	pending   []*Request
	listeners []Listener
	deferred  bool
	draining  bool
	modified  bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used for request tracing and default error
// reports.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithUndoStack uses s instead of a fresh stack.
func WithUndoStack(s *UndoStack) Option {
	return func(q *Queue) { q.undo = s }
}

// WithErrorReporter replaces the default slog reporter.
func WithErrorReporter(r ErrorReporter) Option {
	return func(q *Queue) { q.report = r }
}

// NewQueue creates a queue for the tree rooted at root.
func NewQueue(root *model.Element, opts ...Option) *Queue {
	q := &Queue{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	if q.undo == nil {
		q.undo = NewUndoStack(DefaultUndoDepth)
	}
	if q.report == nil {
		q.report = func(req *Request, err error) {
			q.logger.Error("change request failed", "description", req.Description, "origin", req.Origin, "error", err)
		}
	}
	return q
}

// Root returns the tree the queue mutates.
func (q *Queue) Root() *model.Element { return q.root }

// UndoStack returns the queue's undo stack.
func (q *Queue) UndoStack() *UndoStack { return q.undo }

// AddListener registers l. Adding the same listener twice has no effect.
func (q *Queue) AddListener(l Listener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, x := range q.listeners {
		if x == l {
			return
		}
	}
	q.listeners = append(q.listeners, l)
}

// RemoveListener unregisters l.
func (q *Queue) RemoveListener(l Listener) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, x := range q.listeners {
		if x == l {
			q.listeners = append(q.listeners[:i], q.listeners[i+1:]...)
			return
		}
	}
}

// SetDeferred holds requests in the queue until ExecutePending is called.
func (q *Queue) SetDeferred(deferred bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deferred = deferred
}

// Modified reports whether a persistent request has executed.
func (q *Queue) Modified() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.modified
}

// ClearModified resets the modified flag, typically after a save.
func (q *Queue) ClearModified() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.modified = false
}

// RequestChange enqueues req and, unless the queue is deferred, drains it.
// A request issued from a listener while the queue drains runs after the
// current one and its error is delivered through the listeners only.
func (q *Queue) RequestChange(ctx context.Context, req *Request) error {
	q.mu.Lock()
	q.pending = append(q.pending, req)
	deferred := q.deferred
	q.mu.Unlock()
	if deferred {
		return nil
	}
	return q.ExecutePending(ctx)
}

// ExecutePending runs every queued request in order and returns the joined
// failures.
func (q *Queue) ExecutePending(ctx context.Context) error {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return nil
	}
	q.draining = true
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	var errs []error
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			break
		}
		req := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := q.execute(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *Queue) snapshotListeners() []Listener {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Listener(nil), q.listeners...)
}

func (q *Queue) execute(ctx context.Context, req *Request) error {
	start := time.Now()
	err := q.run(ctx, req)
	RequestDuration.Observe(time.Since(start).Seconds())

	listeners := q.snapshotListeners()
	if err != nil {
		RequestsTotal.WithLabelValues(outcomeFailed).Inc()
		for _, l := range listeners {
			l.ChangeFailed(req, err)
		}
		if req.MarkErrorReported() {
			q.report(req, err)
		}
		return err
	}

	RequestsTotal.WithLabelValues(outcomeExecuted).Inc()
	q.logger.Debug("change request executed", "description", req.Description, "origin", req.Origin, "structural", req.structural)
	for _, l := range listeners {
		l.ChangeExecuted(req)
	}
	return nil
}

// run executes the script with exclusive access. The undo entry is pushed
// before the lock is released.
func (q *Queue) run(ctx context.Context, req *Request) error {
	ws := q.root.Workspace()
	if ws == nil {
		return fmt.Errorf("%s has no workspace: %w", q.root.FullName(), model.ErrConcurrentAccess)
	}
	if err := ws.Lock(ctx); err != nil {
		return err
	}
	defer ws.Unlock()

	target, err := q.root.Resolve(req.Context)
	if err != nil {
		return fmt.Errorf("%w: context: %w", model.ErrScriptRejected, err)
	}
	res, err := moml.Execute(target, req.Script)
	if err != nil {
		return err
	}
	req.structural = res.Structural

	if req.Persistent {
		q.mu.Lock()
		q.modified = true
		q.mu.Unlock()
	}
	if req.Undoable {
		undo := res.Undo
		if req.UndoScript != "" {
			undo = req.UndoScript
		}
		if undo != "" {
			e := Entry{Context: req.Context, Script: undo, Description: req.Description}
			switch req.replay {
			case replayUndo:
				q.undo.pushRedo(e)
			case replayRedo:
				q.undo.pushUndo(e)
			default:
				q.undo.Push(e)
			}
			depth, _ := q.undo.Stats()
			UndoDepth.Set(float64(depth))
		}
	}
	return nil
}

// Undo pops the latest undo entry and issues it as a new request whose
// compensation lands on the redo stack.
func (q *Queue) Undo(ctx context.Context, origin string) error {
	e, ok := q.undo.PopUndo()
	if !ok {
		return fmt.Errorf("undo: %w", ErrEmptyHistory)
	}
	req := NewRequest(origin, e.Description, e.Context, e.Script)
	req.replay = replayUndo
	return q.RequestChange(ctx, req)
}

// Redo pops the latest redo entry and issues it as a new request whose
// compensation lands back on the undo stack.
func (q *Queue) Redo(ctx context.Context, origin string) error {
	e, ok := q.undo.PopRedo()
	if !ok {
		return fmt.Errorf("redo: %w", ErrEmptyHistory)
	}
	req := NewRequest(origin, e.Description, e.Context, e.Script)
	req.replay = replayRedo
	return q.RequestChange(ctx, req)
}
