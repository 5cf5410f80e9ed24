// Package editor turns gestures on a diagram view into change requests:
// deletion, hierarchy extraction, copy and paste, and dragging.
package editor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"flowedit/change"
	"flowedit/config"
	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/selection"
)

// ErrEmptySelection is returned by gestures that need a selection.
var ErrEmptySelection = errors.New("nothing selected")

// Editor binds a view to a graph adapter and its change queue.
type Editor struct {
	adapter   *graphmodel.Adapter
	queue     *change.Queue
	view      diagram.View
	settings  config.EditorConfig
	origin    string
	clipboard Clipboard
	logger    *slog.Logger
	drag      *Drag
}

// Option configures an Editor.
type Option func(*Editor)

// WithClipboard replaces the in-memory clipboard.
func WithClipboard(c Clipboard) Option {
	return func(e *Editor) { e.clipboard = c }
}

// WithLogger sets the editor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New creates an editor over a's graph as shown by view.
func New(a *graphmodel.Adapter, view diagram.View, settings config.EditorConfig, opts ...Option) *Editor {
	e := &Editor{
		adapter:   a,
		queue:     a.Queue(),
		view:      view,
		settings:  settings,
		origin:    uuid.NewString(),
		clipboard: &MemoryClipboard{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.drag = &Drag{ed: e}
	return e
}

// Origin is the tag carried by the editor's requests.
func (e *Editor) Origin() string { return e.origin }

// View returns the view the editor acts on.
func (e *Editor) View() diagram.View { return e.view }

// Adapter returns the graph the editor edits.
func (e *Editor) Adapter() *graphmodel.Adapter { return e.adapter }

// Clipboard returns the editor's clipboard.
func (e *Editor) Clipboard() Clipboard { return e.clipboard }

// Drag returns the drag state machine.
func (e *Editor) Drag() *Drag { return e.drag }

// Selection resolves the view's current selection.
func (e *Editor) Selection() selection.Selection {
	return selection.Resolve(e.adapter, e.view.Selection())
}

func (e *Editor) root() *model.Element { return e.adapter.Root() }

// rel names x relative to the graph root.
func (e *Editor) rel(x *model.Element) string {
	name, err := x.NameRelativeTo(e.root())
	if err != nil {
		return x.FullName()
	}
	return name
}

func (e *Editor) request(description, script string) *change.Request {
	return change.NewRequest(e.origin, description, "", script)
}

// Undo replays the latest undo entry.
func (e *Editor) Undo(ctx context.Context) error {
	return e.queue.Undo(ctx, e.origin)
}

// Redo replays the latest redo entry.
func (e *Editor) Redo(ctx context.Context) error {
	return e.queue.Redo(ctx, e.origin)
}
