package graphmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"flowedit/change"
	"flowedit/model"
	"flowedit/moml"
)

// ErrLocationPending is returned by LocationOf while the request creating
// the location is queued but has not run yet.
var ErrLocationPending = errors.New("location creation pending")

// EventKind distinguishes graph events.
type EventKind int

const (
	// StructureChanged means nodes or links were added or removed.
	StructureChanged EventKind = iota
	// NodeChanged means a node's location moved.
	NodeChanged
)

// Event is delivered to graph listeners.
type Event struct {
	Kind    EventKind
	Root    *model.Element
	Element *model.Element
}

// EventListener receives graph events.
type EventListener interface {
	GraphChanged(ev Event)
}

// Dispatcher runs fn on the goroutine that owns the view.
type Dispatcher interface {
	Invoke(fn func())
}

// DirectDispatcher runs functions immediately on the calling goroutine.
type DirectDispatcher struct{}

func (DirectDispatcher) Invoke(fn func()) { fn() }

// Adapter presents the tree under a queue's root as a graph, keeps derived
// links in sync with executed change requests and emits graph events.
type Adapter struct {
	root       *model.Element
	queue      *change.Queue
	origin     string
	dispatcher Dispatcher
	logger     *slog.Logger
	report     change.ErrorReporter

	mu              sync.Mutex
	dispatchEnabled bool
	links           map[*model.Element][]*Link
	partials        map[*model.Element][]*Link
	signature       string
	lastID          uint64
	pending         map[*model.Element]*change.Request
	listeners       []EventListener
	watchers        map[*model.Element]*locationWatcher
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDispatcher routes value notifications through d.
func WithDispatcher(d Dispatcher) Option {
	return func(a *Adapter) { a.dispatcher = d }
}

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithErrorReporter sets how failed requests are reported.
func WithErrorReporter(r change.ErrorReporter) Option {
	return func(a *Adapter) { a.report = r }
}

// NewAdapter creates an adapter over q's root and registers it with q.
func NewAdapter(ctx context.Context, q *change.Queue, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		root:            q.Root(),
		queue:           q,
		origin:          uuid.NewString(),
		dispatcher:      DirectDispatcher{},
		logger:          slog.Default(),
		dispatchEnabled: true,
		links:           make(map[*model.Element][]*Link),
		partials:        make(map[*model.Element][]*Link),
		pending:         make(map[*model.Element]*change.Request),
		watchers:        make(map[*model.Element]*locationWatcher),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.report == nil {
		a.report = func(req *change.Request, err error) {
			a.logger.Error("change request failed", "description", req.Description, "error", err)
		}
	}
	if _, err := a.recompute(ctx); err != nil {
		return nil, err
	}
	q.AddListener(a)
	return a, nil
}

// Root returns the graph root.
func (a *Adapter) Root() *model.Element { return a.root }

// Origin is the tag carried by requests the adapter issues itself.
func (a *Adapter) Origin() string { return a.origin }

// Queue returns the queue the adapter listens to.
func (a *Adapter) Queue() *change.Queue { return a.queue }

// AddListener registers l for graph events.
func (a *Adapter) AddListener(l EventListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// RemoveListener unregisters l.
func (a *Adapter) RemoveListener(l EventListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, x := range a.listeners {
		if x == l {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			return
		}
	}
}

// SetDispatchEnabled turns graph events on or off.
func (a *Adapter) SetDispatchEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dispatchEnabled = enabled
}

// DispatchEnabled reports whether graph events are delivered.
func (a *Adapter) DispatchEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dispatchEnabled
}

// WithoutDispatch runs fn with events suppressed. The previous setting is
// restored when fn returns or panics.
func (a *Adapter) WithoutDispatch(fn func() error) error {
	a.mu.Lock()
	prev := a.dispatchEnabled
	a.dispatchEnabled = false
	a.mu.Unlock()
	defer a.SetDispatchEnabled(prev)
	return fn()
}

func (a *Adapter) emit(ev Event) {
	a.mu.Lock()
	if !a.dispatchEnabled {
		a.mu.Unlock()
		return
	}
	listeners := append([]EventListener(nil), a.listeners...)
	a.mu.Unlock()
	for _, l := range listeners {
		l.GraphChanged(ev)
	}
}

// FireStructureChanged recomputes derived structure and emits a structure
// event whether or not anything changed.
func (a *Adapter) FireStructureChanged(ctx context.Context) {
	if _, err := a.recompute(ctx); err != nil {
		a.logger.Warn("graph recompute failed", "error", err)
	}
	a.emit(Event{Kind: StructureChanged, Root: a.root})
}

// ChangeExecuted implements change.Listener.
func (a *Adapter) ChangeExecuted(req *change.Request) {
	a.clearPending(req)
	if req.Origin == a.origin || !req.Structural() {
		return
	}
	a.refresh(context.Background())
}

// ChangeFailed implements change.Listener. The failure is reported at most
// once and the derived structure is recomputed, since the request may have
// been only partly applied.
func (a *Adapter) ChangeFailed(req *change.Request, err error) {
	a.clearPending(req)
	if req.MarkErrorReported() {
		a.report(req, err)
	}
	a.refresh(context.Background())
}

func (a *Adapter) clearPending(req *change.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for e, r := range a.pending {
		if r == req {
			delete(a.pending, e)
		}
	}
}

func (a *Adapter) refresh(ctx context.Context) {
	changed, err := a.recompute(ctx)
	if err != nil {
		a.logger.Warn("graph recompute failed", "error", err)
		return
	}
	if changed {
		a.emit(Event{Kind: StructureChanged, Root: a.root})
	}
}

// recompute derives the links of every composite under the root and
// reports whether the graph's signature changed.
func (a *Adapter) recompute(ctx context.Context) (bool, error) {
	ws := a.root.Workspace()
	if err := ws.RLock(ctx); err != nil {
		return false, err
	}
	defer ws.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	prev := make(map[linkKey]*Link)
	for _, list := range a.links {
		for _, l := range list {
			prev[l.key()] = l
		}
	}
	nextID := func() uint64 {
		a.lastID++
		return a.lastID
	}
	links := make(map[*model.Element][]*Link)
	locations := make(map[*model.Element]bool)
	a.root.Walk(func(e *model.Element) {
		if e.Kind() == model.KindLocation && e.Container() != nil {
			locations[e] = true
		}
		if !e.IsComposite() {
			return
		}
		if derived := deriveLinks(e, prev, nextID); len(derived) > 0 {
			links[e] = derived
		}
	})
	for c, list := range a.partials {
		if !a.root.DeepContains(c) {
			delete(a.partials, c)
			continue
		}
		kept := list[:0]
		for _, l := range list {
			if (l.Head == nil || a.root.DeepContains(l.Head)) && (l.Tail == nil || a.root.DeepContains(l.Tail)) {
				kept = append(kept, l)
			}
		}
		a.partials[c] = kept
	}
	a.links = links
	a.syncWatchers(locations)

	sig := a.signatureLocked()
	changed := sig != a.signature
	a.signature = sig
	return changed, nil
}

func (a *Adapter) signatureLocked() string {
	var lines []string
	a.root.Walk(func(e *model.Element) {
		if n, ok := NodeFor(e); ok && n.Element == e {
			lines = append(lines, "node "+n.Kind.String()+" "+e.FullName())
		}
	})
	for _, list := range a.links {
		for _, l := range list {
			lines = append(lines, "link "+l.String())
		}
	}
	for _, list := range a.partials {
		for _, l := range list {
			lines = append(lines, "partial "+strconv.FormatUint(l.id, 10))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Nodes returns the nodes shown at the graph root.
func (a *Adapter) Nodes() []Node {
	return a.NodesIn(a.root)
}

// NodesIn returns the nodes shown inside composite c: its own ports, the
// location nodes of located children with the ports of located entities,
// and relation vertices.
func (a *Adapter) NodesIn(c *model.Element) []Node {
	var out []Node
	add := func(e *model.Element) {
		if n, ok := Classify(e); ok {
			out = append(out, n)
		}
	}
	for _, p := range c.Ports() {
		add(p)
	}
	for _, child := range c.Children() {
		switch child.Kind() {
		case model.KindEntity:
			if child.ClassDef {
				continue
			}
			if loc := child.Location(); loc != nil {
				add(loc)
				for _, p := range child.Ports() {
					add(p)
				}
			}
		case model.KindAttribute:
			if loc := child.Location(); loc != nil {
				add(loc)
			}
		case model.KindRelation:
			if v := Vertex(child); v != nil {
				add(v)
			}
		}
	}
	return out
}

// Links returns the links at the graph root.
func (a *Adapter) Links() []*Link {
	return a.LinksIn(a.root)
}

// LinksIn returns the derived and partial links of composite c.
func (a *Adapter) LinksIn(c *model.Element) []*Link {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := append([]*Link(nil), a.links[c]...)
	return append(out, a.partials[c]...)
}

// LinksAt returns every link with an end at or below e.
func (a *Adapter) LinksAt(e *model.Element) []*Link {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*Link
	for _, m := range []map[*model.Element][]*Link{a.links, a.partials} {
		for _, list := range m {
			for _, l := range list {
				if l.Touches(e) {
					out = append(out, l)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// AddPartialLink records a view-created link inside composite c with at
// most one end present. It has no relation and no semantic object.
func (a *Adapter) AddPartialLink(c, head, tail *model.Element) (*Link, error) {
	if head != nil && tail != nil {
		return nil, fmt.Errorf("a partial link needs a missing end: %w", model.ErrInvalidLink)
	}
	a.mu.Lock()
	a.lastID++
	l := &Link{Head: head, Tail: tail, id: a.lastID}
	a.partials[c] = append(a.partials[c], l)
	a.signature = a.signatureLocked()
	a.mu.Unlock()
	a.emit(Event{Kind: StructureChanged, Root: a.root})
	return l, nil
}

// Disconnect removes l directly, bypassing the change queue. It is the only
// non-scriptable mutation and is not undoable. Failures wrap
// model.ErrNonScriptable.
func (a *Adapter) Disconnect(ctx context.Context, l *Link) error {
	if l.Relation == nil {
		a.mu.Lock()
		removed := false
		for c, list := range a.partials {
			for i, x := range list {
				if x == l {
					a.partials[c] = append(list[:i:i], list[i+1:]...)
					removed = true
					break
				}
			}
		}
		a.mu.Unlock()
		if !removed {
			return fmt.Errorf("%w: %s is not in the graph", model.ErrNonScriptable, l)
		}
		a.refresh(ctx)
		return nil
	}

	ws := a.root.Workspace()
	if err := ws.Lock(ctx); err != nil {
		return fmt.Errorf("%w: %w", model.ErrNonScriptable, err)
	}
	err := unlinkEnds(l)
	ws.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrNonScriptable, err)
	}
	a.refresh(ctx)
	return nil
}

// unlinkEnds cuts the model links behind l. A vertex end stands for its
// relation.
func unlinkEnds(l *Link) error {
	var errs []error
	for _, end := range []*model.Element{l.Head, l.Tail} {
		if end.Kind() == model.KindLocation {
			end = end.Container()
		}
		if end == l.Relation || !model.IsLinked(end, l.Relation) {
			continue
		}
		if err := model.Unlink(end, l.Relation); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LocationOf returns e's location attribute, creating it when absent. The
// location is also created on every element deferring to e, directly or
// through other deferrers. It must not be called while holding workspace
// access. A location that cannot be propagated is a *model.FatalError.
func (a *Adapter) LocationOf(ctx context.Context, e *model.Element) (*model.Element, error) {
	if loc := e.Location(); loc != nil {
		return loc, nil
	}
	a.mu.Lock()
	if _, ok := a.pending[e]; ok {
		a.mu.Unlock()
		return nil, ErrLocationPending
	}
	script, err := a.locationScript(e)
	if err != nil {
		a.mu.Unlock()
		return nil, &model.FatalError{Element: e.FullName(), Err: fmt.Errorf("%w: %w", model.ErrOrphanReference, err)}
	}
	req := change.NewRequest(a.origin, "create location", "", script)
	req.Persistent = false
	req.Undoable = false
	a.pending[e] = req
	a.mu.Unlock()

	if err := a.queue.RequestChange(ctx, req); err != nil {
		return nil, &model.FatalError{Element: e.FullName(), Err: fmt.Errorf("%w: %w", model.ErrOrphanReference, err)}
	}
	if loc := e.Location(); loc != nil {
		return loc, nil
	}
	return nil, ErrLocationPending
}

func (a *Adapter) locationScript(e *model.Element) (string, error) {
	var b moml.Builder
	seen := make(map[*model.Element]bool)
	queue := []*model.Element{e}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if seen[x] {
			continue
		}
		seen[x] = true
		queue = append(queue, x.Deferrers()...)
		if x.Location() != nil {
			continue
		}
		rel, err := x.NameRelativeTo(a.root)
		if err != nil {
			return "", err
		}
		name := model.LocationName
		if rel != "" {
			name = rel + "." + model.LocationName
		}
		b.Element("property", "name", name, "class", model.ClassLocation, "value", model.FormatPoint(0, 0))
	}
	return moml.Group(b.String()), nil
}
