// Package model holds the containment tree edited by flowedit: entities,
// ports, relations, attributes and locations, each uniquely named among its
// siblings.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies what an Element is.
type Kind int

const (
	KindEntity Kind = iota
	KindPort
	KindRelation
	KindAttribute
	KindLocation
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindPort:
		return "port"
	case KindRelation:
		return "relation"
	case KindAttribute:
		return "property"
	case KindLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Well-known names and classes.
const (
	LocationName          = "_location"
	VertexName            = "vertex"
	ClassLocation         = "Location"
	ClassRelativeLocation = "RelativeLocation"
	ClassParameterPort    = "ParameterPort"
	ClassPortParameter    = "PortParameter"

	// parameterPortSuffix ends the name of a ParameterPort after the name
	// of the port parameter it stands for.
	parameterPortSuffix = "Port"
)

// Element is a named node in the containment tree.
type Element struct {
	name      string
	kind      Kind
	container *Element
	children  []*Element
	ws        *Workspace

	// Class is the declared class of the element.
	Class string

	// Entity fields.
	ClassDef  bool
	prototype *Element
	deferrers []*Element

	// Port fields.
	Input     bool
	Output    bool
	Multiport bool

	// Attribute value.
	Value string

	// Location fields. With RelativeTo set, X and Y are an offset from the
	// sibling named by RelativeTo.
	X, Y           float64
	RelativeTo     string
	RelativeToKind string

	linked    []*Element
	listeners []ValueListener
}

// ValueListener is notified when an element's value or coordinates change.
type ValueListener interface {
	ValueChanged(e *Element)
}

// NewTopLevel creates a root entity with its own workspace.
func NewTopLevel(name, class string) *Element {
	return &Element{
		name:  name,
		kind:  KindEntity,
		Class: class,
		ws:    NewWorkspace(),
	}
}

// New creates a detached element.
func New(kind Kind, name, class string) *Element {
	return &Element{name: name, kind: kind, Class: class}
}

// NewLocation creates a detached absolute location.
func NewLocation(name string, x, y float64) *Element {
	return &Element{name: name, kind: KindLocation, Class: ClassLocation, X: x, Y: y}
}

func (e *Element) Name() string        { return e.name }
func (e *Element) Kind() Kind          { return e.kind }
func (e *Element) Container() *Element { return e.container }

// Children returns a copy of the ordered children.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Child returns the direct child with the given name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Index returns the position of e among its siblings, or -1 for a root.
func (e *Element) Index() int {
	if e.container == nil {
		return -1
	}
	for i, c := range e.container.children {
		if c == e {
			return i
		}
	}
	return -1
}

// Toplevel walks containers up to the root.
func (e *Element) Toplevel() *Element {
	t := e
	for t.container != nil {
		t = t.container
	}
	return t
}

// Workspace returns the workspace of the tree, or nil for a detached tree.
func (e *Element) Workspace() *Workspace {
	return e.Toplevel().ws
}

// FullName returns the dotted path from the root, with a leading dot.
func (e *Element) FullName() string {
	if e.container == nil {
		return "." + e.name
	}
	return e.container.FullName() + "." + e.name
}

// NameRelativeTo returns the dotted name of e as seen from ctx.
func (e *Element) NameRelativeTo(ctx *Element) (string, error) {
	if e == ctx {
		return "", nil
	}
	var parts []string
	for t := e; t != nil; t = t.container {
		if t == ctx {
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			return strings.Join(parts, "."), nil
		}
		parts = append(parts, t.name)
	}
	return "", fmt.Errorf("%s is not inside %s: %w", e.FullName(), ctx.FullName(), ErrNotFound)
}

// DeepContains reports whether other is e or lies below e.
func (e *Element) DeepContains(other *Element) bool {
	for t := other; t != nil; t = t.container {
		if t == e {
			return true
		}
	}
	return false
}

// Resolve looks up a dotted name relative to e. A leading dot resolves from
// the top level, whose own name must come first.
func (e *Element) Resolve(name string) (*Element, error) {
	if name == "" {
		return e, nil
	}
	start := e
	if strings.HasPrefix(name, ".") {
		start = e.Toplevel()
		rest := strings.TrimPrefix(name, ".")
		head, tail, _ := strings.Cut(rest, ".")
		if head != start.name {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		if tail == "" {
			return start, nil
		}
		name = tail
	}
	cur := start
	for _, part := range strings.Split(name, ".") {
		next := cur.Child(part)
		if next == nil {
			return nil, fmt.Errorf("%s in %s: %w", name, e.FullName(), ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

// ValidName reports whether name can be used for an element.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ". \t\n")
}

func (e *Element) accepts(kind Kind) bool {
	switch e.kind {
	case KindEntity:
		return true
	case KindPort, KindRelation, KindAttribute:
		return kind == KindAttribute || kind == KindLocation
	default:
		return false
	}
}

// AddChild attaches a detached element as the last child of e.
func (e *Element) AddChild(child *Element) error {
	if child.container != nil {
		return fmt.Errorf("%s already has a container: %w", child.name, ErrInvalidName)
	}
	if !ValidName(child.name) {
		return fmt.Errorf("%q: %w", child.name, ErrInvalidName)
	}
	if !e.accepts(child.kind) {
		return fmt.Errorf("%s cannot contain a %s: %w", e.FullName(), child.kind, ErrInvalidName)
	}
	if e.Child(child.name) != nil {
		return fmt.Errorf("%s in %s: %w", child.name, e.FullName(), ErrNameCollision)
	}
	child.container = e
	child.ws = nil
	e.children = append(e.children, child)
	return nil
}

// Remove detaches child from e. Links between the removed subtree and the
// rest of the tree are cut on both sides; links inside the subtree stay.
func (e *Element) Remove(child *Element) error {
	idx := child.Index()
	if child.container != e || idx < 0 {
		return fmt.Errorf("%s in %s: %w", child.name, e.FullName(), ErrNotFound)
	}
	child.walk(func(d *Element) {
		for _, other := range d.Linked() {
			if !child.DeepContains(other) {
				unlinkBoth(d, other)
			}
		}
		if d.prototype != nil && !child.DeepContains(d.prototype) {
			d.prototype.removeDeferrer(d)
			d.prototype = nil
		}
		for _, def := range d.Deferrers() {
			if !child.DeepContains(def) {
				def.prototype = nil
				d.removeDeferrer(def)
			}
		}
	})
	e.children = append(e.children[:idx], e.children[idx+1:]...)
	child.container = nil
	return nil
}

// SetName renames e, keeping sibling names unique.
func (e *Element) SetName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if e.container != nil {
		if other := e.container.Child(name); other != nil && other != e {
			return fmt.Errorf("%s in %s: %w", name, e.container.FullName(), ErrNameCollision)
		}
	}
	e.name = name
	return nil
}

// UniqueName returns base if no child of e uses it, otherwise base followed
// by the smallest free number starting at 2.
func (e *Element) UniqueName(base string) string {
	if e.Child(base) == nil {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + strconv.Itoa(i)
		if e.Child(candidate) == nil {
			return candidate
		}
	}
}

func (e *Element) walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walk(fn)
	}
}

// Walk visits e and its descendants in declaration order.
func (e *Element) Walk(fn func(*Element)) {
	e.walk(fn)
}

func (e *Element) childrenOf(kinds ...Kind) []*Element {
	var out []*Element
	for _, c := range e.children {
		for _, k := range kinds {
			if c.kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Entities returns the contained entities that are not class definitions.
func (e *Element) Entities() []*Element {
	var out []*Element
	for _, c := range e.childrenOf(KindEntity) {
		if !c.ClassDef {
			out = append(out, c)
		}
	}
	return out
}

// ClassDefinitions returns the contained class definitions.
func (e *Element) ClassDefinitions() []*Element {
	var out []*Element
	for _, c := range e.childrenOf(KindEntity) {
		if c.ClassDef {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) Ports() []*Element     { return e.childrenOf(KindPort) }
func (e *Element) Relations() []*Element { return e.childrenOf(KindRelation) }

// Attributes returns attributes and locations.
func (e *Element) Attributes() []*Element { return e.childrenOf(KindAttribute, KindLocation) }

// AttributeList returns the attribute children of one kind.
func (e *Element) AttributeList(kind Kind) []*Element {
	if kind != KindAttribute && kind != KindLocation {
		return nil
	}
	return e.childrenOf(kind)
}

// Location returns the first location attribute of e, or nil.
func (e *Element) Location() *Element {
	for _, c := range e.children {
		if c.kind == KindLocation {
			return c
		}
	}
	return nil
}

// IsComposite reports whether e is an entity that can hold a subgraph.
func (e *Element) IsComposite() bool {
	if e.kind != KindEntity {
		return false
	}
	if e.container == nil || strings.Contains(e.Class, "Composite") {
		return true
	}
	return len(e.childrenOf(KindEntity, KindRelation)) > 0
}

// IsParameterPort reports whether e is the port side of a port parameter.
func (e *Element) IsParameterPort() bool {
	return e.kind == KindPort && e.Class == ClassParameterPort
}

// PairedParameter returns the port parameter a ParameterPort stands for: the
// sibling attribute of class PortParameter named like the port without its
// "Port" suffix. It returns nil when there is none.
func (e *Element) PairedParameter() *Element {
	if !e.IsParameterPort() || e.container == nil {
		return nil
	}
	name, ok := strings.CutSuffix(e.name, parameterPortSuffix)
	if !ok || name == "" {
		return nil
	}
	p := e.container.Child(name)
	if p == nil || p.kind != KindAttribute || p.Class != ClassPortParameter {
		return nil
	}
	return p
}

// ParameterPort returns the port shown for a port parameter, or nil.
func (e *Element) ParameterPort() *Element {
	if e.kind != KindAttribute || e.Class != ClassPortParameter || e.container == nil {
		return nil
	}
	if p := e.container.Child(e.name + parameterPortSuffix); p != nil && p.PairedParameter() == e {
		return p
	}
	return nil
}

// Prototype returns the class definition e defers to, if any.
func (e *Element) Prototype() *Element { return e.prototype }

// SetPrototype makes e defer to proto.
func (e *Element) SetPrototype(proto *Element) {
	if e.prototype != nil {
		e.prototype.removeDeferrer(e)
	}
	e.prototype = proto
	if proto != nil {
		proto.deferrers = append(proto.deferrers, e)
	}
}

// Deferrers returns the elements that defer to e.
func (e *Element) Deferrers() []*Element {
	out := make([]*Element, len(e.deferrers))
	copy(out, e.deferrers)
	return out
}

func (e *Element) removeDeferrer(d *Element) {
	for i, x := range e.deferrers {
		if x == d {
			e.deferrers = append(e.deferrers[:i], e.deferrers[i+1:]...)
			return
		}
	}
}

// AddValueListener registers l for value notifications on e.
func (e *Element) AddValueListener(l ValueListener) {
	for _, x := range e.listeners {
		if x == l {
			return
		}
	}
	e.listeners = append(e.listeners, l)
}

// RemoveValueListener unregisters l.
func (e *Element) RemoveValueListener(l ValueListener) {
	for i, x := range e.listeners {
		if x == l {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}

// NotifyValueChanged fires the value listeners of e.
func (e *Element) NotifyValueChanged() {
	for _, l := range append([]ValueListener(nil), e.listeners...) {
		l.ValueChanged(e)
	}
}

// SetValue writes an attribute value and notifies listeners.
func (e *Element) SetValue(v string) {
	e.Value = v
	e.NotifyValueChanged()
}

func (e *Element) String() string {
	return e.kind.String() + " " + e.FullName()
}
