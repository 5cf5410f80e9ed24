package moml

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flowedit/model"
)

// Result describes an executed script.
type Result struct {
	// Undo is the compensating script, relative to the execution context,
	// or "" when the script changed nothing.
	Undo string
	// Structural is set when the script created, deleted, linked or
	// unlinked anything. Pure value writes are not structural.
	Structural bool
}

// autoScope renames colliding children of ctx for the duration of an
// auto-naming group and remembers the renames for later references.
type autoScope struct {
	ctx   *model.Element
	names map[string]string
}

type executor struct {
	root       *model.Element
	undo       []string
	structural bool
	created    map[*model.Element]bool
	scopes     []*autoScope
}

func newExecutor(root *model.Element) *executor {
	return &executor{root: root, created: make(map[*model.Element]bool)}
}

// Execute applies script with ctx as the context element. The caller must
// hold write access to ctx's workspace. A failing script is rolled back, so
// the tree is left as it was before the call.
func Execute(ctx *model.Element, script string) (Result, error) {
	nodes, err := Parse(script)
	if err != nil {
		return Result{}, err
	}
	return ExecuteNodes(ctx, nodes)
}

// ExecuteNodes is Execute over parsed nodes.
func ExecuteNodes(ctx *model.Element, nodes []*Node) (Result, error) {
	x := newExecutor(ctx)
	if err := x.each(ctx, nodes); err != nil {
		if rerr := x.rollback(); rerr != nil {
			return Result{}, errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return Result{}, err
	}
	return Result{Undo: x.undoScript(), Structural: x.structural}, nil
}

// Load builds a tree from a document whose top element is an entity.
func Load(r io.Reader) (*model.Element, error) {
	nodes, err := ParseReader(r)
	if err != nil {
		return nil, err
	}
	var top *Node
	for _, n := range nodes {
		if n.Tag == "entity" {
			top = n
			break
		}
	}
	if top == nil {
		return nil, &ScriptError{Err: errors.New("document has no top-level entity")}
	}
	if !model.ValidName(top.Attr("name")) {
		return nil, &ScriptError{Line: top.Line, Tag: top.Tag, Name: top.Attr("name"), Err: model.ErrInvalidName}
	}
	root := model.NewTopLevel(top.Attr("name"), top.Attr("class"))
	x := newExecutor(root)
	if err := x.each(root, top.Children); err != nil {
		return nil, err
	}
	return root, nil
}

func (x *executor) undoScript() string {
	var b strings.Builder
	for i := len(x.undo) - 1; i >= 0; i-- {
		b.WriteString(x.undo[i])
	}
	return Group(b.String())
}

func (x *executor) rollback() error {
	script := x.undoScript()
	if script == "" {
		return nil
	}
	nodes, err := Parse(script)
	if err != nil {
		return err
	}
	return newExecutor(x.root).each(x.root, nodes)
}

func (x *executor) each(ctx *model.Element, nodes []*Node) error {
	for _, n := range nodes {
		if err := x.process(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (x *executor) process(ctx *model.Element, n *Node) error {
	var err error
	switch n.Tag {
	case "group":
		err = x.group(ctx, n)
	case "entity", "class":
		err = x.entity(ctx, n)
	case "port":
		err = x.port(ctx, n)
	case "relation":
		err = x.relation(ctx, n)
	case "property":
		err = x.property(ctx, n)
	case "vertex":
		err = x.vertex(ctx, n)
	case "link":
		err = x.link(ctx, n)
	case "unlink":
		err = x.unlink(ctx, n)
	case "deleteEntity":
		err = x.remove(ctx, n, model.KindEntity)
	case "deletePort":
		err = x.remove(ctx, n, model.KindPort)
	case "deleteRelation":
		err = x.remove(ctx, n, model.KindRelation)
	case "deleteProperty":
		err = x.remove(ctx, n, model.KindAttribute)
	default:
		err = fmt.Errorf("unknown element <%s>", n.Tag)
	}
	if err == nil {
		return nil
	}
	var se *ScriptError
	if errors.As(err, &se) {
		return err
	}
	return &ScriptError{Line: n.Line, Tag: n.Tag, Name: n.Attr("name"), Err: err}
}

func (x *executor) group(ctx *model.Element, n *Node) error {
	if n.Attr("name") == "auto" {
		x.scopes = append(x.scopes, &autoScope{ctx: ctx, names: make(map[string]string)})
		defer func() { x.scopes = x.scopes[:len(x.scopes)-1] }()
	}
	return x.each(ctx, n.Children)
}

func (x *executor) scopeFor(ctx *model.Element) *autoScope {
	for i := len(x.scopes) - 1; i >= 0; i-- {
		if x.scopes[i].ctx == ctx {
			return x.scopes[i]
		}
	}
	return nil
}

func (x *executor) mapName(ctx *model.Element, name string) string {
	if s := x.scopeFor(ctx); s != nil {
		if m, ok := s.names[name]; ok {
			return m
		}
	}
	return name
}

// resolveRef looks up a dotted reference, applying auto-group renames to
// the first segment.
func (x *executor) resolveRef(ctx *model.Element, ref string) (*model.Element, error) {
	if ref == "" {
		return nil, errors.New("missing reference")
	}
	if strings.HasPrefix(ref, ".") {
		return ctx.Resolve(ref)
	}
	head, tail, nested := strings.Cut(ref, ".")
	head = x.mapName(ctx, head)
	if nested {
		return ctx.Resolve(head + "." + tail)
	}
	return ctx.Resolve(head)
}

func (x *executor) splitTarget(ctx *model.Element, name string) (*model.Element, string, error) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ctx, name, nil
	}
	parent, err := x.resolveRef(ctx, name[:i])
	if err != nil {
		return nil, "", err
	}
	return parent, name[i+1:], nil
}

func (x *executor) rel(e *model.Element) string {
	name, err := e.NameRelativeTo(x.root)
	if err != nil {
		return e.FullName()
	}
	return name
}

func (x *executor) insideCreated(e *model.Element) bool {
	for t := e; t != nil; t = t.Container() {
		if x.created[t] {
			return true
		}
		if t == x.root {
			break
		}
	}
	return false
}

func compatible(have, want model.Kind) bool {
	if have == want {
		return true
	}
	attr := func(k model.Kind) bool { return k == model.KindAttribute || k == model.KindLocation }
	return attr(have) && attr(want)
}

type buildFunc func(parent *model.Element, name string) (*model.Element, error)

// createOrEnter returns the named child, creating it with build when absent.
func (x *executor) createOrEnter(ctx *model.Element, n *Node, want model.Kind, build buildFunc) (*model.Element, bool, error) {
	name := n.Attr("name")
	if name == "" {
		return nil, false, fmt.Errorf("missing name: %w", model.ErrInvalidName)
	}
	parent, last, err := x.splitTarget(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if s := x.scopeFor(parent); s != nil {
		if m, ok := s.names[last]; ok {
			last = m
		} else {
			orig := last
			last = parent.UniqueName(last)
			s.names[orig] = last
		}
	}
	if existing := parent.Child(last); existing != nil {
		if !compatible(existing.Kind(), want) {
			return nil, false, fmt.Errorf("%s is a %s: %w", existing.FullName(), existing.Kind(), model.ErrNameCollision)
		}
		return existing, false, nil
	}
	el, err := build(parent, last)
	if err != nil {
		return nil, false, err
	}
	if err := parent.AddChild(el); err != nil {
		return nil, false, err
	}
	if !x.insideCreated(parent) {
		var b Builder
		x.undo = append(x.undo, b.Delete(el.Kind(), x.rel(el)).String())
	}
	x.created[el] = true
	x.structural = true
	return el, true, nil
}

func (x *executor) findClassDef(ctx *model.Element, ref string) *model.Element {
	if ref == "" {
		return nil
	}
	for c := ctx; c != nil; c = c.Container() {
		if d := c.Child(x.mapName(c, ref)); d != nil && d.Kind() == model.KindEntity && d.ClassDef {
			return d
		}
	}
	return nil
}

func (x *executor) entity(ctx *model.Element, n *Node) error {
	isClass := n.Tag == "class"
	classRef := n.Attr("class")
	if isClass {
		classRef = n.Attr("extends")
	}
	el, _, err := x.createOrEnter(ctx, n, model.KindEntity, func(parent *model.Element, name string) (*model.Element, error) {
		if def := x.findClassDef(parent, classRef); def != nil {
			inst := model.Instantiate(def, name)
			inst.ClassDef = isClass
			return inst, nil
		}
		e := model.New(model.KindEntity, name, classRef)
		e.ClassDef = isClass
		return e, nil
	})
	if err != nil {
		return err
	}
	return x.each(el, n.Children)
}

func (x *executor) port(ctx *model.Element, n *Node) error {
	el, _, err := x.createOrEnter(ctx, n, model.KindPort, func(_ *model.Element, name string) (*model.Element, error) {
		return model.New(model.KindPort, name, n.Attr("class")), nil
	})
	if err != nil {
		return err
	}
	return x.each(el, n.Children)
}

func (x *executor) relation(ctx *model.Element, n *Node) error {
	el, _, err := x.createOrEnter(ctx, n, model.KindRelation, func(_ *model.Element, name string) (*model.Element, error) {
		return model.New(model.KindRelation, name, n.Attr("class")), nil
	})
	if err != nil {
		return err
	}
	return x.each(el, n.Children)
}

func (x *executor) vertex(ctx *model.Element, n *Node) error {
	el, created, err := x.createOrEnter(ctx, n, model.KindLocation, func(_ *model.Element, name string) (*model.Element, error) {
		px, py, err := model.ParsePoint(n.Attr("value"))
		if err != nil {
			return nil, err
		}
		return model.NewLocation(name, px, py), nil
	})
	if err != nil {
		return err
	}
	if !created && n.Has("value") {
		if err := x.setLocation(el, el.Class, n.Attr("value")); err != nil {
			return err
		}
	}
	return x.each(el, n.Children)
}

func isPortFlag(name string) bool {
	return name == "input" || name == "output" || name == "multiport"
}

func (x *executor) property(ctx *model.Element, n *Node) error {
	name := n.Attr("name")
	class := n.Attr("class")
	switch {
	case ctx.Kind() == model.KindPort && isPortFlag(name) && class == "":
		return x.portFlag(ctx, name, n)
	case ctx.Kind() == model.KindLocation && (name == "relativeTo" || name == "relativeToElementName"):
		return x.anchor(ctx, name, n.Attr("value"))
	}
	isLoc := class == model.ClassLocation || class == model.ClassRelativeLocation
	want := model.KindAttribute
	if isLoc {
		want = model.KindLocation
	}
	el, created, err := x.createOrEnter(ctx, n, want, func(_ *model.Element, name string) (*model.Element, error) {
		if isLoc {
			px, py := 0.0, 0.0
			if v := n.Attr("value"); v != "" {
				var err error
				if px, py, err = model.ParsePoint(v); err != nil {
					return nil, err
				}
			}
			loc := model.NewLocation(name, px, py)
			loc.Class = class
			return loc, nil
		}
		e := model.New(model.KindAttribute, name, class)
		e.Value = n.Attr("value")
		return e, nil
	})
	if err != nil {
		return err
	}
	if !created {
		switch el.Kind() {
		case model.KindLocation:
			newClass := el.Class
			if isLoc {
				newClass = class
			}
			if n.Has("value") || newClass != el.Class {
				value := n.Attr("value")
				if !n.Has("value") {
					value = model.FormatPoint(el.X, el.Y)
				}
				if err := x.setLocation(el, newClass, value); err != nil {
					return err
				}
			}
		default:
			if n.Has("value") && n.Attr("value") != el.Value {
				x.recordValue(el)
				el.SetValue(n.Attr("value"))
			}
		}
	}
	return x.each(el, n.Children)
}

func (x *executor) recordValue(el *model.Element) {
	if x.insideCreated(el) {
		return
	}
	var b Builder
	switch el.Kind() {
	case model.KindLocation:
		if c := el.Container(); c != nil && c.Kind() == model.KindRelation {
			b.Element("vertex", "name", x.rel(el), "value", model.FormatPoint(el.X, el.Y))
		} else {
			// The anchor is always restored, even under a plain Location class.
			b.Start("property", "name", x.rel(el), "class", el.Class, "value", model.FormatPoint(el.X, el.Y))
			b.Element("property", "name", "relativeTo", "value", el.RelativeTo)
			b.Element("property", "name", "relativeToElementName", "value", el.RelativeToKind)
			b.End("property")
		}
	default:
		b.Element("property", "name", x.rel(el), "value", el.Value)
	}
	x.undo = append(x.undo, b.String())
}

func (x *executor) setLocation(el *model.Element, class, value string) error {
	px, py, err := model.ParsePoint(value)
	if err != nil {
		return err
	}
	if px == el.X && py == el.Y && class == el.Class {
		return nil
	}
	x.recordValue(el)
	el.Class = class
	el.SetLocation(px, py)
	return nil
}

func (x *executor) portFlag(port *model.Element, name string, n *Node) error {
	value := true
	if v := n.Attr("value"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		value = b
	}
	flag := &port.Input
	switch name {
	case "output":
		flag = &port.Output
	case "multiport":
		flag = &port.Multiport
	}
	if *flag == value {
		return nil
	}
	if !x.insideCreated(port) {
		var b Builder
		b.Start("port", "name", x.rel(port))
		b.Element("property", "name", name, "value", strconv.FormatBool(*flag))
		b.End("port")
		x.undo = append(x.undo, b.String())
	}
	*flag = value
	x.structural = true
	return nil
}

func (x *executor) anchor(loc *model.Element, name, value string) error {
	field := &loc.RelativeTo
	if name == "relativeToElementName" {
		field = &loc.RelativeToKind
	}
	if *field == value {
		return nil
	}
	x.recordValue(loc)
	*field = value
	loc.NotifyValueChanged()
	return nil
}

func (x *executor) linkEnds(ctx *model.Element, n *Node) (*model.Element, *model.Element, error) {
	aRef, rRef := n.Attr("port"), n.Attr("relation")
	if !n.Has("port") {
		aRef, rRef = n.Attr("relation1"), n.Attr("relation2")
	}
	a, err := x.resolveRef(ctx, aRef)
	if err != nil {
		return nil, nil, err
	}
	r, err := x.resolveRef(ctx, rRef)
	if err != nil {
		return nil, nil, err
	}
	return a, r, nil
}

func (x *executor) linkFragment(a, r *model.Element, unlink bool) string {
	var b Builder
	switch {
	case a.Kind() == model.KindRelation && unlink:
		b.UnlinkRelations(x.rel(a), x.rel(r))
	case a.Kind() == model.KindRelation:
		b.LinkRelations(x.rel(a), x.rel(r))
	case unlink:
		b.Unlink(x.rel(a), x.rel(r))
	default:
		b.Link(x.rel(a), x.rel(r))
	}
	return b.String()
}

func (x *executor) link(ctx *model.Element, n *Node) error {
	a, r, err := x.linkEnds(ctx, n)
	if err != nil {
		return err
	}
	if model.IsLinked(a, r) {
		return nil
	}
	if err := model.Link(a, r); err != nil {
		return err
	}
	x.undo = append(x.undo, x.linkFragment(a, r, true))
	x.structural = true
	return nil
}

func (x *executor) unlink(ctx *model.Element, n *Node) error {
	a, r, err := x.linkEnds(ctx, n)
	if err != nil {
		return err
	}
	if !model.IsLinked(a, r) {
		return nil
	}
	if err := model.Unlink(a, r); err != nil {
		return err
	}
	x.undo = append(x.undo, x.linkFragment(a, r, false))
	x.structural = true
	return nil
}

func (x *executor) remove(ctx *model.Element, n *Node, kind model.Kind) error {
	el, err := x.resolveRef(ctx, n.Attr("name"))
	if err != nil {
		return err
	}
	if !compatible(el.Kind(), kind) || (kind != model.KindAttribute && el.Kind() != kind) {
		return fmt.Errorf("%s is a %s, not a %s: %w", el.FullName(), el.Kind(), kind, model.ErrNotFound)
	}
	parent := el.Container()
	if parent == nil {
		return fmt.Errorf("cannot delete the top level %s", el.FullName())
	}
	// A port parameter takes its port along.
	if port := el.ParameterPort(); port != nil {
		if err := x.detach(parent, port); err != nil {
			return err
		}
	}
	return x.detach(parent, el)
}

func (x *executor) detach(parent, el *model.Element) error {
	if !x.insideCreated(parent) {
		x.undo = append(x.undo, x.restoreScript(el))
	}
	if err := parent.Remove(el); err != nil {
		return err
	}
	x.structural = true
	return nil
}

// restoreScript recreates el and every link between el's subtree and the
// rest of the tree.
func (x *executor) restoreScript(el *model.Element) string {
	var b Builder
	b.Raw(Export(el, x.rel(el)))
	el.Walk(func(d *model.Element) {
		for _, peer := range d.Linked() {
			if el.DeepContains(peer) {
				continue
			}
			switch {
			case d.Kind() == model.KindRelation && peer.Kind() == model.KindRelation:
				b.LinkRelations(x.rel(d), x.rel(peer))
			case d.Kind() == model.KindPort:
				b.Link(x.rel(d), x.rel(peer))
			default:
				b.Link(x.rel(peer), x.rel(d))
			}
		}
	})
	return b.String()
}
