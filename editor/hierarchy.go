package editor

import (
	"context"
	"fmt"

	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/moml"
	"flowedit/selection"
)

// endSide classifies one end of a boundary link.
type endSide int

const (
	sideStandalonePort endSide = iota // a port of the edited composite itself
	sidePortInActor
	sideRelation
)

func (e *Editor) sideOf(end *model.Element) endSide {
	switch {
	case end.Kind() != model.KindPort:
		return sideRelation
	case end.Container() == e.root():
		return sideStandalonePort
	default:
		return sidePortInActor
	}
}

// boundaryPort is a port synthesized on the new composite for one inner
// endpoint and relation, or for one relation moved into the composite.
type boundaryPort struct {
	name                     string
	input, output, multiport bool

	innerRelation string
	outerRelation string
}

// boundaryKey has a nil inner end when the relation itself moves inside.
type boundaryKey struct {
	inner, relation *model.Element
}

// nameAllocator hands out base_<i> names unused in one namespace.
type nameAllocator struct {
	taken map[string]bool
}

func newNameAllocator(names ...string) *nameAllocator {
	a := &nameAllocator{taken: make(map[string]bool)}
	for _, n := range names {
		a.taken[n] = true
	}
	return a
}

func (a *nameAllocator) reserve(name string) { a.taken[name] = true }

func (a *nameAllocator) next(base string, i int) string {
	for ; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if !a.taken[name] {
			a.taken[name] = true
			return name
		}
	}
}

// withoutEntityPorts drops port figures whose entity is also selected.
func withoutEntityPorts(figs []diagram.Figure) []diagram.Figure {
	holders := make(map[*model.Element]bool)
	for _, f := range figs {
		n, ok := graphmodel.Classify(f.UserObject())
		if !ok || n.Kind == graphmodel.NodePort {
			continue
		}
		if s := graphmodel.SemanticObject(n); s != nil {
			holders[s] = true
		}
	}
	var out []diagram.Figure
	for _, f := range figs {
		if n, ok := graphmodel.Classify(f.UserObject()); ok && n.Kind == graphmodel.NodePort && holders[n.Element.Container()] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// extractionEdges collects the selection's links together with every link
// at a selected entity or vertex relation.
func (e *Editor) extractionEdges(sel selection.Selection, figs []diagram.Figure) []*graphmodel.Link {
	var out []*graphmodel.Link
	seen := make(map[*graphmodel.Link]bool)
	add := func(ls ...*graphmodel.Link) {
		for _, l := range ls {
			if l != nil && !l.Partial() && !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	for _, f := range figs {
		if l, ok := f.UserObject().(*graphmodel.Link); ok {
			add(l)
		}
	}
	add(sel.Edges...)
	for _, n := range sel.Nodes {
		s := graphmodel.SemanticObject(n)
		if s != nil && (s.Kind() == model.KindEntity || s.Kind() == model.KindRelation) {
			add(e.adapter.LinksAt(s)...)
		}
	}
	return out
}

// PlanExtraction builds the script that replaces the selected figures with
// a new composite containing copies of them. Links crossing the selection
// boundary are rerouted through synthesized ports.
func (e *Editor) PlanExtraction(figs []diagram.Figure) (string, error) {
	figs = withoutEntityPorts(figs)
	if len(figs) == 0 {
		return "", ErrEmptySelection
	}
	root := e.root()
	sel := selection.Resolve(e.adapter, figs)
	if sel.Empty() {
		return "", ErrEmptySelection
	}
	center := figs[0].Bounds().Center()
	for _, f := range figs {
		if graphmodel.IsNode(f.UserObject()) {
			center = f.Bounds().Center()
			break
		}
	}

	objs := model.SortContained(model.PruneDescendants(sel.Objects))
	inside := func(x *model.Element) bool { return coveredBy(objs, x) }
	edges := e.extractionEdges(sel, figs)

	composite := root.UniqueName(e.settings.CompositeName)
	var rootNames, innerNames []string
	for _, c := range root.Children() {
		rootNames = append(rootNames, c.Name())
	}
	for _, o := range objs {
		innerNames = append(innerNames, o.Name())
	}
	outerAlloc := newNameAllocator(append(rootNames, composite)...)
	innerAlloc := newNameAllocator(innerNames...)

	var (
		ports        []*boundaryPort
		byKey        = make(map[boundaryKey]*boundaryPort)
		innerRels    []string
		outerRels    []string
		innerLinks   moml.Builder
		outerLinks   moml.Builder
		emitted      = make(map[string]bool)
		outerDeclare = make(map[string]string)
	)
	link := func(b *moml.Builder, port, relation string) {
		frag := (&moml.Builder{}).Link(port, relation).String()
		if !emitted[frag] {
			emitted[frag] = true
			b.Raw(frag)
		}
	}
	linkRelations := func(b *moml.Builder, r1, r2 string) {
		frag := (&moml.Builder{}).LinkRelations(r1, r2).String()
		if !emitted[frag] {
			emitted[frag] = true
			b.Raw(frag)
		}
	}
	// linkEnd joins a port or vertex end to a relation.
	linkEnd := func(b *moml.Builder, end *model.Element, relation string) {
		if end.Kind() == model.KindPort {
			link(b, e.rel(end), relation)
		} else {
			linkRelations(b, relation, e.rel(end.Container()))
		}
	}

	for _, l := range edges {
		headIn, tailIn := inside(l.Head), inside(l.Tail)
		if headIn == tailIn {
			continue
		}
		head, tail := l.Head, l.Tail
		if head.Kind() != model.KindPort && tail.Kind() == model.KindPort {
			head, tail = tail, head
			headIn = tailIn
		}
		innerEnd, outerEnd := head, tail
		if !headIn {
			innerEnd, outerEnd = tail, head
		}

		carried := inside(l.Relation)
		key := boundaryKey{innerEnd, l.Relation}
		if carried {
			key.inner = nil
		}
		bp := byKey[key]
		if bp == nil {
			i := len(ports)
			bp = &boundaryPort{name: innerAlloc.next("port", i)}
			if head.Kind() == model.KindPort {
				in, out := head.Input, head.Output
				if e.sideOf(head) == sideStandalonePort {
					in, out = out, in
				}
				if !headIn {
					in, out = out, in
				}
				bp.input, bp.output, bp.multiport = in, out, head.Multiport
			}
			switch {
			case carried:
				// The moved relation keeps its inner links; the port joins it.
				bp.innerRelation = e.rel(l.Relation)
			case e.sideOf(innerEnd) == sideRelation:
				bp.innerRelation = e.rel(innerEnd.Container())
			default:
				bp.innerRelation = innerAlloc.next(l.Relation.Name(), i)
				innerRels = append(innerRels, bp.innerRelation)
				linkEnd(&innerLinks, innerEnd, bp.innerRelation)
			}
			link(&innerLinks, bp.name, bp.innerRelation)
			byKey[key] = bp
			ports = append(ports, bp)
		}

		if bp.outerRelation == "" {
			switch {
			case e.sideOf(outerEnd) == sideRelation:
				bp.outerRelation = e.rel(outerEnd.Container())
			case l.Hidden():
				bp.outerRelation = e.rel(l.Relation)
				if _, ok := outerDeclare[bp.outerRelation]; !ok {
					outerAlloc.reserve(bp.outerRelation)
					outerDeclare[bp.outerRelation] = l.Relation.Class
					outerRels = append(outerRels, bp.outerRelation)
				}
			default:
				bp.outerRelation = outerAlloc.next(l.Relation.Name(), len(ports)-1)
				outerDeclare[bp.outerRelation] = e.settings.RelationClass
				outerRels = append(outerRels, bp.outerRelation)
			}
			link(&outerLinks, composite+"."+bp.name, bp.outerRelation)
		}
		if e.sideOf(outerEnd) != sideRelation {
			linkEnd(&outerLinks, outerEnd, bp.outerRelation)
		}
	}

	closure := sel
	closure.Edges = edges
	plan := e.PlanDeletion(closure, figs)

	var b moml.Builder
	for _, frag := range plan.Fragments {
		b.Raw(frag)
	}
	b.Start("entity", "name", composite, "class", e.settings.CompositeClass)
	b.Location(model.LocationName, model.ClassLocation, center.X, center.Y, "", "")
	for _, bp := range ports {
		b.Start("port", "name", bp.name, "class", e.settings.PortClass)
		if bp.input {
			b.Element("property", "name", "input")
		}
		if bp.output {
			b.Element("property", "name", "output")
		}
		if bp.multiport {
			b.Element("property", "name", "multiport")
		}
		b.End("port")
	}
	for _, o := range objs {
		b.Raw(moml.Export(o, e.rel(o)))
	}
	b.Raw(moml.ExportLinks(root, objs))
	for _, r := range innerRels {
		b.Element("relation", "name", r, "class", e.settings.RelationClass)
	}
	b.Raw(innerLinks.String())
	b.End("entity")
	for _, r := range outerRels {
		b.Element("relation", "name", r, "class", outerDeclare[r])
	}
	b.Raw(outerLinks.String())
	return moml.Group(b.String()), nil
}

// Extract moves the selection into a new composite in one undoable request.
func (e *Editor) Extract(ctx context.Context) error {
	figs := e.view.Selection()
	script, err := e.PlanExtraction(figs)
	if err != nil {
		return err
	}
	e.view.Deselect(figs...)
	return e.queue.RequestChange(ctx, e.request("Extract", script))
}
