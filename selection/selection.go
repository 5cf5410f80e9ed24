// Package selection maps a visual selection to the model elements it
// stands for.
package selection

import (
	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
)

// Selection is the resolved form of a set of selected figures.
type Selection struct {
	// Objects holds the semantic objects in canonical declaration order.
	Objects []*model.Element
	// Nodes holds the selected graph nodes that have a semantic object.
	Nodes []graphmodel.Node
	// Edges holds the links whose relations joined Objects.
	Edges []*graphmodel.Link
}

// Empty reports whether nothing was resolved.
func (s Selection) Empty() bool { return len(s.Objects) == 0 }

// Contains reports whether e is one of the selected objects.
func (s Selection) Contains(e *model.Element) bool {
	for _, o := range s.Objects {
		if o == e {
			return true
		}
	}
	return false
}

// Covers reports whether e is a selected object or lies below one.
func (s Selection) Covers(e *model.Element) bool {
	for _, o := range s.Objects {
		if o.DeepContains(e) {
			return true
		}
	}
	return false
}

// Resolve computes the selection for figs. Node figures contribute their
// semantic objects. A link joins when both of its ends are covered by the
// selected nodes. Links are taken from the edge figures, the graph root and
// every selected composite. Objects does not depend on figure order.
func Resolve(a *graphmodel.Adapter, figs []diagram.Figure) Selection {
	var (
		sel        Selection
		nodeSet    = make(map[graphmodel.Node]bool)
		objSet     = make(map[*model.Element]bool)
		objs       []*model.Element
		candidates []*graphmodel.Link
	)
	for _, f := range figs {
		obj := f.UserObject()
		if l, ok := obj.(*graphmodel.Link); ok {
			candidates = append(candidates, l)
			continue
		}
		n, ok := graphmodel.Classify(obj)
		if !ok {
			continue
		}
		sem := graphmodel.SemanticObject(n)
		if sem == nil || nodeSet[n] {
			continue
		}
		nodeSet[n] = true
		sel.Nodes = append(sel.Nodes, n)
		if !objSet[sem] {
			objSet[sem] = true
			objs = append(objs, sem)
		}
	}

	candidates = append(candidates, a.Links()...)
	for _, o := range objs {
		if o.Kind() != model.KindEntity || !o.IsComposite() {
			continue
		}
		o.Walk(func(e *model.Element) {
			if e.Kind() == model.KindEntity && e.IsComposite() {
				candidates = append(candidates, a.LinksIn(e)...)
			}
		})
	}

	nodeObjs := append([]*model.Element(nil), objs...)
	covered := func(end *model.Element) bool {
		if end == nil {
			return false
		}
		if n, ok := graphmodel.Classify(end); ok && nodeSet[n] {
			return true
		}
		for _, o := range nodeObjs {
			if o.DeepContains(end) {
				return true
			}
		}
		return false
	}
	seenEdge := make(map[*graphmodel.Link]bool)
	for _, l := range candidates {
		if seenEdge[l] {
			continue
		}
		seenEdge[l] = true
		rel := graphmodel.SemanticObject(l)
		if rel == nil || !covered(l.Head) || !covered(l.Tail) {
			continue
		}
		sel.Edges = append(sel.Edges, l)
		if !objSet[rel] {
			objSet[rel] = true
			objs = append(objs, rel)
		}
	}

	sel.Objects = model.SortContained(objs)
	return sel
}
