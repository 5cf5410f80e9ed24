package editor

import (
	"context"
	"errors"

	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/moml"
	"flowedit/selection"
)

// DeletionPlan is the scripted part of a deletion plus the links that can
// only be removed directly.
type DeletionPlan struct {
	// Fragments are in execution order: links, then non-attribute
	// elements, then attributes.
	Fragments []string
	Residual  []*graphmodel.Link
}

// Script returns the fragments as one group, or "" when there are none.
func (p DeletionPlan) Script() string {
	var b moml.Builder
	for _, f := range p.Fragments {
		b.Raw(f)
	}
	return moml.Group(b.String())
}

// PlanDeletion composes the deletion of sel. Links come from link figures
// and from the selection's closure.
func (e *Editor) PlanDeletion(sel selection.Selection, figs []diagram.Figure) DeletionPlan {
	var plan DeletionPlan
	seen := make(map[string]bool)
	emit := func(frag string) {
		if frag != "" && !seen[frag] {
			seen[frag] = true
			plan.Fragments = append(plan.Fragments, frag)
		}
	}

	var nodes []*model.Element
	for _, n := range sel.Nodes {
		if s := graphmodel.SemanticObject(n); s != nil {
			nodes = append(nodes, s)
		}
	}
	nodes = model.SortContained(model.PruneDescendants(nodes))

	var edges []*graphmodel.Link
	seenEdge := make(map[*graphmodel.Link]bool)
	for _, f := range figs {
		if l, ok := f.UserObject().(*graphmodel.Link); ok && !seenEdge[l] {
			seenEdge[l] = true
			edges = append(edges, l)
		}
	}
	for _, l := range sel.Edges {
		if !seenEdge[l] {
			seenEdge[l] = true
			edges = append(edges, l)
		}
	}

	deleted := make(map[*model.Element]bool)
	for _, l := range edges {
		if l.Partial() {
			plan.Residual = append(plan.Residual, l)
			continue
		}
		if insideAny(nodes, l.Relation) {
			continue
		}
		frag, removesRelation := e.linkDeletion(l)
		if removesRelation {
			deleted[l.Relation] = true
		}
		emit(frag)
	}

	var attrs []*model.Element
	for _, n := range nodes {
		switch {
		case n.Kind() == model.KindAttribute || n.Kind() == model.KindLocation:
			attrs = append(attrs, n)
		case n.IsParameterPort() && sel.Contains(n.PairedParameter()):
			// Deleting the parameter removes its port too.
		case deleted[n]:
		default:
			var b moml.Builder
			emit(b.Delete(n.Kind(), e.rel(n)).String())
		}
	}
	for _, n := range attrs {
		var b moml.Builder
		emit(b.Delete(n.Kind(), e.rel(n)).String())
	}
	return plan
}

func insideAny(nodes []*model.Element, x *model.Element) bool {
	for _, n := range nodes {
		if n.DeepContains(x) {
			return true
		}
	}
	return false
}

// hiddenEnds counts the visible ends of a relation without a vertex.
func hiddenEnds(r *model.Element) int {
	n := len(r.LinkedPorts())
	for _, o := range r.LinkedRelations() {
		if graphmodel.Vertex(o) != nil {
			n++
		}
	}
	return n
}

// linkDeletion returns the fragment removing one link and whether it
// deletes the link's relation. A hidden relation joining exactly two ends is
// deleted outright; otherwise the link's far end is unlinked.
func (e *Editor) linkDeletion(l *graphmodel.Link) (string, bool) {
	var b moml.Builder
	r := l.Relation
	if l.Hidden() {
		if hiddenEnds(r) <= 2 {
			return b.Delete(model.KindRelation, e.rel(r)).String(), true
		}
		if l.Tail.Kind() == model.KindPort {
			return b.Unlink(e.rel(l.Tail), e.rel(r)).String(), false
		}
		return b.UnlinkRelations(e.rel(r), e.rel(l.Tail.Container())).String(), false
	}
	if l.Head.Kind() == model.KindPort {
		return b.Unlink(e.rel(l.Head), e.rel(r)).String(), false
	}
	return b.UnlinkRelations(e.rel(l.Head.Container()), e.rel(l.Tail.Container())).String(), false
}

// Delete removes the selected figures' elements in one undoable request.
// Partial links are then disconnected directly; that part is not undoable.
// Events are held back until one structure event at the end.
func (e *Editor) Delete(ctx context.Context) error {
	figs := e.view.Selection()
	if len(figs) == 0 {
		return ErrEmptySelection
	}
	e.view.Deselect(figs...)
	sel := selection.Resolve(e.adapter, figs)
	plan := e.PlanDeletion(sel, figs)

	var scriptErr error
	residualErr := e.adapter.WithoutDispatch(func() error {
		if script := plan.Script(); script != "" {
			scriptErr = e.queue.RequestChange(ctx, e.request("Delete", script))
		}
		var errs []error
		for _, l := range plan.Residual {
			if err := e.adapter.Disconnect(ctx, l); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	e.adapter.FireStructureChanged(ctx)

	if residualErr != nil {
		e.logger.Error("residual disconnection failed", "error", residualErr)
	}
	return errors.Join(scriptErr, residualErr)
}
