package model

import "fmt"

// Link connects a port or relation to a relation. Both ends record the link.
func Link(a, r *Element) error {
	if r == nil || r.kind != KindRelation {
		return fmt.Errorf("link target must be a relation: %w", ErrInvalidLink)
	}
	if a == nil || (a.kind != KindPort && a.kind != KindRelation) || a == r {
		return fmt.Errorf("link source must be a port or another relation: %w", ErrInvalidLink)
	}
	if IsLinked(a, r) {
		return fmt.Errorf("%s already linked to %s: %w", a.FullName(), r.FullName(), ErrInvalidLink)
	}
	a.linked = append(a.linked, r)
	r.linked = append(r.linked, a)
	return nil
}

// Unlink removes the link between a and r.
func Unlink(a, r *Element) error {
	if !IsLinked(a, r) {
		return fmt.Errorf("%s is not linked to %s: %w", a.FullName(), r.FullName(), ErrInvalidLink)
	}
	unlinkBoth(a, r)
	return nil
}

// IsLinked reports whether a and r are linked.
func IsLinked(a, r *Element) bool {
	for _, x := range a.linked {
		if x == r {
			return true
		}
	}
	return false
}

func unlinkBoth(a, b *Element) {
	a.linked = without(a.linked, b)
	b.linked = without(b.linked, a)
}

func without(list []*Element, x *Element) []*Element {
	for i, y := range list {
		if y == x {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Linked returns everything linked to e: relations for a port; ports and
// relations for a relation.
func (e *Element) Linked() []*Element {
	out := make([]*Element, len(e.linked))
	copy(out, e.linked)
	return out
}

// LinkedPorts returns the ports linked to a relation.
func (e *Element) LinkedPorts() []*Element {
	var out []*Element
	for _, x := range e.linked {
		if x.kind == KindPort {
			out = append(out, x)
		}
	}
	return out
}

// LinkedRelations returns the relations linked to a port or relation.
func (e *Element) LinkedRelations() []*Element {
	var out []*Element
	for _, x := range e.linked {
		if x.kind == KindRelation {
			out = append(out, x)
		}
	}
	return out
}
