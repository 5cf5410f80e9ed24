package graphmodel

import (
	"flowedit/model"
)

// Link is a graph edge. Head and Tail are ports or relation vertices; either
// may be nil on a partial link, which also has no relation.
type Link struct {
	Head, Tail *model.Element
	Relation   *model.Element

	id uint64
}

// Partial reports whether the link lacks an end or a relation.
func (l *Link) Partial() bool {
	return l.Head == nil || l.Tail == nil || l.Relation == nil
}

// Hidden reports whether the link's relation has no vertex.
func (l *Link) Hidden() bool {
	return l.Relation != nil && Vertex(l.Relation) == nil
}

// Touches reports whether either end of l lies at or below e.
func (l *Link) Touches(e *model.Element) bool {
	return (l.Head != nil && e.DeepContains(l.Head)) || (l.Tail != nil && e.DeepContains(l.Tail))
}

func (l *Link) String() string {
	name := func(e *model.Element) string {
		if e == nil {
			return "-"
		}
		return e.FullName()
	}
	return name(l.Head) + " -> " + name(l.Tail) + " via " + name(l.Relation)
}

type linkKey struct {
	head, tail, relation *model.Element
}

func (l *Link) key() linkKey { return linkKey{l.Head, l.Tail, l.Relation} }

// deriveLinks computes the links of the relations directly inside c.
// Links found in prev keep their identity.
func deriveLinks(c *model.Element, prev map[linkKey]*Link, nextID func() uint64) []*Link {
	var out []*Link
	add := func(head, tail, r *model.Element) {
		k := linkKey{head, tail, r}
		l := prev[k]
		if l == nil {
			l = &Link{Head: head, Tail: tail, Relation: r, id: nextID()}
		}
		out = append(out, l)
	}
	for _, r := range c.Relations() {
		if v := Vertex(r); v != nil {
			for _, p := range r.LinkedPorts() {
				add(p, v, r)
			}
			for _, o := range r.LinkedRelations() {
				if ov := Vertex(o); ov != nil && r.FullName() < o.FullName() {
					add(v, ov, r)
				}
			}
			continue
		}
		ends := r.LinkedPorts()
		for _, o := range r.LinkedRelations() {
			if ov := Vertex(o); ov != nil {
				ends = append(ends, ov)
			}
		}
		if len(ends) < 2 {
			continue
		}
		for _, e := range ends[1:] {
			add(ends[0], e, r)
		}
	}
	return out
}
