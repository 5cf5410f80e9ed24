// Package graphmodel exposes a model tree as a generic node and edge graph
// and bridges tree mutations into graph events.
package graphmodel

import (
	"flowedit/model"
)

// NodeKind is the closed set of graph node variants.
type NodeKind int

const (
	NodePort NodeKind = iota
	NodeLocation
	NodeRelativeLocation
	NodeComposite
)

func (k NodeKind) String() string {
	switch k {
	case NodePort:
		return "port"
	case NodeLocation:
		return "location"
	case NodeRelativeLocation:
		return "relative-location"
	case NodeComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Node is a graph node. For location nodes Element is the location
// attribute and the node stands for its container.
type Node struct {
	Kind    NodeKind
	Element *model.Element
}

// Classify returns the node variant for x, which may be a Node or a
// *model.Element.
func Classify(x any) (Node, bool) {
	switch v := x.(type) {
	case Node:
		return v, v.Element != nil
	case *model.Element:
		if v == nil {
			return Node{}, false
		}
		switch v.Kind() {
		case model.KindPort:
			return Node{Kind: NodePort, Element: v}, true
		case model.KindLocation:
			if v.IsRelativeCapable() {
				return Node{Kind: NodeRelativeLocation, Element: v}, true
			}
			return Node{Kind: NodeLocation, Element: v}, true
		case model.KindEntity:
			if v.IsComposite() {
				return Node{Kind: NodeComposite, Element: v}, true
			}
		}
	}
	return Node{}, false
}

// IsNode reports whether x is a graph node. A location without a container
// still counts, so dangling edits stay visible.
func IsNode(x any) bool {
	_, ok := Classify(x)
	return ok
}

// IsEdge reports whether x is a graph edge.
func IsEdge(x any) bool {
	l, ok := x.(*Link)
	return ok && l != nil
}

// SemanticObject returns the element a node or edge represents: the port
// for a port node, the container for a location node and the relation for
// a link. Composites and partial links have none.
func SemanticObject(x any) *model.Element {
	if l, ok := x.(*Link); ok {
		if l == nil {
			return nil
		}
		return l.Relation
	}
	n, ok := Classify(x)
	if !ok {
		return nil
	}
	switch n.Kind {
	case NodePort:
		return n.Element
	case NodeLocation, NodeRelativeLocation:
		return n.Element.Container()
	default:
		return nil
	}
}

// NodeFor returns the graph node shown for a model element: a port node, the
// element's location node, or the vertex node of a relation.
func NodeFor(e *model.Element) (Node, bool) {
	if e == nil {
		return Node{}, false
	}
	switch e.Kind() {
	case model.KindPort, model.KindLocation:
		return Classify(e)
	case model.KindRelation:
		if v := Vertex(e); v != nil {
			return Classify(v)
		}
		return Node{}, false
	}
	if loc := e.Location(); loc != nil {
		return Classify(loc)
	}
	return Node{}, false
}

// Vertex returns the vertex of a relation, or nil for a hidden relation.
func Vertex(r *model.Element) *model.Element {
	if r == nil || r.Kind() != model.KindRelation {
		return nil
	}
	return r.Location()
}
