package moml

import (
	"flowedit/model"
)

// Export writes the full declarative description of e under the given name.
// An empty name uses e's own name.
func Export(e *model.Element, name string) string {
	var b Builder
	if name == "" {
		name = e.Name()
	}
	writeElement(&b, e, name)
	return b.String()
}

// ExportDocument writes a complete document for a top-level entity.
func ExportDocument(root *model.Element) string {
	return "<?xml version=\"1.0\" standalone=\"no\"?>\n" + Export(root, "")
}

func writeElement(b *Builder, e *model.Element, name string) {
	switch e.Kind() {
	case model.KindEntity:
		tag := "entity"
		attrs := []string{"name", name, "class", e.Class}
		if e.ClassDef {
			tag = "class"
			attrs = []string{"name", name, "extends", e.Class}
		}
		b.Start(tag, attrs...)
		writeBody(b, e)
		writeInternalLinks(b, e)
		b.End(tag)
	case model.KindPort:
		b.Start("port", "name", name, "class", e.Class)
		if e.Input {
			b.Element("property", "name", "input")
		}
		if e.Output {
			b.Element("property", "name", "output")
		}
		if e.Multiport {
			b.Element("property", "name", "multiport")
		}
		writeBody(b, e)
		b.End("port")
	case model.KindRelation:
		if len(e.Children()) == 0 {
			b.Element("relation", "name", name, "class", e.Class)
			return
		}
		b.Start("relation", "name", name, "class", e.Class)
		writeBody(b, e)
		b.End("relation")
	case model.KindLocation:
		if c := e.Container(); c != nil && c.Kind() == model.KindRelation {
			b.Element("vertex", "name", name, "value", model.FormatPoint(e.X, e.Y))
			return
		}
		b.Location(name, e.Class, e.X, e.Y, e.RelativeTo, e.RelativeToKind)
	default:
		if len(e.Children()) == 0 {
			b.Element("property", "name", name, "class", e.Class, "value", e.Value)
			return
		}
		b.Start("property", "name", name, "class", e.Class, "value", e.Value)
		writeBody(b, e)
		b.End("property")
	}
}

func writeBody(b *Builder, e *model.Element) {
	for _, c := range model.SortContained(e.Children()) {
		writeElement(b, c, c.Name())
	}
}

// writeInternalLinks writes the links of relations directly inside e whose
// other end also lies inside e.
func writeInternalLinks(b *Builder, e *model.Element) {
	relations := e.Relations()
	for i, r := range relations {
		for _, peer := range r.Linked() {
			if !e.DeepContains(peer) || peer == e {
				continue
			}
			pn, err := peer.NameRelativeTo(e)
			if err != nil {
				continue
			}
			if peer.Kind() == model.KindRelation {
				if peer.Container() == e && indexOf(relations, peer) < i {
					continue
				}
				b.LinkRelations(r.Name(), pn)
				continue
			}
			b.Link(pn, r.Name())
		}
	}
}

func indexOf(list []*model.Element, x *model.Element) int {
	for i, y := range list {
		if y == x {
			return i
		}
	}
	return -1
}

// ExportLinks writes, relative to ctx, every link between a relation in objs
// and a port or relation covered by objs. An element is covered when it is
// in objs or lies below one of them.
func ExportLinks(ctx *model.Element, objs []*model.Element) string {
	covered := func(x *model.Element) bool {
		for _, o := range objs {
			if o.DeepContains(x) {
				return true
			}
		}
		return false
	}
	var b Builder
	seen := make(map[string]bool)
	for _, r := range objs {
		if r.Kind() != model.KindRelation {
			continue
		}
		rn, err := r.NameRelativeTo(ctx)
		if err != nil {
			continue
		}
		for _, peer := range r.Linked() {
			if !covered(peer) {
				continue
			}
			pn, err := peer.NameRelativeTo(ctx)
			if err != nil {
				continue
			}
			var frag Builder
			if peer.Kind() == model.KindRelation {
				a, c := rn, pn
				if c < a {
					a, c = c, a
				}
				frag.LinkRelations(a, c)
			} else {
				frag.Link(pn, rn)
			}
			s := frag.String()
			if !seen[s] {
				seen[s] = true
				b.Raw(s)
			}
		}
	}
	return b.String()
}
