package moml

import (
	"encoding/xml"
	"strings"

	"flowedit/model"
)

// Builder accumulates script fragments.
type Builder struct {
	sb strings.Builder
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.sb.Len() }

func (b *Builder) String() string { return b.sb.String() }

// Raw appends already formed script text.
func (b *Builder) Raw(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

func (b *Builder) open(tag string, attrs ...string) {
	b.sb.WriteString("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		writeAttr(&b.sb, attrs[i], attrs[i+1])
	}
}

// Element writes a self-closing element. Attributes come as key, value pairs;
// pairs with an empty value are skipped except for "value".
func (b *Builder) Element(tag string, attrs ...string) *Builder {
	b.open(tag, nonEmpty(attrs)...)
	b.sb.WriteString("/>\n")
	return b
}

// Start writes an opening tag.
func (b *Builder) Start(tag string, attrs ...string) *Builder {
	b.open(tag, nonEmpty(attrs)...)
	b.sb.WriteString(">\n")
	return b
}

// End writes a closing tag.
func (b *Builder) End(tag string) *Builder {
	b.sb.WriteString("</" + tag + ">\n")
	return b
}

// Link writes a port-to-relation link.
func (b *Builder) Link(port, relation string) *Builder {
	return b.Element("link", "port", port, "relation", relation)
}

// LinkRelations writes a relation-to-relation link.
func (b *Builder) LinkRelations(r1, r2 string) *Builder {
	return b.Element("link", "relation1", r1, "relation2", r2)
}

// Unlink writes a port-to-relation unlink.
func (b *Builder) Unlink(port, relation string) *Builder {
	return b.Element("unlink", "port", port, "relation", relation)
}

// UnlinkRelations writes a relation-to-relation unlink.
func (b *Builder) UnlinkRelations(r1, r2 string) *Builder {
	return b.Element("unlink", "relation1", r1, "relation2", r2)
}

// Delete writes the delete element matching kind.
func (b *Builder) Delete(kind model.Kind, name string) *Builder {
	return b.Element(DeleteTag(kind), "name", name)
}

// Location writes a location property. The anchor is written whenever the
// class is relative-capable or an anchor is set, so clearing an anchor
// round-trips.
func (b *Builder) Location(name, class string, x, y float64, relativeTo, relativeToKind string) *Builder {
	value := model.FormatPoint(x, y)
	if class != model.ClassRelativeLocation && relativeTo == "" && relativeToKind == "" {
		return b.Element("property", "name", name, "class", class, "value", value)
	}
	b.Start("property", "name", name, "class", class, "value", value)
	b.Element("property", "name", "relativeTo", "value", relativeTo)
	b.Element("property", "name", "relativeToElementName", "value", relativeToKind)
	return b.End("property")
}

// DeleteTag returns the delete element name for a kind.
func DeleteTag(kind model.Kind) string {
	switch kind {
	case model.KindEntity:
		return "deleteEntity"
	case model.KindPort:
		return "deletePort"
	case model.KindRelation:
		return "deleteRelation"
	default:
		return "deleteProperty"
	}
}

// Group wraps body in a group element.
func Group(body string) string {
	if body == "" {
		return ""
	}
	return "<group>\n" + body + "</group>\n"
}

// AutoGroup wraps body in a group that renames on collision.
func AutoGroup(body string) string {
	return "<group name=\"auto\">\n" + body + "</group>\n"
}

func nonEmpty(attrs []string) []string {
	out := make([]string, 0, len(attrs))
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" && attrs[i] != "value" {
			continue
		}
		out = append(out, attrs[i], attrs[i+1])
	}
	return out
}

func writeAttr(sb *strings.Builder, key, value string) {
	sb.WriteString(" " + key + "=\"")
	xml.EscapeText(sb, []byte(value))
	sb.WriteString("\"")
}
