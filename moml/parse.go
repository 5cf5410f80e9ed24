// Package moml implements the declarative change-script language: an XML
// dialect of entity, port, relation, property and link elements that is the
// only channel through which the editor mutates a model tree.
package moml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one parsed script element.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node
	Line     int
}

// Attr returns an attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// Has reports whether the attribute is present.
func (n *Node) Has(name string) bool {
	_, ok := n.Attrs[name]
	return ok
}

// Parse reads a script made of zero or more top-level elements. XML
// declarations, processing instructions and comments are skipped.
func Parse(script string) ([]*Node, error) {
	return ParseReader(strings.NewReader(script))
}

// ParseReader is Parse over a reader.
func ParseReader(r io.Reader) ([]*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	var (
		roots []*Node
		stack []*Node
	)
	for {
		line, _ := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ScriptError{Line: line, Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Attrs: make(map[string]string, len(t.Attr)), Line: line}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				roots = append(roots, n)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, &ScriptError{Line: line, Err: fmt.Errorf("unexpected </%s>", t.Name.Local)}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return nil, &ScriptError{Line: stack[len(stack)-1].Line, Tag: stack[len(stack)-1].Tag, Err: io.ErrUnexpectedEOF}
	}
	return roots, nil
}
