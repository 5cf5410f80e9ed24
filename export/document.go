package export

import (
	"flowedit/model"
)

// Document is a serializable snapshot of one element and its subtree.
type Document struct {
	Name       string      `json:"name" yaml:"name"`
	Kind       string      `json:"kind" yaml:"kind"`
	Class      string      `json:"class,omitempty" yaml:"class,omitempty"`
	ClassDef   bool        `json:"classDefinition,omitempty" yaml:"classDefinition,omitempty"`
	Value      string      `json:"value,omitempty" yaml:"value,omitempty"`
	Input      bool        `json:"input,omitempty" yaml:"input,omitempty"`
	Output     bool        `json:"output,omitempty" yaml:"output,omitempty"`
	Multiport  bool        `json:"multiport,omitempty" yaml:"multiport,omitempty"`
	Location   []float64   `json:"location,omitempty" yaml:"location,omitempty,flow"`
	RelativeTo string      `json:"relativeTo,omitempty" yaml:"relativeTo,omitempty"`
	Links      []string    `json:"links,omitempty" yaml:"links,omitempty"`
	Children   []*Document `json:"children,omitempty" yaml:"children,omitempty"`
}

// Snapshot captures e's subtree. Links are listed on relations, by the
// linked element's name relative to the relation's container.
func Snapshot(e *model.Element) *Document {
	d := &Document{
		Name:      e.Name(),
		Kind:      e.Kind().String(),
		Class:     e.Class,
		ClassDef:  e.ClassDef,
		Value:     e.Value,
		Input:     e.Input,
		Output:    e.Output,
		Multiport: e.Multiport,
	}
	if e.Kind() == model.KindLocation {
		d.Location = []float64{e.X, e.Y}
		d.RelativeTo = e.RelativeTo
	}
	if e.Kind() == model.KindRelation {
		for _, peer := range e.Linked() {
			name, err := peer.NameRelativeTo(e.Container())
			if err != nil {
				name = peer.FullName()
			}
			d.Links = append(d.Links, name)
		}
	}
	for _, c := range model.SortContained(e.Children()) {
		d.Children = append(d.Children, Snapshot(c))
	}
	return d
}
