package editor

import (
	"context"
	"errors"
	"sync"

	"flowedit/model"
	"flowedit/moml"
	"flowedit/selection"
)

// ErrClipboardEmpty is returned when pasting with nothing copied.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// Clipboard stores copied script text.
type Clipboard interface {
	SetText(text string) error
	Text() (string, error)
}

// MemoryClipboard is a process-local clipboard.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *MemoryClipboard) SetText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *MemoryClipboard) Text() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

// CopyText serializes sel relative to ctx: the class definitions the
// selection refers to but does not contain, then each top-most selected
// object, then the links among them.
func CopyText(ctx *model.Element, sel selection.Selection) string {
	objs := model.SortContained(model.PruneDescendants(sel.Objects))
	var body moml.Builder
	for _, o := range objs {
		name, err := o.NameRelativeTo(ctx)
		if err != nil {
			continue
		}
		body.Raw(moml.Export(o, name))
	}
	body.Raw(moml.ExportLinks(ctx, objs))

	var out moml.Builder
	for _, def := range referencedClasses(ctx, objs, body.String()) {
		out.Raw(moml.Export(def, def.Name()))
	}
	out.Raw(body.String())
	return out.String()
}

// referencedClasses finds class definitions visible from ctx that text
// instantiates and objs does not already carry.
func referencedClasses(ctx *model.Element, objs []*model.Element, text string) []*model.Element {
	nodes, err := moml.Parse(text)
	if err != nil {
		return nil
	}
	var (
		defs []*model.Element
		seen = make(map[*model.Element]bool)
	)
	var visit func(ns []*moml.Node)
	visit = func(ns []*moml.Node) {
		for _, n := range ns {
			if class := n.Attr("class"); class != "" {
				if def := lookupClass(ctx, class); def != nil && !seen[def] && !coveredBy(objs, def) {
					seen[def] = true
					defs = append(defs, def)
				}
			}
			visit(n.Children)
		}
	}
	visit(nodes)
	return defs
}

func lookupClass(ctx *model.Element, name string) *model.Element {
	for c := ctx; c != nil; c = c.Container() {
		if def := c.Child(name); def != nil && def.Kind() == model.KindEntity && def.ClassDef {
			return def
		}
	}
	return nil
}

func coveredBy(objs []*model.Element, x *model.Element) bool {
	for _, o := range objs {
		if o.DeepContains(x) {
			return true
		}
	}
	return false
}

// Copy places the current selection on the clipboard.
func (e *Editor) Copy() error {
	sel := e.Selection()
	if sel.Empty() {
		return ErrEmptySelection
	}
	return e.clipboard.SetText(CopyText(e.root(), sel))
}

// Paste adds the clipboard contents to the graph root. Colliding names are
// made unique.
func (e *Editor) Paste(ctx context.Context) error {
	text, err := e.clipboard.Text()
	if err != nil {
		return err
	}
	if text == "" {
		return ErrClipboardEmpty
	}
	return e.queue.RequestChange(ctx, e.request("Paste", moml.AutoGroup(text)))
}
