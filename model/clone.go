package model

// Clone deep-copies e and its subtree. Links between two cloned elements are
// reproduced; links leaving the subtree are not. The copy is detached.
func Clone(e *Element) *Element {
	mapping := make(map[*Element]*Element)
	out := cloneInto(e, mapping)
	e.walk(func(orig *Element) {
		for _, peer := range orig.linked {
			c, ok := mapping[peer]
			if !ok {
				continue
			}
			mine := mapping[orig]
			if !IsLinked(mine, c) {
				mine.linked = append(mine.linked, c)
				c.linked = append(c.linked, mine)
			}
		}
	})
	return out
}

func cloneInto(e *Element, mapping map[*Element]*Element) *Element {
	c := &Element{
		name:           e.name,
		kind:           e.kind,
		Class:          e.Class,
		ClassDef:       e.ClassDef,
		Input:          e.Input,
		Output:         e.Output,
		Multiport:      e.Multiport,
		Value:          e.Value,
		X:              e.X,
		Y:              e.Y,
		RelativeTo:     e.RelativeTo,
		RelativeToKind: e.RelativeToKind,
	}
	mapping[e] = c
	for _, child := range e.children {
		cc := cloneInto(child, mapping)
		cc.container = c
		c.children = append(c.children, cc)
	}
	return c
}

// Instantiate clones a class definition into a new entity named name that
// defers to def.
func Instantiate(def *Element, name string) *Element {
	c := Clone(def)
	c.name = name
	c.ClassDef = false
	c.Class = def.name
	c.SetPrototype(def)
	return c
}
