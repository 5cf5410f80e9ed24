package editor

import (
	"context"
	"errors"
	"testing"

	"flowedit/diagram"
	"flowedit/model"
)

const chain = `
<entity name="A" class="Ramp">
  <property name="_location" class="Location" value="[0, 0]"/>
  <port name="p1" class="TypedIOPort"><property name="output"/></port>
</entity>
<entity name="B" class="Display">
  <property name="_location" class="Location" value="[200, 0]"/>
  <port name="p2" class="TypedIOPort"><property name="input"/></port>
</entity>
<relation name="r"/>
<link port="A.p1" relation="r"/>
<link port="B.p2" relation="r"/>
`

// peers returns the ports linked to p through any relation, p excluded.
func peers(p *model.Element) []*model.Element {
	var out []*model.Element
	for _, r := range p.Linked() {
		for _, q := range r.LinkedPorts() {
			if q != p {
				out = append(out, q)
			}
		}
	}
	return out
}

func TestExtractionPreservesConnectivity(t *testing.T) {
	h := newHarness(t, chain)
	h.selectFigures(h.figure(t, "A"))
	if err := h.ed.Extract(context.Background()); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	comp := h.root.Child("CompositeActor")
	if comp == nil {
		t.Fatalf("no composite created:\n%v", model.Describe(h.root))
	}
	if comp.Class != "TypedCompositeActor" {
		t.Errorf("composite class = %s", comp.Class)
	}
	if h.root.Child("A") != nil {
		t.Error("A still at the top level")
	}
	inner := h.element(t, "CompositeActor.A.p1")
	boundary := h.element(t, "CompositeActor.port_0")
	if !boundary.Output || boundary.Input {
		t.Errorf("boundary port flags: in=%v out=%v", boundary.Input, boundary.Output)
	}

	// Inside: A.p1 reaches the boundary port.
	if ps := peers(inner); len(ps) != 1 || ps[0] != boundary {
		t.Errorf("A.p1 peers inside = %v", ps)
	}
	// Outside: the boundary port reaches B.p2.
	b := h.element(t, "B.p2")
	found := false
	for _, r := range boundary.Linked() {
		if r.Container() == h.root && model.IsLinked(b, r) {
			found = true
		}
	}
	if !found {
		t.Errorf("B.p2 is not joined to the boundary port: %v", model.Describe(h.root))
	}
	if loc := comp.Location(); loc == nil || loc.X != 0 || loc.Y != 0 {
		t.Errorf("composite location = %v", loc)
	}
}

func TestExtractionBoundaryDirections(t *testing.T) {
	h := newHarness(t, workbench)
	// A and the vertex of v move inside; B.in and C.in stay outside.
	h.selectFigures(h.figure(t, "A"), h.figure(t, "v"))
	if err := h.ed.Extract(context.Background()); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, name := range []string{"CompositeActor.port_0", "CompositeActor.port_1"} {
		p := h.element(t, name)
		if !p.Output || p.Input {
			t.Errorf("%s flags: in=%v out=%v", name, p.Input, p.Output)
		}
	}
	// The vertex relation moved inside and feeds port_1.
	v := h.element(t, "CompositeActor.v")
	if !model.IsLinked(h.element(t, "CompositeActor.port_1"), v) {
		t.Error("port_1 not linked to the inner vertex relation")
	}
	if !model.IsLinked(h.element(t, "CompositeActor.A.out"), v) {
		t.Error("internal link to v lost")
	}
	// C.in is fed through a fresh relation outside.
	outer := h.element(t, "v_1")
	if !model.IsLinked(h.element(t, "C.in"), outer) || !model.IsLinked(h.element(t, "CompositeActor.port_1"), outer) {
		t.Errorf("outer relation v_1 misses a link: %v", outer.Linked())
	}
}

func TestExtractionDropsSelectedEntityPorts(t *testing.T) {
	h := newHarness(t, chain)
	h.selectFigures(h.figure(t, "A"), h.figure(t, "A.p1"))
	script, err := h.ed.PlanExtraction(h.scene.Selection())
	if err != nil {
		t.Fatalf("PlanExtraction: %v", err)
	}
	if script == "" {
		t.Fatal("empty script")
	}
	if err := h.ed.Extract(context.Background()); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.root.Child("CompositeActor").Child("A") == nil {
		t.Error("A not moved into the composite")
	}
}

func TestExtractionNameAllocation(t *testing.T) {
	h := newHarness(t, chain+`<entity name="CompositeActor" class="TypedCompositeActor"/>`)
	h.selectFigures(h.figure(t, "A"))
	if err := h.ed.Extract(context.Background()); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.root.Child("CompositeActor2") == nil {
		t.Errorf("composite name not made unique: %v", model.Describe(h.root))
	}
}

func TestExtractEmptySelection(t *testing.T) {
	h := newHarness(t, chain)
	if err := h.ed.Extract(context.Background()); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("Extract() = %v, want ErrEmptySelection", err)
	}
}

func TestNameAllocator(t *testing.T) {
	a := newNameAllocator("port_0", "r_1")
	if got := a.next("port", 0); got != "port_1" {
		t.Errorf("next(port, 0) = %s", got)
	}
	if got := a.next("r", 1); got != "r_2" {
		t.Errorf("next(r, 1) = %s", got)
	}
	if got := a.next("port", 0); got != "port_2" {
		t.Errorf("next(port, 0) again = %s", got)
	}
}

const star = `
<entity name="A" class="Ramp">
  <property name="_location" class="Location" value="[0, 0]"/>
  <port name="out" class="TypedIOPort"><property name="output"/></port>
</entity>
<entity name="B" class="Display">
  <property name="_location" class="Location" value="[200, 0]"/>
  <port name="in" class="TypedIOPort"><property name="input"/></port>
</entity>
<entity name="C" class="Display">
  <property name="_location" class="Location" value="[200, 200]"/>
  <port name="in" class="TypedIOPort"><property name="input"/></port>
</entity>
<relation name="r"/>
<link port="A.out" relation="r"/>
<link port="B.in" relation="r"/>
<link port="C.in" relation="r"/>
`

// reaches reports whether from and to are joined through relations,
// passing through ports of composites only.
func reaches(from, to *model.Element) bool {
	seen := map[*model.Element]bool{from: true}
	queue := []*model.Element{from}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if x == to {
			return true
		}
		if x != from && x.Kind() == model.KindPort && !x.Container().IsComposite() {
			continue
		}
		for _, y := range x.Linked() {
			if !seen[y] {
				seen[y] = true
				queue = append(queue, y)
			}
		}
	}
	return false
}

func TestExtractionStarRelationConnectivity(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		moved    map[string]bool
		ports    int
	}{
		{"hub and one leaf inside", []string{"A", "B"}, map[string]bool{"A": true, "B": true}, 1},
		{"two leaves inside", []string{"B", "C"}, map[string]bool{"B": true, "C": true}, 2},
		{"hub alone inside", []string{"A"}, map[string]bool{"A": true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, star)
			var figs []diagram.Figure
			for _, n := range tt.selected {
				figs = append(figs, h.figure(t, n))
			}
			h.selectFigures(figs...)
			if err := h.ed.Extract(context.Background()); err != nil {
				t.Fatalf("Extract: %v", err)
			}
			port := func(entity, name string) *model.Element {
				if tt.moved[entity] {
					return h.element(t, "CompositeActor."+entity+"."+name)
				}
				return h.element(t, entity+"."+name)
			}
			ends := []*model.Element{port("A", "out"), port("B", "in"), port("C", "in")}
			for i, a := range ends {
				for _, b := range ends[i+1:] {
					if !reaches(a, b) {
						t.Errorf("%s no longer reaches %s:\n%v", a.FullName(), b.FullName(), model.Describe(h.root))
					}
				}
			}
			if got := len(h.element(t, "CompositeActor").Ports()); got != tt.ports {
				t.Errorf("composite has %d boundary ports, want %d", got, tt.ports)
			}
		})
	}
}
