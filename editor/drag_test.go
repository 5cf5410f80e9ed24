package editor

import (
	"context"
	"errors"
	"testing"

	"flowedit/diagram"
	"flowedit/model"
)

const relativeD = `
<entity name="D" class="Const">
  <property name="_location" class="RelativeLocation" value="[40, 40]">
    <property name="relativeTo" value="B"/>
    <property name="relativeToElementName" value="entity"/>
  </property>
</entity>
`

const relativeNote = `
<property name="note2" class="Annotation" value="see B">
  <property name="_location" class="RelativeLocation" value="[40, 40]">
    <property name="relativeTo" value="B"/>
    <property name="relativeToElementName" value="entity"/>
  </property>
</property>
`

func TestDragNoOp(t *testing.T) {
	tests := []struct {
		name         string
		press, moves diagram.Point
		release      diagram.Point
	}{
		{"same point", diagram.Point{X: 0, Y: 0}, diagram.Point{X: 0, Y: 0}, diagram.Point{X: 0, Y: 0}},
		{"back to start", diagram.Point{X: 0, Y: 0}, diagram.Point{X: 50, Y: 50}, diagram.Point{X: 0, Y: 0}},
		{"within snap", diagram.Point{X: 0, Y: 0}, diagram.Point{X: 1, Y: 1}, diagram.Point{X: 2, Y: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, workbench)
			h.selectFigures(h.figure(t, "A"))
			before := model.Fingerprint(h.root)

			d := h.ed.Drag()
			d.Press(tt.press)
			d.Move(tt.moves)
			if err := d.Release(context.Background(), tt.release); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if h.depth() != 0 {
				t.Errorf("undo depth = %d, want 0", h.depth())
			}
			if model.Fingerprint(h.root) != before {
				t.Error("tree changed")
			}
			if d.State() != DragIdle {
				t.Errorf("state = %v", d.State())
			}
		})
	}
}

func TestDragStates(t *testing.T) {
	h := newHarness(t, workbench)
	h.selectFigures(h.figure(t, "A"))
	d := h.ed.Drag()
	if err := d.Release(context.Background(), diagram.Point{}); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Release while idle = %v", err)
	}
	d.Press(diagram.Point{X: 0, Y: 0})
	if d.State() != DragPressed {
		t.Errorf("after press: %v", d.State())
	}
	d.Move(diagram.Point{X: 20, Y: 0})
	if d.State() != DragDragging {
		t.Errorf("after move: %v", d.State())
	}
	if c := h.figure(t, "A").Bounds().Center(); c.X != 20 {
		t.Errorf("figure not translated: %v", c)
	}
	d.Cancel()
	if c := h.figure(t, "A").Bounds().Center(); c.X != 0 {
		t.Errorf("cancel left figure at %v", c)
	}
	if h.depth() != 0 {
		t.Error("cancel issued a request")
	}
}

func TestDragWritesSnappedLocation(t *testing.T) {
	h := newHarness(t, workbench)
	h.selectFigures(h.figure(t, "A"), h.figure(t, "v"))
	d := h.ed.Drag()
	d.Press(diagram.Point{X: 1, Y: 1})
	d.Move(diagram.Point{X: 12, Y: 3})
	if err := d.Release(context.Background(), diagram.Point{X: 31, Y: 39}); err != nil {
		t.Fatalf("Release: %v", err)
	}
	loc := h.element(t, "A._location")
	if loc.X != 30 || loc.Y != 40 {
		t.Errorf("A at [%g, %g], want [30, 40]", loc.X, loc.Y)
	}
	vertex := h.element(t, "v.vertex")
	if vertex.X != 130 || vertex.Y != 240 {
		t.Errorf("vertex at [%g, %g], want [130, 240]", vertex.X, vertex.Y)
	}
	if h.depth() != 1 {
		t.Errorf("undo depth = %d, want 1", h.depth())
	}
}

func TestRelativeThreshold(t *testing.T) {
	tests := []struct {
		name       string
		holder     string
		release    diagram.Point
		relativeTo string
		x, y       float64
	}{
		{"short drag stays attached", "D", diagram.Point{X: 290, Y: 40}, "B", 90, 40},
		{"long drag detaches", "D", diagram.Point{X: 540, Y: 40}, "", 540, 40},
		{"drop on another entity attaches", "D", diagram.Point{X: 200, Y: 200}, "C", 40, 40},
		{"attribute drop on entity attaches", "note2", diagram.Point{X: 0, Y: 0}, "A", 40, 40},
		{"attribute long drag detaches", "note2", diagram.Point{X: 540, Y: 40}, "", 540, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, workbench+relativeD+relativeNote)
			h.selectFigures(h.figure(t, tt.holder))
			d := h.ed.Drag()
			d.Press(diagram.Point{X: 240, Y: 40})
			if err := d.Release(context.Background(), tt.release); err != nil {
				t.Fatalf("Release: %v", err)
			}
			loc := h.element(t, tt.holder+"._location")
			if loc.RelativeTo != tt.relativeTo {
				t.Errorf("relativeTo = %q, want %q", loc.RelativeTo, tt.relativeTo)
			}
			if loc.X != tt.x || loc.Y != tt.y {
				t.Errorf("stored [%g, %g], want [%g, %g]", loc.X, loc.Y, tt.x, tt.y)
			}
			if loc.Class != model.ClassRelativeLocation {
				t.Errorf("class = %s", loc.Class)
			}
		})
	}
}

func TestDragWithAnchorKeepsOffset(t *testing.T) {
	h := newHarness(t, workbench+relativeD)
	h.selectFigures(h.figure(t, "B"), h.figure(t, "D"))
	d := h.ed.Drag()
	d.Press(diagram.Point{X: 200, Y: 0})
	if err := d.Release(context.Background(), diagram.Point{X: 500, Y: 0}); err != nil {
		t.Fatalf("Release: %v", err)
	}
	loc := h.element(t, "D._location")
	if loc.RelativeTo != "B" || loc.X != 40 || loc.Y != 40 {
		t.Errorf("D location = %s [%g, %g]", loc.RelativeTo, loc.X, loc.Y)
	}
	if x, _ := loc.Absolute(); x != 540 {
		t.Errorf("absolute x = %g, want 540", x)
	}
}
