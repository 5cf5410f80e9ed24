package selection

import (
	"context"
	"testing"

	"flowedit/change"
	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/scene"
)

const nested = `
<entity name="K" class="TypedCompositeActor">
  <property name="_location" class="Location" value="[0, 0]"/>
  <port name="kin"><property name="input"/></port>
  <entity name="X" class="Ramp">
    <property name="_location" class="Location" value="[0, 0]"/>
    <port name="out"><property name="output"/></port>
  </entity>
  <entity name="Y" class="Display">
    <property name="_location" class="Location" value="[100, 0]"/>
    <port name="in"><property name="input"/></port>
  </entity>
  <relation name="inner"/>
  <link port="X.out" relation="inner"/>
  <link port="Y.in" relation="inner"/>
  <relation name="fromBoundary"/>
  <link port="kin" relation="fromBoundary"/>
  <link port="Y.in" relation="fromBoundary"/>
</entity>
<entity name="S" class="Source">
  <property name="_location" class="Location" value="[-200, 0]"/>
  <port name="out"><property name="output"/></port>
</entity>
<entity name="T" class="Display">
  <property name="_location" class="Location" value="[200, 0]"/>
  <port name="in"><property name="input"/></port>
</entity>
<relation name="outer"/>
<link port="S.out" relation="outer"/>
<link port="K.kin" relation="outer"/>
<relation name="side"><vertex name="vertex" value="[100, 100]"/></relation>
<link port="S.out" relation="side"/>
<link port="T.in" relation="side"/>
`

func newScene(t *testing.T) (*graphmodel.Adapter, *scene.Scene) {
	t.Helper()
	ctx := context.Background()
	root := model.NewTopLevel("top", "TypedCompositeActor")
	q := change.NewQueue(root, change.WithErrorReporter(func(*change.Request, error) {}))
	if err := q.RequestChange(ctx, change.NewRequest("seed", "seed", "", nested)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a, err := graphmodel.NewAdapter(ctx, q)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a, scene.New(a)
}

func figureFor(t *testing.T, s *scene.Scene, root *model.Element, name string) diagram.Figure {
	t.Helper()
	e, err := root.Resolve(name)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", name, err)
	}
	f := s.FigureFor(e)
	if f == nil {
		t.Fatalf("no figure for %s", name)
	}
	return f
}

func relations(edges []*graphmodel.Link) map[string]int {
	out := make(map[string]int)
	for _, l := range edges {
		out[l.Relation.Name()]++
	}
	return out
}

func TestCompositeClosure(t *testing.T) {
	a, s := newScene(t)
	sel := Resolve(a, []diagram.Figure{figureFor(t, s, a.Root(), "K")})

	got := relations(sel.Edges)
	if got["inner"] != 1 || got["fromBoundary"] != 1 {
		t.Errorf("internal links missing: %v", got)
	}
	if got["outer"] != 0 {
		t.Errorf("link with one end inside included: %v", got)
	}
	k, _ := a.Root().Resolve("K")
	if len(sel.Objects) != 1 || sel.Objects[0] != k {
		t.Errorf("objects = %v", sel.Objects)
	}
	if !sel.Covers(k) || sel.Contains(a.Root()) {
		t.Error("Covers/Contains disagree with objects")
	}
}

func TestLinkNeedsBothEnds(t *testing.T) {
	a, s := newScene(t)
	root := a.Root()
	tests := []struct {
		name  string
		figs  []string
		edges map[string]int
	}{
		{"source only", []string{"S"}, map[string]int{}},
		{"source and composite", []string{"S", "K"}, map[string]int{"outer": 1, "inner": 1, "fromBoundary": 1}},
		{"source and target without vertex", []string{"S", "T"}, map[string]int{}},
		{"source target and vertex", []string{"S", "T", "side"}, map[string]int{"side": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var figs []diagram.Figure
			for _, n := range tt.figs {
				figs = append(figs, figureFor(t, s, root, n))
			}
			got := relations(Resolve(a, figs).Edges)
			if len(got) != len(tt.edges) {
				t.Fatalf("edges = %v, want %v", got, tt.edges)
			}
			for r, n := range tt.edges {
				if got[r] != n {
					t.Errorf("edges via %s = %d, want %d", r, got[r], n)
				}
			}
		})
	}
}

func TestObjectsIgnoreFigureOrder(t *testing.T) {
	a, s := newScene(t)
	root := a.Root()
	forward := []diagram.Figure{
		figureFor(t, s, root, "T"),
		figureFor(t, s, root, "side"),
		figureFor(t, s, root, "S"),
		figureFor(t, s, root, "S.out"),
	}
	backward := []diagram.Figure{forward[3], forward[2], forward[1], forward[0]}

	first := Resolve(a, forward).Objects
	second := Resolve(a, backward).Objects
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("objects[%d]: %s vs %s", i, first[i].FullName(), second[i].FullName())
		}
	}
}

func TestIgnoresForeignFigures(t *testing.T) {
	a, _ := newScene(t)
	sel := Resolve(a, []diagram.Figure{stray{}})
	if !sel.Empty() || len(sel.Nodes) != 0 {
		t.Errorf("stray figure resolved to %v", sel.Objects)
	}
}

type stray struct{}

func (stray) UserObject() any        { return "not a graph object" }
func (stray) Bounds() diagram.Bounds { return diagram.Bounds{} }
