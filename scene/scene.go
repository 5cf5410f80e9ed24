// Package scene implements diagram.View in memory. Figures are derived from
// a graph adapter and rebuilt whenever its structure changes.
package scene

import (
	"sync"

	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
)

// Figure sizes in model units.
const (
	EntityWidth  = 60
	EntityHeight = 40
	PortSize     = 6
	VertexSize   = 6
	portSpacing  = 10
)

// Figure is a node or link figure.
type Figure struct {
	obj    any
	bounds diagram.Bounds
	path   []diagram.Point
}

func (f *Figure) UserObject() any { return f.obj }

func (f *Figure) Bounds() diagram.Bounds { return f.bounds }

// Path returns the points of a link figure.
func (f *Figure) Path() []diagram.Point { return append([]diagram.Point(nil), f.path...) }

// Label returns a short caption for the figure.
func (f *Figure) Label() string {
	switch v := f.obj.(type) {
	case graphmodel.Node:
		if s := graphmodel.SemanticObject(v); s != nil {
			return s.Name()
		}
		return v.Element.Name()
	case *graphmodel.Link:
		if v.Relation != nil {
			return v.Relation.Name()
		}
	}
	return ""
}

// Scene is an in-memory view over one adapter.
type Scene struct {
	adapter *graphmodel.Adapter

	mu       sync.Mutex
	nodes    []*Figure
	links    []*Figure
	byObject map[any]*Figure
	selected []*Figure
}

// New creates a scene and subscribes it to the adapter's events.
func New(a *graphmodel.Adapter) *Scene {
	s := &Scene{adapter: a}
	s.Rebuild()
	a.AddListener(s)
	return s
}

// Adapter returns the graph the scene shows.
func (s *Scene) Adapter() *graphmodel.Adapter { return s.adapter }

// GraphChanged implements graphmodel.EventListener.
func (s *Scene) GraphChanged(ev graphmodel.Event) {
	switch ev.Kind {
	case graphmodel.StructureChanged:
		s.Rebuild()
	case graphmodel.NodeChanged:
		s.relocate(ev.Element)
	}
}

// Rebuild derives every figure from the adapter. Selected figures whose user
// objects still exist stay selected.
func (s *Scene) Rebuild() {
	nodes := s.adapter.Nodes()
	links := s.adapter.Links()

	s.mu.Lock()
	defer s.mu.Unlock()
	previous := make(map[any]bool, len(s.selected))
	for _, f := range s.selected {
		previous[f.obj] = true
	}
	s.nodes = s.nodes[:0]
	s.links = s.links[:0]
	s.byObject = make(map[any]*Figure, len(nodes)+len(links))
	s.selected = nil
	for _, n := range nodes {
		f := &Figure{obj: n, bounds: nodeBounds(n)}
		s.nodes = append(s.nodes, f)
		s.byObject[n] = f
	}
	for _, l := range links {
		f := &Figure{obj: l}
		s.byObject[l] = f
		s.routeLocked(f)
		s.links = append(s.links, f)
	}
	for _, f := range append(append([]*Figure(nil), s.nodes...), s.links...) {
		if previous[f.obj] {
			s.selected = append(s.selected, f)
		}
	}
}

func (s *Scene) relocate(loc *model.Element) {
	n, ok := graphmodel.Classify(loc)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.byObject[n]
	if f == nil {
		return
	}
	f.bounds = nodeBounds(n)
	holder := loc.Container()
	if holder != nil && holder.Kind() == model.KindEntity {
		for _, p := range holder.Ports() {
			if pf := s.byObject[graphmodel.Node{Kind: graphmodel.NodePort, Element: p}]; pf != nil {
				pf.bounds = nodeBounds(graphmodel.Node{Kind: graphmodel.NodePort, Element: p})
			}
		}
	}
	for _, lf := range s.links {
		l := lf.obj.(*graphmodel.Link)
		if holder != nil && l.Touches(holder) {
			s.routeLocked(lf)
		}
	}
}

// nodeBounds places an entity at its location, a vertex at its coordinate
// and an entity's ports along its left (inputs) and right edges.
func nodeBounds(n graphmodel.Node) diagram.Bounds {
	switch n.Kind {
	case graphmodel.NodeLocation, graphmodel.NodeRelativeLocation:
		x, y := n.Element.Absolute()
		c := diagram.Point{X: x, Y: y}
		if holder := n.Element.Container(); holder != nil && holder.Kind() == model.KindRelation {
			return diagram.BoundsAround(c, VertexSize, VertexSize)
		}
		return diagram.BoundsAround(c, EntityWidth, EntityHeight)
	case graphmodel.NodePort:
		return portBounds(n.Element)
	}
	return diagram.Bounds{}
}

func portBounds(p *model.Element) diagram.Bounds {
	holder := p.Container()
	if loc := p.Location(); loc != nil || holder == nil || holder.Location() == nil {
		var x, y float64
		if loc != nil {
			x, y = loc.Absolute()
		}
		return diagram.BoundsAround(diagram.Point{X: x, Y: y}, PortSize, PortSize)
	}
	cx, cy := holder.Location().Absolute()
	var side []*model.Element
	for _, q := range holder.Ports() {
		if q.Input == p.Input {
			side = append(side, q)
		}
	}
	idx := 0
	for i, q := range side {
		if q == p {
			idx = i
		}
	}
	x := cx + EntityWidth/2
	if p.Input {
		x = cx - EntityWidth/2
	}
	y := cy - float64(len(side)-1)*portSpacing/2 + float64(idx)*portSpacing
	return diagram.BoundsAround(diagram.Point{X: x, Y: y}, PortSize, PortSize)
}

func (s *Scene) routeLocked(f *Figure) {
	l := f.obj.(*graphmodel.Link)
	var pts []diagram.Point
	for _, end := range []*model.Element{l.Head, l.Tail} {
		if end == nil {
			continue
		}
		n, ok := graphmodel.Classify(end)
		if !ok {
			continue
		}
		if nf := s.byObject[n]; nf != nil {
			pts = append(pts, nf.bounds.Center())
		} else {
			pts = append(pts, nodeBounds(n).Center())
		}
	}
	f.path = pts
	if len(pts) == 0 {
		f.bounds = diagram.Bounds{}
		return
	}
	b := diagram.Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.Union(diagram.Bounds{Min: p, Max: p})
	}
	f.bounds = b
}

// Figures returns node figures followed by link figures.
func (s *Scene) Figures() []*Figure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*Figure(nil), s.nodes...)
	return append(out, s.links...)
}

// Selection implements diagram.View.
func (s *Scene) Selection() []diagram.Figure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]diagram.Figure, len(s.selected))
	for i, f := range s.selected {
		out[i] = f
	}
	return out
}

// SetSelection implements diagram.View.
func (s *Scene) SetSelection(figs []diagram.Figure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	seen := make(map[*Figure]bool)
	for _, fig := range figs {
		if f, ok := fig.(*Figure); ok && !seen[f] {
			seen[f] = true
			s.selected = append(s.selected, f)
		}
	}
}

// Deselect implements diagram.View.
func (s *Scene) Deselect(figs ...diagram.Figure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[diagram.Figure]bool, len(figs))
	for _, f := range figs {
		drop[f] = true
	}
	kept := s.selected[:0]
	for _, f := range s.selected {
		if !drop[f] {
			kept = append(kept, f)
		}
	}
	s.selected = kept
}

// FigureAt implements diagram.View. Later figures are on top; ports lie
// above entities.
func (s *Scene) FigureAt(p diagram.Point, exclude func(diagram.Figure) bool) diagram.Figure {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.nodes) - 1; i >= 0; i-- {
		f := s.nodes[i]
		if exclude != nil && exclude(f) {
			continue
		}
		if f.bounds.Contains(p) {
			return f
		}
	}
	return nil
}

// FigureFor implements diagram.View. Besides graph nodes and links it
// accepts model elements, which map to the node showing them.
func (s *Scene) FigureFor(userObject any) diagram.Figure {
	if e, ok := userObject.(*model.Element); ok {
		n, ok := graphmodel.NodeFor(e)
		if !ok {
			return nil
		}
		userObject = n
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.byObject[userObject]; f != nil {
		return f
	}
	return nil
}

// Translate implements diagram.View. Moving an entity figure carries its
// port figures along.
func (s *Scene) Translate(fig diagram.Figure, dx, dy float64) {
	f, ok := fig.(*Figure)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.bounds = f.bounds.Translate(dx, dy)
	n, ok := f.obj.(graphmodel.Node)
	if !ok || n.Kind == graphmodel.NodePort {
		return
	}
	holder := n.Element.Container()
	if holder == nil || holder.Kind() != model.KindEntity {
		return
	}
	for _, p := range holder.Ports() {
		if pf := s.byObject[graphmodel.Node{Kind: graphmodel.NodePort, Element: p}]; pf != nil {
			pf.bounds = pf.bounds.Translate(dx, dy)
		}
	}
}

// Reroute implements diagram.View.
func (s *Scene) Reroute(link any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.byObject[link]; f != nil {
		if _, ok := f.obj.(*graphmodel.Link); ok {
			s.routeLocked(f)
		}
	}
}
