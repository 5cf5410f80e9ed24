package terminal

import (
	"math"

	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/scene"
)

// Default model units per terminal cell.
const (
	DefaultScaleX = 5
	DefaultScaleY = 10
)

// Viewport maps model coordinates to terminal cells.
type Viewport struct {
	Origin         diagram.Point // model point shown in cell (0, 0)
	ScaleX, ScaleY float64
}

// NewViewport creates a viewport at the model origin with default scale.
func NewViewport() *Viewport {
	return &Viewport{ScaleX: DefaultScaleX, ScaleY: DefaultScaleY}
}

// ToCell returns the cell showing p.
func (v *Viewport) ToCell(p diagram.Point) (int, int) {
	return int(math.Floor((p.X - v.Origin.X) / v.ScaleX)), int(math.Floor((p.Y - v.Origin.Y) / v.ScaleY))
}

// ToModel returns the model point at the top-left of cell (x, y).
func (v *Viewport) ToModel(x, y int) diagram.Point {
	return diagram.Point{X: v.Origin.X + float64(x)*v.ScaleX, Y: v.Origin.Y + float64(y)*v.ScaleY}
}

// Pan shifts the viewport by whole cells.
func (v *Viewport) Pan(dx, dy int) {
	v.Origin = v.Origin.Add(float64(dx)*v.ScaleX, float64(dy)*v.ScaleY)
}

// Fit places the origin so that b starts one cell in from the top-left.
func (v *Viewport) Fit(b diagram.Bounds) {
	v.Origin = diagram.Point{
		X: math.Floor(b.Min.X/v.ScaleX)*v.ScaleX - v.ScaleX,
		Y: math.Floor(b.Min.Y/v.ScaleY)*v.ScaleY - v.ScaleY,
	}
}

// Extent returns the union of the node figures' bounds.
func Extent(figs []*scene.Figure) (diagram.Bounds, bool) {
	var (
		out   diagram.Bounds
		found bool
	)
	for _, f := range figs {
		if !graphmodel.IsNode(f.UserObject()) {
			continue
		}
		if !found {
			out, found = f.Bounds(), true
			continue
		}
		out = out.Union(f.Bounds())
	}
	return out, found
}

// Render draws the figures onto g: links first, then entities, vertices,
// ports and attribute labels.
func Render(g *Grid, v *Viewport, figs []*scene.Figure) {
	g.Clear()
	for _, f := range figs {
		if _, ok := f.UserObject().(*graphmodel.Link); !ok {
			continue
		}
		path := f.Path()
		for i := 1; i < len(path); i++ {
			x1, y1 := v.ToCell(path[i-1])
			x2, y2 := v.ToCell(path[i])
			g.DrawLink(x1, y1, x2, y2)
		}
	}
	var ports []*scene.Figure
	for _, f := range figs {
		n, ok := graphmodel.Classify(f.UserObject())
		if !ok {
			continue
		}
		if n.Kind == graphmodel.NodePort {
			ports = append(ports, f)
			continue
		}
		drawLocated(g, v, f, n)
	}
	for _, f := range ports {
		n, _ := graphmodel.Classify(f.UserObject())
		x, y := v.ToCell(f.Bounds().Center())
		g.put(x, y, portRune(n.Element))
	}
}

func drawLocated(g *Grid, v *Viewport, f *scene.Figure, n graphmodel.Node) {
	holder := n.Element.Container()
	b := f.Bounds()
	switch {
	case holder == nil:
		return
	case holder.Kind() == model.KindRelation:
		x, y := v.ToCell(b.Center())
		g.put(x, y, '◆')
	case holder.Kind() == model.KindEntity:
		x0, y0 := v.ToCell(b.Min)
		x1, y1 := v.ToCell(b.Max)
		w, h := x1-x0, y1-y0
		g.DrawBox(x0, y0, w, h)
		g.DrawText(x0+1, y0+1, f.Label(), w-2)
		if h > 3 && holder.Class != "" {
			g.DrawText(x0+1, y0+2, holder.Class, w-2)
		}
	default:
		x, y := v.ToCell(b.Center())
		label := holder.Name()
		if holder.Value != "" {
			label += "=" + holder.Value
		}
		g.DrawText(x, y, label, 24)
	}
}

// portRune shows direction: an arrow pointing along the data flow.
func portRune(p *model.Element) rune {
	switch {
	case p.Input && p.Output:
		return '◇'
	case p.Output:
		return '▷'
	case p.Input:
		return '▶'
	}
	return 'o'
}
