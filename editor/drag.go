package editor

import (
	"context"
	"errors"
	"math"

	"flowedit/diagram"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/moml"
)

// DragState is the state of a drag gesture.
type DragState int

const (
	DragIdle DragState = iota
	DragPressed
	DragDragging
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragPressed:
		return "pressed"
	case DragDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// ErrNotDragging is returned by Release outside a gesture.
var ErrNotDragging = errors.New("no drag in progress")

// Drag moves the selected node figures. Pointer positions are snapped to
// the grid; the model is written once, on release.
type Drag struct {
	ed    *Editor
	state DragState
	start diagram.Point
	last  diagram.Point
	figs  []diagram.Figure
}

// State returns the gesture's state.
func (d *Drag) State() DragState { return d.state }

func (d *Drag) snap(p diagram.Point) diagram.Point {
	return diagram.Snap(p, d.ed.settings.Grid)
}

// Press starts a gesture at p over the selected node figures.
func (d *Drag) Press(p diagram.Point) {
	d.figs = d.figs[:0]
	for _, f := range d.ed.view.Selection() {
		if graphmodel.IsNode(f.UserObject()) {
			d.figs = append(d.figs, f)
		}
	}
	d.start = d.snap(p)
	d.last = d.start
	d.state = DragPressed
}

// Move translates the dragged figures to follow p.
func (d *Drag) Move(p diagram.Point) {
	if d.state == DragIdle {
		return
	}
	next := d.snap(p)
	dx, dy := next.Sub(d.last)
	if dx == 0 && dy == 0 {
		return
	}
	d.state = DragDragging
	d.ed.translate(d.figs, dx, dy)
	d.last = next
}

// Release ends the gesture at p and commits the net displacement.
func (d *Drag) Release(ctx context.Context, p diagram.Point) error {
	if d.state == DragIdle {
		return ErrNotDragging
	}
	d.Move(p)
	dx, dy := d.last.Sub(d.start)
	figs := d.figs
	d.figs = nil
	d.state = DragIdle
	return d.ed.commitMove(ctx, figs, dx, dy, d.last)
}

// Cancel puts the dragged figures back and ends the gesture.
func (d *Drag) Cancel() {
	if d.state == DragIdle {
		return
	}
	dx, dy := d.start.Sub(d.last)
	d.ed.translate(d.figs, dx, dy)
	d.figs = nil
	d.state = DragIdle
}

func (e *Editor) translate(figs []diagram.Figure, dx, dy float64) {
	rerouted := make(map[*graphmodel.Link]bool)
	for _, f := range figs {
		e.view.Translate(f, dx, dy)
		holder := graphmodel.SemanticObject(f.UserObject())
		if holder == nil {
			continue
		}
		for _, l := range e.adapter.LinksAt(holder) {
			if !rerouted[l] {
				rerouted[l] = true
				e.view.Reroute(l)
			}
		}
	}
}

// Move nudges the selected node figures by dx, dy without a pointer.
func (e *Editor) Move(ctx context.Context, dx, dy float64) error {
	var figs []diagram.Figure
	for _, f := range e.view.Selection() {
		if graphmodel.IsNode(f.UserObject()) {
			figs = append(figs, f)
		}
	}
	if len(figs) == 0 {
		return ErrEmptySelection
	}
	e.translate(figs, dx, dy)
	return e.commitMove(ctx, figs, dx, dy, figs[0].Bounds().Center())
}

// dragTargets returns the distinct locations written by moving figs. A
// standalone port gets a location on demand.
func (e *Editor) dragTargets(ctx context.Context, figs []diagram.Figure) ([]*model.Element, error) {
	var (
		out  []*model.Element
		seen = make(map[*model.Element]bool)
	)
	for _, f := range figs {
		n, ok := graphmodel.Classify(f.UserObject())
		if !ok {
			continue
		}
		var loc *model.Element
		switch n.Kind {
		case graphmodel.NodeLocation, graphmodel.NodeRelativeLocation:
			loc = n.Element
		case graphmodel.NodePort:
			if n.Element.Container() != e.root() {
				continue
			}
			var err error
			if loc, err = e.adapter.LocationOf(ctx, n.Element); err != nil {
				return nil, err
			}
		default:
			continue
		}
		if loc != nil && !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}
	return out, nil
}

// anchorAt finds a non-relative entity sibling of holder under p.
func (e *Editor) anchorAt(p diagram.Point, holder *model.Element, dragged []diagram.Figure) *model.Element {
	skip := make(map[diagram.Figure]bool, len(dragged))
	for _, f := range dragged {
		skip[f] = true
	}
	fig := e.view.FigureAt(p, func(f diagram.Figure) bool {
		if skip[f] {
			return true
		}
		n, ok := graphmodel.Classify(f.UserObject())
		return !ok || n.Kind != graphmodel.NodeLocation
	})
	if fig == nil {
		return nil
	}
	target := graphmodel.SemanticObject(fig.UserObject())
	if target == nil || target == holder || target.Kind() != model.KindEntity || target.Container() != holder.Container() {
		return nil
	}
	return target
}

// commitMove writes the displaced locations in one undoable request. A
// relative-capable location released over an entity attaches to it at the
// configured initial offset; a relative one pulled past the break distance
// becomes absolute.
func (e *Editor) commitMove(ctx context.Context, figs []diagram.Figure, dx, dy float64, release diagram.Point) error {
	if dx == 0 && dy == 0 {
		return nil
	}
	locs, err := e.dragTargets(ctx, figs)
	if err != nil {
		return err
	}
	moving := make(map[*model.Element]bool, len(locs))
	for _, loc := range locs {
		moving[loc.Container()] = true
	}
	var do, undo []string
	for _, loc := range locs {
		holder := loc.Container()
		if holder == nil {
			continue
		}
		nx, ny := loc.X+dx, loc.Y+dy
		relTo, relKind := loc.RelativeTo, loc.RelativeToKind
		anchor := loc.Anchor()
		switch {
		case anchor != nil && moving[anchor]:
			// Moving together with its anchor keeps the offset.
			nx, ny = loc.X, loc.Y
		case loc.IsRelativeCapable() && holder.Kind() != model.KindRelation:
			if target := e.anchorAt(release, holder, figs); target != nil {
				if target != anchor {
					relTo, relKind = target.Name(), target.Kind().String()
					nx, ny = e.settings.InitialOffset[0], e.settings.InitialOffset[1]
				}
			} else if anchor != nil && math.Hypot(nx, ny) > e.settings.BreakDistance {
				var ax, ay float64
				if al := anchor.Location(); al != nil {
					ax, ay = al.Absolute()
				}
				nx, ny = ax+nx, ay+ny
				relTo, relKind = "", ""
			}
		}
		if nx == loc.X && ny == loc.Y && relTo == loc.RelativeTo && relKind == loc.RelativeToKind {
			continue
		}
		name := e.rel(loc)
		var b, u moml.Builder
		if holder.Kind() == model.KindRelation {
			b.Element("vertex", "name", name, "value", model.FormatPoint(nx, ny))
			u.Element("vertex", "name", name, "value", model.FormatPoint(loc.X, loc.Y))
		} else {
			b.Location(name, loc.Class, nx, ny, relTo, relKind)
			u.Location(name, loc.Class, loc.X, loc.Y, loc.RelativeTo, loc.RelativeToKind)
		}
		do = append(do, b.String())
		undo = append([]string{u.String()}, undo...)
	}
	if len(do) == 0 {
		return nil
	}
	var script, undoScript moml.Builder
	for _, s := range do {
		script.Raw(s)
	}
	for _, s := range undo {
		undoScript.Raw(s)
	}
	req := e.request("Move", moml.Group(script.String()))
	req.UndoScript = moml.Group(undoScript.String())
	return e.queue.RequestChange(ctx, req)
}
