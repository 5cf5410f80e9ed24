package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxAnchorDepth bounds anchor chains so a cycle reads as absolute.
const maxAnchorDepth = 32

// IsRelativeCapable reports whether a location can be attached to an anchor.
func (e *Element) IsRelativeCapable() bool {
	return e.kind == KindLocation && e.Class == ClassRelativeLocation
}

// IsRelative reports whether a location is currently attached to an anchor.
func (e *Element) IsRelative() bool {
	return e.IsRelativeCapable() && e.RelativeTo != ""
}

// Anchor returns the element a relative location is attached to. The anchor
// is a sibling of the located element. A nil result means the offset is
// read as an absolute coordinate.
func (e *Element) Anchor() *Element {
	if !e.IsRelative() {
		return nil
	}
	holder := e.container
	if holder == nil || holder.container == nil {
		return nil
	}
	anchor := holder.container.Child(e.RelativeTo)
	if anchor == nil || anchor == holder {
		return nil
	}
	return anchor
}

// SetLocation writes the coordinates and notifies listeners.
func (e *Element) SetLocation(x, y float64) {
	e.X, e.Y = x, y
	e.NotifyValueChanged()
}

// Absolute resolves a location to absolute coordinates.
func (e *Element) Absolute() (float64, float64) {
	return e.absolute(0)
}

func (e *Element) absolute(depth int) (float64, float64) {
	anchor := e.Anchor()
	if anchor == nil || depth >= maxAnchorDepth {
		return e.X, e.Y
	}
	loc := anchor.Location()
	if loc == nil {
		return e.X, e.Y
	}
	ax, ay := loc.absolute(depth + 1)
	return ax + e.X, ay + e.Y
}

// Norm returns the Euclidean norm of a location's stored coordinates.
func (e *Element) Norm() float64 {
	return math.Hypot(e.X, e.Y)
}

// FormatPoint encodes coordinates as "[x, y]".
func FormatPoint(x, y float64) string {
	return "[" + strconv.FormatFloat(x, 'g', -1, 64) + ", " + strconv.FormatFloat(y, 'g', -1, 64) + "]"
}

// ParsePoint decodes "[x, y]" (brackets optional).
func ParsePoint(s string) (float64, float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("malformed point %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed point %q: %w", s, err)
	}
	return x, y, nil
}
