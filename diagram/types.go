// Package diagram contains the geometry types and the view contract shared
// by the editing engines and the front ends.
package diagram

import (
	"fmt"

	"flowedit/geometry"
)

// Point represents a 2D coordinate in model space.
type Point struct {
	X, Y float64
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{p.X + dx, p.Y + dy}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) (dx, dy float64) {
	return p.X - q.X, p.Y - q.Y
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Snap rounds p to the grid.
func Snap(p Point, grid float64) Point {
	return Point{geometry.Snap(p.X, grid), geometry.Snap(p.Y, grid)}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return geometry.Distance(a.X, a.Y, b.X, b.Y)
}

// Bounds represents a rectangular area.
type Bounds struct {
	Min, Max Point
}

// BoundsAround returns a w by h rectangle centered on c.
func BoundsAround(c Point, w, h float64) Bounds {
	return Bounds{
		Min: Point{c.X - w/2, c.Y - h/2},
		Max: Point{c.X + w/2, c.Y + h/2},
	}
}

// Width returns the width of the bounds.
func (b Bounds) Width() float64 {
	return b.Max.X - b.Min.X
}

// Height returns the height of the bounds.
func (b Bounds) Height() float64 {
	return b.Max.Y - b.Min.Y
}

// Center returns the centroid of the bounds.
func (b Bounds) Center() Point {
	return Point{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Contains checks if a point is within the bounds.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y
}

// Translate returns b moved by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{b.Min.Add(dx, dy), b.Max.Add(dx, dy)}
}

// Union returns the smallest bounds covering b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Min: Point{min(b.Min.X, o.Min.X), min(b.Min.Y, o.Min.Y)},
		Max: Point{max(b.Max.X, o.Max.X), max(b.Max.Y, o.Max.Y)},
	}
}
