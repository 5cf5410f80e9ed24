package terminal

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"flowedit/geometry"
)

// cellWidth measures runes in terminal cells, treating ambiguous-width
// runes as narrow whatever the locale.
var cellWidth = &runewidth.Condition{EastAsianWidth: false}

// Box-drawing runes.
const (
	runeHorizontal  = '─'
	runeVertical    = '│'
	runeCross       = '┼'
	runeTopLeft     = '┌'
	runeTopRight    = '┐'
	runeBottomLeft  = '└'
	runeBottomRight = '┘'
)

// Grid is a rune matrix with the drawing primitives the terminal needs.
// Origin (0,0) is top-left. It implements diagram.Canvas.
type Grid struct {
	cells  [][]rune
	width  int
	height int
}

// NewGrid creates a blank grid. Non-positive sizes yield an empty grid.
func NewGrid(width, height int) *Grid {
	width, height = max(width, 0), max(height, 0)
	g := &Grid{width: width, height: height, cells: make([][]rune, height)}
	for y := range g.cells {
		g.cells[y] = make([]rune, width)
	}
	g.Clear()
	return g
}

// Size returns the width and height of the grid.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}

// Get returns the rune at (x, y), or a space outside the grid.
func (g *Grid) Get(x, y int) rune {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return ' '
	}
	return g.cells[y][x]
}

// Set places a rune. Crossing straight lines merge into a junction.
func (g *Grid) Set(x, y int, r rune) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	existing := g.cells[y][x]
	if (existing == runeHorizontal && r == runeVertical) || (existing == runeVertical && r == runeHorizontal) {
		r = runeCross
	}
	g.cells[y][x] = r
}

// Clear resets the grid to all spaces.
func (g *Grid) Clear() {
	for y := range g.cells {
		for x := range g.cells[y] {
			g.cells[y][x] = ' '
		}
	}
}

// String returns the grid as lines joined by newlines.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow(g.height * (g.width + 1))
	for y, row := range g.cells {
		for _, r := range row {
			if r == 0 {
				// Wide character continuation
				continue
			}
			sb.WriteRune(r)
		}
		if y < g.height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// DrawBox draws a w by h rectangle with its top-left cell at (x, y).
func (g *Grid) DrawBox(x, y, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	for i := 1; i < w-1; i++ {
		g.put(x+i, y, runeHorizontal)
		g.put(x+i, y+h-1, runeHorizontal)
	}
	for i := 1; i < h-1; i++ {
		g.put(x, y+i, runeVertical)
		g.put(x+w-1, y+i, runeVertical)
		for j := 1; j < w-1; j++ {
			g.put(x+j, y+i, ' ')
		}
	}
	g.put(x, y, runeTopLeft)
	g.put(x+w-1, y, runeTopRight)
	g.put(x, y+h-1, runeBottomLeft)
	g.put(x+w-1, y+h-1, runeBottomRight)
}

// put writes without junction merging, so boxes cover the links
// passing beneath them.
func (g *Grid) put(x, y int, r rune) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	g.cells[y][x] = r
}

// DrawText writes s from (x, y), truncated to maxWidth cells. Wide runes
// take two cells.
func (g *Grid) DrawText(x, y int, s string, maxWidth int) {
	if maxWidth <= 0 {
		return
	}
	s = cellWidth.Truncate(s, maxWidth, "…")
	for _, r := range s {
		w := cellWidth.RuneWidth(r)
		g.put(x, y, r)
		for i := 1; i < w; i++ {
			g.put(x+i, y, 0)
		}
		x += max(w, 1)
	}
}

// DrawLink draws an orthogonal path from (x1, y1) to (x2, y2) with one
// bend. The longer leg is drawn first.
func (g *Grid) DrawLink(x1, y1, x2, y2 int) {
	if y1 == y2 {
		g.hline(x1, x2, y1)
		return
	}
	if x1 == x2 {
		g.vline(x1, y1, y2)
		return
	}
	sx, sy := sign(x2-x1), sign(y2-y1)
	if geometry.IsHorizontal(float64(x1), float64(y1), float64(x2), float64(y2)) {
		g.hline(x1, x2-sx, y1)
		g.vline(x2, y1+sy, y2)
		g.Set(x2, y1, corner(sx > 0, sy > 0))
		return
	}
	g.vline(x1, y1, y2-sy)
	g.hline(x1+sx, x2, y2)
	g.Set(x1, y2, corner(sx < 0, sy < 0))
}

func (g *Grid) hline(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		g.Set(x, y, runeHorizontal)
	}
}

func (g *Grid) vline(x, y1, y2 int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		g.Set(x, y, runeVertical)
	}
}

// corner returns the bend rune joining a horizontal leg on the west (or
// east) with a vertical leg on the south (or north).
func corner(west, south bool) rune {
	switch {
	case west && south:
		return runeTopRight
	case west:
		return runeBottomRight
	case south:
		return runeTopLeft
	default:
		return runeBottomLeft
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
