package diagram

// Figure is a visual element. Its user object is a graph node or edge.
type Figure interface {
	UserObject() any
	Bounds() Bounds
}

// View is everything the editing engines need from a renderer.
type View interface {
	// Selection returns the selected figures.
	Selection() []Figure

	// SetSelection replaces the selection.
	SetSelection(figs []Figure)

	// Deselect removes figures from the selection.
	Deselect(figs ...Figure)

	// FigureAt returns the topmost figure containing p, skipping figures
	// for which exclude returns true. A nil exclude skips nothing.
	FigureAt(p Point, exclude func(Figure) bool) Figure

	// FigureFor returns the figure showing a user object, or nil.
	FigureFor(userObject any) Figure

	// Translate moves a figure.
	Translate(fig Figure, dx, dy float64)

	// Reroute recomputes the path of an edge figure after its ends moved.
	Reroute(link any)
}

// Canvas represents a 2D grid of character cells for drawing.
type Canvas interface {
	// Size returns the width and height in cells.
	Size() (width, height int)

	// Set places a character at the given cell. Out of range cells are
	// ignored.
	Set(x, y int, char rune)

	// Clear resets the canvas to all spaces.
	Clear()
}
