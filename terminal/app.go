// Package terminal is a character-cell front end: it draws a scene on a
// tcell screen and turns keys and mouse gestures into editor operations.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"flowedit/diagram"
	"flowedit/editor"
	"flowedit/geometry"
	"flowedit/scene"
)

var (
	styleNormal   = tcell.StyleDefault
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleCursor   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Underline(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// App owns the screen and the event loop.
type App struct {
	screen tcell.Screen
	ed     *editor.Editor
	scene  *scene.Scene
	view   *Viewport
	logger *slog.Logger

	cursorX, cursorY int
	mouseDown        bool
	status           string
}

// NewApp creates an app drawing sc on screen. The screen must be
// initialized.
func NewApp(screen tcell.Screen, ed *editor.Editor, sc *scene.Scene, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{screen: screen, ed: ed, scene: sc, view: NewViewport(), logger: logger}
	if b, ok := Extent(sc.Figures()); ok {
		a.view.Fit(b)
	}
	return a
}

// Viewport returns the model-to-cell mapping.
func (a *App) Viewport() *Viewport { return a.view }

// Status returns the message shown on the status line.
func (a *App) Status() string { return a.status }

// Cursor returns the cursor cell.
func (a *App) Cursor() (int, int) { return a.cursorX, a.cursorY }

// MoveCursorTo puts the cursor on the cell showing p.
func (a *App) MoveCursorTo(p diagram.Point) {
	a.cursorX, a.cursorY = a.view.ToCell(p)
}

func (a *App) cursorPoint() diagram.Point {
	return a.view.ToModel(a.cursorX, a.cursorY)
}

// Run polls events until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	go func() {
		<-ctx.Done()
		a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()
	a.Draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if !a.HandleEvent(ctx, ev) {
			return nil
		}
		a.Draw()
	}
}

// HandleEvent applies one event. It returns false when the app should
// exit.
func (a *App) HandleEvent(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func()); ok {
			fn()
		}
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventMouse:
		a.handleMouse(ctx, ev)
	case *tcell.EventKey:
		return a.handleKey(ctx, ev)
	}
	return true
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		a.step(0, -1)
	case tcell.KeyDown:
		a.step(0, 1)
	case tcell.KeyLeft:
		a.step(-1, 0)
	case tcell.KeyRight:
		a.step(1, 0)
	case tcell.KeyEnter:
		a.release(ctx)
	case tcell.KeyEscape:
		if a.ed.Drag().State() != editor.DragIdle {
			a.ed.Drag().Cancel()
			a.status = "move cancelled"
		} else {
			a.scene.SetSelection(nil)
		}
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		a.do("delete", a.ed.Delete(ctx))
	case tcell.KeyCtrlZ:
		a.do("undo", a.ed.Undo(ctx))
	case tcell.KeyCtrlY:
		a.do("redo", a.ed.Redo(ctx))
	case tcell.KeyRune:
		return a.handleRune(ctx, ev.Rune())
	}
	return true
}

func (a *App) handleRune(ctx context.Context, r rune) bool {
	switch r {
	case 'q':
		return false
	case 'h':
		a.step(-1, 0)
	case 'j':
		a.step(0, 1)
	case 'k':
		a.step(0, -1)
	case 'l':
		a.step(1, 0)
	case ' ':
		a.toggle()
	case 'm':
		if a.ed.Drag().State() == editor.DragIdle {
			a.ed.Drag().Press(a.cursorPoint())
			a.status = "moving: arrows to drag, enter to drop, esc to cancel"
		} else {
			a.release(ctx)
		}
	case 'd':
		a.do("delete", a.ed.Delete(ctx))
	case 'x':
		a.do("extract", a.ed.Extract(ctx))
	case 'c':
		a.do("copy", a.ed.Copy())
	case 'p':
		a.do("paste", a.ed.Paste(ctx))
	case 'u':
		a.do("undo", a.ed.Undo(ctx))
	case 'r':
		a.do("redo", a.ed.Redo(ctx))
	case 'f':
		if b, ok := Extent(a.scene.Figures()); ok {
			a.view.Fit(b)
		}
	}
	return true
}

// step moves the cursor, dragging the selection along while a move is
// under way. The cursor stays on screen; the view pans at the edges.
func (a *App) step(dx, dy int) {
	w, h := a.screen.Size()
	x, y := a.cursorX+dx, a.cursorY+dy
	a.cursorX = geometry.Clamp(x, 0, max(w-1, 0))
	a.cursorY = geometry.Clamp(y, 0, max(h-2, 0))
	if x != a.cursorX || y != a.cursorY {
		a.view.Pan(x-a.cursorX, y-a.cursorY)
	}
	if a.ed.Drag().State() != editor.DragIdle {
		a.ed.Drag().Move(a.cursorPoint())
	}
}

func (a *App) toggle() {
	f := a.scene.FigureAt(a.cursorPoint(), nil)
	if f == nil {
		return
	}
	for _, s := range a.scene.Selection() {
		if s == f {
			a.scene.Deselect(f)
			return
		}
	}
	a.scene.SetSelection(append(a.scene.Selection(), f))
}

func (a *App) release(ctx context.Context) {
	if a.ed.Drag().State() == editor.DragIdle {
		return
	}
	a.do("move", a.ed.Drag().Release(ctx, a.cursorPoint()))
}

func (a *App) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	x, y := ev.Position()
	a.cursorX, a.cursorY = x, y
	p := a.cursorPoint()
	pressed := ev.Buttons()&tcell.Button1 != 0
	switch {
	case pressed && !a.mouseDown:
		a.mouseDown = true
		f := a.scene.FigureAt(p, nil)
		if f == nil {
			a.scene.SetSelection(nil)
			return
		}
		selected := false
		for _, s := range a.scene.Selection() {
			selected = selected || s == f
		}
		if !selected {
			a.scene.SetSelection([]diagram.Figure{f})
		}
		a.ed.Drag().Press(p)
	case pressed:
		if a.ed.Drag().State() != editor.DragIdle {
			a.ed.Drag().Move(p)
		}
	case a.mouseDown:
		a.mouseDown = false
		a.release(ctx)
	}
}

// do records the outcome of an operation on the status line.
func (a *App) do(op string, err error) {
	switch {
	case err == nil:
		a.status = op + " done"
	case errors.Is(err, editor.ErrEmptySelection), errors.Is(err, editor.ErrClipboardEmpty):
		a.status = fmt.Sprintf("%s: %v", op, err)
	default:
		a.status = fmt.Sprintf("%s failed: %v", op, err)
		a.logger.Warn("operation failed", "op", op, "error", err)
	}
}

// Draw renders the scene, the selection, the cursor and the status line.
func (a *App) Draw() {
	w, h := a.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	g := NewGrid(w, h-1)
	figs := a.scene.Figures()
	Render(g, a.view, figs)

	highlight := make(map[[2]int]bool)
	for _, f := range a.scene.Selection() {
		x0, y0 := a.view.ToCell(f.Bounds().Min)
		x1, y1 := a.view.ToCell(f.Bounds().Max)
		for y := y0; y <= max(y0, y1-1); y++ {
			for x := x0; x <= max(x0, x1-1); x++ {
				highlight[[2]int{x, y}] = true
			}
		}
	}

	a.screen.Clear()
	for y := 0; y < h-1; y++ {
		for x := 0; x < w; x++ {
			r := g.Get(x, y)
			if r == 0 {
				continue
			}
			style := styleNormal
			if highlight[[2]int{x, y}] {
				style = styleSelected
			}
			if x == a.cursorX && y == a.cursorY {
				style = styleCursor
			}
			a.screen.SetContent(x, y, r, nil, style)
		}
	}

	undo, redo := a.ed.Adapter().Queue().UndoStack().Stats()
	line := fmt.Sprintf(" %s | %d selected | undo %d redo %d | %s",
		a.ed.Drag().State(), len(a.scene.Selection()), undo, redo, a.status)
	status := NewGrid(w, 1)
	status.DrawText(0, 0, line, w)
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, status.Get(x, 0), nil, styleStatus)
	}
	a.screen.Show()
}
