package terminal

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"flowedit/change"
	"flowedit/config"
	"flowedit/diagram"
	"flowedit/editor"
	"flowedit/graphmodel"
	"flowedit/model"
	"flowedit/scene"
)

const pair = `
<entity name="A" class="Ramp">
  <property name="_location" class="Location" value="[0, 0]"/>
  <port name="out"><property name="output"/></port>
</entity>
<entity name="B" class="Display">
  <property name="_location" class="Location" value="[200, 0]"/>
  <port name="in"><property name="input"/></port>
</entity>
<relation name="r"/>
<link port="A.out" relation="r"/>
<link port="B.in" relation="r"/>
`

type fixture struct {
	root   *model.Element
	screen tcell.SimulationScreen
	scene  *scene.Scene
	app    *App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	root := model.NewTopLevel("top", "TypedCompositeActor")
	q := change.NewQueue(root, change.WithErrorReporter(func(*change.Request, error) {}))
	if err := q.RequestChange(ctx, change.NewRequest("seed", "seed", "", pair)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)

	a, err := graphmodel.NewAdapter(ctx, q, graphmodel.WithDispatcher(NewDispatcher(screen)))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	sc := scene.New(a)
	ed := editor.New(a, sc, config.Default().Editor)
	return &fixture{root: root, screen: screen, scene: sc, app: NewApp(screen, ed, sc, nil)}
}

func (f *fixture) row(y int) string {
	cells, w, _ := f.screen.GetContents()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(c.Runes[0])
	}
	return sb.String()
}

func (f *fixture) key(r rune) bool {
	return f.app.HandleEvent(context.Background(), tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

func (f *fixture) special(k tcell.Key) bool {
	return f.app.HandleEvent(context.Background(), tcell.NewEventKey(k, 0, tcell.ModNone))
}

func TestDrawShowsEntitiesAndLinks(t *testing.T) {
	f := newFixture(t)
	f.app.Draw()

	if got := f.row(1); !strings.Contains(got, "┌──────────┐") {
		t.Errorf("row 1 = %q", got)
	}
	if got := f.row(2); !strings.Contains(got, "│A") || !strings.Contains(got, "│B") {
		t.Errorf("row 2 = %q", got)
	}
	row3 := f.row(3)
	for _, want := range []string{"Ramp", "▷─", "─▶", "Display"} {
		if !strings.Contains(row3, want) {
			t.Errorf("row 3 = %q, missing %q", row3, want)
		}
	}
	if got := f.row(23); !strings.Contains(got, "0 selected") {
		t.Errorf("status line = %q", got)
	}
}

func TestKeyboardDeleteAndUndo(t *testing.T) {
	f := newFixture(t)
	before := model.Fingerprint(f.root)

	f.key('d')
	if !strings.Contains(f.app.Status(), "nothing selected") {
		t.Errorf("status = %q", f.app.Status())
	}

	f.app.MoveCursorTo(diagram.Point{X: 0, Y: 0})
	f.key(' ')
	if got := len(f.scene.Selection()); got != 1 {
		t.Fatalf("selection has %d figures", got)
	}
	f.key('d')
	if f.root.Child("A") != nil {
		t.Fatal("A not deleted")
	}
	f.special(tcell.KeyCtrlZ)
	if model.Fingerprint(f.root) != before {
		t.Errorf("undo left %v", model.Describe(f.root))
	}
}

func TestToggleSelection(t *testing.T) {
	f := newFixture(t)
	f.app.MoveCursorTo(diagram.Point{X: 200, Y: 0})
	f.key(' ')
	f.key(' ')
	if got := len(f.scene.Selection()); got != 0 {
		t.Errorf("selection after two toggles = %d", got)
	}
	f.key(' ')
	f.special(tcell.KeyEscape)
	if got := len(f.scene.Selection()); got != 0 {
		t.Errorf("escape kept %d figures selected", got)
	}
}

func TestKeyboardMove(t *testing.T) {
	f := newFixture(t)
	f.app.MoveCursorTo(diagram.Point{X: 0, Y: 0})
	f.key(' ')
	f.key('m')
	f.special(tcell.KeyRight)
	f.special(tcell.KeyRight)
	f.special(tcell.KeyEnter)

	loc := f.root.Child("A").Location()
	if loc.X != 10 || loc.Y != 0 {
		t.Errorf("A at [%g, %g], want [10, 0]", loc.X, loc.Y)
	}
	if !strings.Contains(f.app.Status(), "move done") {
		t.Errorf("status = %q", f.app.Status())
	}
}

func TestMouseDrag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x, y := f.app.Viewport().ToCell(diagram.Point{X: 200, Y: 0})

	f.app.HandleEvent(ctx, tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	f.app.HandleEvent(ctx, tcell.NewEventMouse(x, y+2, tcell.Button1, tcell.ModNone))
	f.app.HandleEvent(ctx, tcell.NewEventMouse(x, y+2, tcell.ButtonNone, tcell.ModNone))

	loc := f.root.Child("B").Location()
	if loc.X != 200 || loc.Y != 20 {
		t.Errorf("B at [%g, %g], want [200, 20]", loc.X, loc.Y)
	}
}

func TestDispatcherRunsOnEventLoop(t *testing.T) {
	f := newFixture(t)
	ran := false
	NewDispatcher(f.screen).Invoke(func() { ran = true })
	if ran {
		t.Fatal("function ran on the caller's goroutine")
	}
	// Resize events from screen setup may be queued ahead of the interrupt.
	for i := 0; i < 8 && !ran; i++ {
		f.app.HandleEvent(context.Background(), f.screen.PollEvent())
	}
	if !ran {
		t.Error("interrupt did not run the function")
	}
}

func TestDispatcherWaitsForRoom(t *testing.T) {
	f := newFixture(t)
	queued := 0
	for ; queued < 10000; queued++ {
		if err := f.screen.PostEvent(tcell.NewEventInterrupt(nil)); err != nil {
			break
		}
	}
	ran := false
	NewDispatcher(f.screen).Invoke(func() { ran = true })
	if ran {
		t.Fatal("function ran on the caller's goroutine with a full queue")
	}
	for i := 0; i < queued+8 && !ran; i++ {
		f.app.HandleEvent(context.Background(), f.screen.PollEvent())
	}
	if !ran {
		t.Error("function was dropped")
	}
}

func TestQuitKeys(t *testing.T) {
	f := newFixture(t)
	if f.key('q') {
		t.Error("q did not quit")
	}
	if f.special(tcell.KeyCtrlC) {
		t.Error("ctrl-c did not quit")
	}
	if !f.key('f') {
		t.Error("f quit")
	}
}
