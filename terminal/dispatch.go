package terminal

import (
	"github.com/gdamore/tcell/v2"
)

// Dispatcher runs functions on the goroutine polling a screen's events,
// by posting them as interrupt events. It implements graphmodel.Dispatcher.
type Dispatcher struct {
	screen tcell.Screen
}

// NewDispatcher creates a dispatcher posting to screen.
func NewDispatcher(screen tcell.Screen) *Dispatcher {
	return &Dispatcher{screen: screen}
}

// Invoke queues fn. When the event queue is full the post is retried from
// another goroutine, since the caller may be the event loop itself.
func (d *Dispatcher) Invoke(fn func()) {
	ev := tcell.NewEventInterrupt(fn)
	if err := d.screen.PostEvent(ev); err != nil {
		go d.screen.PostEventWait(ev)
	}
}
