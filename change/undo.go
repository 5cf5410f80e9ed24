package change

import "sync"

// DefaultUndoDepth bounds an UndoStack created with a non-positive depth.
const DefaultUndoDepth = 500

// Entry is a compensating script together with the context it applies to.
type Entry struct {
	Context     string
	Script      string
	Description string
}

// UndoStack keeps bounded undo and redo stacks of compensating scripts.
type UndoStack struct {
	mu   sync.Mutex
	undo []Entry
	redo []Entry
	max  int
}

// NewUndoStack creates an empty stack holding at most max entries per side.
func NewUndoStack(max int) *UndoStack {
	if max <= 0 {
		max = DefaultUndoDepth
	}
	return &UndoStack{max: max}
}

func (s *UndoStack) bounded(list []Entry, e Entry) []Entry {
	list = append(list, e)
	if len(list) > s.max {
		list = list[len(list)-s.max:]
	}
	return list
}

// Push records the compensation of a fresh change. The redo stack is
// cleared, since it no longer applies.
func (s *UndoStack) Push(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = s.bounded(s.undo, e)
	s.redo = s.redo[:0]
}

func (s *UndoStack) pushUndo(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = s.bounded(s.undo, e)
}

func (s *UndoStack) pushRedo(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redo = s.bounded(s.redo, e)
}

// CanUndo returns true if an entry is available for undo.
func (s *UndoStack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo returns true if an entry is available for redo.
func (s *UndoStack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// PopUndo removes and returns the most recent undo entry.
func (s *UndoStack) PopUndo() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pop(&s.undo)
}

// PopRedo removes and returns the most recent redo entry.
func (s *UndoStack) PopRedo() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pop(&s.redo)
}

func pop(list *[]Entry) (Entry, bool) {
	if len(*list) == 0 {
		return Entry{}, false
	}
	e := (*list)[len(*list)-1]
	*list = (*list)[:len(*list)-1]
	return e, true
}

// Clear drops both stacks.
func (s *UndoStack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}

// Stats returns the depth of the undo and redo stacks.
func (s *UndoStack) Stats() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}

// Entries returns copies of both stacks, oldest first.
func (s *UndoStack) Entries() (undo, redo []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.undo...), append([]Entry(nil), s.redo...)
}

// Restore replaces both stacks, for example with entries loaded from a
// journal.
func (s *UndoStack) Restore(undo, redo []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append([]Entry(nil), undo...)
	s.redo = append([]Entry(nil), redo...)
	if len(s.undo) > s.max {
		s.undo = s.undo[len(s.undo)-s.max:]
	}
	if len(s.redo) > s.max {
		s.redo = s.redo[len(s.redo)-s.max:]
	}
}
