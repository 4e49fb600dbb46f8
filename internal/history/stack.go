// Package history keeps bounded undo/redo stacks of deep-copied snapshots.
package history

// entry is one reversible edit.
type entry[T any] struct {
	before T
	after  T
}

// Stack records (before, after) snapshot pairs for one kind of entity.
// Snapshots are cloned on the way in and on the way out, so callers may keep
// mutating the values they pushed or received.
type Stack[T any] struct {
	clone func(T) T
	depth int
	undo  []entry[T]
	redo  []entry[T]
}

// NewStack creates a stack that keeps at most depth undo entries. clone must
// return a reference-independent copy.
func NewStack[T any](depth int, clone func(T) T) *Stack[T] {
	if depth < 1 {
		depth = 1
	}
	return &Stack[T]{clone: clone, depth: depth}
}

// Push records an edit and clears any pending redo entries. It reports
// whether the oldest entry was dropped to stay within depth.
func (s *Stack[T]) Push(before, after T) (dropped bool) {
	s.undo = append(s.undo, entry[T]{before: s.clone(before), after: s.clone(after)})
	s.redo = nil
	if len(s.undo) > s.depth {
		s.undo = s.undo[1:]
		dropped = true
	}
	return dropped
}

// Undo pops the latest edit and returns a copy of its before snapshot.
func (s *Stack[T]) Undo() (T, bool) {
	var zero T
	if len(s.undo) == 0 {
		return zero, false
	}
	e := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, e)
	return s.clone(e.before), true
}

// Redo re-applies the most recently undone edit and returns a copy of its
// after snapshot.
func (s *Stack[T]) Redo() (T, bool) {
	var zero T
	if len(s.redo) == 0 {
		return zero, false
	}
	e := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, e)
	return s.clone(e.after), true
}

// Undoable reports whether Undo has an entry to restore.
func (s *Stack[T]) Undoable() bool { return len(s.undo) > 0 }

// Redoable reports whether Redo has an entry to re-apply.
func (s *Stack[T]) Redoable() bool { return len(s.redo) > 0 }

// ClearRedo discards every pending redo entry.
func (s *Stack[T]) ClearRedo() { s.redo = nil }

// Len returns the number of undo entries.
func (s *Stack[T]) Len() int { return len(s.undo) }
