// Package canvas holds the client-side model of a shared drawing surface:
// a bounded undo/redo history of rendered snapshots and the session that
// reconciles it with snapshots arriving from other members.
package canvas

// DefaultCapacity is the number of snapshots a history keeps.
const DefaultCapacity = 50

// History is a fixed-capacity ring buffer of snapshots with a cursor on the
// one currently shown. Committing past capacity evicts the oldest entry.
// The cursor is -1 only while the history is empty.
//
// History is not safe for concurrent use; Session serializes access.
type History[T any] struct {
	buf    []T
	start  int // ring index of the oldest snapshot
	length int
	cursor int // logical index, 0 is the oldest
}

func NewHistory[T any](capacity int) *History[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History[T]{buf: make([]T, capacity), cursor: -1}
}

func (h *History[T]) slot(i int) int {
	return (h.start + i) % len(h.buf)
}

// Commit drops everything after the cursor, appends snapshot and moves the
// cursor onto it.
func (h *History[T]) Commit(snapshot T) {
	var zero T
	for i := h.cursor + 1; i < h.length; i++ {
		h.buf[h.slot(i)] = zero
	}
	h.length = h.cursor + 1

	if h.length == len(h.buf) {
		h.buf[h.start] = zero
		h.start = h.slot(1)
		h.length--
	}

	h.buf[h.slot(h.length)] = snapshot
	h.length++
	h.cursor = h.length - 1
}

// Undo moves the cursor back one step. At the oldest snapshot it is a no-op
// and reports false.
func (h *History[T]) Undo() (T, bool) {
	if h.cursor <= 0 {
		var zero T
		return zero, false
	}
	h.cursor--
	return h.buf[h.slot(h.cursor)], true
}

// Redo moves the cursor forward one step. At the newest snapshot it is a
// no-op and reports false.
func (h *History[T]) Redo() (T, bool) {
	if h.cursor >= h.length-1 {
		var zero T
		return zero, false
	}
	h.cursor++
	return h.buf[h.slot(h.cursor)], true
}

// Current returns the snapshot under the cursor.
func (h *History[T]) Current() (T, bool) {
	if h.cursor < 0 {
		var zero T
		return zero, false
	}
	return h.buf[h.slot(h.cursor)], true
}

func (h *History[T]) Len() int      { return h.length }
func (h *History[T]) Cursor() int   { return h.cursor }
func (h *History[T]) Capacity() int { return len(h.buf) }

func (h *History[T]) CanUndo() bool { return h.cursor > 0 }
func (h *History[T]) CanRedo() bool { return h.cursor < h.length-1 }

// Snapshots returns the retained snapshots, oldest first.
func (h *History[T]) Snapshots() []T {
	out := make([]T, h.length)
	for i := range out {
		out[i] = h.buf[h.slot(i)]
	}
	return out
}

// Reset empties the history.
func (h *History[T]) Reset() {
	clear(h.buf)
	h.start, h.length, h.cursor = 0, 0, -1
}
