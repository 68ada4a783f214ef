package canvas

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Surface is the rendered drawing area. Rasterizing strokes is the
// renderer's business; the session only moves whole snapshots in and out.
type Surface interface {
	Capture() (string, error)
	Render(snapshot string) error
	Clear() error
}

// Publisher sends a full-surface snapshot to the other members of a room.
type Publisher interface {
	PublishSurface(state string) error
}

// Session ties a Surface to its local History. Only locally originated edits
// grow the history; snapshots received from peers are rendered and nothing
// more.
type Session struct {
	mu        sync.Mutex
	surface   Surface
	history   *History[string]
	publisher Publisher
	log       *logrus.Entry
}

type SessionOption func(*Session)

// WithPublisher enables collaboration: undo and redo results are pushed to
// peers as full-state updates.
func WithPublisher(p Publisher) SessionOption {
	return func(s *Session) { s.publisher = p }
}

func WithCapacity(n int) SessionOption {
	return func(s *Session) { s.history = NewHistory[string](n) }
}

func WithLogger(log *logrus.Entry) SessionOption {
	return func(s *Session) { s.log = log }
}

func NewSession(surface Surface, opts ...SessionOption) *Session {
	s := &Session{
		surface: surface,
		history: NewHistory[string](DefaultCapacity),
		log:     logrus.WithField("component", "canvas"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPublisher switches collaboration on (or off with nil) after construction,
// typically once the room join is confirmed.
func (s *Session) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Init records the surface as it is now, usually blank, so the first edit
// can be undone.
func (s *Session) Init() error {
	return s.Commit()
}

// Commit captures the surface after a completed local edit (stroke end,
// shape, text) and pushes it onto the history.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Session) commitLocked() error {
	snapshot, err := s.surface.Capture()
	if err != nil {
		return fmt.Errorf("capture surface: %w", err)
	}
	s.history.Commit(snapshot)
	s.log.WithFields(logrus.Fields{"cursor": s.history.Cursor(), "length": s.history.Len()}).Debug("Snapshot committed")
	return nil
}

// Clear wipes the surface and records the blank state as a new step.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.surface.Clear(); err != nil {
		return fmt.Errorf("clear surface: %w", err)
	}
	return s.commitLocked()
}

// Undo steps back one snapshot. It reports false without error when there is
// nothing to undo.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.Undo()
	if !ok {
		return false, nil
	}
	return true, s.showLocked(snapshot)
}

// Redo steps forward one snapshot. It reports false without error when there
// is nothing to redo.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.Redo()
	if !ok {
		return false, nil
	}
	return true, s.showLocked(snapshot)
}

func (s *Session) showLocked(snapshot string) error {
	if err := s.surface.Render(snapshot); err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	// peers converge on the resulting pixels, not on a replayed operation
	if err := s.publisher.PublishSurface(snapshot); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// ApplyRemote renders a snapshot received from another member or from a
// late-join replay. The local history is left untouched.
func (s *Session) ApplyRemote(snapshot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.surface.Render(snapshot); err != nil {
		return fmt.Errorf("render remote snapshot: %w", err)
	}
	return nil
}

// ApplyRemoteClear wipes the surface on a clear relayed from a peer.
func (s *Session) ApplyRemoteClear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Clear()
}

// Cursor and Len expose the history position, mainly for UI state.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Cursor()
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len()
}

// Buffer is a headless Surface that keeps the last rendered snapshot as is.
// Bots and tests use it in place of a real renderer.
type Buffer struct {
	mu    sync.Mutex
	state string
}

func (b *Buffer) Capture() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, nil
}

func (b *Buffer) Render(snapshot string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = snapshot
	return nil
}

func (b *Buffer) Clear() error {
	return b.Render("")
}

// Draw stands in for a local edit by replacing the buffer contents.
func (b *Buffer) Draw(snapshot string) {
	_ = b.Render(snapshot)
}
