package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
	"github.com/Vasu1712/scenyx-canvas/internal/roomid"
)

const (
	DefaultRoomName    = "Untitled Room"
	DefaultMaxAttempts = 10
	DefaultGracePeriod = 5 * time.Minute
)

// AfterFunc schedules f to run once after d. It matches time.AfterFunc minus
// the returned timer.
type AfterFunc func(d time.Duration, f func())

// RoomStore is the in-memory registry of active rooms. Every mutation of a
// Room goes through its methods; lookups hand out copies.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room // canonical room ID -> room

	// latest cleanup ticket per room; only the task holding it may act
	pending map[string]uint64
	seq     uint64

	generate    roomid.Generator
	maxAttempts int
	grace       time.Duration
	now         func() time.Time
	afterFunc   AfterFunc
	log         *logrus.Entry
}

type Option func(*RoomStore)

// WithGenerator replaces the identifier generator.
func WithGenerator(g roomid.Generator) Option {
	return func(s *RoomStore) { s.generate = g }
}

// WithMaxAttempts bounds the identifier retry loop.
func WithMaxAttempts(n int) Option {
	return func(s *RoomStore) { s.maxAttempts = n }
}

// WithGracePeriod sets the delay before an empty room is eligible for deletion.
func WithGracePeriod(d time.Duration) Option {
	return func(s *RoomStore) { s.grace = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *RoomStore) { s.now = now }
}

func WithAfterFunc(f AfterFunc) Option {
	return func(s *RoomStore) { s.afterFunc = f }
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *RoomStore) { s.log = log }
}

// NewRoomStore creates an empty registry.
func NewRoomStore(opts ...Option) *RoomStore {
	s := &RoomStore{
		rooms:       make(map[string]*models.Room),
		pending:     make(map[string]uint64),
		generate:    roomid.Generate,
		maxAttempts: DefaultMaxAttempts,
		grace:       DefaultGracePeriod,
		now:         time.Now,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		log:         logrus.WithField("component", "room_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom allocates a fresh identifier and registers an empty room.
// It fails with ErrIdentifierExhausted when every attempt collides.
func (s *RoomStore) CreateRoom(name string, isPrivate bool) (models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRoomName
	}

	s.mu.Lock()
	id, err := s.allocateID()
	if err != nil {
		s.mu.Unlock()
		s.log.WithError(err).Error("Room creation failed")
		return models.Room{}, err
	}

	now := s.now()
	room := &models.Room{
		ID:           id,
		Name:         name,
		IsPrivate:    isPrivate,
		CreatedAt:    now,
		LastActivity: now,
		Members:      []models.Member{},
	}
	s.rooms[id] = room
	count := len(s.rooms)
	out := room.Clone()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"room_id":      id,
		"room_name":    name,
		"private":      isPrivate,
		"active_rooms": count,
	}).Info("Room created")

	// a room nobody joins is reclaimed like one everybody left
	s.ScheduleIdleCleanup(id, s.grace)
	return out, nil
}

// allocateID must be called with s.mu held.
func (s *RoomStore) allocateID() (string, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		id := roomid.Normalize(s.generate())
		if _, taken := s.rooms[id]; !taken && id != "" {
			return id, nil
		}
		s.log.WithFields(logrus.Fields{"room_id": id, "attempt": attempt}).Warn("Generated room id already in use, retrying")
	}
	return "", fmt.Errorf("%w after %d attempts", models.ErrIdentifierExhausted, s.maxAttempts)
}

// LookupRoom finds a room regardless of the identifier's letter case.
func (s *RoomStore) LookupRoom(id string) (models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomid.Normalize(id)]
	if !ok {
		return models.Room{}, notFound(id)
	}
	return room.Clone(), nil
}

// AddMember appends member to the room, replacing any earlier record for the
// same connection, and returns the updated room.
func (s *RoomStore) AddMember(id string, member models.Member) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomid.Normalize(id)]
	if !ok {
		return models.Room{}, notFound(id)
	}

	if member.JoinedAt.IsZero() {
		member.JoinedAt = s.now()
	}
	room.Members = lo.Reject(room.Members, func(m models.Member, _ int) bool {
		return m.ConnectionID == member.ConnectionID
	})
	room.Members = append(room.Members, member)
	room.LastActivity = s.now()

	s.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"conn_id": member.ConnectionID,
		"role":    member.Role,
		"members": len(room.Members),
	}).Info("Member joined room")
	return room.Clone(), nil
}

// RemoveMember drops the member record for connID and reports how many
// members remain. When the room becomes empty an idle cleanup is scheduled.
func (s *RoomStore) RemoveMember(id, connID string) (models.Member, int, error) {
	s.mu.Lock()
	room, ok := s.rooms[roomid.Normalize(id)]
	if !ok {
		s.mu.Unlock()
		return models.Member{}, 0, notFound(id)
	}

	removed, idx, found := lo.FindIndexOf(room.Members, func(m models.Member) bool {
		return m.ConnectionID == connID
	})
	if !found {
		remaining := len(room.Members)
		s.mu.Unlock()
		return models.Member{}, remaining, fmt.Errorf("%w: %s in %s", models.ErrNotMember, connID, room.ID)
	}
	room.Members = append(room.Members[:idx], room.Members[idx+1:]...)
	room.LastActivity = s.now()
	remaining := len(room.Members)
	roomID := room.ID
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"room_id":   roomID,
		"conn_id":   connID,
		"remaining": remaining,
	}).Info("Member left room")

	if remaining == 0 {
		s.ScheduleIdleCleanup(roomID, s.grace)
	}
	return removed, remaining, nil
}

// UpdateSurfaceState replaces the stored full-surface snapshot.
func (s *RoomStore) UpdateSurfaceState(id, state string) error {
	return s.mutate(id, func(r *models.Room) {
		r.SurfaceState = &state
	})
}

// ClearSurfaceState forgets the stored snapshot; late joiners get a blank surface.
func (s *RoomStore) ClearSurfaceState(id string) error {
	return s.mutate(id, func(r *models.Room) {
		r.SurfaceState = nil
	})
}

// Touch refreshes the room's last-activity time.
func (s *RoomStore) Touch(id string) error {
	return s.mutate(id, func(*models.Room) {})
}

func (s *RoomStore) mutate(id string, fn func(*models.Room)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomid.Normalize(id)]
	if !ok {
		return notFound(id)
	}
	fn(room)
	room.LastActivity = s.now()
	return nil
}

// ScheduleIdleCleanup deletes the room after grace unless it was repopulated
// or saw activity in the meantime. Scheduling again for the same room
// supersedes the earlier task.
func (s *RoomStore) ScheduleIdleCleanup(id string, grace time.Duration) {
	s.schedule(roomid.Normalize(id), grace, grace)
}

func (s *RoomStore) schedule(id string, delay, grace time.Duration) {
	s.mu.Lock()
	if _, ok := s.rooms[id]; !ok {
		s.mu.Unlock()
		return
	}
	s.seq++
	ticket := s.seq
	s.pending[id] = ticket
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"room_id": id, "delay": delay}).Debug("Idle cleanup scheduled")
	s.afterFunc(delay, func() { s.cleanupIfIdle(id, ticket, grace) })
}

func (s *RoomStore) cleanupIfIdle(id string, ticket uint64, grace time.Duration) {
	logCtx := s.log.WithField("room_id", id)

	s.mu.Lock()
	if s.pending[id] != ticket {
		s.mu.Unlock()
		logCtx.Debug("Idle cleanup superseded")
		return
	}
	delete(s.pending, id)

	room, ok := s.rooms[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if len(room.Members) > 0 {
		s.mu.Unlock()
		logCtx.WithField("members", len(room.Members)).Debug("Room repopulated, cleanup skipped")
		return
	}
	if remaining := room.LastActivity.Add(grace).Sub(s.now()); remaining > 0 {
		s.mu.Unlock()
		// still empty, so check again once the latest activity has aged out
		logCtx.WithField("retry_in", remaining).Debug("Room active during grace period, cleanup postponed")
		s.schedule(id, remaining, grace)
		return
	}

	delete(s.rooms, id)
	count := len(s.rooms)
	s.mu.Unlock()

	logCtx.WithField("active_rooms", count).Info("Idle room deleted")
}

// RoomIDs lists every registered identifier, sorted. It is diagnostic output
// for failed joins.
func (s *RoomStore) RoomIDs() []string {
	s.mu.RLock()
	ids := lo.Keys(s.rooms)
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// PublicRooms returns copies of the rooms not flagged private, newest first.
func (s *RoomStore) PublicRooms() []models.Room {
	s.mu.RLock()
	rooms := lo.FilterMap(lo.Values(s.rooms), func(r *models.Room, _ int) (models.Room, bool) {
		return r.Clone(), !r.IsPrivate
	})
	s.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms
}

// Count returns the number of active rooms.
func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", models.ErrRoomNotFound, id)
}
