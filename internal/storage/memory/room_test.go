package memory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

type task struct {
	delay time.Duration
	fn    func()
}

// manualTimers captures scheduled cleanups so tests decide when they fire.
type manualTimers struct {
	tasks []task
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) {
	m.tasks = append(m.tasks, task{delay: d, fn: f})
}

// fireAll runs every captured task, including the ones they schedule.
func (m *manualTimers) fireAll() {
	for len(m.tasks) > 0 {
		t := m.tasks[0]
		m.tasks = m.tasks[1:]
		t.fn()
	}
}

func (m *manualTimers) fireNext() {
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	t.fn()
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(opts ...Option) (*RoomStore, *fakeClock, *manualTimers) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	timers := &manualTimers{}
	base := []Option{
		WithClock(clock.Now),
		WithAfterFunc(timers.AfterFunc),
		WithGracePeriod(time.Minute),
	}
	return NewRoomStore(append(base, opts...)...), clock, timers
}

func member(name string) models.Member {
	return models.Member{
		ConnectionID: uuid.NewString(),
		DisplayName:  name,
		Role:         models.RoleEditor,
	}
}

func TestRoomStore_CreateRoom_DistinctIdentifiers(t *testing.T) {
	req := require.New(t)
	store, _, _ := newTestStore()
	seen := make(map[string]struct{})

	// When many rooms are created
	for i := 0; i < 500; i++ {
		room, err := store.CreateRoom(fmt.Sprintf("room %d", i), false)
		req.NoError(err)
		seen[room.ID] = struct{}{}
	}

	// Then every identifier is distinct
	req.Len(seen, 500)
	req.Equal(500, store.Count())
}

func TestRoomStore_CreateRoom_DefaultName(t *testing.T) {
	req := require.New(t)
	store, clock, _ := newTestStore()

	room, err := store.CreateRoom("   ", true)

	req.NoError(err)
	req.Equal(DefaultRoomName, room.Name)
	req.True(room.IsPrivate)
	req.Empty(room.Members)
	req.Nil(room.SurfaceState)
	req.Equal(clock.now, room.CreatedAt)
}

func TestRoomStore_CreateRoom_RetriesOnCollision(t *testing.T) {
	req := require.New(t)
	ids := []string{"AAAAAA", "AAAAAA", "bbbbbb"}
	calls := 0
	store, _, _ := newTestStore(WithGenerator(func() string {
		id := ids[calls]
		calls++
		return id
	}))

	first, err := store.CreateRoom("first", false)
	req.NoError(err)
	req.Equal("AAAAAA", first.ID)

	// When the generator repeats an id already in use
	second, err := store.CreateRoom("second", false)

	// Then the registry retries and normalizes the next candidate
	req.NoError(err)
	req.Equal("BBBBBB", second.ID)
	req.Equal(3, calls)
}

func TestRoomStore_CreateRoom_IdentifierExhausted(t *testing.T) {
	req := require.New(t)
	calls := 0
	store, _, _ := newTestStore(
		WithGenerator(func() string { calls++; return "SAME00" }),
		WithMaxAttempts(10),
	)
	_, err := store.CreateRoom("taken", false)
	req.NoError(err)
	calls = 0

	// When every attempt collides
	_, err = store.CreateRoom("again", false)

	// Then creation fails after exactly the bounded number of attempts
	req.ErrorIs(err, models.ErrIdentifierExhausted)
	req.Equal(10, calls)
	req.Equal(1, store.Count())
}

func TestRoomStore_LookupRoom_CaseInsensitive(t *testing.T) {
	req := require.New(t)
	store, _, _ := newTestStore(WithGenerator(func() string { return "ABC123" }))
	_, err := store.CreateRoom("demo", false)
	req.NoError(err)

	room, err := store.LookupRoom("abc123")
	req.NoError(err)
	req.Equal("ABC123", room.ID)

	_, err = store.LookupRoom("ZZZZZZ")
	req.True(errors.Is(err, models.ErrRoomNotFound))
}

func TestRoomStore_AddMember_ThenRemove_SchedulesCleanup(t *testing.T) {
	req := require.New(t)
	store, _, timers := newTestStore()
	room, err := store.CreateRoom("demo", false)
	req.NoError(err)
	timers.tasks = nil
	alice := member("alice")

	// Given alice joined
	joined, err := store.AddMember(room.ID, alice)
	req.NoError(err)
	req.Len(joined.Members, 1)
	req.Equal(alice.ConnectionID, joined.Members[0].ConnectionID)
	req.False(joined.Members[0].JoinedAt.IsZero())

	// When she leaves
	removed, remaining, err := store.RemoveMember(room.ID, alice.ConnectionID)

	// Then she is gone and a cleanup was scheduled for the grace period
	req.NoError(err)
	req.Equal(alice.ConnectionID, removed.ConnectionID)
	req.Zero(remaining)
	after, err := store.LookupRoom(room.ID)
	req.NoError(err)
	req.False(after.HasMember(alice.ConnectionID))
	req.Len(timers.tasks, 1)
	req.Equal(time.Minute, timers.tasks[0].delay)
}

func TestRoomStore_AddMember_SameConnectionReplacesRecord(t *testing.T) {
	req := require.New(t)
	store, _, _ := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	m := member("alice")

	_, err := store.AddMember(room.ID, m)
	req.NoError(err)
	m.DisplayName = "alice again"
	updated, err := store.AddMember(room.ID, m)

	req.NoError(err)
	req.Len(updated.Members, 1)
	req.Equal("alice again", updated.Members[0].DisplayName)
}

func TestRoomStore_RemoveMember_KeepsOthers_NoCleanup(t *testing.T) {
	req := require.New(t)
	store, _, timers := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	timers.tasks = nil
	alice, bob := member("alice"), member("bob")
	_, _ = store.AddMember(room.ID, alice)
	_, _ = store.AddMember(room.ID, bob)

	_, remaining, err := store.RemoveMember(room.ID, alice.ConnectionID)

	req.NoError(err)
	req.Equal(1, remaining)
	req.Empty(timers.tasks)
}

func TestRoomStore_RemoveMember_Misses(t *testing.T) {
	req := require.New(t)
	store, _, _ := newTestStore()
	room, _ := store.CreateRoom("demo", false)

	_, _, err := store.RemoveMember("NOPE00", "conn")
	req.ErrorIs(err, models.ErrRoomNotFound)

	_, _, err = store.RemoveMember(room.ID, "conn")
	req.ErrorIs(err, models.ErrNotMember)
}

func TestRoomStore_IdleCleanup_DeletesStaleEmptyRoom(t *testing.T) {
	req := require.New(t)
	store, clock, timers := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	alice := member("alice")
	_, _ = store.AddMember(room.ID, alice)
	_, _, _ = store.RemoveMember(room.ID, alice.ConnectionID)

	// When the grace period elapses with no activity
	clock.Advance(time.Minute)
	timers.fireAll()

	// Then the room is gone
	_, err := store.LookupRoom(room.ID)
	req.ErrorIs(err, models.ErrRoomNotFound)
	req.Zero(store.Count())
}

func TestRoomStore_IdleCleanup_NeverJoinedRoomIsReclaimed(t *testing.T) {
	req := require.New(t)
	store, clock, timers := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	req.Len(timers.tasks, 1)

	clock.Advance(time.Minute)
	timers.fireAll()

	_, err := store.LookupRoom(room.ID)
	req.ErrorIs(err, models.ErrRoomNotFound)
}

func TestRoomStore_IdleCleanup_SkipsRefreshedRoom(t *testing.T) {
	req := require.New(t)
	store, clock, timers := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	timers.tasks = nil
	alice := member("alice")
	_, _ = store.AddMember(room.ID, alice)
	_, _, _ = store.RemoveMember(room.ID, alice.ConnectionID)
	req.Len(timers.tasks, 1)

	// Given activity halfway through the grace period
	clock.Advance(30 * time.Second)
	req.NoError(store.Touch(room.ID))
	clock.Advance(30 * time.Second)

	// When the original timer fires
	timers.fireNext()

	// Then the room survives and a follow-up check covers the remaining window
	_, err := store.LookupRoom(room.ID)
	req.NoError(err)
	req.Len(timers.tasks, 1)
	req.Equal(30*time.Second, timers.tasks[0].delay)

	// And once that window passes without activity the room is deleted
	clock.Advance(30 * time.Second)
	timers.fireNext()
	_, err = store.LookupRoom(room.ID)
	req.ErrorIs(err, models.ErrRoomNotFound)
}

func TestRoomStore_IdleCleanup_SkipsRepopulatedRoom(t *testing.T) {
	req := require.New(t)
	store, clock, timers := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	timers.tasks = nil
	alice := member("alice")
	_, _ = store.AddMember(room.ID, alice)
	_, _, _ = store.RemoveMember(room.ID, alice.ConnectionID)

	// Given someone joins during the grace window
	bob := member("bob")
	_, err := store.AddMember(room.ID, bob)
	req.NoError(err)

	// When the timer fires after the grace period
	clock.Advance(2 * time.Minute)
	timers.fireAll()

	// Then the room is still registered with bob in it
	after, err := store.LookupRoom(room.ID)
	req.NoError(err)
	req.True(after.HasMember(bob.ConnectionID))
}

func TestRoomStore_IdleCleanup_SupersededTaskIsIgnored(t *testing.T) {
	req := require.New(t)
	store, clock, timers := newTestStore()
	room, _ := store.CreateRoom("demo", false)

	// Given a second schedule replaces the first
	store.ScheduleIdleCleanup(room.ID, 10*time.Minute)
	req.Len(timers.tasks, 2)

	// When the first task fires after its own delay
	clock.Advance(time.Minute)
	timers.fireNext()

	// Then it does nothing because a newer task owns the room
	_, err := store.LookupRoom(room.ID)
	req.NoError(err)

	clock.Advance(10 * time.Minute)
	timers.fireNext()
	_, err = store.LookupRoom(room.ID)
	req.ErrorIs(err, models.ErrRoomNotFound)
}

func TestRoomStore_SurfaceState(t *testing.T) {
	req := require.New(t)
	store, clock, _ := newTestStore()
	room, _ := store.CreateRoom("demo", false)

	clock.Advance(time.Second)
	req.NoError(store.UpdateSurfaceState(room.ID, "data:image/png;base64,AAAA"))
	got, _ := store.LookupRoom(room.ID)
	req.NotNil(got.SurfaceState)
	req.Equal("data:image/png;base64,AAAA", *got.SurfaceState)
	req.Equal(clock.now, got.LastActivity)

	req.NoError(store.ClearSurfaceState(room.ID))
	got, _ = store.LookupRoom(room.ID)
	req.Nil(got.SurfaceState)

	req.ErrorIs(store.UpdateSurfaceState("NOPE00", "x"), models.ErrRoomNotFound)
	req.ErrorIs(store.ClearSurfaceState("NOPE00"), models.ErrRoomNotFound)
	req.ErrorIs(store.Touch("NOPE00"), models.ErrRoomNotFound)
}

func TestRoomStore_LookupReturnsCopy(t *testing.T) {
	req := require.New(t)
	store, _, _ := newTestStore()
	room, _ := store.CreateRoom("demo", false)
	_, _ = store.AddMember(room.ID, member("alice"))

	got, _ := store.LookupRoom(room.ID)
	got.Members[0].DisplayName = "mallory"
	got.Name = "changed"

	again, _ := store.LookupRoom(room.ID)
	req.Equal("alice", again.Members[0].DisplayName)
	req.Equal("demo", again.Name)
}

func TestRoomStore_Listings(t *testing.T) {
	req := require.New(t)
	ids := []string{"BBBBBB", "AAAAAA", "CCCCCC"}
	calls := 0
	store, clock, _ := newTestStore(WithGenerator(func() string {
		id := ids[calls]
		calls++
		return id
	}))

	_, _ = store.CreateRoom("b", false)
	clock.Advance(time.Second)
	_, _ = store.CreateRoom("a", true)
	clock.Advance(time.Second)
	_, _ = store.CreateRoom("c", false)

	req.Equal([]string{"AAAAAA", "BBBBBB", "CCCCCC"}, store.RoomIDs())

	public := store.PublicRooms()
	req.Len(public, 2)
	req.Equal("CCCCCC", public[0].ID)
	req.Equal("BBBBBB", public[1].ID)
}
