package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lfbianchini/talksoup/internal/store"
)

// stopRecorder records which lobby timers the manager cancelled.
type stopRecorder struct {
	mu      sync.Mutex
	stopped []string
}

func (s *stopRecorder) Stop(lobbyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, lobbyID)
}

func (s *stopRecorder) has(lobbyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.stopped {
		if id == lobbyID {
			return true
		}
	}
	return false
}

func newTestManager(t *testing.T) (*Manager, store.Store, *stopRecorder) {
	t.Helper()
	st := store.NewMemory()
	stops := &stopRecorder{}
	m := NewManager(st, stops, zap.NewNop().Sugar(), Config{
		QuestionCount: 10,
		StaleAfter:    5 * time.Minute,
		IdleAfter:     2 * time.Minute,
	})
	return m, st, stops
}

func memberCount(t *testing.T, st store.Store, lobbyID string) int {
	t.Helper()
	members, err := st.Members(context.Background(), lobbyID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	return len(members)
}

func TestCreate_SeedsHostMembershipAndQuestions(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()

	created, err := m.Create(ctx, "Trivia", 4, "host")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CurrentPlayers != 1 || created.HostID != "host" || created.Status != store.StatusWaiting {
		t.Fatalf("unexpected lobby: %+v", created)
	}
	if len(created.Questions) != 10 {
		t.Fatalf("want 10 questions, got %d", len(created.Questions))
	}
	if created.CurrentQuestionIndex != 0 {
		t.Fatalf("want question index 0, got %d", created.CurrentQuestionIndex)
	}
	if n := memberCount(t, st, created.ID); n != 1 {
		t.Fatalf("want 1 membership record, got %d", n)
	}
	seen := map[string]bool{}
	for _, q := range created.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in sequence", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestCreate_RejectsBadInput(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Create(ctx, "Trivia", 0, "host"); err != ErrInvalidCapacity {
		t.Fatalf("capacity 0: want ErrInvalidCapacity, got %v", err)
	}
	if _, err := m.Create(ctx, "Trivia", -3, "host"); err != ErrInvalidCapacity {
		t.Fatalf("capacity -3: want ErrInvalidCapacity, got %v", err)
	}
	if _, err := m.Create(ctx, "", 4, "host"); err != ErrInvalidName {
		t.Fatalf("empty name: want ErrInvalidName, got %v", err)
	}
}

func TestJoin_CountMatchesMembershipRecords(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()

	created, _ := m.Create(ctx, "Trivia", 4, "host")
	joined, err := m.Join(ctx, created.ID, "p2")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.CurrentPlayers != memberCount(t, st, created.ID) {
		t.Fatalf("count %d != records %d", joined.CurrentPlayers, memberCount(t, st, created.ID))
	}
	if joined.CurrentPlayers != 2 {
		t.Fatalf("want 2 players, got %d", joined.CurrentPlayers)
	}
}

func TestJoin_Idempotent(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()

	created, _ := m.Create(ctx, "Trivia", 4, "host")
	if _, err := m.Join(ctx, created.ID, "p2"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	again, err := m.Join(ctx, created.ID, "p2")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.CurrentPlayers != 2 {
		t.Fatalf("rejoin changed count: %d", again.CurrentPlayers)
	}
	if n := memberCount(t, st, created.ID); n != 2 {
		t.Fatalf("rejoin duplicated membership: %d records", n)
	}
}

func TestJoin_FullLobby(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	created, _ := m.Create(ctx, "Trivia", 2, "host")
	if _, err := m.Join(ctx, created.ID, "p2"); err != nil {
		t.Fatalf("join p2: %v", err)
	}
	if _, err := m.Join(ctx, created.ID, "p3"); err != ErrLobbyFull {
		t.Fatalf("want ErrLobbyFull, got %v", err)
	}
	refreshed, _ := m.Get(ctx, created.ID)
	if refreshed.CurrentPlayers != 2 {
		t.Fatalf("capacity exceeded: %d", refreshed.CurrentPlayers)
	}
}

func TestJoin_UnknownLobby(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Join(context.Background(), "nope", "p1"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLeave_RecountsAndPromotesHost(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()

	created, _ := m.Create(ctx, "Trivia", 4, "host")
	m.Join(ctx, created.ID, "p2")
	m.Join(ctx, created.ID, "p3")

	after, err := m.Leave(ctx, created.ID, "host")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if after.CurrentPlayers != 2 {
		t.Fatalf("want 2 players after host leaves, got %d", after.CurrentPlayers)
	}
	if after.HostID != "p2" && after.HostID != "p3" {
		t.Fatalf("host not promoted to a remaining member: %q", after.HostID)
	}
	// Host promotion is stable: first by join order.
	if after.HostID != "p2" {
		t.Fatalf("want first joiner p2 as host, got %q", after.HostID)
	}
	if n := memberCount(t, st, created.ID); n != 2 {
		t.Fatalf("membership records: want 2, got %d", n)
	}
}

func TestLeave_NonMemberIsNoop(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	created, _ := m.Create(ctx, "Trivia", 4, "host")
	after, err := m.Leave(ctx, created.ID, "stranger")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if after == nil || after.CurrentPlayers != 1 || after.HostID != "host" {
		t.Fatalf("non-member leave mutated lobby: %+v", after)
	}
}

func TestLeave_GoneLobbyReturnsNil(t *testing.T) {
	m, _, _ := newTestManager(t)
	after, err := m.Leave(context.Background(), "nope", "p1")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if after != nil {
		t.Fatalf("want nil lobby, got %+v", after)
	}
}

func TestJoinRandom_CreatesWhenNoneWaiting(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	joined, created, err := m.JoinRandom(ctx, "p1")
	if err != nil {
		t.Fatalf("join random: %v", err)
	}
	if !created {
		t.Fatalf("expected a fresh lobby to be created")
	}
	if joined.HostID != "p1" || joined.CurrentPlayers != 1 {
		t.Fatalf("creator should be host and sole player: %+v", joined)
	}
}

func TestJoinRandom_PicksWaitingLobby(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	existing, _ := m.Create(ctx, "Open", 4, "host")
	joined, created, err := m.JoinRandom(ctx, "p2")
	if err != nil {
		t.Fatalf("join random: %v", err)
	}
	if created {
		t.Fatalf("should have joined the existing lobby")
	}
	if joined.ID != existing.ID || joined.CurrentPlayers != 2 {
		t.Fatalf("unexpected join result: %+v", joined)
	}
}

func TestJoinRandom_SkipsFullLobbies(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	full, _ := m.Create(ctx, "Full", 1, "host")
	joined, created, err := m.JoinRandom(ctx, "p2")
	if err != nil {
		t.Fatalf("join random: %v", err)
	}
	if !created || joined.ID == full.ID {
		t.Fatalf("should have created a new lobby instead of joining the full one")
	}
}

func TestSweep_ReapsIdleLobbies(t *testing.T) {
	m, st, stops := newTestManager(t)
	ctx := context.Background()

	solo, _ := m.Create(ctx, "Solo", 4, "host")

	busy, _ := m.Create(ctx, "Busy", 4, "host2")
	m.Join(ctx, busy.ID, "p2")

	// Single-player lobby past the idle grace goes away; the two-player one
	// survives.
	m.Sweep(ctx, time.Now().Add(3*time.Minute))

	if _, err := m.Get(ctx, solo.ID); err != ErrNotFound {
		t.Fatalf("idle lobby should be reaped, got %v", err)
	}
	if !stops.has(solo.ID) {
		t.Fatalf("reaped lobby's timer was not stopped")
	}
	if _, err := m.Get(ctx, busy.ID); err != nil {
		t.Fatalf("busy lobby should survive: %v", err)
	}
	if n := memberCount(t, st, solo.ID); n != 0 {
		t.Fatalf("reaped lobby kept %d membership records", n)
	}
}

func TestSweep_ReapsStaleLobbiesRegardlessOfPlayers(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()

	crowded, _ := m.Create(ctx, "Crowded", 4, "host")
	m.Join(ctx, crowded.ID, "p2")
	m.Join(ctx, crowded.ID, "p3")

	answer := &store.Answer{ID: "a1", LobbyID: crowded.ID, PlayerID: "p2", QuestionIndex: 0, Content: "hi"}
	if err := st.CreateAnswer(ctx, answer); err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	m.Sweep(ctx, time.Now().Add(6*time.Minute))

	if _, err := m.Get(ctx, crowded.ID); err != ErrNotFound {
		t.Fatalf("stale lobby should be reaped even with players, got %v", err)
	}
	if _, err := st.GetAnswer(ctx, "a1"); err != store.ErrNotFound {
		t.Fatalf("reaped lobby's answers should be gone, got %v", err)
	}
}

func TestSweep_DeletesOrphanAnswers(t *testing.T) {
	m, st, _ := newTestManager(t)
	ctx := context.Background()

	kept, _ := m.Create(ctx, "Kept", 4, "host")
	m.Join(ctx, kept.ID, "p2")

	st.CreateAnswer(ctx, &store.Answer{ID: "live", LobbyID: kept.ID, PlayerID: "p2", QuestionIndex: 0})
	st.CreateAnswer(ctx, &store.Answer{ID: "orphan", LobbyID: "gone-lobby", PlayerID: "px", QuestionIndex: 0})

	m.Sweep(ctx, time.Now())

	if _, err := st.GetAnswer(ctx, "live"); err != nil {
		t.Fatalf("live answer should survive: %v", err)
	}
	if _, err := st.GetAnswer(ctx, "orphan"); err != store.ErrNotFound {
		t.Fatalf("orphan answer should be deleted, got %v", err)
	}
}
