// Package lobby owns lobby lifecycle: creation, joins, leaves, host
// reassignment, and garbage collection of abandoned lobbies. Membership
// records in the store are the single source of truth; player counts are
// always recomputed from them, never incremented from a previously-read
// value.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfbianchini/talksoup/internal/store"
)

var (
	ErrNotFound        = errors.New("lobby not found")
	ErrLobbyFull       = errors.New("lobby is full")
	ErrInvalidCapacity = errors.New("capacity must be a positive integer")
	ErrInvalidName     = errors.New("lobby name must not be empty")
)

// TimerStopper cancels a lobby's countdown. The manager calls it whenever it
// deletes a lobby so no recurring work outlives its lobby.
type TimerStopper interface {
	Stop(lobbyID string)
}

type Config struct {
	QuestionCount int
	// StaleAfter is how long a lobby may go without any update before the
	// sweep reclaims it regardless of player count.
	StaleAfter time.Duration
	// IdleAfter is the shorter grace window after which an empty or
	// single-player lobby is reclaimed.
	IdleAfter time.Duration
}

type Manager struct {
	store  store.Store
	timers TimerStopper
	log    *zap.SugaredLogger
	cfg    Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(st store.Store, timers TimerStopper, log *zap.SugaredLogger, cfg Config) *Manager {
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = 10
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = 2 * time.Minute
	}
	return &Manager{
		store:  st,
		timers: timers,
		log:    log,
		cfg:    cfg,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor serializes mutations of a single lobby. Store records stay the
// source of truth; the lock only closes the read-check-write window between
// two operations on the same lobby.
func (m *Manager) lockFor(lobbyID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[lobbyID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[lobbyID] = l
	}
	return l
}

func (m *Manager) dropLock(lobbyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lobbyID)
}

// Create persists a new waiting lobby with a fresh shuffled question
// sequence and the host as its first member. If host-membership insertion
// fails after the lobby row exists, the lobby is left host-less and is
// reclaimed by the sweep; the failure is logged, not returned.
func (m *Manager) Create(ctx context.Context, name string, capacity int, hostID string) (*store.Lobby, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	questions, err := m.store.SampleQuestions(ctx, m.cfg.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}

	lobby := &store.Lobby{
		ID:                   uuid.NewString(),
		Name:                 name,
		Capacity:             capacity,
		CurrentPlayers:       1,
		HostID:               hostID,
		Status:               store.StatusWaiting,
		CurrentQuestionIndex: 0,
		Questions:            questions,
	}
	if err := m.store.CreateLobby(ctx, lobby); err != nil {
		return nil, fmt.Errorf("create lobby: %w", err)
	}
	if err := m.store.AddMember(ctx, lobby.ID, hostID, time.Now()); err != nil {
		// Host-less lobby; the idle sweep will reclaim it.
		m.log.Warnw("host membership insert failed", "lobby", lobby.ID, "host", hostID, "err", err)
	}
	return lobby, nil
}

// Join adds playerID to the lobby. Re-joining is idempotent: an existing
// member gets the current lobby back unchanged. The capacity check runs
// against membership records read at call time.
func (m *Manager) Join(ctx context.Context, lobbyID, playerID string) (*store.Lobby, error) {
	l := m.lockFor(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	already, err := m.store.IsMember(ctx, lobbyID, playerID)
	if err != nil {
		return nil, err
	}
	if already {
		return lobby, nil
	}

	members, err := m.store.Members(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if len(members) >= lobby.Capacity {
		return nil, ErrLobbyFull
	}

	if err := m.store.AddMember(ctx, lobbyID, playerID, time.Now()); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	return m.syncCount(ctx, lobby)
}

// Leave removes playerID's membership if present (absence is a no-op
// success), recounts players from the remaining records, and promotes the
// first remaining member to host when the host departs. Returns nil with no
// error only when the lobby itself no longer exists.
func (m *Manager) Leave(ctx context.Context, lobbyID, playerID string) (*store.Lobby, error) {
	l := m.lockFor(lobbyID)
	l.Lock()
	defer l.Unlock()

	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	member, err := m.store.IsMember(ctx, lobbyID, playerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return lobby, nil
	}

	if err := m.store.RemoveMember(ctx, lobbyID, playerID); err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}

	members, err := m.store.Members(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	lobby.CurrentPlayers = len(members)
	if lobby.HostID == playerID && len(members) > 0 {
		lobby.HostID = members[0].PlayerID
	}
	if err := m.store.UpdateLobby(ctx, lobby); err != nil {
		return nil, fmt.Errorf("update lobby: %w", err)
	}
	return lobby, nil
}

// syncCount recounts players from membership records and persists the
// refreshed lobby.
func (m *Manager) syncCount(ctx context.Context, lobby *store.Lobby) (*store.Lobby, error) {
	members, err := m.store.Members(ctx, lobby.ID)
	if err != nil {
		return nil, err
	}
	lobby.CurrentPlayers = len(members)
	if err := m.store.UpdateLobby(ctx, lobby); err != nil {
		return nil, fmt.Errorf("update lobby: %w", err)
	}
	return lobby, nil
}

func (m *Manager) Get(ctx context.Context, lobbyID string) (*store.Lobby, error) {
	lobby, err := m.store.GetLobby(ctx, lobbyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lobby, nil
}

func (m *Manager) List(ctx context.Context) ([]store.Lobby, error) {
	return m.store.ListLobbies(ctx)
}

// JoinRandom joins a random waiting, non-full lobby. When none exists it
// creates a fresh one with the caller as host and reports created=true so
// the gateway can start the lobby's timer.
func (m *Manager) JoinRandom(ctx context.Context, playerID string) (lobby *store.Lobby, created bool, err error) {
	lobbies, err := m.store.ListLobbies(ctx)
	if err != nil {
		return nil, false, err
	}
	var open []store.Lobby
	for _, l := range lobbies {
		if l.Status == store.StatusWaiting && l.CurrentPlayers < l.Capacity {
			open = append(open, l)
		}
	}
	if len(open) == 0 {
		lobby, err = m.Create(ctx, "Random Lobby", 10, playerID)
		return lobby, true, err
	}
	pick := open[rand.Intn(len(open))]
	lobby, err = m.Join(ctx, pick.ID, playerID)
	return lobby, false, err
}

// Sweep garbage-collects lobbies and answers. Three passes, each tolerating
// per-item store failures: lobbies wholly inactive past StaleAfter, lobbies
// at zero or one player past IdleAfter, and answers whose lobby is gone. now
// is passed in so tests can move the clock.
func (m *Manager) Sweep(ctx context.Context, now time.Time) {
	lobbies, err := m.store.ListLobbies(ctx)
	if err != nil {
		m.log.Errorw("sweep: list lobbies", "err", err)
		return
	}

	alive := make([]string, 0, len(lobbies))
	for _, l := range lobbies {
		stale := now.Sub(l.UpdatedAt) > m.cfg.StaleAfter
		idle := l.CurrentPlayers <= 1 && now.Sub(l.UpdatedAt) > m.cfg.IdleAfter
		if !stale && !idle {
			alive = append(alive, l.ID)
			continue
		}
		if err := m.reap(ctx, l.ID); err != nil {
			m.log.Errorw("sweep: reap lobby", "lobby", l.ID, "err", err)
			alive = append(alive, l.ID)
		}
	}

	if err := m.store.DeleteOrphanAnswers(ctx, alive); err != nil {
		m.log.Errorw("sweep: orphan answers", "err", err)
	}
}

// reap deletes one lobby with its membership records and answers, and
// guarantees its timer is cancelled.
func (m *Manager) reap(ctx context.Context, lobbyID string) error {
	m.timers.Stop(lobbyID)
	if err := m.store.DeleteLobbyAnswers(ctx, lobbyID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	if err := m.store.DeleteMembers(ctx, lobbyID); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	if err := m.store.DeleteLobby(ctx, lobbyID); err != nil {
		return fmt.Errorf("delete lobby: %w", err)
	}
	m.dropLock(lobbyID)
	m.log.Infow("reaped lobby", "lobby", lobbyID)
	return nil
}
