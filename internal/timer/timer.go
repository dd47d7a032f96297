// Package timer drives each lobby's question window: a per-lobby one-second
// countdown that clears the window's answers and advances the question index
// when it expires.
package timer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lfbianchini/talksoup/internal/protocol"
	"github.com/lfbianchini/talksoup/internal/store"
)

// Broadcaster is the slice of the broadcast router the timer needs.
type Broadcaster interface {
	Broadcast(event protocol.Outbound, lobbyID string)
}

type countdown struct {
	remaining     int
	questionIndex int
	stop          chan struct{}
}

// Timers owns every lobby countdown. A lobby has at most one active
// countdown; Start always cancels an existing one first.
type Timers struct {
	store  store.Store
	router Broadcaster
	log    *zap.SugaredLogger

	// interval is the tick resolution; tests shorten it.
	interval time.Duration

	mu      sync.Mutex
	running map[string]*countdown
}

func New(st store.Store, router Broadcaster, log *zap.SugaredLogger) *Timers {
	return &Timers{
		store:    st,
		router:   router,
		log:      log,
		interval: time.Second,
		running:  make(map[string]*countdown),
	}
}

// Start begins a fresh countdown for the lobby at questionIndex, cancelling
// any countdown already running for it. Callers seed questionIndex from the
// lobby's persisted CurrentQuestionIndex so a restarted countdown drives the
// window the lobby is actually on.
func (t *Timers) Start(lobbyID string, seconds, questionIndex int) {
	t.mu.Lock()
	if existing, ok := t.running[lobbyID]; ok {
		close(existing.stop)
	}
	c := &countdown{remaining: seconds, questionIndex: questionIndex, stop: make(chan struct{})}
	t.running[lobbyID] = c
	t.mu.Unlock()

	go t.run(lobbyID, c, seconds)
}

// Stop cancels the lobby's countdown and discards its state.
func (t *Timers) Stop(lobbyID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.running[lobbyID]; ok {
		close(c.stop)
		delete(t.running, lobbyID)
	}
}

// Remaining reports the seconds left in the lobby's current question window.
func (t *Timers) Remaining(lobbyID string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.running[lobbyID]
	if !ok {
		return 0, false
	}
	return c.remaining, true
}

// Active reports whether the lobby has a running countdown.
func (t *Timers) Active(lobbyID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[lobbyID]
	return ok
}

func (t *Timers) run(lobbyID string, c *countdown, duration int) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			// A restart may have replaced this countdown; a stale
			// goroutine must never touch lobby state.
			if t.running[lobbyID] != c {
				t.mu.Unlock()
				return
			}
			c.remaining--
			remaining := c.remaining
			index := c.questionIndex
			t.mu.Unlock()

			if remaining > 0 {
				t.router.Broadcast(protocol.Outbound{
					Type: protocol.EvtTimerUpdate,
					Data: protocol.TimerUpdate{TimeRemaining: remaining},
				}, lobbyID)
				continue
			}

			if done := t.advance(lobbyID, c, index, duration); done {
				return
			}
		}
	}
}

// advance closes the expired question window: deletes its answers, moves to
// the next index, persists it, and either resets the countdown or, past the
// last question, marks the lobby finished and retires the timer. Returns
// true when the timer should stop.
func (t *Timers) advance(lobbyID string, c *countdown, index, duration int) bool {
	ctx := context.Background()

	if err := t.store.DeleteAnswers(ctx, lobbyID, index); err != nil {
		t.log.Errorw("delete expired answers", "lobby", lobbyID, "question", index, "err", err)
		return false
	}

	next := index + 1

	lobby, err := t.store.GetLobby(ctx, lobbyID)
	if err != nil {
		// Lobby gone; nothing left to drive.
		t.Stop(lobbyID)
		return true
	}

	finished := next >= len(lobby.Questions)
	lobby.CurrentQuestionIndex = next
	if finished {
		lobby.Status = store.StatusFinished
	}
	if err := t.store.UpdateLobby(ctx, lobby); err != nil {
		t.log.Errorw("persist question index", "lobby", lobbyID, "err", err)
	}

	t.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtQuestionChanged,
		Data: protocol.QuestionChanged{QuestionIndex: next, Answers: []store.Answer{}},
	}, lobbyID)

	if finished {
		t.router.Broadcast(protocol.Outbound{
			Type: protocol.EvtLobbyUpdated,
			Data: protocol.LobbySnapshot{Lobby: *lobby},
		}, lobbyID)
		t.Stop(lobbyID)
		return true
	}

	t.mu.Lock()
	if t.running[lobbyID] == c {
		c.questionIndex = next
		c.remaining = duration
	}
	t.mu.Unlock()
	return false
}
