// Package registry tracks live sessions: which connection backs a session id
// and which lobby, if any, the session currently occupies. It is the single
// process-scoped source of lobby attribution for broadcasting.
package registry

import (
	"sync"

	"github.com/lfbianchini/talksoup/internal/protocol"
)

// Sender delivers one outbound event to a session's connection. The ws
// gateway provides the real implementation; tests plug in fakes.
type Sender interface {
	Send(event protocol.Outbound) error
}

type session struct {
	sender  Sender
	lobbyID string // "" when the session is not in a lobby
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func New() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

// Add registers a session. An existing entry under the same id is replaced.
func (r *Registry) Add(id string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &session{sender: sender}
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// SetLobby attributes the session to lobbyID; pass "" to clear.
func (r *Registry) SetLobby(id, lobbyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lobbyID = lobbyID
	}
}

// LobbyOf returns the session's current lobby attribution, "" if none or the
// session is unknown.
func (r *Registry) LobbyOf(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[id]; ok {
		return s.lobbyID
	}
	return ""
}

func (r *Registry) Sender(id string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return s.sender, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Target is one resolved delivery destination.
type Target struct {
	ID     string
	Sender Sender
}

// Targets snapshots the senders attributed to lobbyID ("" = every session)
// so delivery can happen outside the lock.
func (r *Registry) Targets(lobbyID string) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, 0, len(r.sessions))
	for id, s := range r.sessions {
		if lobbyID == "" || s.lobbyID == lobbyID {
			out = append(out, Target{ID: id, Sender: s.sender})
		}
	}
	return out
}
