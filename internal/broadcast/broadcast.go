// Package broadcast fans events out to the sessions the registry attributes
// to a lobby. Delivery is fire-and-forget per session: a failed send is
// logged and never blocks the remaining recipients or the caller.
package broadcast

import (
	"go.uber.org/zap"

	"github.com/lfbianchini/talksoup/internal/protocol"
	"github.com/lfbianchini/talksoup/internal/registry"
)

type Router struct {
	reg *registry.Registry
	log *zap.SugaredLogger
}

func NewRouter(reg *registry.Registry, log *zap.SugaredLogger) *Router {
	return &Router{reg: reg, log: log}
}

// Send delivers event to a single session, if it is still connected.
func (r *Router) Send(sessionID string, event protocol.Outbound) {
	sender, ok := r.reg.Sender(sessionID)
	if !ok {
		return
	}
	if err := sender.Send(event); err != nil {
		r.log.Debugw("send failed", "session", sessionID, "event", event.Type, "err", err)
	}
}

// Broadcast delivers event to every session attributed to lobbyID; an empty
// lobbyID means all connected sessions regardless of lobby.
func (r *Router) Broadcast(event protocol.Outbound, lobbyID string) {
	for _, t := range r.reg.Targets(lobbyID) {
		if err := t.Sender.Send(event); err != nil {
			r.log.Debugw("broadcast send failed", "session", t.ID, "event", event.Type, "err", err)
		}
	}
}

// BroadcastExcept behaves like Broadcast but skips one session; used for the
// catch-all relay of unrecognized message types.
func (r *Router) BroadcastExcept(event protocol.Outbound, lobbyID, exceptID string) {
	for _, t := range r.reg.Targets(lobbyID) {
		if t.ID == exceptID {
			continue
		}
		if err := t.Sender.Send(event); err != nil {
			r.log.Debugw("broadcast send failed", "session", t.ID, "event", event.Type, "err", err)
		}
	}
}
