// Package ws is the session gateway: it accepts websocket connections,
// parses inbound envelopes, dispatches them to the lobby, answer, and reply
// services, and serializes outbound events. Every component error is caught
// here and translated into an error envelope for the originating session
// only.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfbianchini/talksoup/internal/answers"
	"github.com/lfbianchini/talksoup/internal/broadcast"
	"github.com/lfbianchini/talksoup/internal/lobby"
	"github.com/lfbianchini/talksoup/internal/profile"
	"github.com/lfbianchini/talksoup/internal/protocol"
	"github.com/lfbianchini/talksoup/internal/registry"
	"github.com/lfbianchini/talksoup/internal/replies"
	"github.com/lfbianchini/talksoup/internal/store"
	"github.com/lfbianchini/talksoup/internal/timer"
)

const writeTimeout = 5 * time.Second

type Gateway struct {
	registry     *registry.Registry
	profiles     *profile.Directory
	router       *broadcast.Router
	lobbies      *lobby.Manager
	answers      *answers.Service
	replies      *replies.Service
	timers       *timer.Timers
	log          *zap.SugaredLogger
	roundSeconds int
}

func NewGateway(
	reg *registry.Registry,
	profiles *profile.Directory,
	router *broadcast.Router,
	lobbies *lobby.Manager,
	answerSvc *answers.Service,
	replySvc *replies.Service,
	timers *timer.Timers,
	log *zap.SugaredLogger,
	roundSeconds int,
) *Gateway {
	return &Gateway{
		registry:     reg,
		profiles:     profiles,
		router:       router,
		lobbies:      lobbies,
		answers:      answerSvc,
		replies:      replySvc,
		timers:       timers,
		log:          log,
		roundSeconds: roundSeconds,
	}
}

// connSender serializes writes to one websocket connection so broadcasts
// from concurrent operations never interleave frames.
type connSender struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *connSender) Send(event protocol.Outbound) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, payload)
}

func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sessionID := uuid.NewString()
		sender := &connSender{conn: conn}
		g.registry.Add(sessionID, sender)
		defer g.disconnect(sessionID)

		user := g.profiles.Ensure(sessionID)
		g.log.Infow("session connected", "session", sessionID, "username", user.Username)
		g.router.Send(sessionID, protocol.Outbound{Type: protocol.EvtUserInfo, Data: user})

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					g.log.Debugw("read ended", "session", sessionID, "err", err)
				}
				return
			}

			var in protocol.Inbound
			if err := json.Unmarshal(data, &in); err != nil {
				g.router.Send(sessionID, protocol.Error("Invalid message format"))
				continue
			}
			g.dispatch(r.Context(), sessionID, in, data)
		}
	}
}

// disconnect runs the same state transitions as an explicit leave: the
// membership record goes away, counts are recomputed, the host is
// reassigned, and the timer stops once the lobby empties. The profile entry
// is evicted with the session.
func (g *Gateway) disconnect(sessionID string) {
	ctx := context.Background()
	if lobbyID := g.registry.LobbyOf(sessionID); lobbyID != "" {
		g.departLobby(ctx, sessionID, lobbyID)
	}
	g.registry.Remove(sessionID)
	g.profiles.Evict(sessionID)
	g.log.Infow("session disconnected", "session", sessionID)
}

// departLobby removes the session from a lobby and notifies the remaining
// members. It is shared by leave_lobby, lobby switches, and disconnects.
// The returned lobby is nil when the lobby no longer exists or the leave
// failed.
func (g *Gateway) departLobby(ctx context.Context, sessionID, lobbyID string) *store.Lobby {
	updated, err := g.lobbies.Leave(ctx, lobbyID, sessionID)
	if err != nil {
		g.log.Errorw("leave lobby", "session", sessionID, "lobby", lobbyID, "err", err)
		return nil
	}
	g.registry.SetLobby(sessionID, "")

	count := 0
	if updated != nil {
		count = updated.CurrentPlayers
	}
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtLobbyPlayersUpdated,
		Data: protocol.PlayersUpdated{LobbyID: lobbyID, PlayerCount: count},
	}, lobbyID)
	if updated != nil {
		g.router.Broadcast(protocol.Outbound{
			Type: protocol.EvtLobbyUpdated,
			Data: protocol.LobbySnapshot{Lobby: *updated},
		}, lobbyID)
	}
	if count == 0 {
		g.timers.Stop(lobbyID)
	}
	return updated
}
