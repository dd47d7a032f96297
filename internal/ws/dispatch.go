package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lfbianchini/talksoup/internal/answers"
	"github.com/lfbianchini/talksoup/internal/lobby"
	"github.com/lfbianchini/talksoup/internal/protocol"
	"github.com/lfbianchini/talksoup/internal/replies"
	"github.com/lfbianchini/talksoup/internal/store"
)

func (g *Gateway) dispatch(ctx context.Context, sessionID string, in protocol.Inbound, raw json.RawMessage) {
	switch in.Type {
	case protocol.MsgCreateLobby:
		g.handleCreateLobby(ctx, sessionID, in)
	case protocol.MsgJoinRandomLobby:
		g.handleJoinRandomLobby(ctx, sessionID)
	case protocol.MsgJoinLobby:
		g.handleJoinLobby(ctx, sessionID, in)
	case protocol.MsgLeaveLobby:
		g.handleLeaveLobby(ctx, sessionID, in)
	case protocol.MsgSubmitAnswer:
		g.handleSubmitAnswer(ctx, sessionID, in)
	case protocol.MsgAddReaction:
		g.handleAddReaction(ctx, sessionID, in)
	case protocol.MsgAddReply:
		g.handleAddReply(ctx, sessionID, in)
	case protocol.MsgSubmitReply:
		g.handleSubmitReply(ctx, sessionID, in)
	case protocol.MsgGetReplies:
		g.handleGetReplies(ctx, sessionID, in)
	case protocol.MsgCreateReply:
		g.handleCreateReply(ctx, sessionID, in)
	case protocol.MsgDeleteReply:
		g.handleDeleteReply(ctx, sessionID, in)
	case protocol.MsgGetUserInfo:
		g.handleGetUserInfo(sessionID, in)
	case protocol.MsgChangeQuestion:
		g.handleChangeQuestion(ctx, sessionID, in)
	default:
		// Catch-all: relay unrecognized types to every other session,
		// tagged with the sender. Kept for client compatibility.
		g.router.BroadcastExcept(protocol.Relay(raw, sessionID), "", sessionID)
	}
}

// fail logs err and answers the originating session with a human-readable
// error envelope. Component errors never propagate past this point.
func (g *Gateway) fail(sessionID, message string, err error) {
	if err != nil {
		g.log.Warnw(message, "session", sessionID, "err", err)
	}
	g.router.Send(sessionID, protocol.Error(message))
}

func (g *Gateway) handleCreateLobby(ctx context.Context, sessionID string, in protocol.Inbound) {
	created, err := g.lobbies.Create(ctx, in.Name, in.Capacity, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, lobby.ErrInvalidCapacity), errors.Is(err, lobby.ErrInvalidName):
			g.fail(sessionID, err.Error(), nil)
		default:
			g.fail(sessionID, "Failed to create lobby", err)
		}
		return
	}

	g.registry.SetLobby(sessionID, created.ID)
	g.router.Send(sessionID, protocol.Outbound{
		Type: protocol.EvtLobbyCreated,
		Data: protocol.LobbySnapshot{Lobby: *created},
	})
	g.timers.Start(created.ID, g.roundSeconds, created.CurrentQuestionIndex)
	// Everyone sees new lobbies in the list, members or not.
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtLobbyUpdated,
		Data: protocol.LobbySnapshot{Lobby: *created},
	}, "")
}

func (g *Gateway) handleJoinRandomLobby(ctx context.Context, sessionID string) {
	joined, _, err := g.lobbies.JoinRandom(ctx, sessionID)
	if err != nil {
		g.fail(sessionID, "Failed to join random lobby", err)
		return
	}
	g.completeJoin(ctx, sessionID, joined)
}

func (g *Gateway) handleJoinLobby(ctx context.Context, sessionID string, in protocol.Inbound) {
	if in.LobbyID == "" {
		g.fail(sessionID, "Missing required fields", nil)
		return
	}
	// Switching lobbies leaves the old one first.
	if current := g.registry.LobbyOf(sessionID); current != "" && current != in.LobbyID {
		g.departLobby(ctx, sessionID, current)
	}

	joined, err := g.lobbies.Join(ctx, in.LobbyID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, lobby.ErrNotFound):
			g.fail(sessionID, "Lobby not found", nil)
		case errors.Is(err, lobby.ErrLobbyFull):
			g.fail(sessionID, "Lobby is full", nil)
		default:
			g.fail(sessionID, "Failed to join lobby", err)
		}
		return
	}
	g.completeJoin(ctx, sessionID, joined)
}

// completeJoin attributes the session to the lobby and runs the join fanout:
// direct lobby_joined reply with existing answers, lobby_updated broadcast
// to the room, timer start when no countdown is running, and the current
// timer_update for the joiner.
func (g *Gateway) completeJoin(ctx context.Context, sessionID string, joined *store.Lobby) {
	g.registry.SetLobby(sessionID, joined.ID)

	existing, err := g.answers.List(ctx, joined.ID, joined.CurrentQuestionIndex)
	if err != nil {
		g.log.Warnw("list answers on join", "lobby", joined.ID, "err", err)
		existing = []store.Answer{}
	}
	g.router.Send(sessionID, protocol.Outbound{
		Type: protocol.EvtLobbyJoined,
		Data: protocol.LobbyJoined{Lobby: *joined, ExistingAnswers: existing},
	})
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtLobbyUpdated,
		Data: protocol.LobbySnapshot{Lobby: *joined},
	}, joined.ID)

	if !g.timers.Active(joined.ID) && joined.Status != store.StatusFinished {
		g.timers.Start(joined.ID, g.roundSeconds, joined.CurrentQuestionIndex)
	}
	if remaining, ok := g.timers.Remaining(joined.ID); ok {
		g.router.Send(sessionID, protocol.Outbound{
			Type: protocol.EvtTimerUpdate,
			Data: protocol.TimerUpdate{TimeRemaining: remaining},
		})
	}
}

func (g *Gateway) handleLeaveLobby(ctx context.Context, sessionID string, in protocol.Inbound) {
	if in.LobbyID == "" {
		g.fail(sessionID, "Missing required fields", nil)
		return
	}
	left := g.departLobby(ctx, sessionID, in.LobbyID)
	// Direct reply carries the refreshed lobby, or null when the lobby is
	// gone.
	var data any
	if left != nil {
		data = protocol.LobbySnapshot{Lobby: *left}
	}
	g.router.Send(sessionID, protocol.Outbound{Type: protocol.EvtLobbyUpdated, Data: data})
}

func (g *Gateway) handleSubmitAnswer(ctx context.Context, sessionID string, in protocol.Inbound) {
	d := in.Data
	if d.LobbyID == "" || d.QuestionIndex == nil {
		g.fail(sessionID, "Missing required fields", nil)
		return
	}
	answer, err := g.answers.Submit(ctx, d.LobbyID, sessionID, d.Content, *d.QuestionIndex)
	if err != nil {
		g.fail(sessionID, "Failed to submit answer", err)
		return
	}
	user, ok := g.profiles.Get(sessionID)
	if !ok {
		g.fail(sessionID, "Failed to submit answer - user not found", nil)
		return
	}
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtAnswerSubmitted,
		Data: protocol.AnswerWithAuthor{Answer: *answer, User: user},
	}, d.LobbyID)
}

func (g *Gateway) handleAddReaction(ctx context.Context, sessionID string, in protocol.Inbound) {
	d := in.Data
	updated, err := g.answers.React(ctx, d.AnswerID, store.ReactionKind(d.ReactionType), d.IsRemove)
	if err != nil {
		switch {
		case errors.Is(err, answers.ErrNotFound), errors.Is(err, answers.ErrUnknownReaction):
			g.fail(sessionID, err.Error(), nil)
		default:
			g.fail(sessionID, "Failed to manage reaction", err)
		}
		return
	}
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtAnswerUpdated,
		Data: updated,
	}, g.registry.LobbyOf(sessionID))
}

func (g *Gateway) handleAddReply(ctx context.Context, sessionID string, in protocol.Inbound) {
	lobbyID := g.registry.LobbyOf(sessionID)
	if lobbyID == "" {
		g.fail(sessionID, "Failed to add reply", errors.New("session not in a lobby"))
		return
	}
	g.appendReply(ctx, sessionID, in.AnswerID, in.Content, lobbyID, "Failed to add reply")
}

func (g *Gateway) handleSubmitReply(ctx context.Context, sessionID string, in protocol.Inbound) {
	g.appendReply(ctx, sessionID, in.AnswerID, in.Content, in.LobbyID, "Failed to submit reply")
}

func (g *Gateway) appendReply(ctx context.Context, sessionID, answerID, content, lobbyID, failMsg string) {
	updated, err := g.answers.Reply(ctx, answerID, sessionID, content)
	if err != nil {
		g.fail(sessionID, failMsg, err)
		return
	}
	g.router.Broadcast(protocol.Outbound{Type: protocol.EvtAnswerUpdated, Data: updated}, lobbyID)
}

func (g *Gateway) handleGetReplies(ctx context.Context, sessionID string, in protocol.Inbound) {
	list, err := g.replies.ListForAnswer(ctx, in.AnswerID)
	if err != nil {
		g.fail(sessionID, "Failed to get replies", err)
		return
	}
	g.router.Send(sessionID, protocol.Outbound{Type: protocol.EvtReplies, Data: list})
}

func (g *Gateway) handleCreateReply(ctx context.Context, sessionID string, in protocol.Inbound) {
	reply, err := g.replies.Create(ctx, in.AnswerID, sessionID, in.Content)
	if err != nil {
		g.fail(sessionID, "Failed to create reply", err)
		return
	}
	g.router.Broadcast(protocol.Outbound{Type: protocol.EvtReplyCreated, Data: reply}, "")
}

func (g *Gateway) handleDeleteReply(ctx context.Context, sessionID string, in protocol.Inbound) {
	if err := g.replies.Delete(ctx, in.ReplyID, sessionID); err != nil {
		if errors.Is(err, replies.ErrNotFound) {
			g.fail(sessionID, "Reply not found", nil)
			return
		}
		g.fail(sessionID, "Failed to delete reply", err)
		return
	}
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtReplyDeleted,
		Data: protocol.ReplyDeleted{ReplyID: in.ReplyID},
	}, "")
}

func (g *Gateway) handleGetUserInfo(sessionID string, in protocol.Inbound) {
	userID := in.Data.UserID
	if userID == "" {
		g.fail(sessionID, "No userId provided", nil)
		return
	}
	user, ok := g.profiles.Get(userID)
	if !ok {
		g.fail(sessionID, fmt.Sprintf("User not found: %s", userID), nil)
		return
	}
	g.router.Send(sessionID, protocol.Outbound{Type: protocol.EvtUserInfo, Data: user})
}

func (g *Gateway) handleChangeQuestion(ctx context.Context, sessionID string, in protocol.Inbound) {
	if in.LobbyID == "" {
		g.fail(sessionID, "Missing required fields", nil)
		return
	}
	if err := g.answers.Clear(ctx, in.LobbyID, in.QuestionIndex); err != nil {
		g.fail(sessionID, "Failed to delete answers", err)
		return
	}
	g.router.Broadcast(protocol.Outbound{
		Type: protocol.EvtQuestionChanged,
		Data: protocol.QuestionChanged{QuestionIndex: in.QuestionIndex, Answers: []store.Answer{}},
	}, in.LobbyID)
}
