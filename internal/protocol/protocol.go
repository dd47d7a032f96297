// Package protocol defines the wire envelopes exchanged with clients.
// Inbound messages are {type, ...fields} with some types nesting their
// payload under data; every outbound message is {type, data}.
package protocol

import (
	"encoding/json"

	"github.com/lfbianchini/talksoup/internal/profile"
	"github.com/lfbianchini/talksoup/internal/store"
)

// Inbound message types.
const (
	MsgCreateLobby     = "create_lobby"
	MsgJoinRandomLobby = "join_random_lobby"
	MsgJoinLobby       = "join_lobby"
	MsgLeaveLobby      = "leave_lobby"
	MsgSubmitAnswer    = "submit_answer"
	MsgAddReaction     = "add_reaction"
	MsgAddReply        = "add_reply"
	MsgSubmitReply     = "submit_reply"
	MsgGetReplies      = "get_replies"
	MsgCreateReply     = "create_reply"
	MsgDeleteReply     = "delete_reply"
	MsgGetUserInfo     = "get_user_info"
	MsgChangeQuestion  = "change_question"
)

// Outbound event types.
const (
	EvtUserInfo            = "user_info"
	EvtLobbyCreated        = "lobby_created"
	EvtLobbyJoined         = "lobby_joined"
	EvtLobbyUpdated        = "lobby_updated"
	EvtLobbyPlayersUpdated = "lobby_players_updated"
	EvtAnswerSubmitted     = "answer_submitted"
	EvtAnswerUpdated       = "answer_updated"
	EvtReplyCreated        = "reply_created"
	EvtReplyDeleted        = "reply_deleted"
	EvtReplies             = "replies"
	EvtTimerUpdate         = "timer_update"
	EvtQuestionChanged     = "question_changed"
	EvtMessage             = "message"
	EvtError               = "error"
)

// Inbound is one client envelope. Fields not used by a given type are left
// at their zero values.
type Inbound struct {
	Type          string      `json:"type"`
	Name          string      `json:"name,omitempty"`
	Capacity      int         `json:"capacity,omitempty"`
	LobbyID       string      `json:"lobbyId,omitempty"`
	QuestionIndex int         `json:"questionIndex,omitempty"`
	AnswerID      string      `json:"answerId,omitempty"`
	ReplyID       string      `json:"replyId,omitempty"`
	Content       string      `json:"content,omitempty"`
	Data          InboundData `json:"data"`
}

// InboundData is the nested payload used by submit_answer, add_reaction, and
// get_user_info.
type InboundData struct {
	LobbyID       string `json:"lobbyId,omitempty"`
	Content       string `json:"content,omitempty"`
	QuestionIndex *int   `json:"questionIndex,omitempty"`
	AnswerID      string `json:"answerId,omitempty"`
	ReactionType  string `json:"reactionType,omitempty"`
	IsRemove      bool   `json:"isRemove,omitempty"`
	UserID        string `json:"userId,omitempty"`
}

// Outbound is one server envelope. Sender is only set on relayed messages.
type Outbound struct {
	Type   string `json:"type"`
	Data   any    `json:"data"`
	Sender string `json:"sender,omitempty"`
}

func Error(message string) Outbound {
	return Outbound{Type: EvtError, Data: message}
}

// Relay wraps an unrecognized inbound payload for delivery to every other
// session, tagged with the sender's session id.
func Relay(raw json.RawMessage, sender string) Outbound {
	return Outbound{Type: EvtMessage, Data: raw, Sender: sender}
}

// LobbySnapshot is the authoritative lobby state carried by lobby_created
// and lobby_updated events.
type LobbySnapshot struct {
	store.Lobby
}

// LobbyJoined is the joiner's direct reply: the lobby state plus the
// answers already submitted for the current question.
type LobbyJoined struct {
	store.Lobby
	ExistingAnswers []store.Answer `json:"existingAnswers"`
}

// AnswerWithAuthor decorates an answer with its author's profile for
// answer_submitted events.
type AnswerWithAuthor struct {
	store.Answer
	User *profile.Profile `json:"user"`
}

type TimerUpdate struct {
	TimeRemaining int `json:"timeRemaining"`
}

type QuestionChanged struct {
	QuestionIndex int            `json:"questionIndex"`
	Answers       []store.Answer `json:"answers"`
}

type PlayersUpdated struct {
	LobbyID     string `json:"lobbyId"`
	PlayerCount int    `json:"playerCount"`
}

type ReplyDeleted struct {
	ReplyID string `json:"replyId"`
}
