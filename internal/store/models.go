package store

import "time"

type LobbyStatus string

const (
	StatusWaiting  LobbyStatus = "waiting"
	StatusPlaying  LobbyStatus = "playing"
	StatusFinished LobbyStatus = "finished"
)

type ReactionKind string

const (
	ReactionUpvote   ReactionKind = "upvote"
	ReactionDownvote ReactionKind = "downvote"
	ReactionLaugh    ReactionKind = "laugh"
	ReactionLove     ReactionKind = "love"
	ReactionWow      ReactionKind = "wow"
)

// KnownReaction reports whether kind is one of the supported reaction kinds.
func KnownReaction(kind ReactionKind) bool {
	switch kind {
	case ReactionUpvote, ReactionDownvote, ReactionLaugh, ReactionLove, ReactionWow:
		return true
	}
	return false
}

type Question struct {
	ID      string `gorm:"primaryKey" json:"id"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Theme   string `json:"theme"`
}

// Lobby is one bounded-capacity room. Questions are fixed at creation and
// serialized into the row; CurrentPlayers is a derived value that must always
// match the cardinality of the lobby's Member records.
type Lobby struct {
	ID                   string      `gorm:"primaryKey" json:"id"`
	Name                 string      `json:"name"`
	Capacity             int         `json:"capacity"`
	CurrentPlayers       int         `json:"currentPlayers"`
	HostID               string      `gorm:"column:host_id" json:"hostId"`
	Status               LobbyStatus `json:"status"`
	CurrentQuestionIndex int         `json:"currentQuestionIndex"`
	Questions            []Question  `gorm:"serializer:json" json:"questions"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// Member is the authoritative membership record: a row exists iff the player
// is in the lobby.
type Member struct {
	LobbyID  string    `gorm:"primaryKey" json:"lobbyId"`
	PlayerID string    `gorm:"primaryKey" json:"playerId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Reaction is a bare per-kind counter on an answer. An entry whose count
// reaches zero is removed rather than kept at zero.
type Reaction struct {
	Type  ReactionKind `json:"type"`
	Count int          `json:"count"`
}

// Reply is a threaded reply embedded in an answer's reply list.
type Reply struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Answer wire/row shape. Content is immutable after creation; Reactions and
// Replies are the only mutable fields. The snake_case json tags match the
// client's answer format.
type Answer struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	LobbyID       string     `gorm:"column:lobby_id" json:"lobby_id"`
	PlayerID      string     `gorm:"column:player_id" json:"player_id"`
	QuestionIndex int        `json:"question_index"`
	Content       string     `json:"content"`
	Reactions     []Reaction `gorm:"serializer:json" json:"reactions"`
	Replies       []Reply    `gorm:"serializer:json" json:"replies"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ReplyRecord is the standalone replies table used by the direct reply CRUD
// path (get_replies / create_reply / delete_reply), separate from the reply
// list embedded in an Answer.
type ReplyRecord struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	AnswerID  string    `gorm:"column:answer_id" json:"answerId"`
	PlayerID  string    `gorm:"column:player_id" json:"playerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
