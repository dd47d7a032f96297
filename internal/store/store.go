package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Store is the persistence collaborator for lobbies, membership records,
// answers, reply records, and the question bank. Implementations must make
// each call individually atomic; multi-call sequences are not transactional
// and callers are expected to recompute derived state (player counts) from
// the records rather than trust previously-read values.
type Store interface {
	CreateLobby(ctx context.Context, lobby *Lobby) error
	GetLobby(ctx context.Context, id string) (*Lobby, error)
	UpdateLobby(ctx context.Context, lobby *Lobby) error
	DeleteLobby(ctx context.Context, id string) error
	ListLobbies(ctx context.Context) ([]Lobby, error)

	AddMember(ctx context.Context, lobbyID, playerID string, joinedAt time.Time) error
	RemoveMember(ctx context.Context, lobbyID, playerID string) error
	IsMember(ctx context.Context, lobbyID, playerID string) (bool, error)
	// Members returns the lobby's membership records ordered by joined-at,
	// then player id. The order is the stable order used for host promotion.
	Members(ctx context.Context, lobbyID string) ([]Member, error)
	DeleteMembers(ctx context.Context, lobbyID string) error

	CreateAnswer(ctx context.Context, answer *Answer) error
	GetAnswer(ctx context.Context, id string) (*Answer, error)
	UpdateAnswer(ctx context.Context, answer *Answer) error
	// Answers returns every answer for (lobby, question index), newest first.
	Answers(ctx context.Context, lobbyID string, questionIndex int) ([]Answer, error)
	DeleteAnswers(ctx context.Context, lobbyID string, questionIndex int) error
	DeleteLobbyAnswers(ctx context.Context, lobbyID string) error
	// DeleteOrphanAnswers removes answers whose lobby id is not in keep.
	DeleteOrphanAnswers(ctx context.Context, keep []string) error

	CreateReply(ctx context.Context, reply *ReplyRecord) error
	// Replies returns the standalone reply records for an answer, oldest first.
	Replies(ctx context.Context, answerID string) ([]ReplyRecord, error)
	// DeleteReply deletes a reply only when playerID is its author.
	DeleteReply(ctx context.Context, replyID, playerID string) error

	// SampleQuestions returns up to n distinct questions in shuffled order.
	SampleQuestions(ctx context.Context, n int) ([]Question, error)
}
