// Package answers records answers for the current question window, tallies
// reactions, threads replies, and ranks answers by net score. Persisted
// records are the source of truth; nothing here is cached.
package answers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lfbianchini/talksoup/internal/store"
)

var (
	ErrNotFound        = errors.New("answer not found")
	ErrUnknownReaction = errors.New("unknown reaction type")
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Submit appends a new answer for (lobby, question index). Content is stored
// verbatim.
func (s *Service) Submit(ctx context.Context, lobbyID, authorID, content string, questionIndex int) (*store.Answer, error) {
	answer := &store.Answer{
		ID:            uuid.NewString(),
		LobbyID:       lobbyID,
		PlayerID:      authorID,
		QuestionIndex: questionIndex,
		Content:       content,
		Reactions:     []store.Reaction{},
		Replies:       []store.Reply{},
		CreatedAt:     time.Now(),
	}
	if err := s.store.CreateAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	return answer, nil
}

// React adjusts the bare counter for kind on an answer. Adding creates the
// entry at 1 when absent; removing decrements and drops the entry once it
// would reach zero. The tally is not keyed by reactor identity.
func (s *Service) React(ctx context.Context, answerID string, kind store.ReactionKind, remove bool) (*store.Answer, error) {
	if !store.KnownReaction(kind) {
		return nil, ErrUnknownReaction
	}
	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	found := -1
	for i, r := range answer.Reactions {
		if r.Type == kind {
			found = i
			break
		}
	}
	switch {
	case found >= 0 && remove:
		if answer.Reactions[found].Count <= 1 {
			answer.Reactions = append(answer.Reactions[:found], answer.Reactions[found+1:]...)
		} else {
			answer.Reactions[found].Count--
		}
	case found >= 0:
		answer.Reactions[found].Count++
	case !remove:
		answer.Reactions = append(answer.Reactions, store.Reaction{Type: kind, Count: 1})
	}

	if err := s.store.UpdateAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}
	return answer, nil
}

// Reply appends a reply with a server-generated id and timestamp to the
// answer's reply list and returns the full updated answer.
func (s *Service) Reply(ctx context.Context, answerID, authorID, content string) (*store.Answer, error) {
	answer, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	answer.Replies = append(answer.Replies, store.Reply{
		ID:        uuid.NewString(),
		PlayerID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err := s.store.UpdateAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("update answer: %w", err)
	}
	return answer, nil
}

// List returns the answers for a question window ranked by descending net
// score (upvotes minus downvotes), then by most recent. The ranking is
// recomputed on every read.
func (s *Service) List(ctx context.Context, lobbyID string, questionIndex int) ([]store.Answer, error) {
	answers, err := s.store.Answers(ctx, lobbyID, questionIndex)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(answers, func(i, j int) bool {
		si, sj := netScore(answers[i]), netScore(answers[j])
		if si != sj {
			return si > sj
		}
		return answers[i].CreatedAt.After(answers[j].CreatedAt)
	})
	return answers, nil
}

// Clear force-deletes every answer for a question window, as happens when a
// window closes or the host forces a question change.
func (s *Service) Clear(ctx context.Context, lobbyID string, questionIndex int) error {
	return s.store.DeleteAnswers(ctx, lobbyID, questionIndex)
}

func netScore(answer store.Answer) int {
	score := 0
	for _, r := range answer.Reactions {
		switch r.Type {
		case store.ReactionUpvote:
			score += r.Count
		case store.ReactionDownvote:
			score -= r.Count
		}
	}
	return score
}
