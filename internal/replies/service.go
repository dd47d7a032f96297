// Package replies is the direct reply-record path: standalone reply rows
// that can be listed and deleted by their author, separate from the reply
// list embedded in an answer.
package replies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lfbianchini/talksoup/internal/store"
)

var ErrNotFound = errors.New("reply not found")

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Create(ctx context.Context, answerID, authorID, content string) (*store.ReplyRecord, error) {
	reply := &store.ReplyRecord{
		ID:        uuid.NewString(),
		AnswerID:  answerID,
		PlayerID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateReply(ctx, reply); err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}
	return reply, nil
}

// ListForAnswer returns an answer's reply records oldest first.
func (s *Service) ListForAnswer(ctx context.Context, answerID string) ([]store.ReplyRecord, error) {
	return s.store.Replies(ctx, answerID)
}

// Delete removes a reply when authorID wrote it; anyone else gets ErrNotFound.
func (s *Service) Delete(ctx context.Context, replyID, authorID string) error {
	if err := s.store.DeleteReply(ctx, replyID, authorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
