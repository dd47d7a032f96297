package answers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfbianchini/talksoup/internal/store"
)

func seedAnswer(t *testing.T, st store.Store, id, lobbyID string, questionIndex int, createdAt time.Time, reactions ...store.Reaction) {
	t.Helper()
	err := st.CreateAnswer(context.Background(), &store.Answer{
		ID:            id,
		LobbyID:       lobbyID,
		PlayerID:      "author",
		QuestionIndex: questionIndex,
		Content:       "seed",
		Reactions:     reactions,
		CreatedAt:     createdAt,
	})
	require.NoError(t, err)
}

func TestSubmit_StoresContentVerbatim(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	content := "  The answer is 42!! 🦆  "
	answer, err := svc.Submit(ctx, "lobby-1", "p1", content, 3)
	require.NoError(t, err)

	assert.NotEmpty(t, answer.ID)
	assert.Equal(t, content, answer.Content)
	assert.Equal(t, "p1", answer.PlayerID)
	assert.Equal(t, 3, answer.QuestionIndex)
	assert.Empty(t, answer.Reactions)
	assert.Empty(t, answer.Replies)

	stored, err := st.GetAnswer(ctx, answer.ID)
	require.NoError(t, err)
	assert.Equal(t, content, stored.Content)
}

func TestReact_ToggleReturnsTallyToPriorState(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	answer, err := svc.Submit(ctx, "lobby-1", "p1", "hi", 0)
	require.NoError(t, err)

	added, err := svc.React(ctx, answer.ID, store.ReactionUpvote, false)
	require.NoError(t, err)
	require.Len(t, added.Reactions, 1)
	assert.Equal(t, store.ReactionUpvote, added.Reactions[0].Type)
	assert.Equal(t, 1, added.Reactions[0].Count)

	removed, err := svc.React(ctx, answer.ID, store.ReactionUpvote, true)
	require.NoError(t, err)
	assert.Empty(t, removed.Reactions, "entry should be removed at zero, not kept")
}

func TestReact_CountsAccumulateAndDecrement(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	answer, err := svc.Submit(ctx, "lobby-1", "p1", "hi", 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.React(ctx, answer.ID, store.ReactionLaugh, false)
		require.NoError(t, err)
	}
	updated, err := svc.React(ctx, answer.ID, store.ReactionLaugh, true)
	require.NoError(t, err)
	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, 2, updated.Reactions[0].Count)
}

func TestReact_RemoveAbsentKindIsNoop(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	answer, err := svc.Submit(ctx, "lobby-1", "p1", "hi", 0)
	require.NoError(t, err)

	updated, err := svc.React(ctx, answer.ID, store.ReactionWow, true)
	require.NoError(t, err)
	assert.Empty(t, updated.Reactions)
}

func TestReact_UnknownKind(t *testing.T) {
	svc := NewService(store.NewMemory())
	_, err := svc.React(context.Background(), "any", "starstruck", false)
	assert.ErrorIs(t, err, ErrUnknownReaction)
}

func TestReact_MissingAnswer(t *testing.T) {
	svc := NewService(store.NewMemory())
	_, err := svc.React(context.Background(), "missing", store.ReactionUpvote, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReply_AppendsWithServerIDAndTimestamp(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	answer, err := svc.Submit(ctx, "lobby-1", "p1", "hi", 0)
	require.NoError(t, err)

	updated, err := svc.Reply(ctx, answer.ID, "p2", "nice one")
	require.NoError(t, err)
	require.Len(t, updated.Replies, 1)
	reply := updated.Replies[0]
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, "p2", reply.PlayerID)
	assert.Equal(t, "nice one", reply.Content)
	assert.False(t, reply.CreatedAt.IsZero())

	again, err := svc.Reply(ctx, answer.ID, "p3", "agreed")
	require.NoError(t, err)
	require.Len(t, again.Replies, 2)
	assert.Equal(t, "nice one", again.Replies[0].Content, "reply list is append-only")
}

func TestList_RanksByNetScoreThenRecency(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	up := func(n int) store.Reaction { return store.Reaction{Type: store.ReactionUpvote, Count: n} }
	down := func(n int) store.Reaction { return store.Reaction{Type: store.ReactionDownvote, Count: n} }

	// Net scores: older-3, newer-3, 1. Laugh/love/wow never affect ranking.
	seedAnswer(t, st, "older-3", "lobby-1", 0, base, up(4), down(1))
	seedAnswer(t, st, "newer-3", "lobby-1", 0, base.Add(time.Minute), up(3), store.Reaction{Type: store.ReactionLaugh, Count: 9})
	seedAnswer(t, st, "one", "lobby-1", 0, base.Add(2*time.Minute), up(1))

	ranked, err := svc.List(ctx, "lobby-1", 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "newer-3", ranked[0].ID, "ties break by most recent first")
	assert.Equal(t, "older-3", ranked[1].ID)
	assert.Equal(t, "one", ranked[2].ID)
}

func TestList_ScopedToQuestionIndex(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	seedAnswer(t, st, "q0", "lobby-1", 0, time.Now())
	seedAnswer(t, st, "q1", "lobby-1", 1, time.Now())

	listed, err := svc.List(ctx, "lobby-1", 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "q1", listed[0].ID)
}

func TestClear_DeletesOneWindowOnly(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	seedAnswer(t, st, "q0", "lobby-1", 0, time.Now())
	seedAnswer(t, st, "q1", "lobby-1", 1, time.Now())

	require.NoError(t, svc.Clear(ctx, "lobby-1", 0))

	gone, err := svc.List(ctx, "lobby-1", 0)
	require.NoError(t, err)
	assert.Empty(t, gone)
	kept, err := svc.List(ctx, "lobby-1", 1)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
