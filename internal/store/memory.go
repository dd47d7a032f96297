package store

import (
	"context"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is a map-backed Store used for tests and store-less dev runs.
// Concurrency-safe via RWMutex; state is lost on process restart.
type memoryStore struct {
	mu        sync.RWMutex
	lobbies   map[string]*Lobby
	members   map[string][]Member // keyed by lobby id
	answers   map[string]*Answer  // keyed by answer id
	replies   map[string]*ReplyRecord
	questions []Question
}

// NewMemory returns an empty in-memory Store seeded with the built-in
// question bank.
func NewMemory() Store {
	return &memoryStore{
		lobbies:   make(map[string]*Lobby),
		members:   make(map[string][]Member),
		answers:   make(map[string]*Answer),
		replies:   make(map[string]*ReplyRecord),
		questions: seedQuestions(),
	}
}

func seedQuestions() []Question {
	prompts := []string{
		"What's the most useless talent you have?",
		"What would be the worst thing to hear from your GPS?",
		"If animals could talk, which would be the rudest?",
		"What's the weirdest thing you've eaten out of politeness?",
		"What movie title best describes your life right now?",
		"What's a totally wrong lesson kids' movies teach?",
		"What would you do with one extra invisible hour a day?",
		"What's the worst possible name for a pet goldfish?",
		"What ordinary thing becomes terrifying if it glows?",
		"What's the strangest compliment you've ever received?",
		"What food do you defend that everyone else hates?",
		"What job would you be hilariously bad at?",
	}
	questions := make([]Question, len(prompts))
	for i, content := range prompts {
		questions[i] = Question{ID: uuid.NewString(), Content: content, Type: "text", Theme: "icebreaker"}
	}
	return questions
}

func (m *memoryStore) CreateLobby(_ context.Context, lobby *Lobby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if lobby.CreatedAt.IsZero() {
		lobby.CreatedAt = now
	}
	lobby.UpdatedAt = now
	cp := *lobby
	m.lobbies[lobby.ID] = &cp
	return nil
}

func (m *memoryStore) GetLobby(_ context.Context, id string) (*Lobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lobby, ok := m.lobbies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *lobby
	return &cp, nil
}

func (m *memoryStore) UpdateLobby(_ context.Context, lobby *Lobby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lobbies[lobby.ID]; !ok {
		return ErrNotFound
	}
	lobby.UpdatedAt = time.Now()
	cp := *lobby
	m.lobbies[lobby.ID] = &cp
	return nil
}

func (m *memoryStore) DeleteLobby(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lobbies, id)
	return nil
}

func (m *memoryStore) ListLobbies(_ context.Context) ([]Lobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lobbies := make([]Lobby, 0, len(m.lobbies))
	for _, lobby := range m.lobbies {
		lobbies = append(lobbies, *lobby)
	}
	sort.Slice(lobbies, func(i, j int) bool {
		return lobbies[i].CreatedAt.After(lobbies[j].CreatedAt)
	})
	return lobbies, nil
}

func (m *memoryStore) AddMember(_ context.Context, lobbyID, playerID string, joinedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[lobbyID] = append(m.members[lobbyID], Member{
		LobbyID:  lobbyID,
		PlayerID: playerID,
		JoinedAt: joinedAt,
	})
	return nil
}

func (m *memoryStore) RemoveMember(_ context.Context, lobbyID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[lobbyID] = slices.DeleteFunc(m.members[lobbyID], func(member Member) bool {
		return member.PlayerID == playerID
	})
	return nil
}

func (m *memoryStore) IsMember(_ context.Context, lobbyID, playerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.ContainsFunc(m.members[lobbyID], func(member Member) bool {
		return member.PlayerID == playerID
	}), nil
}

func (m *memoryStore) Members(_ context.Context, lobbyID string) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members := slices.Clone(m.members[lobbyID])
	sort.Slice(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].PlayerID < members[j].PlayerID
	})
	return members, nil
}

func (m *memoryStore) DeleteMembers(_ context.Context, lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, lobbyID)
	return nil
}

func (m *memoryStore) CreateAnswer(_ context.Context, answer *Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	cp := *answer
	m.answers[answer.ID] = &cp
	return nil
}

func (m *memoryStore) GetAnswer(_ context.Context, id string) (*Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	answer, ok := m.answers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *answer
	cp.Reactions = slices.Clone(answer.Reactions)
	cp.Replies = slices.Clone(answer.Replies)
	return &cp, nil
}

func (m *memoryStore) UpdateAnswer(_ context.Context, answer *Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.answers[answer.ID]; !ok {
		return ErrNotFound
	}
	cp := *answer
	cp.Reactions = slices.Clone(answer.Reactions)
	cp.Replies = slices.Clone(answer.Replies)
	m.answers[answer.ID] = &cp
	return nil
}

func (m *memoryStore) Answers(_ context.Context, lobbyID string, questionIndex int) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var answers []Answer
	for _, answer := range m.answers {
		if answer.LobbyID == lobbyID && answer.QuestionIndex == questionIndex {
			answers = append(answers, *answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].CreatedAt.After(answers[j].CreatedAt)
	})
	return answers, nil
}

func (m *memoryStore) DeleteAnswers(_ context.Context, lobbyID string, questionIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, answer := range m.answers {
		if answer.LobbyID == lobbyID && answer.QuestionIndex == questionIndex {
			delete(m.answers, id)
		}
	}
	return nil
}

func (m *memoryStore) DeleteLobbyAnswers(_ context.Context, lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, answer := range m.answers {
		if answer.LobbyID == lobbyID {
			delete(m.answers, id)
		}
	}
	return nil
}

func (m *memoryStore) DeleteOrphanAnswers(_ context.Context, keep []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, answer := range m.answers {
		if !slices.Contains(keep, answer.LobbyID) {
			delete(m.answers, id)
		}
	}
	return nil
}

func (m *memoryStore) CreateReply(_ context.Context, reply *ReplyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	cp := *reply
	m.replies[reply.ID] = &cp
	return nil
}

func (m *memoryStore) Replies(_ context.Context, answerID string) ([]ReplyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var replies []ReplyRecord
	for _, reply := range m.replies {
		if reply.AnswerID == answerID {
			replies = append(replies, *reply)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}
		return replies[i].ID < replies[j].ID
	})
	return replies, nil
}

func (m *memoryStore) DeleteReply(_ context.Context, replyID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reply, ok := m.replies[replyID]
	if !ok || reply.PlayerID != playerID {
		return ErrNotFound
	}
	delete(m.replies, replyID)
	return nil
}

func (m *memoryStore) SampleQuestions(_ context.Context, n int) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shuffled := slices.Clone(m.questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled, nil
}
