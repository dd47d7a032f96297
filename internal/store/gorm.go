package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (ReplyRecord) TableName() string { return "replies" }

// gormStore is the Postgres-backed Store.
type gormStore struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Lobby{}, &Member{}, &Answer{}, &ReplyRecord{}, &Question{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &gormStore{db: db}, nil
}

func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *gormStore) CreateLobby(ctx context.Context, lobby *Lobby) error {
	return s.db.WithContext(ctx).Create(lobby).Error
}

func (s *gormStore) GetLobby(ctx context.Context, id string) (*Lobby, error) {
	var lobby Lobby
	if err := s.db.WithContext(ctx).First(&lobby, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &lobby, nil
}

func (s *gormStore) UpdateLobby(ctx context.Context, lobby *Lobby) error {
	lobby.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(lobby).Error
}

func (s *gormStore) DeleteLobby(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Lobby{}, "id = ?", id).Error
}

func (s *gormStore) ListLobbies(ctx context.Context) ([]Lobby, error) {
	var lobbies []Lobby
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&lobbies).Error
	return lobbies, err
}

func (s *gormStore) AddMember(ctx context.Context, lobbyID, playerID string, joinedAt time.Time) error {
	return s.db.WithContext(ctx).Create(&Member{LobbyID: lobbyID, PlayerID: playerID, JoinedAt: joinedAt}).Error
}

func (s *gormStore) RemoveMember(ctx context.Context, lobbyID, playerID string) error {
	return s.db.WithContext(ctx).
		Delete(&Member{}, "lobby_id = ? AND player_id = ?", lobbyID, playerID).Error
}

func (s *gormStore) IsMember(ctx context.Context, lobbyID, playerID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Member{}).
		Where("lobby_id = ? AND player_id = ?", lobbyID, playerID).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) Members(ctx context.Context, lobbyID string) ([]Member, error) {
	var members []Member
	err := s.db.WithContext(ctx).
		Where("lobby_id = ?", lobbyID).
		Order("joined_at, player_id").
		Find(&members).Error
	return members, err
}

func (s *gormStore) DeleteMembers(ctx context.Context, lobbyID string) error {
	return s.db.WithContext(ctx).Delete(&Member{}, "lobby_id = ?", lobbyID).Error
}

func (s *gormStore) CreateAnswer(ctx context.Context, answer *Answer) error {
	return s.db.WithContext(ctx).Create(answer).Error
}

func (s *gormStore) GetAnswer(ctx context.Context, id string) (*Answer, error) {
	var answer Answer
	if err := s.db.WithContext(ctx).First(&answer, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &answer, nil
}

func (s *gormStore) UpdateAnswer(ctx context.Context, answer *Answer) error {
	return s.db.WithContext(ctx).Save(answer).Error
}

func (s *gormStore) Answers(ctx context.Context, lobbyID string, questionIndex int) ([]Answer, error) {
	var answers []Answer
	err := s.db.WithContext(ctx).
		Where("lobby_id = ? AND question_index = ?", lobbyID, questionIndex).
		Order("created_at DESC").
		Find(&answers).Error
	return answers, err
}

func (s *gormStore) DeleteAnswers(ctx context.Context, lobbyID string, questionIndex int) error {
	return s.db.WithContext(ctx).
		Delete(&Answer{}, "lobby_id = ? AND question_index = ?", lobbyID, questionIndex).Error
}

func (s *gormStore) DeleteLobbyAnswers(ctx context.Context, lobbyID string) error {
	return s.db.WithContext(ctx).Delete(&Answer{}, "lobby_id = ?", lobbyID).Error
}

func (s *gormStore) DeleteOrphanAnswers(ctx context.Context, keep []string) error {
	if len(keep) == 0 {
		return s.db.WithContext(ctx).Exec("DELETE FROM answers").Error
	}
	return s.db.WithContext(ctx).Delete(&Answer{}, "lobby_id NOT IN ?", keep).Error
}

func (s *gormStore) CreateReply(ctx context.Context, reply *ReplyRecord) error {
	return s.db.WithContext(ctx).Create(reply).Error
}

func (s *gormStore) Replies(ctx context.Context, answerID string) ([]ReplyRecord, error) {
	var replies []ReplyRecord
	err := s.db.WithContext(ctx).
		Where("answer_id = ?", answerID).
		Order("created_at").
		Find(&replies).Error
	return replies, err
}

func (s *gormStore) DeleteReply(ctx context.Context, replyID, playerID string) error {
	res := s.db.WithContext(ctx).Delete(&ReplyRecord{}, "id = ? AND player_id = ?", replyID, playerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) SampleQuestions(ctx context.Context, n int) ([]Question, error) {
	var questions []Question
	// Postgres does the sampling; no need to over-fetch and shuffle here.
	err := s.db.WithContext(ctx).Order("RANDOM()").Limit(n).Find(&questions).Error
	return questions, err
}
