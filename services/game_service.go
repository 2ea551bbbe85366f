package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	gameRoomTTL       = 4 * time.Hour
	gameRoomKeyPrefix = "game:room:"
	roomCodeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no ambiguous chars
	roomCodeLength    = 6
	maxRoomPlayers    = 50
)

var (
	ErrRoomNotFound  = errors.New("game room not found or expired")
	ErrRoomFull      = errors.New("game room is full")
	ErrRoomStarted   = errors.New("game has already started")
	ErrNotHost       = errors.New("only the host can do that")
	ErrAlreadyJoined = errors.New("player already joined")
)

// GameService runs quiz game rooms. Room state lives in Redis only,
// serialized as JSON with a fixed TTL that is refreshed on every write; an
// abandoned room simply expires.
type GameService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewGameService constructs a GameService over the shared handles.
func NewGameService(db *gorm.DB, rdb *redis.Client) *GameService {
	if db == nil {
		db = config.DB
	}
	if rdb == nil {
		rdb = config.Redis
	}
	return &GameService{db: db, redis: rdb}
}

func roomKey(code string) string {
	return gameRoomKeyPrefix + code
}

func newRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}

// save serializes the room back to Redis and refreshes the TTL.
func (s *GameService) save(ctx context.Context, room *models.GameRoom) error {
	payload, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to encode game room: %w", err)
	}
	if err := s.redis.Set(ctx, roomKey(room.Code), payload, gameRoomTTL).Err(); err != nil {
		return fmt.Errorf("failed to store game room: %w", err)
	}
	return nil
}

// Room loads a room by code.
func (s *GameService) Room(ctx context.Context, code string) (*models.GameRoom, error) {
	payload, err := s.redis.Get(ctx, roomKey(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game room: %w", err)
	}

	var room models.GameRoom
	if err := json.Unmarshal(payload, &room); err != nil {
		return nil, fmt.Errorf("failed to decode game room: %w", err)
	}
	return &room, nil
}

// CreateRoom opens a room for the given quiz and returns it together with
// the host's player id.
func (s *GameService) CreateRoom(ctx context.Context, quizID int, hostName string) (*models.GameRoom, error) {
	var quiz models.Quiz
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND status = ? AND delete_at IS NULL", quizID, "published").
		First(&quiz).Error; err != nil {
		return nil, fmt.Errorf("quiz not found: %w", err)
	}

	hostID := uuid.NewString()
	room := &models.GameRoom{
		QuizID:        quizID,
		HostID:        hostID,
		State:         models.RoomStateWaiting,
		QuestionIndex: -1,
		Players: []models.GamePlayer{
			{PlayerID: hostID, Name: hostName, JoinedAt: time.Now()},
		},
		Answers:   make(map[string][]models.GameAnswer),
		CreatedAt: time.Now(),
	}

	// Retry on the unlikely code collision with a live room.
	for attempt := 0; attempt < 5; attempt++ {
		room.Code = newRoomCode()
		exists, err := s.redis.Exists(ctx, roomKey(room.Code)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check room code: %w", err)
		}
		if exists == 0 {
			if err := s.save(ctx, room); err != nil {
				return nil, err
			}
			return room, nil
		}
	}
	return nil, errors.New("could not allocate a room code")
}

// Join adds a player to a waiting room and returns the room and player id.
func (s *GameService) Join(ctx context.Context, code, playerName string) (*models.GameRoom, string, error) {
	room, err := s.Room(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if room.State != models.RoomStateWaiting {
		return nil, "", ErrRoomStarted
	}
	if len(room.Players) >= maxRoomPlayers {
		return nil, "", ErrRoomFull
	}

	playerID := uuid.NewString()
	room.Players = append(room.Players, models.GamePlayer{
		PlayerID: playerID,
		Name:     playerName,
		JoinedAt: time.Now(),
	})

	if err := s.save(ctx, room); err != nil {
		return nil, "", err
	}
	return room, playerID, nil
}

// Start moves the room into the active state at the first question.
func (s *GameService) Start(ctx context.Context, code, playerID string) (*models.GameRoom, error) {
	room, err := s.Room(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HostID != playerID {
		return nil, ErrNotHost
	}
	if room.State != models.RoomStateWaiting {
		return nil, ErrRoomStarted
	}

	room.State = models.RoomStateActive
	room.QuestionIndex = 0

	if err := s.save(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Answer records a player's answer to the current question and scores it.
func (s *GameService) Answer(ctx context.Context, code, playerID string, option int) (*models.GameRoom, error) {
	room, err := s.Room(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.State != models.RoomStateActive {
		return nil, errors.New("game is not active")
	}
	player := room.Player(playerID)
	if player == nil {
		return nil, errors.New("player not in room")
	}

	key := strconv.Itoa(room.QuestionIndex)
	for _, a := range room.Answers[key] {
		if a.PlayerID == playerID {
			return nil, errors.New("already answered this question")
		}
	}

	room.Answers[key] = append(room.Answers[key], models.GameAnswer{
		PlayerID:   playerID,
		Option:     option,
		AnsweredAt: time.Now(),
	})

	question, err := s.questionAt(ctx, room.QuizID, room.QuestionIndex)
	if err != nil {
		return nil, err
	}
	if question != nil && question.CorrectOption == option {
		player.Score++
	}

	if err := s.save(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// NextQuestion advances the room; past the last question the room finishes.
func (s *GameService) NextQuestion(ctx context.Context, code, playerID string) (*models.GameRoom, error) {
	room, err := s.Room(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HostID != playerID {
		return nil, ErrNotHost
	}
	if room.State != models.RoomStateActive {
		return nil, errors.New("game is not active")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ? AND delete_at IS NULL", room.QuizID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count quiz questions: %w", err)
	}

	room.QuestionIndex++
	if room.QuestionIndex >= int(count) {
		room.State = models.RoomStateFinished
	}

	if err := s.save(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// CurrentQuestion returns the player-safe shape of the active question.
func (s *GameService) CurrentQuestion(ctx context.Context, room *models.GameRoom) (*models.PublicQuestion, error) {
	if room.State != models.RoomStateActive {
		return nil, nil
	}
	question, err := s.questionAt(ctx, room.QuizID, room.QuestionIndex)
	if err != nil || question == nil {
		return nil, err
	}
	public := question.ToPublic()
	return &public, nil
}

func (s *GameService) questionAt(ctx context.Context, quizID, index int) (*models.QuizQuestion, error) {
	if index < 0 {
		return nil, nil
	}
	var question models.QuizQuestion
	err := s.db.WithContext(ctx).
		Where("quiz_id = ? AND delete_at IS NULL", quizID).
		Order("question_order ASC").
		Offset(index).Limit(1).
		First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz question: %w", err)
	}
	return &question, nil
}
