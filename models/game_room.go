package models

import "time"

// Game room states. Rooms live in Redis only, serialized as JSON with a
// fixed TTL, so these structs carry json tags and no gorm mapping.
const (
	RoomStateWaiting  = "waiting"
	RoomStateActive   = "active"
	RoomStateFinished = "finished"
)

// GamePlayer is one participant in a quiz game room.
type GamePlayer struct {
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// GameAnswer records one player's answer to one question.
type GameAnswer struct {
	PlayerID   string    `json:"player_id"`
	Option     int       `json:"option"`
	AnsweredAt time.Time `json:"answered_at"`
}

// GameRoom is the full room state stored under game:room:<code>.
type GameRoom struct {
	Code          string                  `json:"code"`
	QuizID        int                     `json:"quiz_id"`
	HostID        string                  `json:"host_id"`
	State         string                  `json:"state"`
	QuestionIndex int                     `json:"question_index"`
	Players       []GamePlayer            `json:"players"`
	Answers       map[string][]GameAnswer `json:"answers"` // question index -> answers
	CreatedAt     time.Time               `json:"created_at"`
}

// Player returns the player with the given id, or nil.
func (r *GameRoom) Player(playerID string) *GamePlayer {
	for i := range r.Players {
		if r.Players[i].PlayerID == playerID {
			return &r.Players[i]
		}
	}
	return nil
}
