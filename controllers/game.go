// controllers/game.go
package controllers

import (
	"errors"
	"net/http"

	"tunecards-api/services"

	"github.com/gin-gonic/gin"
)

// ===== GAME ROOM CONTROLLERS =====
// Rooms are anonymous: players identify with the player id returned at
// create/join time, not with a user account.

type RoomCreateRequest struct {
	QuizID   int    `json:"quiz_id" binding:"required"`
	HostName string `json:"host_name" binding:"required"`
}

// CreateRoom opens a game room for a published quiz.
func CreateRoom(c *gin.Context) {
	var req RoomCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewGameService(nil, nil)
	room, err := svc.CreateRoom(c.Request.Context(), req.QuizID, req.HostName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"data":      room,
		"player_id": room.HostID,
	})
}

type RoomJoinRequest struct {
	Name string `json:"name" binding:"required"`
}

// JoinRoom adds a player to a waiting room.
func JoinRoom(c *gin.Context) {
	code := c.Param("code")

	var req RoomJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewGameService(nil, nil)
	room, playerID, err := svc.Join(c.Request.Context(), code, req.Name)
	if err != nil {
		c.JSON(gameErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room, "player_id": playerID})
}

// GetRoom returns the current room state plus the active question (without
// the correct answer). The frontend polls this endpoint.
func GetRoom(c *gin.Context) {
	code := c.Param("code")

	svc := services.NewGameService(nil, nil)
	room, err := svc.Room(c.Request.Context(), code)
	if err != nil {
		c.JSON(gameErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	question, err := svc.CurrentQuestion(c.Request.Context(), room)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room, "question": question})
}

type RoomActionRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

// StartGame begins the quiz; host only.
func StartGame(c *gin.Context) {
	code := c.Param("code")

	var req RoomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewGameService(nil, nil)
	room, err := svc.Start(c.Request.Context(), code, req.PlayerID)
	if err != nil {
		c.JSON(gameErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
}

type AnswerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Option   *int   `json:"option" binding:"required"`
}

// SubmitAnswer records an answer to the current question.
func SubmitAnswer(c *gin.Context) {
	code := c.Param("code")

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Option < 0 || *req.Option > 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Option must be between 0 and 3"})
		return
	}

	svc := services.NewGameService(nil, nil)
	room, err := svc.Answer(c.Request.Context(), code, req.PlayerID, *req.Option)
	if err != nil {
		c.JSON(gameErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
}

// NextQuestion advances the game; host only. Past the last question the room
// finishes and scores are final.
func NextQuestion(c *gin.Context) {
	code := c.Param("code")

	var req RoomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewGameService(nil, nil)
	room, err := svc.NextQuestion(c.Request.Context(), code, req.PlayerID)
	if err != nil {
		c.JSON(gameErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": room})
}

// gameErrorStatus maps game service errors onto HTTP statuses.
func gameErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, services.ErrRoomFull),
		errors.Is(err, services.ErrRoomStarted),
		errors.Is(err, services.ErrAlreadyJoined):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
