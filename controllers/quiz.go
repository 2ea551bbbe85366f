// controllers/quiz.go
package controllers

import (
	"net/http"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"
	"tunecards-api/services"

	"github.com/gin-gonic/gin"
)

// ===== QUIZ CONTROLLERS =====

// GetQuizzes returns published quizzes. Admins may request drafts too with
// ?all=true; anonymous callers always get the published filter.
func GetQuizzes(c *gin.Context) {
	query := config.DB.Model(&models.Quiz{}).Where("delete_at IS NULL")
	if c.Query("all") != "true" || !requestIsAdmin(c) {
		query = query.Where("status = ?", "published")
	}
	if locale := c.Query("locale"); locale != "" {
		query = query.Where("locale = ?", locale)
	}

	var quizzes []models.Quiz
	if err := query.Order("create_at DESC").Find(&quizzes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quizzes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": quizzes, "count": len(quizzes)})
}

// GetQuiz returns one quiz with its questions.
func GetQuiz(c *gin.Context) {
	id := c.Param("id")

	var quiz models.Quiz
	if err := config.DB.
		Preload("Questions", "delete_at IS NULL").
		Where("quiz_id = ? AND delete_at IS NULL", id).
		First(&quiz).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": quiz})
}

type QuizCreateRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Locale      string  `json:"locale"`
	Decade      *int    `json:"decade"`
	Genre       *string `json:"genre"`
}

// CreateQuiz creates an empty quiz shell.
func CreateQuiz(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req QuizCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	now := time.Now()
	quiz := models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		Locale:      locale,
		Decade:      req.Decade,
		Genre:       req.Genre,
		Status:      "draft",
		CreatedBy:   userID.(int),
		CreateAt:    now,
		UpdateAt:    now,
	}

	if err := config.DB.Create(&quiz).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quiz"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": quiz})
}

type QuestionRequest struct {
	Question      string  `json:"question" binding:"required"`
	OptionA       string  `json:"option_a" binding:"required"`
	OptionB       string  `json:"option_b" binding:"required"`
	OptionC       string  `json:"option_c" binding:"required"`
	OptionD       string  `json:"option_d" binding:"required"`
	CorrectOption int     `json:"correct_option" binding:"min=0,max=3"`
	TrackArtist   *string `json:"track_artist"`
	TrackTitle    *string `json:"track_title"`
	SpotifyID     *string `json:"spotify_id"`
}

// AddQuestion appends a question to a quiz.
func AddQuestion(c *gin.Context) {
	id := c.Param("id")

	var quiz models.Quiz
	if err := config.DB.Where("quiz_id = ? AND delete_at IS NULL", id).First(&quiz).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	config.DB.Model(&models.QuizQuestion{}).
		Where("quiz_id = ? AND delete_at IS NULL", quiz.QuizID).
		Count(&count)

	now := time.Now()
	question := models.QuizQuestion{
		QuizID:        quiz.QuizID,
		Question:      req.Question,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		TrackArtist:   req.TrackArtist,
		TrackTitle:    req.TrackTitle,
		SpotifyID:     req.SpotifyID,
		QuestionOrder: int(count) + 1,
		CreateAt:      now,
		UpdateAt:      now,
	}

	if err := config.DB.Create(&question).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add question"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": question})
}

// DeleteQuestion soft deletes a question.
func DeleteQuestion(c *gin.Context) {
	questionID := c.Param("question_id")

	result := config.DB.Model(&models.QuizQuestion{}).
		Where("question_id = ? AND delete_at IS NULL", questionID).
		Update("delete_at", time.Now())
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Question deleted"})
}

// PublishQuiz flips a quiz to published once it has questions.
func PublishQuiz(c *gin.Context) {
	id := c.Param("id")

	var quiz models.Quiz
	if err := config.DB.Where("quiz_id = ? AND delete_at IS NULL", id).First(&quiz).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	var count int64
	config.DB.Model(&models.QuizQuestion{}).
		Where("quiz_id = ? AND delete_at IS NULL", quiz.QuizID).
		Count(&count)
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot publish a quiz without questions"})
		return
	}

	if err := config.DB.Model(&quiz).
		Updates(map[string]interface{}{"status": "published", "update_at": time.Now()}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish quiz"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": quiz})
}

// DeleteQuiz soft deletes a quiz and its questions.
func DeleteQuiz(c *gin.Context) {
	id := c.Param("id")
	now := time.Now()

	result := config.DB.Model(&models.Quiz{}).
		Where("quiz_id = ? AND delete_at IS NULL", id).
		Update("delete_at", now)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete quiz"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Quiz not found"})
		return
	}

	config.DB.Model(&models.QuizQuestion{}).
		Where("quiz_id = ? AND delete_at IS NULL", id).
		Update("delete_at", now)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Quiz deleted"})
}

type QuizGenerateRequest struct {
	Title  string  `json:"title" binding:"required"`
	Count  int     `json:"count"`
	Decade *int    `json:"decade"`
	Genre  *string `json:"genre"`
	Locale string  `json:"locale"`
}

// GenerateQuiz builds a quiz from AI-generated questions, verifying the
// referenced tracks against the Spotify catalog where possible.
func GenerateQuiz(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req QuizGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decade := 0
	if req.Decade != nil {
		decade = *req.Decade
	}
	genre := ""
	if req.Genre != nil {
		genre = *req.Genre
	}

	generated, err := services.OpenAI().GenerateQuizQuestions(c.Request.Context(), decade, genre, req.Count)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Quiz generation failed: " + err.Error()})
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	now := time.Now()
	quiz := models.Quiz{
		Title:     req.Title,
		Locale:    locale,
		Decade:    req.Decade,
		Genre:     req.Genre,
		Generated: true,
		Status:    "draft",
		CreatedBy: userID.(int),
		CreateAt:  now,
		UpdateAt:  now,
	}

	if err := config.DB.Create(&quiz).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quiz"})
		return
	}

	spotify := services.Spotify()
	for i, g := range generated {
		question := models.QuizQuestion{
			QuizID:        quiz.QuizID,
			Question:      g.Question,
			OptionA:       g.Options[0],
			OptionB:       g.Options[1],
			OptionC:       g.Options[2],
			OptionD:       g.Options[3],
			CorrectOption: g.CorrectOption,
			QuestionOrder: i + 1,
			CreateAt:      now,
			UpdateAt:      now,
		}
		if g.TrackArtist != "" && g.TrackTitle != "" {
			artist, title := g.TrackArtist, g.TrackTitle
			question.TrackArtist = &artist
			question.TrackTitle = &title

			// Best effort: a failed match just leaves spotify_id NULL.
			if tracks, err := spotify.SearchTracks(c.Request.Context(), artist+" "+title, 1); err == nil && len(tracks) > 0 {
				question.SpotifyID = &tracks[0].ID
			}
		}

		if err := config.DB.Create(&question).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store generated questions"})
			return
		}
	}

	config.DB.Preload("Questions").First(&quiz, quiz.QuizID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": quiz})
}
