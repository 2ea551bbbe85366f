// controllers/vibe.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"
	"tunecards-api/services"
	"tunecards-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===== VIBE (COMPANY LIST) CONTROLLERS =====

// companyScope returns the caller's company id, aborting when the user does
// not belong to a company. Admins may pass ?company_id= instead.
func companyScope(c *gin.Context) (int, bool) {
	if roleID, _ := c.Get("roleID"); roleID == models.RoleAdmin {
		if v := c.Query("company_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				return id, true
			}
		}
	}

	companyID, exists := c.Get("companyID")
	if !exists {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a company member"})
		return 0, false
	}
	return companyID.(int), true
}

type CompanyCreateRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
}

// CreateCompany registers a company and its invite code (admin only).
func CreateCompany(c *gin.Context) {
	var req CompanyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	company := models.Company{
		Name:         req.Name,
		InviteCode:   strings.ToUpper(uuid.NewString()[:8]),
		ContactEmail: req.ContactEmail,
		CreateAt:     now,
		UpdateAt:     now,
	}

	if err := config.DB.Create(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": company})
}

// GetCompanyLists returns the caller's company lists.
func GetCompanyLists(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var lists []models.CompanyList
	if err := config.DB.
		Where("company_id = ? AND delete_at IS NULL", companyID).
		Order("create_at DESC").
		Find(&lists).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch lists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": lists, "count": len(lists)})
}

type ListCreateRequest struct {
	Name         string     `json:"name" binding:"required"`
	CardCount    int        `json:"card_count"`
	VoteDeadline *time.Time `json:"vote_deadline"`
}

// CreateCompanyList opens a new campaign in status new.
func CreateCompanyList(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req ListCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	list := models.CompanyList{
		CompanyID:    companyID,
		Name:         req.Name,
		Status:       models.ListStatusNew,
		CardCount:    req.CardCount,
		VoteDeadline: req.VoteDeadline,
		CreateAt:     now,
		UpdateAt:     now,
	}

	if err := config.DB.Create(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create list"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": list})
}

// GetCompanyList returns one list with its questions.
func GetCompanyList(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var list models.CompanyList
	if err := config.DB.
		Preload("Questions", "delete_at IS NULL").
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

type ListQuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// AddListQuestion appends a question employees will answer with tracks.
func AddListQuestion(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	var req ListQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	config.DB.Model(&models.CompanyListQuestion{}).
		Where("list_id = ? AND delete_at IS NULL", list.ListID).
		Count(&count)

	now := time.Now()
	question := models.CompanyListQuestion{
		ListID:        list.ListID,
		Question:      req.Question,
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

type AdvanceRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdvanceList moves a list one step forward through the lifecycle.
func AdvanceList(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))

	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ownership check before the transition.
	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	svc := services.NewVibeService(nil, services.Spotify())
	updated, err := svc.AdvanceList(c.Request.Context(), id, req.Status)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrInvalidTransition) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}

// ResetList moves a list backwards (admin only).
func ResetList(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewVibeService(nil, services.Spotify())
	updated, err := svc.ResetList(c.Request.Context(), id, req.Status)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrInvalidTransition) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}

type SubmissionRequest struct {
	QuestionID *int    `json:"question_id"`
	SpotifyID  string  `json:"spotify_id" binding:"required"`
	Artist     string  `json:"artist" binding:"required"`
	Title      string  `json:"title" binding:"required"`
	Motivation *string `json:"motivation"`
}

// SubmitListTrack records an employee's track answer.
func SubmitListTrack(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	userID, _ := c.Get("userID")
	id, _ := strconv.Atoi(c.Param("id"))

	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission := models.CompanyListSubmission{
		ListID:     list.ListID,
		QuestionID: req.QuestionID,
		UserID:     userID.(int),
		SpotifyID:  utils.SanitizeInput(req.SpotifyID),
		Artist:     utils.SanitizeInput(req.Artist),
		Title:      utils.SanitizeInput(req.Title),
		Motivation: req.Motivation,
	}

	svc := services.NewVibeService(nil, nil)
	if err := svc.SubmitTrack(c.Request.Context(), &submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": submission})
}

type VoteRequest struct {
	SubmissionID int `json:"submission_id" binding:"required"`
}

// VoteListTrack records one vote for a submission.
func VoteListTrack(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	userID, _ := c.Get("userID")
	id, _ := strconv.Atoi(c.Param("id"))

	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewVibeService(nil, nil)
	if err := svc.Vote(c.Request.Context(), list.ListID, req.SubmissionID, userID.(int)); err != nil {
		// Duplicate votes trip the unique index.
		if strings.Contains(err.Error(), "Duplicate") || strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, gin.H{"error": "Already voted for this submission"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Vote recorded"})
}

// GetListRanking returns the live tally, best first.
func GetListRanking(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))

	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	svc := services.NewVibeService(nil, nil)
	ranking, err := svc.Tally(c.Request.Context(), list.ListID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to tally votes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ranking, "count": len(ranking)})
}

type FreezeRequest struct {
	TopN int `json:"top_n"`
}

// FreezeListRanking snapshots the top-N into the frozen ranking.
func FreezeListRanking(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))

	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewVibeService(nil, nil)
	tracks, err := svc.FreezeRanking(c.Request.Context(), list.ListID, req.TopN)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": tracks, "count": len(tracks)})
}

// ExportListPlaylist pushes the frozen ranking to Spotify.
func ExportListPlaylist(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	id, _ := strconv.Atoi(c.Param("id"))

	var list models.CompanyList
	if err := config.DB.
		Where("list_id = ? AND company_id = ? AND delete_at IS NULL", id, companyID).
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	svc := services.NewVibeService(nil, services.Spotify())
	updated, err := svc.ExportPlaylist(c.Request.Context(), list.ListID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}
