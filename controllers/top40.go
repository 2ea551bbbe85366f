// controllers/top40.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"tunecards-api/services"

	"github.com/gin-gonic/gin"
)

// ===== TOP40 CONTROLLERS =====

// GetTop40Chart returns one week's chart. Defaults to the current ISO week.
func GetTop40Chart(c *gin.Context) {
	now := time.Now()
	defYear, defWeek := now.ISOWeek()

	year := defYear
	if v := c.Query("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
			return
		}
		year = parsed
	}

	week := defWeek
	if v := c.Query("week"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 53 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid week"})
			return
		}
		week = parsed
	}

	entries, err := services.NewTop40Service(nil, services.Throttle(), nil).
		Chart(c.Request.Context(), year, week)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"year":    year,
		"week":    week,
		"count":   len(entries),
	})
}

type IngestWeekRequest struct {
	Year int `json:"year" binding:"required"`
	Week int `json:"week" binding:"required,min=1,max=53"`
}

// IngestTop40Week pulls one chart week from the provider (admin only).
func IngestTop40Week(c *gin.Context) {
	var req IngestWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewTop40Service(nil, services.Throttle(), services.Spotify())
	count, err := svc.IngestWeek(c.Request.Context(), req.Year, req.Week)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ingested": count})
}
