// controllers/settings.go
package controllers

import (
	"net/http"
	"strings"

	"tunecards-api/services"

	"github.com/gin-gonic/gin"
)

// ===== SETTINGS CONTROLLERS =====

// Keys safe to expose without auth. Everything else is admin only.
var publicSettingKeys = map[string]bool{
	"card_price_cents":    true,
	"digital_price_cents": true,
	"free_shipping_from":  true,
	"maintenance_message": true,
}

// GetPublicSettings returns the public subset of application settings.
func GetPublicSettings(c *gin.Context) {
	all, err := services.NewSettingsService(nil, nil).All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}

	public := make(map[string]string)
	for key, value := range all {
		if publicSettingKeys[key] {
			public[key] = value
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": public})
}

// GetSettings returns all settings (admin only).
func GetSettings(c *gin.Context) {
	all, err := services.NewSettingsService(nil, nil).All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": all})
}

type SettingUpdateRequest struct {
	Value string `json:"value"`
}

// UpdateSetting upserts a single setting (admin only).
func UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing setting key"})
		return
	}

	var req SettingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.NewSettingsService(nil, nil).Set(c.Request.Context(), key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update setting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Setting updated"})
}
