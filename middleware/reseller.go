package middleware

import (
	"net/http"

	"tunecards-api/config"
	"tunecards-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ResellerAuth authenticates third-party API consumers by key id + secret.
// Credentials travel in headers so order payloads stay clean.
func ResellerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		keyID := c.GetHeader("X-Api-Key")
		secret := c.GetHeader("X-Api-Secret")
		if keyID == "" || secret == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Api-Key and X-Api-Secret headers are required"})
			c.Abort()
			return
		}

		var reseller models.Reseller
		if err := config.DB.Where("api_key_id = ? AND delete_at IS NULL", keyID).First(&reseller).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API credentials"})
			c.Abort()
			return
		}

		if !reseller.Active {
			c.JSON(http.StatusForbidden, gin.H{"error": "API key has been deactivated"})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(reseller.APISecret), []byte(secret)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API credentials"})
			c.Abort()
			return
		}

		c.Set("resellerID", reseller.ResellerID)
		c.Set("resellerName", reseller.Name)

		c.Next()
	}
}
