// controllers/music.go
package controllers

import (
	"net/http"
	"strings"

	"tunecards-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===== MUSIC METADATA CONTROLLERS =====

// GetTrackYear resolves a track by Spotify ID and returns it with the
// estimated release year. Resolution hits the metadata providers on a cache
// miss, so responses can take a few seconds the first time.
func GetTrackYear(c *gin.Context) {
	spotifyID := c.Param("spotify_id")
	if spotifyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Spotify track ID"})
		return
	}

	track, err := services.Music().ResolveTrack(c.Request.Context(), spotifyID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resolve track"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": track})
}

// GetArtistBio returns a short artist description from Wikipedia. An empty
// description is a valid outcome for ambiguous or unknown artists.
func GetArtistBio(c *gin.Context) {
	artist := strings.TrimSpace(c.Query("artist"))
	if artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing artist parameter"})
		return
	}

	bio, err := services.Music().ArtistBio(c.Request.Context(), artist)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch artist description"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"artist": artist, "bio": bio}})
}

// GetAppleMusicToken hands the frontend a developer token for MusicKit.
func GetAppleMusicToken(c *gin.Context) {
	svc, err := services.AppleMusic()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Apple Music is not configured"})
		return
	}

	token, err := svc.DeveloperToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate developer token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"token": token}})
}

// GetSpotifyAuthLink returns the authorization URL for (re)linking the
// product Spotify account (admin only).
func GetSpotifyAuthLink(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie("spotify_auth_state", state, 600, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"url": services.Spotify().AuthURL(state)},
	})
}

// SpotifyAuthCallback completes the account link by exchanging the code.
func SpotifyAuthCallback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Spotify authorization denied: " + errParam})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	state, err := c.Cookie("spotify_auth_state")
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "State mismatch"})
		return
	}

	token, err := services.Spotify().Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	// The refresh token must be persisted in the environment to survive
	// restarts; surface it once so an operator can store it.
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Spotify account linked",
		"refresh_token": token.RefreshToken,
	})
}

type InvalidateCacheRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

// InvalidateCardCache purges card asset paths from the CDN after a
// regeneration (admin only).
func InvalidateCardCache(c *gin.Context) {
	var req InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cf := services.CloudFront()
	if cf == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "CDN invalidation is not configured"})
		return
	}

	if err := cf.InvalidatePaths(c.Request.Context(), req.Paths); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Invalidation request failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Invalidation submitted"})
}
