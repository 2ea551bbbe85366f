// controllers/reseller.go
package controllers

import (
	"net/http"
	"strconv"

	"tunecards-api/config"
	"tunecards-api/models"
	"tunecards-api/services"

	"github.com/gin-gonic/gin"
)

// ===== RESELLER API CONTROLLERS =====
// The /reseller group is authenticated by middleware.ResellerAuth, the admin
// management endpoints below by RequireAdmin.

type ResellerOrderRequest struct {
	Email        string `json:"email" binding:"required,email"`
	PlaylistID   string `json:"playlist_id" binding:"required"`
	PlaylistName string `json:"playlist_name" binding:"required"`
	CardCount    int    `json:"card_count" binding:"required,min=1"`
	Digital      bool   `json:"digital"`
}

// SubmitResellerOrder records an order on the reseller's monthly account.
func SubmitResellerOrder(c *gin.Context) {
	resellerID, _ := c.Get("resellerID")

	var req ResellerOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := services.NewResellerService(nil).SubmitOrder(
		c.Request.Context(),
		resellerID.(int),
		req.Email, req.PlaylistID, req.PlaylistName,
		req.CardCount, req.Digital,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

// GetResellerOrders lists the authenticated reseller's orders.
func GetResellerOrders(c *gin.Context) {
	resellerID, _ := c.Get("resellerID")

	var orders []models.Order
	if err := config.DB.
		Where("reseller_id = ? AND delete_at IS NULL", resellerID).
		Order("create_at DESC").
		Limit(200).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders, "count": len(orders)})
}

// GetResellerOrder returns one of the reseller's orders by number.
func GetResellerOrder(c *gin.Context) {
	resellerID, _ := c.Get("resellerID")
	number := c.Param("number")

	var order models.Order
	if err := config.DB.
		Where("order_number = ? AND reseller_id = ? AND delete_at IS NULL", number, resellerID).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// ===== ADMIN RESELLER MANAGEMENT =====

// GetResellers lists resellers (admin only). Secrets are never returned.
func GetResellers(c *gin.Context) {
	var resellers []models.Reseller
	if err := config.DB.
		Where("delete_at IS NULL").
		Order("create_at DESC").
		Find(&resellers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch resellers"})
		return
	}

	responses := make([]models.ResellerResponse, 0, len(resellers))
	for _, r := range resellers {
		responses = append(responses, r.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": responses, "count": len(responses)})
}

type ResellerCreateRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
}

// CreateReseller issues API credentials. The secret is shown exactly once.
func CreateReseller(c *gin.Context) {
	var req ResellerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reseller, secret, err := services.NewResellerService(nil).
		CreateReseller(c.Request.Context(), req.Name, req.ContactEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reseller"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"data":       reseller.ToResponse(),
		"api_secret": secret,
	})
}

// RotateResellerSecret replaces a reseller's API secret (admin only).
func RotateResellerSecret(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reseller ID"})
		return
	}

	secret, err := services.NewResellerService(nil).RotateSecret(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "api_secret": secret})
}

type ResellerActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetResellerActive enables or disables a reseller's API access.
func SetResellerActive(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reseller ID"})
		return
	}

	var req ResellerActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := services.NewResellerService(nil).SetActive(c.Request.Context(), id, *req.Active); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reseller updated"})
}
