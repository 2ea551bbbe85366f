// controllers/order.go
package controllers

import (
	"log"
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

// ===== ORDER CONTROLLERS =====

type OrderCreateRequest struct {
	Email        string `json:"email" binding:"required,email"`
	PlaylistID   string `json:"playlist_id" binding:"required"`
	PlaylistName string `json:"playlist_name"`
	Digital      bool   `json:"digital"`
}

// CreateOrder starts a card order checkout. The playlist is resolved on
// Spotify to fix the card count, the order is priced from settings, and a
// Mollie payment is created. The response carries the checkout URL the
// frontend redirects to.
func CreateOrder(c *gin.Context) {
	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Accept full Spotify URLs or URIs pasted by the buyer, not just bare ids.
	playlistID := utils.ExtractPlaylistID(req.PlaylistID)
	if playlistID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid playlist id or URL"})
		return
	}

	playlist, err := services.Spotify().Playlist(ctx, playlistID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch playlist from Spotify"})
		return
	}
	if playlist.Tracks.Total == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist has no tracks"})
		return
	}

	name := req.PlaylistName
	if name == "" {
		name = playlist.Name
	}

	settings := services.NewSettingsService(nil, nil)
	priceKey := "card_price_cents"
	if req.Digital {
		priceKey = "digital_price_cents"
	}
	perCard, err := strconv.Atoi(settings.GetDefault(ctx, priceKey, "80"))
	if err != nil || perCard <= 0 {
		perCard = 80
	}

	now := time.Now()
	order := models.Order{
		OrderNumber:  strings.ToUpper(uuid.NewString()[:12]),
		Email:        req.Email,
		PlaylistID:   playlistID,
		PlaylistName: name,
		CardCount:    playlist.Tracks.Total,
		Digital:      req.Digital,
		AmountCents:  playlist.Tracks.Total * perCard,
		Currency:     "EUR",
		Status:       models.OrderStatusOpen,
		CreateAt:     now,
		UpdateAt:     now,
	}

	attachOrderUser(c, &order)

	if err := config.DB.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	checkoutURL, err := services.NewMollieService(nil, nil).CreatePayment(ctx, &order)
	if err != nil {
		log.Printf("Mollie payment create failed for order %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to start payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"data":         order,
		"checkout_url": checkoutURL,
	})
}

// attachOrderUser sets the order's user from the auth context when the
// checkout request carried a valid token.
func attachOrderUser(c *gin.Context, order *models.Order) {
	if userID, exists := c.Get("userID"); exists {
		if id, ok := userID.(int); ok {
			order.UserID = &id
		}
	}
}

// GetOrder returns one order by its public order number. Used by the thanks
// page to poll payment status, so it is reachable without auth.
func GetOrder(c *gin.Context) {
	number := c.Param("number")

	var order models.Order
	if err := config.DB.
		Where("order_number = ? AND delete_at IS NULL", number).
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// MollieWebhook receives payment status change notifications. Mollie posts
// only the payment id; the actual status is always fetched back from their
// API. Always answer 200 so Mollie does not retry on application errors we
// already logged.
func MollieWebhook(c *gin.Context) {
	paymentID := c.PostForm("id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing payment id"})
		return
	}

	if err := services.NewMollieService(nil, nil).HandleWebhook(c.Request.Context(), paymentID); err != nil {
		log.Printf("Mollie webhook for payment %s failed: %v", paymentID, err)
	}

	c.Status(http.StatusOK)
}

// GetOrders lists orders for admins, optionally filtered by status.
func GetOrders(c *gin.Context) {
	query := config.DB.Where("delete_at IS NULL")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("create_at DESC").Limit(200).Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders, "count": len(orders)})
}

// GetMyOrders lists the authenticated user's orders.
func GetMyOrders(c *gin.Context) {
	userID, _ := c.Get("userID")

	var orders []models.Order
	if err := config.DB.
		Where("user_id = ? AND delete_at IS NULL", userID).
		Order("create_at DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders, "count": len(orders)})
}
