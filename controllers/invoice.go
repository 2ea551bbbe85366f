// controllers/invoice.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"
	"tunecards-api/services"

	"github.com/gin-gonic/gin"
)

// ===== PRINTER INVOICE CONTROLLERS (admin) =====

// GetInvoices lists printer invoices, newest first.
func GetInvoices(c *gin.Context) {
	var invoices []models.PrinterInvoice
	if err := config.DB.
		Order("year DESC, month DESC").
		Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": invoices, "count": len(invoices)})
}

type GenerateInvoiceRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// GenerateInvoice builds the printer invoice for a given month on demand.
// The monthly cron does the same for the previous month automatically.
func GenerateInvoice(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := services.NewInvoiceService(nil).
		GenerateMonthly(c.Request.Context(), req.Year, time.Month(req.Month))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": invoice})
}

// MarkInvoicePaid flags an invoice as settled.
func MarkInvoicePaid(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	if err := services.NewInvoiceService(nil).MarkPaid(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Invoice marked as paid"})
}
