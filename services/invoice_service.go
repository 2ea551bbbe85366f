package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"gorm.io/gorm"
)

// InvoiceService batches paid physical orders into monthly printer invoices.
// GenerateMonthly runs from the monthly cron on the 1st and can be triggered
// by admins for arbitrary months.
type InvoiceService struct {
	db   *gorm.DB
	mail func(to []string, subject, html string) error
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(db *gorm.DB) *InvoiceService {
	if db == nil {
		db = config.DB
	}
	return &InvoiceService{db: db, mail: config.SendMail}
}

// GenerateMonthly creates the printer invoice for the given month from all
// paid physical orders not yet attached to an invoice. Running it twice for
// the same month is a no-op for already-invoiced orders.
func (s *InvoiceService) GenerateMonthly(ctx context.Context, year int, month time.Month) (*models.PrinterInvoice, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, 0)

	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("status = ? AND digital = false AND invoice_id IS NULL AND paid_at >= ? AND paid_at < ? AND delete_at IS NULL",
			models.OrderStatusPaid, from, to).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, errors.New("no uninvoiced orders in that month")
	}

	cardCount := 0
	amountCents := 0
	for _, order := range orders {
		cardCount += order.CardCount
		// The printer bills per card, not per order amount.
		amountCents += order.CardCount * printCostCents()
	}

	now := time.Now()
	invoice := models.PrinterInvoice{
		InvoiceNumber: fmt.Sprintf("PRT-%d%02d", year, int(month)),
		Year:          year,
		Month:         int(month),
		OrderCount:    len(orders),
		CardCount:     cardCount,
		AmountCents:   amountCents,
		Currency:      "EUR",
		CreateAt:      now,
		UpdateAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		ids := make([]int, 0, len(orders))
		for _, order := range orders {
			ids = append(ids, order.OrderID)
		}
		if err := tx.Model(&models.Order{}).
			Where("order_id IN ?", ids).
			Updates(map[string]interface{}{"invoice_id": invoice.InvoiceID, "update_at": now}).Error; err != nil {
			return fmt.Errorf("failed to attach orders: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyPrinter(&invoice)
	return &invoice, nil
}

// MarkPaid flags an invoice as settled.
func (s *InvoiceService) MarkPaid(ctx context.Context, invoiceID int) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.PrinterInvoice{}).
		Where("invoice_id = ? AND paid = false", invoiceID).
		Updates(map[string]interface{}{"paid": true, "paid_at": now, "update_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("invoice not found or already paid")
	}
	return nil
}

func (s *InvoiceService) notifyPrinter(invoice *models.PrinterInvoice) {
	to := os.Getenv("PRINTER_EMAIL")
	if to == "" {
		return
	}
	html := fmt.Sprintf(
		"<p>Invoice <b>%s</b>: %d orders, %d cards, %s %s.</p>",
		invoice.InvoiceNumber, invoice.OrderCount, invoice.CardCount,
		invoice.Currency, invoice.AmountFormatted(),
	)
	if err := s.mail([]string{to}, "Printer invoice "+invoice.InvoiceNumber, html); err != nil {
		log.Printf("failed to send invoice mail %s: %v", invoice.InvoiceNumber, err)
	}
}

// printCostCents returns the per-card print cost, PRINT_COST_CENTS or 45.
func printCostCents() int {
	if v := os.Getenv("PRINT_COST_CENTS"); v != "" {
		var cents int
		if _, err := fmt.Sscanf(v, "%d", &cents); err == nil && cents > 0 {
			return cents
		}
	}
	return 45
}
