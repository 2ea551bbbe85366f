package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"gorm.io/gorm"
)

const mollieBaseURL = "https://api.mollie.com/v2"

// MolliePayment is the subset of Mollie's payment resource we consume.
type MolliePayment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	Links       struct {
		Checkout struct {
			Href string `json:"href"`
		} `json:"checkout"`
	} `json:"_links"`
}

// MollieService creates payments and processes webhooks. Webhooks only carry
// a payment id; the status is always re-fetched from Mollie, never trusted
// from the request.
type MollieService struct {
	db      *gorm.DB
	client  *http.Client
	baseURL string
	apiKey  string
	mail    func(to []string, subject, html string) error
}

// NewMollieService constructs a MollieService using MOLLIE_API_KEY.
func NewMollieService(db *gorm.DB, client *http.Client) *MollieService {
	if db == nil {
		db = config.DB
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &MollieService{
		db:      db,
		client:  client,
		baseURL: mollieBaseURL,
		apiKey:  os.Getenv("MOLLIE_API_KEY"),
		mail:    config.SendMail,
	}
}

func (s *MollieService) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	if s.apiKey == "" {
		return errors.New("mollie not configured (MOLLIE_API_KEY)")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode mollie request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mollie request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mollie API error: status %d: %s", resp.StatusCode, msg)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode mollie response: %w", err)
		}
	}
	return nil
}

// CreatePayment opens a Mollie payment for the order and stores the payment
// id on the order row. Returns the checkout URL for the frontend redirect.
func (s *MollieService) CreatePayment(ctx context.Context, order *models.Order) (checkoutURL string, err error) {
	frontendURL := os.Getenv("FRONTEND_URL")
	backendURL := os.Getenv("BACKEND_URL")

	body := map[string]interface{}{
		"amount": map[string]string{
			"currency": order.Currency,
			"value":    order.AmountFormatted(),
		},
		"description": fmt.Sprintf("TuneCards order %s", order.OrderNumber),
		"redirectUrl": fmt.Sprintf("%s/order/%s/thanks", frontendURL, order.OrderNumber),
		"webhookUrl":  fmt.Sprintf("%s/api/v1/payments/webhook", backendURL),
		"metadata":    map[string]string{"order_number": order.OrderNumber},
	}

	var payment MolliePayment
	if err := s.doRequest(ctx, http.MethodPost, "/payments", body, &payment); err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Model(order).
		Updates(map[string]interface{}{
			"mollie_payment_id": payment.ID,
			"update_at":         time.Now(),
		}).Error; err != nil {
		return "", fmt.Errorf("failed to store payment id: %w", err)
	}
	order.MolliePaymentID = &payment.ID

	return payment.Links.Checkout.Href, nil
}

// Payment fetches a payment by id.
func (s *MollieService) Payment(ctx context.Context, paymentID string) (*MolliePayment, error) {
	var payment MolliePayment
	if err := s.doRequest(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// HandleWebhook processes a webhook notification for the given payment id:
// fetch the payment, map its status onto the order and send the confirmation
// mail on the open→paid transition. Processing is idempotent; Mollie retries
// webhooks and replays must not resend mails.
func (s *MollieService) HandleWebhook(ctx context.Context, paymentID string) error {
	payment, err := s.Payment(ctx, paymentID)
	if err != nil {
		return err
	}

	var order models.Order
	if err := s.db.WithContext(ctx).
		Where("mollie_payment_id = ? AND delete_at IS NULL", paymentID).
		First(&order).Error; err != nil {
		return fmt.Errorf("no order for payment %s: %w", paymentID, err)
	}

	newStatus := mapMollieStatus(payment.Status)
	if newStatus == "" || order.Status == newStatus {
		return nil
	}
	if order.IsFinal() {
		// Terminal states never regress.
		return nil
	}

	updates := map[string]interface{}{
		"status":    newStatus,
		"update_at": time.Now(),
	}
	if newStatus == models.OrderStatusPaid {
		now := time.Now()
		updates["paid_at"] = now
	}

	if err := s.db.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order %s: %w", order.OrderNumber, err)
	}

	if newStatus == models.OrderStatusPaid {
		s.sendConfirmation(&order)
	}
	return nil
}

func (s *MollieService) sendConfirmation(order *models.Order) {
	html := fmt.Sprintf(
		"<p>Thanks for your order!</p><p>Order <b>%s</b> (%d cards for playlist %q) has been paid. "+
			"We will start printing right away.</p>",
		order.OrderNumber, order.CardCount, order.PlaylistName,
	)
	if err := s.mail([]string{order.Email}, "Your TuneCards order "+order.OrderNumber, html); err != nil {
		log.Printf("failed to send confirmation for order %s: %v", order.OrderNumber, err)
	}
}

// mapMollieStatus translates Mollie payment states onto order statuses.
// Pending/authorized stay "open".
func mapMollieStatus(mollieStatus string) string {
	switch mollieStatus {
	case "paid":
		return models.OrderStatusPaid
	case "failed":
		return models.OrderStatusFailed
	case "expired":
		return models.OrderStatusExpired
	case "canceled":
		return models.OrderStatusCanceled
	default:
		return ""
	}
}
