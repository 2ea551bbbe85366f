package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tunecards-api/config"
	"tunecards-api/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ResellerService manages reseller accounts and their API credentials and
// accepts programmatic card orders.
type ResellerService struct {
	db *gorm.DB
}

// NewResellerService constructs a ResellerService.
func NewResellerService(db *gorm.DB) *ResellerService {
	if db == nil {
		db = config.DB
	}
	return &ResellerService{db: db}
}

// CreateReseller registers a reseller and issues its API credentials. The
// plaintext secret is returned exactly once and only its bcrypt hash is
// stored.
func (s *ResellerService) CreateReseller(ctx context.Context, name, contactEmail string) (*models.Reseller, string, error) {
	keyID := "tck_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	secret := uuid.NewString() + uuid.NewString()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash api secret: %w", err)
	}

	now := time.Now()
	reseller := models.Reseller{
		Name:         name,
		ContactEmail: contactEmail,
		APIKeyID:     keyID,
		APISecret:    string(hash),
		Active:       true,
		CreateAt:     now,
		UpdateAt:     now,
	}

	if err := s.db.WithContext(ctx).Create(&reseller).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create reseller: %w", err)
	}
	return &reseller, secret, nil
}

// RotateSecret issues a fresh secret for an existing key.
func (s *ResellerService) RotateSecret(ctx context.Context, resellerID int) (string, error) {
	secret := uuid.NewString() + uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api secret: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.Reseller{}).
		Where("reseller_id = ? AND delete_at IS NULL", resellerID).
		Updates(map[string]interface{}{"api_secret": string(hash), "update_at": time.Now()})
	if result.Error != nil {
		return "", fmt.Errorf("failed to rotate secret: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", fmt.Errorf("reseller %d not found", resellerID)
	}
	return secret, nil
}

// SetActive toggles a reseller's API access.
func (s *ResellerService) SetActive(ctx context.Context, resellerID int, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.Reseller{}).
		Where("reseller_id = ? AND delete_at IS NULL", resellerID).
		Updates(map[string]interface{}{"active": active, "update_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update reseller: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("reseller %d not found", resellerID)
	}
	return nil
}

// SubmitOrder accepts a playlist-to-card order from a reseller. Reseller
// orders are invoiced monthly rather than paid per order, so they enter the
// pipeline as paid.
func (s *ResellerService) SubmitOrder(ctx context.Context, resellerID int, email, playlistID, playlistName string, cardCount int, digital bool) (*models.Order, error) {
	if cardCount <= 0 || cardCount > 1000 {
		return nil, fmt.Errorf("card count must be between 1 and 1000")
	}

	now := time.Now()
	order := models.Order{
		OrderNumber:  "RSL-" + strings.ToUpper(uuid.NewString()[:8]),
		ResellerID:   &resellerID,
		Email:        email,
		PlaylistID:   playlistID,
		PlaylistName: playlistName,
		CardCount:    cardCount,
		Digital:      digital,
		AmountCents:  cardCount * printCostCents(),
		Currency:     "EUR",
		Status:       models.OrderStatusPaid,
		PaidAt:       &now,
		CreateAt:     now,
		UpdateAt:     now,
	}

	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create reseller order: %w", err)
	}
	return &order, nil
}
