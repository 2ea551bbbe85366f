package services

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Apple requires developer tokens to expire within 6 months; ours live 12
// hours and are regenerated a few minutes before expiry.
const (
	appleTokenTTL    = 12 * time.Hour
	appleTokenMargin = 5 * time.Minute
)

// AppleMusicService generates the ES256 developer tokens the frontend needs
// to talk to MusicKit. Tokens are cached until near expiry.
type AppleMusicService struct {
	teamID string
	keyID  string
	key    *ecdsa.PrivateKey

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewAppleMusicService reads the team id, key id and .p8 private key from
// APPLE_TEAM_ID, APPLE_KEY_ID and APPLE_PRIVATE_KEY_PATH.
func NewAppleMusicService() (*AppleMusicService, error) {
	teamID := os.Getenv("APPLE_TEAM_ID")
	keyID := os.Getenv("APPLE_KEY_ID")
	keyPath := os.Getenv("APPLE_PRIVATE_KEY_PATH")

	if teamID == "" || keyID == "" || keyPath == "" {
		return nil, errors.New("apple music not configured (APPLE_TEAM_ID/APPLE_KEY_ID/APPLE_PRIVATE_KEY_PATH)")
	}

	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read apple private key: %w", err)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse apple private key: %w", err)
	}

	return &AppleMusicService{teamID: teamID, keyID: keyID, key: key}, nil
}

// DeveloperToken returns a valid developer token, generating a fresh one when
// the cached token is absent or about to expire.
func (s *AppleMusicService) DeveloperToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt.Add(-appleTokenMargin)) {
		return s.token, nil
	}

	now := time.Now()
	expiresAt := now.Add(appleTokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    s.teamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign apple developer token: %w", err)
	}

	s.token = signed
	s.expiresAt = expiresAt
	return signed, nil
}
