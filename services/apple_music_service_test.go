package services

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func writeTestECKey(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	path := filepath.Join(t.TempDir(), "authkey.p8")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		t.Fatalf("failed to write key: %v", err)
	}
	return path, key
}

func TestAppleMusicServiceRequiresConfig(t *testing.T) {
	t.Setenv("APPLE_TEAM_ID", "")
	t.Setenv("APPLE_KEY_ID", "")
	t.Setenv("APPLE_PRIVATE_KEY_PATH", "")

	if _, err := NewAppleMusicService(); err == nil {
		t.Fatal("expected error without configuration")
	}
}

func TestDeveloperTokenSignsAndCaches(t *testing.T) {
	keyPath, key := writeTestECKey(t)
	t.Setenv("APPLE_TEAM_ID", "TEAM123456")
	t.Setenv("APPLE_KEY_ID", "KEY1234567")
	t.Setenv("APPLE_PRIVATE_KEY_PATH", keyPath)

	svc, err := NewAppleMusicService()
	if err != nil {
		t.Fatalf("NewAppleMusicService failed: %v", err)
	}

	token, err := svc.DeveloperToken()
	if err != nil {
		t.Fatalf("DeveloperToken failed: %v", err)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}

	if kid := parsed.Header["kid"]; kid != "KEY1234567" {
		t.Fatalf("kid = %v", kid)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["iss"] != "TEAM123456" {
		t.Fatalf("iss = %v", claims["iss"])
	}

	// A second call inside the TTL returns the cached token.
	again, err := svc.DeveloperToken()
	if err != nil {
		t.Fatalf("second DeveloperToken failed: %v", err)
	}
	if again != token {
		t.Fatal("token should be cached until near expiry")
	}
}
