package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func optionalAuthRouter(t *testing.T) (*gin.Engine, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seen := make(map[string]interface{})
	router := gin.New()
	router.GET("/whoami", OptionalAuth(), func(c *gin.Context) {
		for _, key := range []string{"userID", "email", "roleID"} {
			if v, exists := c.Get(key); exists {
				seen[key] = v
			}
		}
		c.Status(http.StatusNoContent)
	})
	return router, seen
}

func TestOptionalAuthAnonymousPassesThrough(t *testing.T) {
	router, seen := optionalAuthRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(seen) != 0 {
		t.Fatalf("anonymous request set auth context: %v", seen)
	}
}

func TestOptionalAuthInvalidTokenStaysAnonymous(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router, seen := optionalAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(seen) != 0 {
		t.Fatalf("invalid token set auth context: %v", seen)
	}
}

func TestOptionalAuthValidTokenSetsUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router, seen := optionalAuthRouter(t)

	claims := &Claims{
		UserID: 42,
		Email:  "fan@example.com",
		RoleID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(w, req)

	if seen["userID"] != 42 {
		t.Fatalf("userID = %v, want 42", seen["userID"])
	}
	if seen["email"] != "fan@example.com" {
		t.Fatalf("email = %v", seen["email"])
	}
	if seen["roleID"] != 1 {
		t.Fatalf("roleID = %v, want 1", seen["roleID"])
	}
}
