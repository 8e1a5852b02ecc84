package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func authTestRouter(handler gin.HandlerFunc, middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", append(middlewares, handler)...)
	return router
}

func identityEcho(c *gin.Context) {
	identity := IdentityFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id": identity.UserID,
		"member":  identity.Member,
		"admin":   identity.IsAdmin(),
	})
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "valid token",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			authHeader:     "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			authHeader:     "Bearer not.a.jwt",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := authTestRouter(identityEcho, RequireAuth(testSecret))

			header := tt.authHeader
			if tt.name == "valid token" {
				header = "Bearer " + signToken(t, testSecret, jwt.MapClaims{
					"user_id": "user-1",
					"member":  true,
					"exp":     time.Now().Add(time.Hour).Unix(),
				})
			}

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	router := authTestRouter(identityEcho, RequireAuth(testSecret))

	token := signToken(t, "some-other-secret", jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong signing key, got %d", w.Code)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	router := authTestRouter(identityEcho, RequireAuth(testSecret))

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestRequireAuth_ExtractsIdentity(t *testing.T) {
	var got domain.Identity
	router := authTestRouter(func(c *gin.Context) {
		got = IdentityFromContext(c)
		c.Status(http.StatusOK)
	}, RequireAuth(testSecret))

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-1",
		"member":  true,
		"roles":   []string{"admin"},
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.UserID != "user-1" || !got.Member || !got.IsAdmin() {
		t.Errorf("unexpected identity: %+v", got)
	}
}

func TestOptionalAuth(t *testing.T) {
	t.Run("no token continues anonymously", func(t *testing.T) {
		var got domain.Identity
		router := authTestRouter(func(c *gin.Context) {
			got = IdentityFromContext(c)
			c.Status(http.StatusOK)
		}, OptionalAuth(testSecret))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got.IsAuthenticated() {
			t.Errorf("expected anonymous identity, got %+v", got)
		}
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		router := authTestRouter(identityEcho, OptionalAuth(testSecret))

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer junk")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		var got domain.Identity
		router := authTestRouter(func(c *gin.Context) {
			got = IdentityFromContext(c)
			c.Status(http.StatusOK)
		}, OptionalAuth(testSecret))

		token := signToken(t, testSecret, jwt.MapClaims{
			"user_id": "user-9",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got.UserID != "user-9" {
			t.Errorf("expected user-9, got %+v", got)
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name           string
		claims         jwt.MapClaims
		expectedStatus int
	}{
		{
			name: "admin allowed",
			claims: jwt.MapClaims{
				"user_id": "admin-1",
				"roles":   []string{"admin"},
				"exp":     time.Now().Add(time.Hour).Unix(),
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "single role claim allowed",
			claims: jwt.MapClaims{
				"user_id": "admin-2",
				"role":    "admin",
				"exp":     time.Now().Add(time.Hour).Unix(),
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "member forbidden",
			claims: jwt.MapClaims{
				"user_id": "user-1",
				"member":  true,
				"exp":     time.Now().Add(time.Hour).Unix(),
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := authTestRouter(identityEcho, RequireAuth(testSecret), RequireAdmin())

			token := signToken(t, testSecret, tt.claims)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
