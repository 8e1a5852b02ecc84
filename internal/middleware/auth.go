package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Ekalon-Solutions/rallyup-backend/internal/domain"
	"github.com/Ekalon-Solutions/rallyup-backend/internal/dto"
)

// Gin context keys set by the auth middleware
const (
	ContextKeyIdentity = "identity"
	ContextKeyUserID   = "user_id"
)

// IdentityFromContext returns the caller identity stored by the auth
// middleware, or the anonymous identity when none was set.
func IdentityFromContext(c *gin.Context) domain.Identity {
	v, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return domain.Anonymous
	}
	identity, ok := v.(domain.Identity)
	if !ok {
		return domain.Anonymous
	}
	return identity
}

// parseIdentity validates a bearer token and extracts the caller identity
func parseIdentity(tokenString, secret string) (domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Anonymous, err
	}
	if !token.Valid {
		return domain.Anonymous, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Anonymous, jwt.ErrTokenInvalidClaims
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		// Some issuers put the user id in the standard subject claim
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return domain.Anonymous, jwt.ErrTokenInvalidClaims
	}

	identity := domain.Identity{UserID: userID}
	if member, ok := claims["member"].(bool); ok {
		identity.Member = member
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if role, ok := r.(string); ok {
				identity.Roles = append(identity.Roles, role)
			}
		}
	}
	// Single-role tokens from older issuers
	if role, ok := claims["role"].(string); ok && role != "" {
		identity.Roles = append(identity.Roles, role)
	}

	return identity, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return header[len(prefix):]
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "unauthorized",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
}

// OptionalAuth resolves the caller identity when a valid bearer token is
// present and continues anonymously otherwise. Endpoints that accept both
// member and staff-entered traffic use this.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		identity, err := parseIdentity(token, secret)
		if err != nil {
			// A token was presented but is invalid; reject rather than
			// silently downgrading to anonymous.
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Set(ContextKeyUserID, identity.UserID)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		identity, err := parseIdentity(token, secret)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Set(ContextKeyUserID, identity.UserID)
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if !identity.IsAuthenticated() {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   "forbidden",
				Code:    "FORBIDDEN",
				Message: "Admin role required",
			})
			return
		}
		c.Next()
	}
}
