package middleware

import "github.com/gin-gonic/gin"

const (
	// ContextKeyUserID is the gin context key holding the authenticated user id
	ContextKeyUserID = "user_id"
	// ContextKeyRequestID is the gin context key holding the request id
	ContextKeyRequestID = "request_id"
)

// GetUserID extracts the authenticated user id from gin context
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// GetRequestID extracts the request id from gin context
func GetRequestID(c *gin.Context) string {
	v, exists := c.Get(ContextKeyRequestID)
	if !exists {
		return ""
	}
	id, _ := v.(string)
	return id
}
