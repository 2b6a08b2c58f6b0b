package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusconnect/connect/internal/auth"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyUniversityID holds the caller's university, if the token carries one.
	ContextKeyUniversityID = "universityID"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		if !authenticate(c, authHeader, jwtSecret) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a bearer token is sent and
// lets anonymous requests through. A token that is present but invalid is
// still rejected.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if !authenticate(c, authHeader, jwtSecret) {
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authHeader, jwtSecret string) bool {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
		return false
	}

	claims, err := auth.ValidateJWT(parts[1], jwtSecret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}

	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeyUniversityID, claims.UniversityID)
	return true
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// UniversityID returns the authenticated user's university, if known.
func UniversityID(c *gin.Context) string {
	return c.GetString(ContextKeyUniversityID)
}
