package middleware

import (
	"net/http"
	"strings"

	"chirp/config"
	"chirp/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer JWT and sets the identity-provider
// subject plus profile claims in the request context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("external_id", claims.ExternalID)
		c.Set("email", claims.Email)
		c.Set("username", claims.Username)
		c.Set("claims", claims)
		c.Next()
	}
}

// GetExternalID returns the identity-provider subject from context (must be
// used after AuthRequired).
func GetExternalID(c *gin.Context) string {
	v, _ := c.Get("external_id")
	if v == nil {
		return ""
	}
	return v.(string)
}

// GetClaims returns the parsed token claims, or nil outside AuthRequired.
func GetClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get("claims")
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
