package handler

import (
	"errors"
	"net/http"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// resolveCaller returns the registered user behind the authenticated
// session, writing the error response itself when there is none. A valid
// token whose subject has no user row yet (webhook still in flight) is a
// 403, distinct from the middleware's 401.
func resolveCaller(c *gin.Context, users *repository.UserRepository) *models.User {
	externalID := middleware.GetExternalID(c)
	if externalID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil
	}
	u, err := users.GetByExternalID(externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "user not registered"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil
	}
	return u
}

// lookupCaller is the soft variant for reads that render empty states: it
// returns nil without writing a response when the caller is unknown.
func lookupCaller(c *gin.Context, users *repository.UserRepository) *models.User {
	externalID := middleware.GetExternalID(c)
	if externalID == "" {
		return nil
	}
	u, err := users.GetByExternalID(externalID)
	if err != nil {
		return nil
	}
	return u
}
