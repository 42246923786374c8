package handler

import (
	"net/http"
	"strconv"
	"strings"

	"chirp/internal/live"
	"chirp/internal/middleware"
	"chirp/internal/repository"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userRepo *repository.UserRepository
	broker   *live.Broker
}

func NewUserHandler(userRepo *repository.UserRepository, broker *live.Broker) *UserHandler {
	return &UserHandler{userRepo: userRepo, broker: broker}
}

// Me returns the caller's user record, or null when the token is valid but
// no record exists yet — the client renders a loading/empty state and
// retries after sync.
func (h *UserHandler) Me(c *gin.Context) {
	u := lookupCaller(c, h.userRepo)
	c.JSON(http.StatusOK, u)
}

// List returns every user for the contacts panel. With ?external_id= it
// looks up the single matching user instead (null when absent).
func (h *UserHandler) List(c *gin.Context) {
	if externalID := c.Query("external_id"); externalID != "" {
		u, err := h.userRepo.GetByExternalID(externalID)
		if err != nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, u)
		return
	}
	users, err := h.userRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	u, err := h.userRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, u)
}

type syncRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Sync is the client-side fallback for the identity webhook: it upserts the
// caller's record from token claims right after sign-in, so a first-time
// user exists before the webhook round-trip lands. Body fields override
// claims when present.
func (h *UserHandler) Sync(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var req syncRequest
	_ = c.ShouldBindJSON(&req) // body optional
	email := req.Email
	if email == "" {
		email = claims.Email
	}
	username := req.Username
	if username == "" {
		username = claims.Username
	}
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	u, err := h.userRepo.CreateOrUpdate(claims.ExternalID, email, username, req.AvatarURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}
	h.broker.Publish(live.UsersTopic)
	c.JSON(http.StatusOK, u)
}
