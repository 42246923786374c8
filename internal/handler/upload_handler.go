package handler

import (
	"net/http"
	"strconv"
	"strings"

	"chirp/internal/repository"
	"chirp/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UploadHandler struct {
	userRepo *repository.UserRepository
	cloud    cloudinary.Client
}

func NewUploadHandler(userRepo *repository.UserRepository, cloud cloudinary.Client) *UploadHandler {
	return &UploadHandler{userRepo: userRepo, cloud: cloud}
}

// UploadChatMedia stores an image for use as image/file message content and
// returns its URL. Disabled (503) when no media backend is configured.
func (h *UploadHandler) UploadChatMedia(c *gin.Context) {
	caller := resolveCaller(c, h.userRepo)
	if caller == nil {
		return
	}
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads disabled"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	folder := "chirp/chat/" + strconv.FormatUint(uint64(caller.ID), 10)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	url, thumb, err := h.cloud.UploadImage(c.Request.Context(), f, folder, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "thumbnail_url": thumb})
}
