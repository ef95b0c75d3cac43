package handlers

import (
	"errors"
	"net/http"

	"github.com/2am33m/kinect/internal/middleware"
	"github.com/2am33m/kinect/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PhotoHandler struct {
	photoService *services.PhotoService
}

func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// CreatePhoto 响应统一使用 {success, message} 结构
func (h *PhotoHandler) CreatePhoto(c *gin.Context) {
	ownerID := middleware.GetUserID(c)
	if ownerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var req services.CreatePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	photo, err := h.photoService.CreatePhoto(c.Request.Context(), ownerID, &req)
	if err != nil {
		_ = c.Error(err)
		status := statusFor(err)
		if errors.Is(err, services.ErrValidation) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "message": errorMessage(err)})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"photo":   photo,
	})
}
