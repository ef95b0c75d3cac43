package handlers

import (
	"net/http"

	"github.com/2am33m/kinect/internal/middleware"
	"github.com/2am33m/kinect/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FeedHandler struct {
	feedService *services.FeedService
}

func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	photos, err := h.feedService.BuildHomeFeed(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"photos": photos,
		"count":  len(photos),
	})
}
