package handlers

import (
	"net/http"
	"time"

	"github.com/2am33m/kinect/internal/middleware"
	"github.com/2am33m/kinect/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService    *services.UserService
	followService  *services.FollowService
	profileService *services.ProfileService
	jwtSecret      string
	jwtExpire      time.Duration
}

func NewUserHandler(userService *services.UserService, followService *services.FollowService, profileService *services.ProfileService, jwtSecret string, jwtExpire time.Duration) *UserHandler {
	return &UserHandler{
		userService:    userService,
		followService:  followService,
		profileService: profileService,
		jwtSecret:      jwtSecret,
		jwtExpire:      jwtExpire,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.jwtSecret, h.jwtExpire)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetProfile 可匿名访问，登录时附带 isFollowing
func (h *UserHandler) GetProfile(c *gin.Context) {
	targetID, ok := paramID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), middleware.GetUserID(c), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Follow(c *gin.Context) {
	followerID := middleware.GetUserID(c)
	if followerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	followeeID, ok := paramID(c)
	if !ok {
		return
	}

	if _, err := h.followService.Follow(c.Request.Context(), followerID, followeeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Followed successfully",
		"following": true,
	})
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	followerID := middleware.GetUserID(c)
	if followerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	followeeID, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.followService.Unfollow(c.Request.Context(), followerID, followeeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Unfollowed successfully",
		"following": false,
	})
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	userID, ok := paramID(c)
	if !ok {
		return
	}
	offset, limit := pageParams(c)

	followers, err := h.followService.ListFollowers(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": followers,
		"offset":    offset,
		"limit":     limit,
	})
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	userID, ok := paramID(c)
	if !ok {
		return
	}
	offset, limit := pageParams(c)

	following, err := h.followService.ListFollowing(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"following": following,
		"offset":    offset,
		"limit":     limit,
	})
}

func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.userService.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
