package handlers

import (
	"github.com/2am33m/kinect/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	User         *UserHandler
	Photo        *PhotoHandler
	Feed         *FeedHandler
	Notification *NotificationHandler
}

// RegisterRoutes 注册 /api/v1 下的全部路由
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, jwtConfig *middleware.JWTConfig) {
	api.GET("/search", h.User.Search)

	users := api.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.GET("/:id", middleware.OptionalJWTAuth(jwtConfig), h.User.GetProfile)
		users.GET("/:id/followers", h.User.GetFollowers)
		users.GET("/:id/following", h.User.GetFollowing)
	}

	protected := api.Group("", middleware.NewJWTAuth(jwtConfig))
	{
		protected.POST("/users/:id/follow", h.User.Follow)
		protected.POST("/users/:id/unfollow", h.User.Unfollow)
		protected.POST("/photos", h.Photo.CreatePhoto)
		protected.GET("/feed", h.Feed.GetFeed)
		protected.GET("/notifications", h.Notification.List)
	}
}
