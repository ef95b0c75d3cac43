package middleware

import (
	"time"

	"github.com/2am33m/kinect/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger 每个请求一条日志，带上 handler 通过 c.Error 记录的错误
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if userID := GetUserID(c); userID != uuid.Nil {
			entry = entry.WithField("user_id", userID)
		}

		if len(c.Errors) > 0 {
			entry.WithError(c.Errors.Last().Err).Error("Request failed")
			return
		}
		entry.Info("Request handled")
	}
}
