package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/2am33m/kinect/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return "internal server error"
}

// respondError 记录到 c.Errors 供日志中间件输出
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": errorMessage(err)})
}

func paramID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt 缺省或格式错误时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func pageParams(c *gin.Context) (offset, limit int) {
	offset = queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = queryInt(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 1
	}
	return offset, limit
}
