package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID, roleID int) {
	if id, ok := getIntFromCtx(c, "user_id"); ok {
		userID = id
	}
	if id, ok := getIntFromCtx(c, "role_id"); ok {
		roleID = id
	}
	return
}

func getSessionID(c *gin.Context) string {
	if v, ok := c.Get("session_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func paramInt64(c *gin.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

// respondServiceError — единое сопоставление ошибок сервисов с HTTP-статусами.
func respondServiceError(c *gin.Context, err error) {
	var verrs services.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verrs})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStaleSession):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrWordNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrHomeworkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateWord),
		errors.Is(err, services.ErrCategoryExists),
		errors.Is(err, services.ErrCategoryNotEmpty),
		errors.Is(err, services.ErrRequestExists),
		errors.Is(err, services.ErrRequestClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotTeacher),
		errors.Is(err, services.ErrNotStudent),
		errors.Is(err, services.ErrForeignRequest):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoActiveLink):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotEnoughWords):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoActiveTest),
		errors.Is(err, services.ErrTestFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDispatchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
