package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "wn_session"
	sessionMaxAge = 7 * 24 * 3600
)

// SessionMiddleware — идентификатор браузерной сессии в cookie.
// Если cookie нет, выдаём новый; id доступен хендлерам через контекст.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   sessionMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set("session_id", id)
		c.Next()
	}
}
