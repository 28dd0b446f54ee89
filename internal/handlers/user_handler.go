package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Профиль текущего пользователя
// @Tags         Users
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.service.GetUserByID(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Обновить профиль
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "first_name"
// @Success      200      {object}  models.User
// @Router       /me [put]
func (h *UserHandler) Update(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		FirstName string `json:"first_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.GetUserByID(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if err := h.service.UpdateUser(user); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Привязка телеграма
// @Description  Привязывает chat_id для уведомлений о домашних заданиях
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]interface{}  true  "chat_id, enable"
// @Success      200      {object}  map[string]string
// @Router       /me/telegram [post]
func (h *UserHandler) LinkTelegram(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		ChatID int64 `json:"chat_id"`
		Enable bool  `json:"enable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.LinkTelegram(userID, req.ChatID, req.Enable); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Телеграм привязан"})
}
