package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"wordnest/internal/middleware"
	"wordnest/internal/models"
	"wordnest/internal/services"
	"wordnest/internal/utils"
)

type AuthHandler struct {
	verification *services.VerificationService
	userService  services.UserService
}

func NewAuthHandler(verification *services.VerificationService, userService services.UserService) *AuthHandler {
	return &AuthHandler{verification: verification, userService: userService}
}

// issueTokens — access JWT + opaque refresh, как при обычном логине.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (gin.H, bool) {
	accessClaims := &middleware.Claims{
		UserID: user.ID,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString(middleware.JWTKey)
	if err != nil {
		log.Printf("[auth][tokens] sign access token failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return nil, false
	}

	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		log.Printf("[auth][tokens] new refresh token failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return nil, false
	}
	rtExp := time.Now().Add(30 * 24 * time.Hour)
	if err := h.userService.UpdateRefresh(user.ID, rt, rtExp); err != nil {
		log.Printf("[auth][tokens] store refresh token failed for userID=%d: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return nil, false
	}

	return gin.H{
		"access_token":  accessTokenString,
		"refresh_token": rt,
	}, true
}

// @Summary      Запрос кода подтверждения
// @Description  Отправляет 6-значный код на email и переводит сессию в code_sent
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "email и purpose (register|login)"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]interface{}
// @Failure      502      {object}  map[string]string
// @Router       /auth/code [post]
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid := getSessionID(c)
	if err := h.verification.RequestCode(c.Request.Context(), sid, req.Email, req.Purpose); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Код отправлен на указанный email"})
}

// @Summary      Проверка кода
// @Description  Проверяет код из письма и переводит сессию в verified
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "code"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /auth/verify [post]
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid := getSessionID(c)
	if err := h.verification.ConfirmCode(c.Request.Context(), sid, req.Code); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Код подтверждён"})
}

// @Summary      Повторная отправка кода
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /auth/resend [post]
func (h *AuthHandler) ResendCode(c *gin.Context) {
	sid := getSessionID(c)
	if err := h.verification.Resend(c.Request.Context(), sid); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Код отправлен повторно"})
}

// @Summary      Завершение регистрации
// @Description  Создаёт аккаунт после подтверждения email и возвращает токены
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      services.RegistrationInput  true  "Данные регистрации"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]interface{}
// @Failure      409      {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid := getSessionID(c)
	user, err := h.verification.CompleteRegistration(c.Request.Context(), sid, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	tokens, ok := h.issueTokens(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user, // у модели PasswordHash помечен json:"-", наружу не уйдет
		"tokens":  tokens,
	})
}

// @Summary      Завершение входа
// @Description  Проверяет пароль после подтверждения email и возвращает токены
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Пароль"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sid := getSessionID(c)
	user, err := h.verification.CompleteLogin(c.Request.Context(), sid, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	tokens, ok := h.issueTokens(c, user)
	if !ok {
		return
	}
	log.Printf("[auth][login] success userID=%d role=%d took=%s", user.ID, user.RoleID, time.Since(start).Truncate(time.Millisecond))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// @Summary      Сброс авторизации
// @Description  Возвращает сессию в начальное состояние
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth [get]
func (h *AuthHandler) Reset(c *gin.Context) {
	sid := getSessionID(c)
	if err := h.verification.Reset(c.Request.Context(), sid); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Сессия сброшена"})
}

// @Summary      Обновление токенов
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]string  true  "refresh_token"
// @Success      200      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	old := strings.TrimSpace(req.RefreshToken)
	user, err := h.userService.GetByRefreshToken(old)
	if err != nil || user == nil || user.RefreshToken == nil || user.RefreshExpiresAt == nil || user.RefreshRevoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if time.Now().After(*user.RefreshExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		return
	}

	// rotate refresh
	newRT, err := utils.NewRefreshToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate refresh token"})
		return
	}
	newExp := time.Now().Add(30 * 24 * time.Hour)
	rotatedUser, err := h.userService.RotateRefresh(old, newRT, newExp)
	if err != nil || rotatedUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	// new access
	accessClaims := &middleware.Claims{
		UserID: rotatedUser.ID,
		RoleID: rotatedUser.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString(middleware.JWTKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessTokenString,
		"refresh_token": newRT, // возвращаем новый (ротация)
	})
}

// @Summary      Выход
// @Description  Отзывает refresh-токен пользователя
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user in context"})
		return
	}
	if err := h.userService.ClearRefresh(userID); err != nil {
		log.Printf("[auth][logout] clear refresh failed userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to logout"})
		return
	}
	// ключи подтверждения в сессии тоже снимаются
	if sid := getSessionID(c); sid != "" {
		if err := h.verification.Reset(c.Request.Context(), sid); err != nil {
			log.Printf("[auth][logout] session reset failed userID=%d: %v", userID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
