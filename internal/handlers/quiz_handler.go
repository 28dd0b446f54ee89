package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

type QuizHandler struct {
	service *services.QuizService
}

func NewQuizHandler(service *services.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// @Summary      Начать тест
// @Description  Подбирает слова по настройкам и возвращает первый вопрос
// @Tags         Tests
// @Accept       json
// @Produce      json
// @Param        config  body      services.QuizConfig  true  "Настройки теста"
// @Success      200     {object}  services.Question
// @Failure      400     {object}  map[string]interface{}
// @Failure      422     {object}  map[string]string
// @Router       /tests/start [post]
func (h *QuizHandler) Start(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var cfg services.QuizConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		log.Printf("[quiz][start][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.service.Start(c.Request.Context(), getSessionID(c), userID, cfg)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// @Summary      Текущий вопрос
// @Tags         Tests
// @Produce      json
// @Success      200  {object}  services.Question
// @Failure      409  {object}  map[string]string
// @Router       /tests/question [get]
func (h *QuizHandler) Question(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	q, err := h.service.Question(c.Request.Context(), getSessionID(c), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// @Summary      Ответ на вопрос
// @Description  Проверяет ответ и возвращает следующий вопрос либо признак завершения
// @Tags         Tests
// @Accept       json
// @Produce      json
// @Param        answer  body      map[string]string  true  "answer"
// @Success      200     {object}  services.AnswerResult
// @Failure      400     {object}  map[string]interface{}
// @Failure      409     {object}  map[string]string
// @Router       /tests/answer [post]
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.SubmitAnswer(c.Request.Context(), getSessionID(c), userID, req.Answer)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Итоги теста
// @Description  Доступны после последнего ответа; снимают тест с сессии
// @Tags         Tests
// @Produce      json
// @Success      200  {object}  services.TestResults
// @Failure      409  {object}  map[string]string
// @Router       /tests/results [get]
func (h *QuizHandler) Results(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	res, err := h.service.Results(c.Request.Context(), getSessionID(c), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      История тестов
// @Tags         Tests
// @Produce      json
// @Success      200  {object}  services.TestHistory
// @Router       /tests/history [get]
func (h *QuizHandler) History(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	hist, err := h.service.History(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}
