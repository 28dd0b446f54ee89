package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

type TeachingHandler struct {
	service *services.TeachingService
}

func NewTeachingHandler(service *services.TeachingService) *TeachingHandler {
	return &TeachingHandler{service: service}
}

// @Summary      Запрос на обучение
// @Description  Открывает запрос между учителем и учеником; инициатор — текущий пользователь
// @Tags         Teaching
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]interface{}  true  "teacher_id, student_id, message"
// @Success      201      {object}  models.TutoringRequest
// @Failure      409      {object}  map[string]string
// @Router       /teaching/requests [post]
func (h *TeachingHandler) CreateRequest(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		TeacherID int    `json:"teacher_id"`
		StudentID int    `json:"student_id"`
		Message   string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.RequestTutoring(userID, req.TeacherID, req.StudentID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Ответ на запрос обучения
// @Tags         Teaching
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "ID запроса"
// @Param        request  body      map[string]interface{}  true  "accept, response"
// @Success      200      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /teaching/requests/{id}/respond [post]
func (h *TeachingHandler) RespondRequest(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req struct {
		Accept   bool   `json:"accept"`
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RespondTutoring(userID, id, req.Accept, req.Response); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ответ сохранён"})
}

// @Summary      Отмена запроса обучения
// @Tags         Teaching
// @Produce      json
// @Param        id   path      int  true  "ID запроса"
// @Success      200  {object}  map[string]string
// @Router       /teaching/requests/{id}/cancel [post]
func (h *TeachingHandler) CancelRequest(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.service.CancelTutoring(userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Запрос отменён"})
}

// @Summary      Список запросов обучения
// @Tags         Teaching
// @Produce      json
// @Success      200  {array}  models.TutoringRequest
// @Router       /teaching/requests [get]
func (h *TeachingHandler) ListRequests(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	reqs, err := h.service.ListRequests(userID, roleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// @Summary      Мои ученики
// @Tags         Teaching
// @Produce      json
// @Success      200  {array}  models.TeacherStudentLink
// @Router       /teaching/students [get]
func (h *TeachingHandler) ListStudents(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	links, err := h.service.ListStudents(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// @Summary      Мои учителя
// @Tags         Teaching
// @Produce      json
// @Success      200  {array}  models.TeacherStudentLink
// @Router       /teaching/teachers [get]
func (h *TeachingHandler) ListTeachers(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	links, err := h.service.ListTeachers(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// @Summary      Завершить обучение
// @Tags         Teaching
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]int  true  "student_id"
// @Success      200      {object}  map[string]string
// @Router       /teaching/students/end [post]
func (h *TeachingHandler) EndTutoring(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		StudentID int `json:"student_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.EndTutoring(userID, req.StudentID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Обучение завершено"})
}

// @Summary      Назначить домашнее задание
// @Tags         Homework
// @Accept       json
// @Produce      json
// @Param        homework  body      map[string]interface{}  true  "student_id, title, description, due_date (RFC3339)"
// @Success      201       {object}  models.Homework
// @Failure      409       {object}  map[string]string
// @Router       /homework [post]
func (h *TeachingHandler) AssignHomework(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		StudentID   int    `json:"student_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"` // RFC3339
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[homework][assign][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date (RFC3339)"})
		return
	}

	hw, err := h.service.AssignHomework(userID, services.HomeworkInput{
		StudentID:   req.StudentID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hw)
}

// @Summary      Отметить задание выполненным
// @Tags         Homework
// @Produce      json
// @Param        id   path      int  true  "ID задания"
// @Success      200  {object}  map[string]string
// @Router       /homework/{id}/complete [post]
func (h *TeachingHandler) CompleteHomework(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.service.CompleteHomework(userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Задание выполнено"})
}

// @Summary      Оставить отзыв о задании
// @Tags         Homework
// @Accept       json
// @Produce      json
// @Param        id       path      int                true  "ID задания"
// @Param        request  body      map[string]string  true  "feedback"
// @Success      200      {object}  map[string]string
// @Router       /homework/{id}/feedback [post]
func (h *TeachingHandler) ReviewHomework(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req struct {
		Feedback string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.ReviewHomework(userID, id, req.Feedback); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Отзыв сохранён"})
}

// @Summary      Список домашних заданий
// @Tags         Homework
// @Produce      json
// @Success      200  {array}  models.Homework
// @Router       /homework [get]
func (h *TeachingHandler) ListHomework(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	list, err := h.service.ListHomework(userID, roleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Поделиться категорией
// @Description  Учитель предлагает ученику копию своей категории слов
// @Tags         Teaching
// @Accept       json
// @Produce      json
// @Param        request  body      map[string]interface{}  true  "student_id, category_id, message"
// @Success      201      {object}  models.CategoryShareRequest
// @Router       /teaching/share [post]
func (h *TeachingHandler) ShareCategory(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		StudentID  int    `json:"student_id"`
		CategoryID int64  `json:"category_id"`
		Message    string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.ShareCategory(userID, req.StudentID, req.CategoryID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Ответ на передачу категории
// @Description  Принятие копирует слова категории в словарь ученика
// @Tags         Teaching
// @Accept       json
// @Produce      json
// @Param        id       path      int                     true  "ID запроса"
// @Param        request  body      map[string]interface{}  true  "accept, response"
// @Success      200      {object}  map[string]interface{}
// @Router       /teaching/share/{id}/respond [post]
func (h *TeachingHandler) RespondShare(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req struct {
		Accept   bool   `json:"accept"`
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	copied, err := h.service.RespondShare(userID, id, req.Accept, req.Response)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ответ сохранён", "words_copied": copied})
}

// @Summary      Входящие предложения категорий
// @Tags         Teaching
// @Produce      json
// @Success      200  {array}  models.CategoryShareRequest
// @Router       /teaching/share [get]
func (h *TeachingHandler) ListShareRequests(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	list, err := h.service.ListShareRequests(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
