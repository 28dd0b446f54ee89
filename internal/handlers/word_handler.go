package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"wordnest/internal/models"
	"wordnest/internal/services"
)

type WordHandler struct {
	service *services.WordService
}

func NewWordHandler(service *services.WordService) *WordHandler {
	return &WordHandler{service: service}
}

// @Summary      Добавить слово
// @Tags         Words
// @Accept       json
// @Produce      json
// @Param        word  body      services.WordInput  true  "Новое слово"
// @Success      201   {object}  models.Word
// @Failure      400   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]string
// @Router       /words [post]
func (h *WordHandler) Create(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req services.WordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[word][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	word, err := h.service.AddWord(userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	log.Printf("[word][create][ok] id=%d userID=%d word=%q", word.ID, userID, word.EnglishWord)
	c.JSON(http.StatusCreated, word)
}

// @Summary      Получить слово
// @Tags         Words
// @Produce      json
// @Param        id   path      int  true  "ID слова"
// @Success      200  {object}  models.Word
// @Failure      404  {object}  map[string]string
// @Router       /words/{id} [get]
func (h *WordHandler) GetByID(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	word, err := h.service.GetWord(userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

// @Summary      Список слов
// @Description  Слова пользователя с фильтрами по категориям, сложности и поиску
// @Tags         Words
// @Produce      json
// @Param        category_ids  query     string  false  "ID категорий через запятую"
// @Param        search        query     string  false  "Поиск по слову или переводу"
// @Param        difficulty    query     string  false  "Уровень сложности"
// @Param        unlearned     query     bool    false  "Только невыученные"
// @Success      200           {array}   models.Word
// @Router       /words [get]
func (h *WordHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	filter := models.WordFilter{
		Search:          strings.TrimSpace(c.Query("search")),
		DifficultyLevel: c.Query("difficulty"),
		OnlyUnlearned:   c.Query("unlearned") == "true",
	}
	if raw := c.Query("category_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_ids"})
				return
			}
			filter.CategoryIDs = append(filter.CategoryIDs, id)
		}
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	words, err := h.service.ListWords(userID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, words)
}

// @Summary      Обновить слово
// @Tags         Words
// @Accept       json
// @Produce      json
// @Param        id    path      int                 true  "ID слова"
// @Param        word  body      services.WordInput  true  "Поля слова"
// @Success      200   {object}  models.Word
// @Failure      404   {object}  map[string]string
// @Router       /words/{id} [put]
func (h *WordHandler) Update(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req services.WordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	word, err := h.service.UpdateWord(userID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, word)
}

// @Summary      Удалить слово
// @Tags         Words
// @Produce      json
// @Param        id   path      int  true  "ID слова"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /words/{id} [delete]
func (h *WordHandler) Delete(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteWord(userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Слово удалено"})
}

// @Summary      Отметка «выучено»
// @Tags         Words
// @Accept       json
// @Produce      json
// @Param        id       path      int                true  "ID слова"
// @Param        request  body      map[string]bool    true  "learned"
// @Success      200      {object}  map[string]string
// @Router       /words/{id}/learned [post]
func (h *WordHandler) SetLearned(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req struct {
		Learned bool `json:"learned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetLearned(userID, id, req.Learned); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Статус обновлён"})
}
