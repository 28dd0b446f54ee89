package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

type CategoryHandler struct {
	service *services.WordService
}

func NewCategoryHandler(service *services.WordService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// @Summary      Создать категорию
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Param        category  body      map[string]string  true  "name"
// @Success      201       {object}  models.Category
// @Failure      409       {object}  map[string]string
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID, _ := getUserAndRole(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, err := h.service.CreateCategory(userID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary      Список категорий
// @Description  Категории пользователя со счётчиком слов
// @Tags         Categories
// @Produce      json
// @Success      200  {array}  models.Category
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	cats, err := h.service.ListCategories(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// @Summary      Переименовать категорию
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Param        id        path      int                true  "ID категории"
// @Param        category  body      map[string]string  true  "name"
// @Success      200       {object}  map[string]string
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Rename(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RenameCategory(userID, id, req.Name); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Категория переименована"})
}

// @Summary      Удалить категорию
// @Description  Удаление возможно только для пустой категории
// @Tags         Categories
// @Produce      json
// @Param        id   path      int  true  "ID категории"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(userID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Категория удалена"})
}
