package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

type StatsHandler struct {
	service *services.StatsService
}

func NewStatsHandler(service *services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// @Summary      Сводка прогресса
// @Tags         Statistics
// @Produce      json
// @Success      200  {object}  services.Dashboard
// @Router       /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	d, err := h.service.Dashboard(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Отметить учебную активность
// @Description  Двигает серию дней изучения
// @Tags         Statistics
// @Produce      json
// @Success      200  {object}  models.WordStatistics
// @Router       /stats/study [post]
func (h *StatsHandler) RecordStudy(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	st, err := h.service.RecordStudy(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
