package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wordnest/internal/services"
)

type ReportHandler struct {
	service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// @Summary      PDF-отчёт по тесту
// @Tags         Reports
// @Produce      json
// @Param        id   path      int  true  "ID теста"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /reports/tests/{id} [post]
func (h *ReportHandler) TestReport(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	path, err := h.service.TestReport(userID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": path})
}

// @Summary      PDF-отчёт о прогрессе
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /reports/progress [post]
func (h *ReportHandler) ProgressReport(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	path, err := h.service.ProgressReport(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": path})
}
