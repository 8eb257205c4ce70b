package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/api/middleware"
	"github.com/nexconsult/zipcase/internal/export"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/statusapi"
	"github.com/nexconsult/zipcase/internal/store"
)

// ExportHandler handles POST /export.
type ExportHandler struct {
	statusAPI *statusapi.StatusAPI
	css       *store.CredentialStore
	logger    *logrus.Logger
}

func NewExportHandler(statusAPI *statusapi.StatusAPI, css *store.CredentialStore, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{statusAPI: statusAPI, css: css, logger: logger}
}

// Export loads a batch of cases and renders them to a spreadsheet, per
// spec.md §6/§9.
// @Summary Export a batch of cases to a spreadsheet
// @Tags Export
// @Accept json
// @Produce application/octet-stream
// @Success 200 {file} byte
// @Failure 400 {object} models.ErrorResponse
// @Router /export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation", Message: err.Error()})
		return
	}

	userID := middleware.UserID(c)
	userAgent, err := h.css.UserAgent(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.statusAPI.LoadCases(c.Request.Context(), req.CaseNumbers, userID, userAgent)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := export.Generate(results)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("ZipCase-Export-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
