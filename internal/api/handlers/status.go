package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/api/middleware"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/statusapi"
	"github.com/nexconsult/zipcase/internal/store"
)

// StatusHandler handles POST /status and GET /case/{caseNumber}.
type StatusHandler struct {
	statusAPI *statusapi.StatusAPI
	css       *store.CredentialStore
	logger    *logrus.Logger
}

func NewStatusHandler(statusAPI *statusapi.StatusAPI, css *store.CredentialStore, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{statusAPI: statusAPI, css: css, logger: logger}
}

// Status loads the current view of a batch of cases, per spec.md
// §4.9/§6, recovering from a corrupted summary when it finds one.
// @Summary Load a batch of cases by case number
// @Tags Status
// @Accept json
// @Produce json
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /status [post]
func (h *StatusHandler) Status(c *gin.Context) {
	var req models.StatusRequest
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
	c.JSON(http.StatusOK, models.SearchResponse{Results: results})
}

// Case loads a single case by case number, per spec.md §6.
// @Summary Get a single case by case number
// @Tags Status
// @Produce json
// @Success 200 {object} models.SearchResult
// @Failure 404 {object} models.ErrorResponse
// @Router /case/{caseNumber} [get]
func (h *StatusHandler) Case(c *gin.Context) {
	userID := middleware.UserID(c)
	userAgent, err := h.css.UserAgent(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.statusAPI.LoadCase(c.Request.Context(), c.Param("caseNumber"), userID, userAgent)
	if errors.Is(err, statusapi.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "case not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
