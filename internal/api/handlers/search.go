package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/api/middleware"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/search"
	"github.com/nexconsult/zipcase/internal/store"
)

// SearchHandler handles POST /search.
type SearchHandler struct {
	csp    *search.CaseSearchProcessor
	css    *store.CredentialStore
	logger *logrus.Logger
}

func NewSearchHandler(csp *search.CaseSearchProcessor, css *store.CredentialStore, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{csp: csp, css: css, logger: logger}
}

// Search extracts case numbers from free text and returns the current
// view of every case found, per spec.md §4.4/§6.
// @Summary Search free text for case numbers
// @Tags Search
// @Accept json
// @Produce json
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation", Message: err.Error()})
		return
	}

	userID := middleware.UserID(c)
	userAgent, err := resolveUserAgent(c, h.css, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	results, err := h.csp.Process(c.Request.Context(), req.Search, userID, userAgent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SearchResponse{Results: results})
}
