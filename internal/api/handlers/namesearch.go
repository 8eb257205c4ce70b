package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/zipcase/internal/api/middleware"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/search"
	"github.com/nexconsult/zipcase/internal/statusapi"
	"github.com/nexconsult/zipcase/internal/store"
)

// NameSearchHandler handles POST /name-search and GET /name-search/{searchId}.
type NameSearchHandler struct {
	nsp       *search.NameSearchProcessor
	statusAPI *statusapi.StatusAPI
	css       *store.CredentialStore
	logger    *logrus.Logger
}

func NewNameSearchHandler(nsp *search.NameSearchProcessor, statusAPI *statusapi.StatusAPI, css *store.CredentialStore, logger *logrus.Logger) *NameSearchHandler {
	return &NameSearchHandler{nsp: nsp, statusAPI: statusAPI, css: css, logger: logger}
}

// Create starts a name search, per spec.md §4.5/§6.
// @Summary Start a name search
// @Tags NameSearch
// @Accept json
// @Produce json
// @Success 202 {object} models.NameSearchAck
// @Failure 400 {object} models.ErrorResponse
// @Router /name-search [post]
func (h *NameSearchHandler) Create(c *gin.Context) {
	var req models.NameSearchRequest
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

	ack := h.nsp.Process(c.Request.Context(), req.Name, userID, req.DateOfBirth, req.SoundsLike, req.CriminalOnly, userAgent)
	if !ack.Success {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation", Message: ack.Error})
		return
	}
	c.JSON(http.StatusAccepted, ack)
}

// Get returns the current state of a name search and every case it has
// discovered so far, per spec.md §4.9/§6.
// @Summary Get a name search's current results
// @Tags NameSearch
// @Produce json
// @Success 200 {object} models.NameSearchResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /name-search/{searchId} [get]
func (h *NameSearchHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	userAgent, err := h.css.UserAgent(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.statusAPI.LoadNameSearch(c.Request.Context(), c.Param("searchId"), userID, userAgent)
	if errors.Is(err, statusapi.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "name search not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
