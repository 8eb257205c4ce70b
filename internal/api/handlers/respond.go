package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/nexconsult/zipcase/internal/apperr"
	"github.com/nexconsult/zipcase/internal/models"
	"github.com/nexconsult/zipcase/internal/store"
)

// userAgentOverrideHeader lets a caller pin the portal-facing user agent
// for this request instead of using the account's rotating one, useful
// for clients reproducing a specific session.
const userAgentOverrideHeader = "X-User-Agent-Override"

// resolveUserAgent returns the header override when present, otherwise
// falls back to the account's rotating user agent from css.
func resolveUserAgent(c *gin.Context, css *store.CredentialStore, userID string) (string, error) {
	if override := c.GetHeader(userAgentOverrideHeader); override != "" {
		return override, nil
	}
	return css.UserAgent(c.Request.Context(), userID)
}

// respondError writes err to the client as models.ErrorResponse, picking
// the HTTP status from its apperr.Code when present and falling back to
// 500 otherwise.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		c.JSON(apperr.HTTPStatus(appErr.Code), models.ErrorResponse{
			Error:   string(appErr.Code),
			Message: appErr.Message,
		})
		return
	}
	c.JSON(500, models.ErrorResponse{Error: string(apperr.Internal), Message: err.Error()})
}
