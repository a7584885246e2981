package http

import (
	"github.com/gin-gonic/gin"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
)

// Error is the single error boundary for route handlers: it maps the
// error to its status and emits the common envelope.
func Error(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"ok": false, "error": err.Error()})
}

// AbortError is Error for middleware.
func AbortError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"ok": false, "error": err.Error()})
}
