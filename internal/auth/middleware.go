package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	httpapi "github.com/webforge-labs/webforge-backend/internal/api/http"
)

const (
	CtxUserID = "auth_user_id"
	CtxToken  = "auth_session_token"
)

// RequireSession rejects the request with 401 unless it carries a valid
// session, and stores the resolved user id in the gin context.
func RequireSession(gate *Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)

		u, err := gate.ResolveSession(c.Request.Context(), token)
		if err != nil {
			httpapi.AbortError(c, err)
			return
		}

		c.Set(CtxUserID, u.ID)
		c.Set(CtxToken, token)
		c.Next()
	}
}

// UserID returns the authenticated user's id, set by RequireSession.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

// SessionToken returns the session token the request authenticated with.
func SessionToken(c *gin.Context) string {
	return c.GetString(CtxToken)
}

func extractToken(c *gin.Context) string {
	bearer := c.GetHeader("Authorization")
	if strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimSpace(bearer[7:])
	}
	return strings.TrimSpace(c.GetHeader("X-Session-Token"))
}
