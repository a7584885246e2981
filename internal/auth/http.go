package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/webforge-labs/webforge-backend/internal/api/http"
	"github.com/webforge-labs/webforge-backend/internal/apperr"
)

type Handler struct {
	gate *Gate
}

// Register mounts the auth routes. Session creation is the only route
// that does not itself require a session.
func Register(rg *gin.RouterGroup, gate *Gate) {
	h := &Handler{gate: gate}

	rg.POST("/session", h.signIn)

	authed := rg.Group("")
	authed.Use(RequireSession(gate))
	authed.GET("/me", h.me)
	authed.DELETE("/session", h.signOut)
}

type signInReq struct {
	IDToken string `json:"idToken"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil || req.IDToken == "" {
		httpapi.Error(c, apperr.Validation("idToken is required"))
		return
	}

	sess, u, err := h.gate.SignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"user":      u,
	})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.gate.users.GetByID(c.Request.Context(), UserID(c))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.gate.SignOut(c.Request.Context(), SessionToken(c)); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
