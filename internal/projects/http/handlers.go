package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/webforge-labs/webforge-backend/internal/api/http"
	"github.com/webforge-labs/webforge-backend/internal/apperr"
	"github.com/webforge-labs/webforge-backend/internal/auth"
	"github.com/webforge-labs/webforge-backend/internal/projects/service"
)

type Handler struct {
	svc *service.Lifecycle
}

func Register(rg *gin.RouterGroup, svc *service.Lifecycle) {
	h := &Handler{svc: svc}

	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.POST("/:id/stop", h.stop)
	rg.DELETE("/:id", h.delete)
}

type createReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Error(c, apperr.Validation("invalid body"))
		return
	}

	res, err := h.svc.Create(c.Request.Context(), auth.UserID(c), req.Name, req.Description)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": res.Project, "url": res.URL})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

type updateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) update(c *gin.Context) {
	// An empty body is a valid no-field update; it still bumps updated_at.
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpapi.Error(c, apperr.Validation("invalid body"))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Name, req.Description)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) stop(c *gin.Context) {
	p, err := h.svc.Stop(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
