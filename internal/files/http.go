package files

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httpapi "github.com/webforge-labs/webforge-backend/internal/api/http"
	"github.com/webforge-labs/webforge-backend/internal/apperr"
	"github.com/webforge-labs/webforge-backend/internal/auth"
	"github.com/webforge-labs/webforge-backend/internal/logging"
	"github.com/webforge-labs/webforge-backend/internal/projects/domain"
	"github.com/webforge-labs/webforge-backend/internal/sandbox"
)

// ProjectResolver authorizes and loads a project for its owner.
// Satisfied by the project lifecycle service.
type ProjectResolver interface {
	Get(ctx context.Context, userID, id string) (*domain.Project, error)
}

// FileCache is the write-through mirror the handler refreshes after
// successful saves. Satisfied by CacheRepo.
type FileCache interface {
	Upsert(ctx context.Context, projectID, filePath, content string) error
	Delete(ctx context.Context, projectID, filePath string) error
}

type Handler struct {
	projects ProjectResolver
	gw       sandbox.Gateway
	cache    FileCache
	snaps    SnapshotStore
	log      *logging.Logger
}

func NewHandler(projects ProjectResolver, gw sandbox.Gateway, cache FileCache, snaps SnapshotStore, log *logging.Logger) *Handler {
	return &Handler{projects: projects, gw: gw, cache: cache, snaps: snaps, log: log}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:projectId", h.list)
	rg.GET("/:projectId/*path", h.read)
	rg.PUT("/:projectId/*path", h.write)
	rg.POST("/:projectId/*path", h.create)
	rg.DELETE("/:projectId/*path", h.remove)
}

// resolve authorizes the project and reconnects to its sandbox. Projects
// without a sandbox attached cannot serve file operations.
func (h *Handler) resolve(c *gin.Context) (*domain.Project, sandbox.Handle, bool) {
	p, err := h.projects.Get(c.Request.Context(), auth.UserID(c), c.Param("projectId"))
	if err != nil {
		httpapi.Error(c, err)
		return nil, sandbox.Handle{}, false
	}

	if p.SandboxID == nil {
		httpapi.Error(c, apperr.Validation("sandbox not initialized"))
		return nil, sandbox.Handle{}, false
	}

	handle, err := h.gw.Reconnect(c.Request.Context(), *p.SandboxID)
	if err != nil {
		httpapi.Error(c, err)
		return nil, sandbox.Handle{}, false
	}
	return p, handle, true
}

func editorPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func (h *Handler) list(c *gin.Context) {
	_, handle, ok := h.resolve(c)
	if !ok {
		return
	}

	entries, err := h.gw.List(c.Request.Context(), handle, RootPrefix)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	if c.Query("format") == "tree" {
		c.JSON(http.StatusOK, gin.H{"files": entries, "tree": Build(RootPrefix, entries)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": entries})
}

func (h *Handler) read(c *gin.Context) {
	_, handle, ok := h.resolve(c)
	if !ok {
		return
	}

	remote := ToRemote(editorPath(c))
	content, err := h.gw.ReadFile(c.Request.Context(), handle, remote)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "path": remote})
}

type writeReq struct {
	Content *string `json:"content"`
}

func (h *Handler) write(c *gin.Context) {
	var req writeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		httpapi.Error(c, apperr.Validation("content is required"))
		return
	}

	p, handle, ok := h.resolve(c)
	if !ok {
		return
	}

	rel := editorPath(c)
	remote := ToRemote(rel)
	if err := h.gw.WriteFile(c.Request.Context(), handle, remote, *req.Content); err != nil {
		httpapi.Error(c, err)
		return
	}

	h.mirror(c.Request.Context(), p.ID, rel, *req.Content)

	c.JSON(http.StatusOK, gin.H{"success": true, "path": remote})
}

// mirror refreshes the database cache row and the backup snapshot after
// a successful write. Both are best effort and never fail the save.
func (h *Handler) mirror(ctx context.Context, projectID, rel, content string) {
	if err := h.cache.Upsert(ctx, projectID, rel, content); err != nil {
		h.log.Warn("file cache refresh failed", "project_id", projectID, "path", rel, "error", err)
	}
	if err := h.snaps.Put(ctx, projectID, rel, content); err != nil {
		h.log.Warn("file snapshot failed", "project_id", projectID, "path", rel, "error", err)
	}
}

type createReq struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Type != sandbox.TypeFile && req.Type != sandbox.TypeDirectory) {
		httpapi.Error(c, apperr.Validation(`type must be "file" or "directory"`))
		return
	}

	p, handle, ok := h.resolve(c)
	if !ok {
		return
	}

	rel := editorPath(c)
	remote := ToRemote(rel)
	if err := h.gw.CreateEntry(c.Request.Context(), handle, remote, req.Type, req.Content); err != nil {
		httpapi.Error(c, err)
		return
	}

	if req.Type == sandbox.TypeFile {
		h.mirror(c.Request.Context(), p.ID, rel, req.Content)
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "path": remote})
}

func (h *Handler) remove(c *gin.Context) {
	p, handle, ok := h.resolve(c)
	if !ok {
		return
	}

	rel := editorPath(c)
	if err := h.gw.DeleteEntry(c.Request.Context(), handle, ToRemote(rel)); err != nil {
		httpapi.Error(c, err)
		return
	}

	if err := h.cache.Delete(c.Request.Context(), p.ID, rel); err != nil {
		h.log.Warn("file cache delete failed", "project_id", p.ID, "path", rel, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
