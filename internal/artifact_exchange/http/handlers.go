package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/routelens/routelens-backend/internal/api_consistency/scoring"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/domain"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/repository"
	"github.com/routelens/routelens-backend/internal/artifact_exchange/service"
)

type Handler struct {
	exchange  *service.Exchange
	artifacts *repository.ArtifactRepository
	apiKey    string
}

func NewHandler(exchange *service.Exchange, artifacts *repository.ArtifactRepository, apiKey string) *Handler {
	return &Handler{
		exchange:  exchange,
		artifacts: artifacts,
		apiKey:    apiKey,
	}
}

type UploadRequest struct {
	ProjectID string          `json:"project_id"` // required
	Source    string          `json:"source"`     // required, e.g. "backend" or "frontend"
	Kind      string          `json:"kind,omitempty"`
	Facts     json.RawMessage `json:"facts"` // required
}

func (h *Handler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json body"})
		return
	}
	if len(req.Facts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "facts is required"})
		return
	}

	artifact := &domain.Artifact{
		ProjectID: req.ProjectID,
		Source:    req.Source,
		Kind:      req.Kind,
		Payload:   req.Facts,
	}

	if err := h.exchange.Upload(c.Request.Context(), artifact); err != nil {
		if errors.Is(err, domain.ErrInvalidArtifact) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"artifact_id": artifact.ID,
		"project_id":  artifact.ProjectID,
		"source":      artifact.Source,
	})
}

func (h *Handler) GetArtifact(c *gin.Context) {
	artifact, err := h.artifacts.GetByID(c.Param("id"))
	if errors.Is(err, domain.ErrArtifactNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "artifact not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, artifact)
}

func (h *Handler) ListArtifacts(c *gin.Context) {
	projectID := c.Param("project")

	sources, err := h.artifacts.Sources(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	ids, err := h.artifacts.ListIDs(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"project_id":   projectID,
		"sources":      sources,
		"artifact_ids": ids,
	})
}

func (h *Handler) Recheck(c *gin.Context) {
	res, err := h.exchange.Recheck(c.Request.Context(), c.Param("project"))
	if errors.Is(err, domain.ErrNoArtifacts) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no artifacts for project"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"summary": scoring.Summarize(res.Report),
		"report":  res.Report,
	})
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.Use(APIKeyMiddleware(h.apiKey))

	rg.POST("/artifacts", h.Upload)
	rg.GET("/artifacts/:id", h.GetArtifact)
	rg.GET("/projects/:project/artifacts", h.ListArtifacts)
	rg.POST("/projects/:project/recheck", h.Recheck)
}
