package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/erdsync/erd-sync/internal/auth"
	"github.com/erdsync/erd-sync/internal/diagram/patch"
	"github.com/erdsync/erd-sync/internal/documents/domain"
	"github.com/erdsync/erd-sync/internal/logging"
)

// DocumentService is what the handlers need from the service layer.
type DocumentService interface {
	Create(ctx context.Context, ownerID, title string) (*domain.Document, error)
	List(ctx context.Context, ownerID string) ([]domain.Summary, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Document, error)
	UpdateTitle(ctx context.Context, ownerID, id, title string) error
	ApplyPatch(ctx context.Context, ownerID, id string, ops []patch.Operation, baseRevision *int64) (int64, error)
	Commit(ctx context.Context, ownerID, id string, data json.RawMessage, image, label string) (*domain.Version, error)
	ListVersions(ctx context.Context, ownerID, id string) ([]domain.Version, error)
	SwitchVersion(ctx context.Context, ownerID, id, versionID string) (json.RawMessage, int64, error)
}

type Handler struct {
	svc     DocumentService
	limiter *PatchLimiter
	log     zerolog.Logger
}

// New builds the document handler. limiter may be nil to disable PATCH throttling.
func New(svc DocumentService, limiter *PatchLimiter, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, limiter: limiter, log: log}
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.fail(c, "list_documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) CreateDocument(c *gin.Context) {
	var body titleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), auth.UserID(c), body.Title)
	if err != nil {
		h.fail(c, "create_document", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": domain.Summary{
		ID:             doc.ID,
		Title:          doc.Title,
		LastAccessedAt: doc.LastAccessedAt,
	}})
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "get_document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

func (h *Handler) UpdateTitle(c *gin.Context) {
	var body titleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	if err := h.svc.UpdateTitle(c.Request.Context(), auth.UserID(c), c.Param("id"), body.Title); err != nil {
		h.fail(c, "update_title", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) PatchDocument(c *gin.Context) {
	var body patchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	rev, err := h.svc.ApplyPatch(c.Request.Context(), auth.UserID(c), c.Param("id"), body.Patch, body.BaseRevision)
	if err != nil {
		h.fail(c, "patch_document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": rev})
}

func (h *Handler) Commit(c *gin.Context) {
	var body commitRequest
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	v, err := h.svc.Commit(c.Request.Context(), auth.UserID(c), c.Param("id"), body.Data, body.Image, body.Label)
	if err != nil {
		h.fail(c, "commit", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": v})
}

func (h *Handler) ListVersions(c *gin.Context) {
	versions, err := h.svc.ListVersions(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, "list_versions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

func (h *Handler) SwitchVersion(c *gin.Context) {
	data, rev, err := h.svc.SwitchVersion(c.Request.Context(), auth.UserID(c), c.Param("id"), c.Param("versionId"))
	if err != nil {
		h.fail(c, "switch_version", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "revision": rev})
}

// fail maps service errors onto status codes. Unknown errors are logged and hidden.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrRevisionConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrInvalidPatch), errors.Is(err, domain.ErrInvalidTitle), errors.Is(err, domain.ErrInvalidData):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		l := logging.FromContext(c.Request.Context(), h.log, op)
		l.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
