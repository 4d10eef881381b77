package httpapi

import (
	"context"
	"errors"
	"strings"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/audit"
	"portfolio-cms/internal/blob"
	"portfolio-cms/internal/content"
	"portfolio-cms/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type crudRequest struct {
	Action     CMSAction      `json:"action"`
	Collection string         `json:"collection"`
	DocumentID string         `json:"documentId"`
	Data       content.Fields `json:"data"`

	// file actions
	FileID   string `json:"fileId"`
	File     string `json:"file"`
	FileName string `json:"fileName"`
	MIMEType string `json:"mimeType"`
}

// CRUDContent dispatches an authorized CMS action. It runs behind
// auth.RequireAdmin.
func (h *Handlers) CRUDContent(c *gin.Context) {
	var req crudRequest
	defer func() { h.observe(c, FunctionCRUDContent, metricLabel(string(req.Action), CMSActions)) }()

	if h.Content == nil || h.Files == nil {
		fail(c, apperr.Configuration("Server configuration error"))
		return
	}
	if err := decodeBody(c, &req); err != nil {
		fail(c, err)
		return
	}

	if req.Action.documentAction() && !content.IsManaged(req.Collection) {
		fail(c, invalidCollection(content.ManagedCollections))
		return
	}

	ctx := c.Request.Context()
	if req.Action.documentAction() {
		logger.FromGin(c).Info("cms action",
			zap.String("action", string(req.Action)),
			zap.String("collection", req.Collection),
			zap.String("by", c.GetString("user_email")),
		)
	}

	switch req.Action {
	case ActionList:
		res, err := h.Content.List(ctx, req.Collection)
		if err != nil {
			fail(c, contentError(err))
			return
		}
		respond(c, gin.H{"total": res.Total, "documents": res.Documents})

	case ActionGet:
		doc, err := h.Content.Get(ctx, req.Collection, req.DocumentID)
		if err != nil {
			fail(c, contentError(err))
			return
		}
		respond(c, gin.H{"document": doc})

	case ActionCreate:
		doc, err := h.Content.Create(ctx, req.Collection, req.Data)
		if err != nil {
			fail(c, contentError(err))
			return
		}
		h.recordDocument(c, req.Action, doc.Collection, doc.ID)
		respond(c, gin.H{"document": doc})

	case ActionUpdate:
		if strings.TrimSpace(req.DocumentID) == "" || len(req.Data) == 0 {
			fail(c, apperr.BadRequest("Document ID and data required"))
			return
		}
		doc, err := h.Content.Update(ctx, req.Collection, req.DocumentID, req.Data)
		if err != nil {
			fail(c, contentError(err))
			return
		}
		h.recordDocument(c, req.Action, doc.Collection, doc.ID)
		respond(c, gin.H{"document": doc})

	case ActionDelete:
		id := strings.TrimSpace(req.DocumentID)
		if err := h.Content.Delete(ctx, req.Collection, id); err != nil {
			fail(c, contentError(err))
			return
		}
		h.recordDocument(c, req.Action, req.Collection, id)
		respond(c, gin.H{"deleted": id})

	case ActionUpload:
		obj, err := h.Files.Upload(ctx, blob.Upload{Data: req.File, FileName: req.FileName, MIMEType: req.MIMEType})
		if err != nil {
			fail(c, fileError(err))
			return
		}
		h.recordFile(c, req.Action, obj.ID)
		respond(c, gin.H{"fileId": obj.ID, "url": obj.URL})

	case ActionDeleteFile:
		id := strings.TrimSpace(req.FileID)
		if err := h.Files.Delete(ctx, id); err != nil {
			fail(c, fileError(err))
			return
		}
		h.recordFile(c, req.Action, id)
		respond(c, gin.H{"deleted": id})

	default:
		fail(c, invalidAction(CMSActions))
	}
}

func (h *Handlers) recordDocument(c *gin.Context, action CMSAction, collection, id string) {
	h.record(c, func(ctx context.Context, actor audit.Actor) error {
		return h.Audit.LogDocument(ctx, actor, string(action), collection, id)
	})
}

func (h *Handlers) recordFile(c *gin.Context, action CMSAction, id string) {
	h.record(c, func(ctx context.Context, actor audit.Actor) error {
		return h.Audit.LogFile(ctx, actor, string(action), id)
	})
}

func invalidCollection(allowed []string) *apperr.Error {
	return apperr.BadRequest("Invalid collection").With("allowed", allowed)
}

func contentError(err error) *apperr.Error {
	switch {
	case errors.Is(err, content.ErrInvalidCollection):
		return invalidCollection(content.ManagedCollections)
	case errors.Is(err, content.ErrDocumentIDMissing):
		return apperr.BadRequest("Document ID required")
	case errors.Is(err, content.ErrDataMissing):
		return apperr.BadRequest("Data required")
	case errors.Is(err, content.ErrInvalidFieldName):
		return apperr.BadRequest("Invalid field name").With("message", err.Error())
	case errors.Is(err, content.ErrNotFound):
		return apperr.NotFound("Document not found")
	default:
		return apperr.OperationFailed("Operation failed", err)
	}
}

func fileError(err error) *apperr.Error {
	switch {
	case errors.Is(err, blob.ErrMIMETypeNotAllowed):
		return apperr.BadRequest("Invalid file type").With("allowed", blob.AllowedMIMETypes)
	case errors.Is(err, blob.ErrTooLarge):
		return apperr.BadRequest("File too large").With("maxSize", blob.MaxSize)
	case errors.Is(err, blob.ErrFileMissing):
		return apperr.BadRequest("File data required")
	case errors.Is(err, blob.ErrInvalidEncoding):
		return apperr.BadRequest("File must be base64 encoded")
	case errors.Is(err, blob.ErrContentMismatch):
		return apperr.BadRequest("File content does not match mimeType")
	case errors.Is(err, blob.ErrFileIDMissing):
		return apperr.BadRequest("File ID required")
	case errors.Is(err, blob.ErrNotFound):
		return apperr.NotFound("File not found")
	default:
		return apperr.OperationFailed("Operation failed", err)
	}
}
