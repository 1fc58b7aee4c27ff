package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/export"
	"nedlog/internal/domain/session"
	"nedlog/internal/infrastructure/http/v1/dto"
)

// MaterialRequestCreator runs the full chain for orders and creates material requests.
type MaterialRequestCreator interface {
	CreateMaterialRequests(ctx context.Context, orderIDs []string) ([]analysis.MaterialRequestResult, error)
}

// AnalysisHandler handles analysis sessions and their exports.
type AnalysisHandler struct {
	*BaseHandler
	sessions *session.Service
	creator  MaterialRequestCreator
	now      func() time.Time
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(base *BaseHandler, sessions *session.Service, creator MaterialRequestCreator) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler: base,
		sessions:    sessions,
		creator:     creator,
		now:         time.Now,
	}
}

// Open handles POST /analysis/sessions
func (h *AnalysisHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	mode, err := analysis.ParseMode(req.Mode)
	if err != nil {
		h.Error(c, err)
		return
	}

	sess, err := h.sessions.Open(c.Request.Context(), req.OrderIDs, mode)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSession(sess))
}

// Get handles GET /analysis/sessions/:id
func (h *AnalysisHandler) Get(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSession(sess))
}

// Delete handles DELETE /analysis/sessions/:id
func (h *AnalysisHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// View handles GET /analysis/sessions/:id/view
func (h *AnalysisHandler) View(c *gin.Context) {
	view, err := h.sessions.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromView(view))
}

// SetColumns handles PUT /analysis/sessions/:id/columns
func (h *AnalysisHandler) SetColumns(c *gin.Context) {
	var req dto.SetColumnsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondView(c, func(ctx context.Context, id string) (*session.Session, error) {
		return h.sessions.SetColumns(ctx, id, req.Visible)
	})
}

// ToggleColumn handles POST /analysis/sessions/:id/columns/:key/toggle
func (h *AnalysisHandler) ToggleColumn(c *gin.Context) {
	key := c.Param("key")
	h.respondView(c, func(ctx context.Context, id string) (*session.Session, error) {
		return h.sessions.ToggleColumn(ctx, id, key)
	})
}

// ApplyPreset handles PUT /analysis/sessions/:id/preset
func (h *AnalysisHandler) ApplyPreset(c *gin.Context) {
	var req dto.ApplyPresetRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondView(c, func(ctx context.Context, id string) (*session.Session, error) {
		return h.sessions.ApplyPreset(ctx, id, req.Name)
	})
}

// SetRowFilter handles PUT /analysis/sessions/:id/row-filter
func (h *AnalysisHandler) SetRowFilter(c *gin.Context) {
	var req dto.RowFilterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondView(c, func(ctx context.Context, id string) (*session.Session, error) {
		return h.sessions.SetRowFilter(ctx, id, req.Expression)
	})
}

// respondView applies a session change and answers with the new display.
func (h *AnalysisHandler) respondView(c *gin.Context, change func(context.Context, string) (*session.Session, error)) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := change(ctx, id); err != nil {
		h.Error(c, err)
		return
	}
	view, err := h.sessions.View(ctx, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromView(view))
}

// CreateSessionMaterialRequests handles POST /analysis/sessions/:id/material-requests
func (h *AnalysisHandler) CreateSessionMaterialRequests(c *gin.Context) {
	results, err := h.sessions.CreateMaterialRequests(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromMaterialRequests(results))
}

// CreateMaterialRequests handles POST /analysis/material-requests
func (h *AnalysisHandler) CreateMaterialRequests(c *gin.Context) {
	var req dto.MaterialRequestsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	results, err := h.creator.CreateMaterialRequests(c.Request.Context(), req.OrderIDs)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromMaterialRequests(results))
}

// Print handles GET /analysis/sessions/:id/print
func (h *AnalysisHandler) Print(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.sessions.WritePrint(c.Request.Context(), c.Param("id"), &buf); err != nil {
		h.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// XLSX handles GET /analysis/sessions/:id/xlsx
func (h *AnalysisHandler) XLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.sessions.WriteXLSX(c.Request.Context(), c.Param("id"), &buf); err != nil {
		h.Error(c, err)
		return
	}
	filename := export.DefaultFilename(h.now()) + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, export.XLSXContentType, buf.Bytes())
}

// PDF handles POST /analysis/sessions/:id/pdf
func (h *AnalysisHandler) PDF(c *gin.Context) {
	ref, err := h.sessions.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromFileRef(ref))
}

// Email handles POST /analysis/sessions/:id/email
func (h *AnalysisHandler) Email(c *gin.Context) {
	var req dto.SendEmailRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ok, err := h.sessions.SendEmail(c.Request.Context(), c.Param("id"), export.EmailOptions{
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Message:    req.Message,
		AttachPDF:  req.AttachPDF,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	msg := "email sent"
	if !ok {
		msg = "the server did not confirm the email"
	}
	h.Success(c, ok, msg)
}

// Spreadsheet handles POST /analysis/sessions/:id/spreadsheet
func (h *AnalysisHandler) Spreadsheet(c *gin.Context) {
	var req dto.SpreadsheetRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	ref, err := h.sessions.ExportSpreadsheet(c.Request.Context(), c.Param("id"), req.Filename)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromFileRef(ref))
}
