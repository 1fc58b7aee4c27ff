package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nedlog/internal/domain/analysis"
	"nedlog/pkg/logger"
	"nedlog/pkg/validate"
)

// PDFRequest is the payload of the remote PDF generation.
type PDFRequest struct {
	Rows           []map[string]string `json:"table_data" validate:"required,min=1"`
	VisibleColumns []string            `json:"visible_columns" validate:"required,min=1"`
	Meta           map[string]string   `json:"meta_info"`
}

// EmailRequest is the payload of the remote email send.
type EmailRequest struct {
	Recipients     []string            `json:"-" validate:"required,min=1,dive,email"`
	Subject        string              `json:"subject" validate:"required"`
	Message        string              `json:"message"`
	AttachPDF      bool                `json:"attach_pdf"`
	Rows           []map[string]string `json:"table_data" validate:"required,min=1"`
	VisibleColumns []string            `json:"visible_columns" validate:"required,min=1"`
	Meta           map[string]string   `json:"meta_info"`
}

// RecipientList joins recipients the way the ERP expects them.
func (r EmailRequest) RecipientList() string {
	return strings.Join(r.Recipients, ", ")
}

// SpreadsheetRequest is the payload of the remote spreadsheet export.
type SpreadsheetRequest struct {
	Data     [][]string `json:"data" validate:"required,min=2"`
	Filename string     `json:"filename" validate:"required"`
}

// Backend performs the document operations hosted by the ERP.
type Backend interface {
	GenerateRequirementsPDF(ctx context.Context, req PDFRequest) (*analysis.FileRef, error)
	SendRequirementsEmail(ctx context.Context, req EmailRequest) (bool, error)
	ExportSpreadsheet(ctx context.Context, req SpreadsheetRequest) (*analysis.FileRef, error)
}

// EmailOptions is what the user fills in before sending the report.
type EmailOptions struct {
	Recipients string
	Subject    string
	Message    string
	AttachPDF  bool
}

// ParseRecipients splits a comma or semicolon separated address list.
func ParseRecipients(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// DefaultSubject is the subject proposed for a report sent on the given date.
func DefaultSubject(meta Meta) string {
	return fmt.Sprintf("%s - %s", DefaultTitle, meta.Date())
}

// DefaultMessage is the body proposed for a report sent by the given user.
func DefaultMessage(meta Meta) string {
	return fmt.Sprintf("Hello,\n\nPlease find attached the raw material requirements report.\n\nBest regards,\n%s", meta.GeneratedBy)
}

// Service hands extracted tables to the remote document operations.
type Service struct {
	backend Backend
	now     func() time.Time
}

// NewService creates an export service.
func NewService(backend Backend) *Service {
	return &Service{backend: backend, now: time.Now}
}

// Meta returns document metadata for the user in ctx, stamped now.
func (s *Service) Meta(ctx context.Context) Meta {
	return NewMeta(ctx, s.now())
}

// GeneratePDF asks the ERP to render the table as a PDF.
func (s *Service) GeneratePDF(ctx context.Context, table *Table) (*analysis.FileRef, error) {
	if table == nil || table.Len() == 0 {
		return nil, errEmpty()
	}
	req := PDFRequest{
		Rows:           table.Records(),
		VisibleColumns: table.Keys,
		Meta:           s.Meta(ctx).Info(),
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	ref, err := s.backend.GenerateRequirementsPDF(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "requirements pdf generated", "file_url", ref.FileURL, "rows", table.Len())
	return ref, nil
}

// SendEmail mails the table. Empty subject and message get defaults.
func (s *Service) SendEmail(ctx context.Context, table *Table, opts EmailOptions) (bool, error) {
	if table == nil || table.Len() == 0 {
		return false, errEmpty()
	}
	meta := s.Meta(ctx)
	if strings.TrimSpace(opts.Subject) == "" {
		opts.Subject = DefaultSubject(meta)
	}
	if strings.TrimSpace(opts.Message) == "" {
		opts.Message = DefaultMessage(meta)
	}

	req := EmailRequest{
		Recipients:     ParseRecipients(opts.Recipients),
		Subject:        opts.Subject,
		Message:        opts.Message,
		AttachPDF:      opts.AttachPDF,
		Rows:           table.Records(),
		VisibleColumns: table.Keys,
		Meta:           meta.Info(),
	}
	if err := validate.Struct(req); err != nil {
		return false, err
	}

	ok, err := s.backend.SendRequirementsEmail(ctx, req)
	if err != nil {
		return false, err
	}
	logger.Info(ctx, "requirements email sent",
		"recipients", len(req.Recipients), "attach_pdf", req.AttachPDF, "success", ok)
	return ok, nil
}

// ExportSpreadsheet asks the ERP to store the table as a spreadsheet file.
// An empty filename defaults to one stamped with the current date.
func (s *Service) ExportSpreadsheet(ctx context.Context, table *Table, filename string) (*analysis.FileRef, error) {
	if table == nil || table.Len() == 0 {
		return nil, errEmpty()
	}
	if strings.TrimSpace(filename) == "" {
		filename = DefaultFilename(s.now())
	}
	req := SpreadsheetRequest{Data: table.Matrix(), Filename: filename}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.backend.ExportSpreadsheet(ctx, req)
}

// DefaultFilename names exported files after their generation date.
func DefaultFilename(t time.Time) string {
	return "raw_material_requirements_" + t.Format("2006-01-02")
}
