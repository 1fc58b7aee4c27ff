package session

import (
	"context"
	"io"
	"time"

	"nedlog/internal/core/apperror"
	appctx "nedlog/internal/core/context"
	"nedlog/internal/core/id"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/export"
	"nedlog/internal/domain/reports"
	"nedlog/internal/metadata"
	"nedlog/pkg/logger"
)

// Analyzer runs analyses and creates material requests.
type Analyzer interface {
	Run(ctx context.Context, orderIDs []string, mode analysis.Mode) (*analysis.Result, error)
	CreateMaterialRequestsFrom(ctx context.Context, stock *analysis.StockAnalysisPayload) ([]analysis.MaterialRequestResult, error)
}

// Service manages analysis sessions.
type Service struct {
	analyzer Analyzer
	store    Store
	registry *metadata.Registry
	exporter *export.Service
	now      func() time.Time
}

// NewService creates a session service.
func NewService(analyzer Analyzer, store Store, registry *metadata.Registry, exporter *export.Service) *Service {
	return &Service{
		analyzer: analyzer,
		store:    store,
		registry: registry,
		exporter: exporter,
		now:      time.Now,
	}
}

// Registry returns the column registry sessions are rendered with.
func (s *Service) Registry() *metadata.Registry {
	return s.registry
}

// Open runs an analysis and stores its snapshot in a new session.
// Every registry column is rendered once so later selection changes only
// pick among computed cells. Quick sessions start with the simple preset.
func (s *Service) Open(ctx context.Context, orderIDs []string, mode analysis.Mode) (*Session, error) {
	result, err := s.analyzer.Run(ctx, orderIDs, mode)
	if err != nil {
		return nil, err
	}

	selection := s.registry.DefaultSelection()
	if mode == analysis.ModeQuick {
		if preset, ok := s.registry.Preset(metadata.PresetSimple); ok {
			selection = preset
		}
	}

	now := s.now().UTC()
	sess := &Session{
		ID:        id.NewString(),
		Mode:      result.Mode,
		OrderIDs:  result.OrderIDs,
		CreatedBy: appctx.GetUserID(ctx),
		CreatedAt: now,
		UpdatedAt: now,
		Result:    result,
		Report:    reports.RenderRows(result.Materials, result.Lines, s.registry.Columns()),
		Selection: selection,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	logger.Info(ctx, "analysis session opened",
		"session_id", sess.ID,
		"mode", sess.Mode,
		"orders", len(sess.OrderIDs),
		"rows", len(sess.Report.Rows),
	)
	return sess, nil
}

// Get returns a session owned by the caller.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session owned by the caller.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.store.Delete(ctx, sessionID)
}

// SetColumns replaces the visible column selection.
func (s *Service) SetColumns(ctx context.Context, sessionID string, keys []string) (*Session, error) {
	sel, err := s.registry.ParseSelection(keys)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sessionID, func(sess *Session) error {
		sess.Selection = sel
		return nil
	})
}

// ToggleColumn flips the visibility of one column.
func (s *Service) ToggleColumn(ctx context.Context, sessionID string, key string) (*Session, error) {
	col := metadata.ColumnKey(key)
	if !s.registry.Has(col) {
		return nil, apperror.NewValidation("unknown column").WithDetail("columns", []string{key})
	}
	return s.update(ctx, sessionID, func(sess *Session) error {
		sess.Selection = sess.Selection.Toggle(col)
		return nil
	})
}

// ApplyPreset replaces the selection with a named preset.
func (s *Service) ApplyPreset(ctx context.Context, sessionID string, name string) (*Session, error) {
	preset, ok := s.registry.Preset(name)
	if !ok {
		return nil, apperror.NewValidation("unknown preset").WithDetail("preset", name)
	}
	return s.update(ctx, sessionID, func(sess *Session) error {
		sess.Selection = preset
		return nil
	})
}

// SetRowFilter compiles and stores a row filter. An empty expression clears it.
// The filter is evaluated against the session's rows first; one that fails at
// runtime is rejected and the stored filter is left unchanged.
func (s *Service) SetRowFilter(ctx context.Context, sessionID string, expr string) (*Session, error) {
	filter, err := reports.CompileRowFilter(expr)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sessionID, func(sess *Session) error {
		if _, err := reports.Project(sess.Report, s.registry.VisibleColumns(sess.Selection), filter); err != nil {
			return err
		}
		sess.RowFilter = filter.Expression()
		return nil
	})
}

// View projects the session's report through its current selection and filter.
func (s *Service) View(ctx context.Context, sessionID string) (*reports.View, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess)
}

func (s *Service) view(sess *Session) (*reports.View, error) {
	filter, err := reports.CompileRowFilter(sess.RowFilter)
	if err != nil {
		return nil, err
	}
	return reports.Project(sess.Report, s.registry.VisibleColumns(sess.Selection), filter)
}

// Table extracts what the session currently displays.
func (s *Service) Table(ctx context.Context, sessionID string) (*export.Table, error) {
	view, err := s.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return export.ExtractVisible(view)
}

// CreateMaterialRequests creates grouped material requests from the stored
// stock analysis. Nothing is fetched again.
func (s *Service) CreateMaterialRequests(ctx context.Context, sessionID string) ([]analysis.MaterialRequestResult, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil || sess.Result.Stock == nil {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"material requests need a full analysis; open the session in full mode")
	}

	results, err := s.analyzer.CreateMaterialRequestsFrom(ctx, sess.Result.Stock)
	if err != nil {
		return nil, err
	}

	if _, err := s.update(ctx, sessionID, func(stored *Session) error {
		stored.MaterialRequests = append(stored.MaterialRequests, results...)
		return nil
	}); err != nil {
		logger.Warn(ctx, "material requests created but not recorded on session",
			"session_id", sessionID, "error", err)
	}
	return results, nil
}

// WritePrint renders the print document of the current display.
func (s *Service) WritePrint(ctx context.Context, sessionID string, w io.Writer) error {
	table, err := s.Table(ctx, sessionID)
	if err != nil {
		return err
	}
	return export.WritePrintHTML(w, table, s.exporter.Meta(ctx), "")
}

// WriteXLSX renders the current display as a workbook.
func (s *Service) WriteXLSX(ctx context.Context, sessionID string, w io.Writer) error {
	table, err := s.Table(ctx, sessionID)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, table, s.exporter.Meta(ctx))
}

// GeneratePDF has the ERP render the current display as a PDF.
func (s *Service) GeneratePDF(ctx context.Context, sessionID string) (*analysis.FileRef, error) {
	table, err := s.Table(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.exporter.GeneratePDF(ctx, table)
}

// SendEmail mails the current display.
func (s *Service) SendEmail(ctx context.Context, sessionID string, opts export.EmailOptions) (bool, error) {
	table, err := s.Table(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return s.exporter.SendEmail(ctx, table, opts)
}

// ExportSpreadsheet has the ERP store the current display as a spreadsheet.
func (s *Service) ExportSpreadsheet(ctx context.Context, sessionID string, filename string) (*analysis.FileRef, error) {
	table, err := s.Table(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportSpreadsheet(ctx, table, filename)
}

func (s *Service) update(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error) {
	return s.store.Update(ctx, sessionID, func(sess *Session) error {
		if err := checkAccess(ctx, sess); err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
}

// checkAccess hides sessions of other users. Admins see every session.
func checkAccess(ctx context.Context, sess *Session) error {
	user := appctx.GetUser(ctx)
	if user == nil || user.IsAdmin || sess.CreatedBy == "" || sess.CreatedBy == user.UserID {
		return nil
	}
	return NotFound(sess.ID)
}
