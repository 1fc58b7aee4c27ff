package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nedlog/internal/core/apperror"
	appctx "nedlog/internal/core/context"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/metadata"
)

type fakeBackend struct {
	pdf   *PDFRequest
	email *EmailRequest
	sheet *SpreadsheetRequest
}

func (f *fakeBackend) GenerateRequirementsPDF(_ context.Context, req PDFRequest) (*analysis.FileRef, error) {
	f.pdf = &req
	return &analysis.FileRef{FileURL: "/files/report.pdf"}, nil
}

func (f *fakeBackend) SendRequirementsEmail(_ context.Context, req EmailRequest) (bool, error) {
	f.email = &req
	return true, nil
}

func (f *fakeBackend) ExportSpreadsheet(_ context.Context, req SpreadsheetRequest) (*analysis.FileRef, error) {
	f.sheet = &req
	return &analysis.FileRef{FileURL: "/files/" + req.Filename + ".xlsx"}, nil
}

func newTestService(b Backend) *Service {
	s := NewService(b)
	s.now = func() time.Time { return time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC) }
	return s
}

func userCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u1", Email: "ops@example.com"})
}

func TestService_GeneratePDF(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection().Without(metadata.ColSupplier), ""))
	require.NoError(t, err)

	backend := &fakeBackend{}
	ref, err := newTestService(backend).GeneratePDF(userCtx(), table)
	require.NoError(t, err)

	assert.Equal(t, "/files/report.pdf", ref.FileURL)
	require.NotNil(t, backend.pdf)
	assert.NotContains(t, backend.pdf.VisibleColumns, "supplier")
	assert.Len(t, backend.pdf.Rows, table.Len())
	assert.Equal(t, map[string]string{
		"generated_date": "15/10/2026",
		"generated_time": "14:30:00",
		"generated_by":   "ops@example.com",
	}, backend.pdf.Meta)
}

func TestService_SendEmail(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), ""))
	require.NoError(t, err)

	backend := &fakeBackend{}
	ok, err := newTestService(backend).SendEmail(userCtx(), table, EmailOptions{
		Recipients: "a@example.com; b@example.com, ",
		AttachPDF:  true,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	req := backend.email
	require.NotNil(t, req)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, req.Recipients)
	assert.Equal(t, "a@example.com, b@example.com", req.RecipientList())
	assert.Equal(t, DefaultTitle+" - 15/10/2026", req.Subject)
	assert.Contains(t, req.Message, "ops@example.com")
	assert.True(t, req.AttachPDF)
}

func TestService_SendEmail_RejectsBadRecipients(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), ""))
	require.NoError(t, err)

	backend := &fakeBackend{}
	svc := newTestService(backend)

	_, err = svc.SendEmail(userCtx(), table, EmailOptions{Recipients: "not-an-address"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.SendEmail(userCtx(), table, EmailOptions{Recipients: " , "})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Nil(t, backend.email)
}

func TestService_ExportSpreadsheet(t *testing.T) {
	reg := metadata.DefaultRegistry()
	table, err := ExtractVisible(sampleView(t, reg.DefaultSelection(), ""))
	require.NoError(t, err)

	backend := &fakeBackend{}
	ref, err := newTestService(backend).ExportSpreadsheet(userCtx(), table, "")
	require.NoError(t, err)

	assert.Equal(t, "raw_material_requirements_2026-10-15", backend.sheet.Filename)
	assert.Equal(t, table.Headers, backend.sheet.Data[0])
	assert.Len(t, backend.sheet.Data, table.Len()+1)
	assert.Equal(t, "/files/raw_material_requirements_2026-10-15.xlsx", ref.FileURL)
}

func TestService_EmptyTableNeverReachesBackend(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend)

	_, err := svc.GeneratePDF(userCtx(), nil)
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyTable))
	_, err = svc.SendEmail(userCtx(), &Table{}, EmailOptions{Recipients: "a@example.com"})
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyTable))
	_, err = svc.ExportSpreadsheet(userCtx(), nil, "x")
	assert.True(t, apperror.HasCode(err, apperror.CodeEmptyTable))

	assert.Nil(t, backend.pdf)
	assert.Nil(t, backend.email)
	assert.Nil(t, backend.sheet)
}
