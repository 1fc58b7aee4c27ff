// Package session holds analysis sessions: the snapshot of one analysis
// together with the user's current column selection and row filter.
// Sessions are independent; nothing is shared between them.
package session

import (
	"context"
	"time"

	"nedlog/internal/core/apperror"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/reports"
	"nedlog/internal/metadata"
)

// Session is the server-side state of one analysis dialog.
type Session struct {
	ID        string           `json:"id"`
	Mode      analysis.Mode    `json:"mode"`
	OrderIDs  []string         `json:"order_ids"`
	CreatedBy string           `json:"created_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Result    *analysis.Result `json:"result"`
	Report    *reports.Report  `json:"report"`

	Selection metadata.Selection `json:"selection"`
	RowFilter string             `json:"row_filter,omitempty"`

	MaterialRequests []analysis.MaterialRequestResult `json:"material_requests,omitempty"`
}

// Store persists sessions.
//
// Get and Update return a NOT_FOUND AppError for unknown or expired sessions.
// Update applies fn to the current value and stores the result atomically
// with respect to other updates of the same session.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// NotFound is the error stores return for a missing session.
func NotFound(id string) error {
	return apperror.NewNotFound("analysis session", id)
}
