package export

import (
	"context"
	"time"

	appctx "nedlog/internal/core/context"
)

// Date and time layouts used on generated documents.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04:05"
)

// Meta describes who generated a document and when.
type Meta struct {
	GeneratedAt time.Time `json:"-"`
	GeneratedBy string    `json:"-"`
}

// NewMeta builds document metadata for the user in ctx.
func NewMeta(ctx context.Context, now time.Time) Meta {
	return Meta{
		GeneratedAt: now,
		GeneratedBy: appctx.GetDisplayName(ctx, "Guest"),
	}
}

// Date returns the generation date.
func (m Meta) Date() string { return m.GeneratedAt.Format(DateLayout) }

// Time returns the generation time.
func (m Meta) Time() string { return m.GeneratedAt.Format(TimeLayout) }

// Info returns the metadata as sent to the remote document operations.
func (m Meta) Info() map[string]string {
	return map[string]string{
		"generated_date": m.Date(),
		"generated_time": m.Time(),
		"generated_by":   m.GeneratedBy,
	}
}
