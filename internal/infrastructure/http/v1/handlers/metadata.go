package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nedlog/internal/core/apperror"
	"nedlog/internal/infrastructure/http/v1/dto"
	"nedlog/internal/metadata"
)

// MetadataHandler serves the column registry of the analysis report.
type MetadataHandler struct {
	*BaseHandler
	registry *metadata.Registry
}

func NewMetadataHandler(base *BaseHandler, registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{BaseHandler: base, registry: registry}
}

// ListColumns returns every column and preset.
// GET /api/v1/analysis/columns
func (h *MetadataHandler) ListColumns(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FromRegistry(h.registry))
}

// GetColumn returns one column.
// GET /api/v1/analysis/columns/:key
func (h *MetadataHandler) GetColumn(c *gin.Context) {
	key := c.Param("key")
	col, ok := h.registry.Get(metadata.ColumnKey(key))
	if !ok {
		h.Error(c, apperror.NewNotFound("column", key))
		return
	}
	c.JSON(http.StatusOK, dto.ColumnResponse{
		Key:            string(col.Key),
		Label:          col.Label,
		Align:          string(col.Align),
		DefaultVisible: col.DefaultVisible,
	})
}
