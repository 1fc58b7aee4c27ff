package v1

import (
	"github.com/gin-gonic/gin"

	"nedlog/internal/domain/auth"
	"nedlog/internal/infrastructure/http/v1/middleware"
)

var (
	requireRead                  = middleware.RequirePermission(auth.PermAnalysisRead)
	requireRun                   = middleware.RequirePermission(auth.PermAnalysisRun)
	requireExport                = middleware.RequirePermission(auth.PermAnalysisExport)
	requireMaterialRequestCreate = middleware.RequirePermission(auth.PermMaterialRequestCreate)
)

// ColumnRouteHandler serves the column registry.
type ColumnRouteHandler interface {
	ListColumns(c *gin.Context)
	GetColumn(c *gin.Context)
}

// SessionRouteHandler serves analysis sessions.
type SessionRouteHandler interface {
	Open(c *gin.Context)
	Get(c *gin.Context)
	Delete(c *gin.Context)
	View(c *gin.Context)
	SetColumns(c *gin.Context)
	ToggleColumn(c *gin.Context)
	ApplyPreset(c *gin.Context)
	SetRowFilter(c *gin.Context)
	CreateSessionMaterialRequests(c *gin.Context)
	Print(c *gin.Context)
	XLSX(c *gin.Context)
	PDF(c *gin.Context)
	Email(c *gin.Context)
	Spreadsheet(c *gin.Context)
}

// RegisterColumnRoutes registers the read-only column registry routes.
func RegisterColumnRoutes(group *gin.RouterGroup, handler ColumnRouteHandler) {
	group.GET("", requireRead, handler.ListColumns)
	group.GET("/:key", requireRead, handler.GetColumn)
}

// RegisterSessionRoutes registers session lifecycle, display and export routes.
// Opening a session runs the analysis; changing the display only reads the snapshot.
func RegisterSessionRoutes(group *gin.RouterGroup, handler SessionRouteHandler) {
	group.POST("", requireRun, handler.Open)
	group.GET("/:id", requireRead, handler.Get)
	group.DELETE("/:id", requireRead, handler.Delete)

	group.GET("/:id/view", requireRead, handler.View)
	group.PUT("/:id/columns", requireRead, handler.SetColumns)
	group.POST("/:id/columns/:key/toggle", requireRead, handler.ToggleColumn)
	group.PUT("/:id/preset", requireRead, handler.ApplyPreset)
	group.PUT("/:id/row-filter", requireRead, handler.SetRowFilter)

	group.POST("/:id/material-requests", requireMaterialRequestCreate, handler.CreateSessionMaterialRequests)

	group.GET("/:id/print", requireRead, handler.Print)
	group.GET("/:id/xlsx", requireExport, handler.XLSX)
	group.POST("/:id/pdf", requireExport, handler.PDF)
	group.POST("/:id/email", requireExport, handler.Email)
	group.POST("/:id/spreadsheet", requireExport, handler.Spreadsheet)
}
