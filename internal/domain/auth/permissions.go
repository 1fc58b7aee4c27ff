package auth

// Permissions checked by the HTTP API.
const (
	PermAnalysisRead          = "analysis:read"
	PermAnalysisRun           = "analysis:run"
	PermAnalysisExport        = "analysis:export"
	PermMaterialRequestCreate = "material_request:create"
)

// AllPermissions lists every permission, for tokens minted by operators.
func AllPermissions() []string {
	return []string{
		PermAnalysisRead,
		PermAnalysisRun,
		PermAnalysisExport,
		PermMaterialRequestCreate,
	}
}
