// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// IDResponse is returned when a resource is created.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse reports the outcome of an action without a payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse documents the body written by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// FileResponse points at a file generated by the ERP.
type FileResponse struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName,omitempty"`
}
