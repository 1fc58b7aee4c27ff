// Package validate wraps go-playground/validator with a shared instance
// and converts its errors into AppError.
package validate

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"nedlog/internal/core/apperror"
)

var instance = validator.New(validator.WithRequiredStructEnabled())

// Struct validates v against its `validate` tags.
// Field failures are returned as a VALIDATION_ERROR with field -> tag details.
func Struct(v any) error {
	err := instance.Struct(v)
	if err == nil {
		return nil
	}
	return toAppError(err)
}

// Var validates a single value against a tag expression.
func Var(field string, v any, tag string) error {
	if err := instance.Var(v, tag); err != nil {
		return apperror.NewValidation("invalid value").WithDetail(field, tagOf(err))
	}
	return nil
}

// Fields returns field -> failed tag for a validator error, or nil.
func Fields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}

func toAppError(err error) error {
	fields := Fields(err)
	if fields == nil {
		return apperror.NewInternal(err)
	}
	appErr := apperror.NewValidation("validation failed").WithCause(err)
	for k, v := range fields {
		appErr = appErr.WithDetail(k, v)
	}
	return appErr
}

func tagOf(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve[0].Tag()
	}
	return err.Error()
}
