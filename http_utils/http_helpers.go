package http_utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ValidationMessages flattens validator field errors into readable strings.
func ValidationMessages(errs validator.ValidationErrors) []string {
	return lo.Map(errs, func(item validator.FieldError, index int) string {
		return item.Error()
	})
}

// NewValidationErrorResponse builds the error body for a failed validation.
// Errors that are not field errors are reported as a single message.
func NewValidationErrorResponse(err error) ValidationErrorResponse {
	response := ValidationErrorResponse{
		BaseResponse: NewBaseResponse(false, "invalid body, validation failed"),
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.Errors = ValidationMessages(verrs)
	} else {
		response.Errors = []string{err.Error()}
	}

	return response
}
