package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/alignment-checker/internal/alignment"
	"github.com/jonathan/alignment-checker/internal/llm"
	"github.com/jonathan/alignment-checker/internal/profile"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnavailable indicates an optional collaborator is not configured
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not available on this server", e.Feature)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		invalidInput *alignment.InvalidInputError
		notFound     *profile.NotFoundError
		unavailable  *ErrUnavailable
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &invalidInput), errors.As(err, &notFound):
		return http.StatusBadRequest
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text safe to return to callers.
// Client errors are reported verbatim; server-side failures get a generic message.
func publicMessage(err error) string {
	if HTTPStatus(err) < http.StatusInternalServerError {
		return err.Error()
	}

	var (
		reference *alignment.ReferenceUnavailableError
		apiErr    *llm.APICallError
		parseErr  *llm.ParseError
		schemaErr *llm.SchemaError
		missing   *ErrUnavailable
	)
	switch {
	case errors.As(err, &missing):
		return err.Error()
	case errors.As(err, &reference):
		return reference.Resource + " unavailable"
	case errors.As(err, &apiErr), errors.As(err, &parseErr), errors.As(err, &schemaErr):
		return "analysis failed"
	default:
		return "internal server error"
	}
}

// extractValidationErrors converts validator errors to an ErrValidation.
func extractValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Report the first failure
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: "invalid request"}
}
