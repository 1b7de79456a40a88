package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/statutory"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company ID is required")

	// Payroll run lifecycle
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrRunCalculationInProgress):
		ConflictWithCode(w, "CALCULATION_IN_PROGRESS", err.Error())
	case errors.Is(err, payroll.ErrRunImmutable):
		ConflictWithCode(w, "RUN_IMMUTABLE", err.Error())
	case errors.Is(err, payroll.ErrInvalidTransition):
		ConflictWithCode(w, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, payroll.ErrRunStatusConflict):
		ConflictWithCode(w, "STATUS_CONFLICT", err.Error())

	// Calculation failures: a missing bracket version is a configuration problem
	// the caller can act on, anything else is ours.
	case errors.Is(err, statutory.ErrUnknownBracketVersion):
		UnprocessableEntity(w, "UNKNOWN_BRACKET_VERSION", err.Error())
	case errors.Is(err, payroll.ErrCalculationFailed):
		slog.Error("Payroll calculation failed", "error", err)
		InternalServerErrorWithCode(w, "CALCULATION_FAILED", "Payroll calculation failed; the run was marked failed")

	// Time tracking
	case errors.Is(err, attendance.ErrInvalidPeriod), errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrDataIncomplete):
		UnprocessableEntity(w, "DATA_INCOMPLETE", err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
