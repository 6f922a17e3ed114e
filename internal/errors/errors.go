package errors

import (
	"errors"
	"time"

	"github.com/xraph/go-utils/errs"
)

// Error code constants for structured errors.
const (
	CodeConfigError       = "CONFIG_ERROR"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeProjectNotFound   = "PROJECT_NOT_FOUND"
	CodeProjectForbidden  = "PROJECT_FORBIDDEN"
	CodeTemplateNotFound  = "TEMPLATE_NOT_FOUND"
	CodeBuildInProgress   = "BUILD_IN_PROGRESS"
	CodeBuildFailed       = "BUILD_FAILED"
	CodeRegistryClosed    = "REGISTRY_CLOSED"
	CodeTransportClosed   = "TRANSPORT_CLOSED"
	CodeSendBufferFull    = "SEND_BUFFER_FULL"
	CodeRelayUnavailable  = "RELAY_UNAVAILABLE"
	CodeTimeoutError      = "TIMEOUT_ERROR"
	CodeHealthCheckFailed = "HEALTH_CHECK_FAILED"
)

// Error is the structured error carried across package boundaries.
type Error = errs.Error

// ErrConfigError creates a config error.
func ErrConfigError(message string, cause error) *Error {
	return errs.NewError(CodeConfigError, message, cause)
}

// ErrInvalidConfig creates an invalid-configuration error for a config key.
func ErrInvalidConfig(configKey string, cause error) *Error {
	return errs.NewError(CodeInvalidConfig, "invalid configuration for key '"+configKey+"'", cause)
}

// ErrValidationError creates a validation error for a named field.
func ErrValidationError(field string, cause error) *Error {
	return errs.NewError(CodeValidationError, "validation error for field '"+field+"'", cause)
}

// ErrProjectNotFound creates a not-found error for a project id.
func ErrProjectNotFound(projectID string) *Error {
	return errs.NewError(CodeProjectNotFound, "project '"+projectID+"' not found", nil)
}

// ErrProjectForbidden creates a forbidden error for a project id.
func ErrProjectForbidden(projectID string) *Error {
	return errs.NewError(CodeProjectForbidden, "project '"+projectID+"' does not belong to caller", nil)
}

// ErrTemplateNotFound creates a not-found error for a template id.
func ErrTemplateNotFound(templateID string) *Error {
	return errs.NewError(CodeTemplateNotFound, "template '"+templateID+"' not found", nil)
}

// ErrBuildInProgress signals that a project already has a running build.
func ErrBuildInProgress(projectID string) *Error {
	return errs.NewError(CodeBuildInProgress, "build already running for project '"+projectID+"'", nil)
}

// ErrBuildFailed creates a build failure error.
func ErrBuildFailed(projectID string, cause error) *Error {
	return errs.NewError(CodeBuildFailed, "build failed for project '"+projectID+"'", cause)
}

// ErrRegistryClosed signals an operation against a shut-down registry.
func ErrRegistryClosed(operation string) *Error {
	return errs.NewError(CodeRegistryClosed, "registry closed during "+operation, nil)
}

// ErrTransportClosed signals a send on a closed transport.
func ErrTransportClosed() *Error {
	return errs.NewError(CodeTransportClosed, "transport closed", nil)
}

// ErrSendBufferFull signals a send dropped because the peer's buffer is full.
func ErrSendBufferFull() *Error {
	return errs.NewError(CodeSendBufferFull, "send buffer full", nil)
}

// ErrRelayUnavailable creates a relay connectivity error.
func ErrRelayUnavailable(cause error) *Error {
	return errs.NewError(CodeRelayUnavailable, "broadcast relay unavailable", cause)
}

// ErrTimeoutError creates a timeout error for an operation.
func ErrTimeoutError(operation string, timeout time.Duration) *Error {
	return errs.NewError(CodeTimeoutError, "timeout during "+operation+" after "+timeout.String(), nil)
}

// ErrHealthCheckFailed creates a health check error for a component.
func ErrHealthCheckFailed(component string, cause error) *Error {
	return errs.NewError(CodeHealthCheckFailed, "health check failed for '"+component+"'", cause)
}

// Sentinel errors for use with errors.Is comparisons.
var (
	ErrProjectNotFoundSentinel  = &Error{Code: CodeProjectNotFound}
	ErrProjectForbiddenSentinel = &Error{Code: CodeProjectForbidden}
	ErrTemplateNotFoundSentinel = &Error{Code: CodeTemplateNotFound}
	ErrBuildInProgressSentinel  = &Error{Code: CodeBuildInProgress}
	ErrRegistryClosedSentinel   = &Error{Code: CodeRegistryClosed}
	ErrTransportClosedSentinel  = &Error{Code: CodeTransportClosed}
	ErrSendBufferFullSentinel   = &Error{Code: CodeSendBufferFull}
	ErrInvalidConfigSentinel    = &Error{Code: CodeInvalidConfig}
	ErrValidationSentinel       = &Error{Code: CodeValidationError}
)

// IsNotFound checks for the project/template not-found codes.
func IsNotFound(err error) bool {
	return Is(err, ErrProjectNotFoundSentinel) || Is(err, ErrTemplateNotFoundSentinel)
}

// IsForbidden checks for the ownership violation code.
func IsForbidden(err error) bool {
	return Is(err, ErrProjectForbiddenSentinel)
}

// IsBuildInProgress checks for the concurrent-build code.
func IsBuildInProgress(err error) bool {
	return Is(err, ErrBuildInProgressSentinel)
}

// IsValidation checks for the validation code.
func IsValidation(err error) bool {
	return Is(err, ErrValidationSentinel)
}

// HTTPError represents an HTTP error with a status code.
type HTTPError = errs.HTTPError

// HTTP error constructors.
func BadRequest(message string) HTTPError {
	return errs.BadRequest(message)
}

func Unauthorized(message string) HTTPError {
	return errs.Unauthorized(message)
}

func Forbidden(message string) HTTPError {
	return errs.Forbidden(message)
}

func NotFound(message string) HTTPError {
	return errs.NotFound(message)
}

func InternalError(err error) HTTPError {
	return errs.InternalError(err)
}

// GetHTTPStatusCode extracts an HTTP status code from err, 500 if none found.
func GetHTTPStatusCode(err error) int {
	return errs.GetHTTPStatusCode(err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Join returns an error wrapping the given errors, discarding nils.
func Join(errList ...error) error {
	return errors.Join(errList...)
}
