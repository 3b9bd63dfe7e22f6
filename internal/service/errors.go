package service

import (
	"github.com/samber/oops"
)

// Error codes carried by service errors. Handlers map them to HTTP statuses.
const (
	CodeValidation      = "VALIDATION"
	CodeConflict        = "CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeAuth            = "AUTH"
	CodeInvalidState    = "INVALID_STATE"
	CodeExpired         = "EXPIRED"
	CodeGateway         = "GATEWAY"
	CodeConfig          = "CONFIG"
	CodeInternal        = "INTERNAL"
	CodeUnauthenticated = "UNAUTHENTICATED"
)

// userError creates an error whose message is safe to show to the caller.
func userError(code, message string) error {
	return oops.Code(code).
		With("message", message).
		Errorf("%s", message)
}

// internalError wraps a storage or infrastructure failure. The cause is
// logged; callers only see message.
func internalError(operation, message string, cause error) error {
	return oops.Code(CodeInternal).
		With("operation", operation).
		With("message", message).
		Wrap(cause)
}

// CodeOf returns the service error code of err, or CodeInternal for errors
// that do not carry one.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeInternal
	}
	code, _ := oopsErr.Code().(string)
	if code == "" {
		return CodeInternal
	}
	return code
}

// MessageOf extracts the caller-facing message from err.
func MessageOf(err error, fallback string) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return fallback
	}
	if msg, ok := oopsErr.Context()["message"].(string); ok && msg != "" {
		return msg
	}
	return fallback
}

// DetailOf returns the downstream failure detail attached to gateway errors.
func DetailOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	detail, _ := oopsErr.Context()["detail"].(string)
	return detail
}
