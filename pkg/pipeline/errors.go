package pipeline

import (
	"errors"
	"net/http"

	"chatline/pkg/models"
)

// ValidationError rejects a malformed request before any state mutates.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// UploadError reports a rejected attachment upload: size, format, or
// timeout. No ledger entry exists when one of these is returned.
type UploadError struct {
	Kind   models.AttachmentKind
	Reason string
}

func (e *UploadError) Error() string { return e.Reason }

// AuthorizationError rejects a mutation by a caller who does not own the
// target message.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// NotFoundError reports an absent message or user.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

// UnavailableError reports an unreachable dependency (the ledger). Clients
// should treat it as retryable, unlike the 4xx rejections above.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string { return e.Reason }
func (e *UnavailableError) Unwrap() error { return e.Err }

// HTTPStatus maps a pipeline error to its response status code.
func HTTPStatus(err error) int {
	var ve *ValidationError
	var ue *UploadError
	var ae *AuthorizationError
	var ne *NotFoundError
	var de *UnavailableError
	switch {
	case errors.As(err, &ve), errors.As(err, &ue):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusForbidden
	case errors.As(err, &ne):
		return http.StatusNotFound
	case errors.As(err, &de):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
