package api

import (
	"errors"

	"stylesync/internal/jobs"
	"stylesync/internal/recordstore"
	"stylesync/internal/upload"
)

// Error kinds reported by KindOf.
const (
	KindValidation  = "validation"
	KindNotFound    = "not_found"
	KindIndexing    = "indexing"
	KindUnavailable = "unavailable"
	KindInternal    = "internal"
)

// ErrCompletionBacklog is returned when the completion queue cannot accept
// another event.
var ErrCompletionBacklog = errors.New("completion queue is full")

// NotFoundError reports a request addressing a job id that does not exist.
// Service methods return outcomes instead; transports use this type when a
// not-found outcome must become an error.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return jobNotFoundNotice(e.ID)
}

// ErrorKind classifies the error for transport status mapping.
func (e *NotFoundError) ErrorKind() string {
	return KindNotFound
}

type kindedError interface {
	ErrorKind() string
}

// KindOf returns the classification of err. Errors without a kind are
// internal.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var kinded kindedError
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	if errors.Is(err, ErrCompletionBacklog) || errors.Is(err, recordstore.ErrLockTimeout) {
		return KindUnavailable
	}
	return KindInternal
}

// FieldOf returns the offending input field of a validation error.
func FieldOf(err error) string {
	var jobErr *jobs.ValidationError
	if errors.As(err, &jobErr) {
		return jobErr.Field
	}
	var uploadErr *upload.ValidationError
	if errors.As(err, &uploadErr) {
		return uploadErr.Field
	}
	return ""
}

// NewErrorResponse builds the transport body for err.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Kind: KindOf(err), Field: FieldOf(err)}
	var jobErr *jobs.ValidationError
	var uploadErr *upload.ValidationError
	switch {
	case errors.As(err, &jobErr):
		resp.Error = jobErr.Message
	case errors.As(err, &uploadErr):
		resp.Error = uploadErr.Message
	case resp.Kind == KindInternal:
		resp.Error = "internal error"
	default:
		resp.Error = err.Error()
	}
	return resp
}
