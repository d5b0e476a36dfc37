package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	NotifyErrorBadInput              = "NOTIFY_BAD_INPUT"
	NotifyErrorDuplicateEvent        = "NOTIFY_DUPLICATE_EVENT"
	NotifyErrorSinkFailed            = "NOTIFY_SINK_FAILED"
	NotifyErrorStorageFailed         = "NOTIFY_STORAGE_FAILED"
	NotifyErrorEnrichmentUnavailable = "NOTIFY_ENRICHMENT_UNAVAILABLE"
	NotifyErrorInternal              = "NOTIFY_INTERNAL_ERROR"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

func notifyErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureNotifyErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case IsUnavailable(err):
		return newNotifyError(err.Error(), goerrors.CategoryExternal, NotifyErrorEnrichmentUnavailable)
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return newNotifyError(err.Error(), goerrors.CategoryConflict, NotifyErrorDuplicateEvent)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newNotifyError(err.Error(), goerrors.CategoryBadInput, NotifyErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureNotifyErrorEnvelope(mapped)
}

func newNotifyError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureNotifyErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureNotifyErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = notifyHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultNotifyTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultNotifyTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return NotifyErrorBadInput
	case goerrors.CategoryConflict:
		return NotifyErrorDuplicateEvent
	case goerrors.CategoryExternal:
		return NotifyErrorSinkFailed
	default:
		return NotifyErrorInternal
	}
}

func notifyHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DefaultErrorMapper is the module-wide fallback mapper used when a caller
// does not inject its own.
func DefaultErrorMapper(err error) *goerrors.Error {
	return notifyErrorMapper(err)
}
