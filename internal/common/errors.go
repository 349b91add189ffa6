package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure kinds the pipeline distinguishes.
// Handlers collapse most of these to a generic message on the wire, but the
// kinds stay distinguishable internally for logging and tests.
var (
	ErrNoFileUploaded   = errors.New("no file uploaded")
	ErrExtraction       = errors.New("text extraction failed")
	ErrModelInvocation  = errors.New("model invocation failed")
	ErrModelOutputParse = errors.New("model output is not valid JSON")
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStore            = errors.New("store error")
)

// AppError carries a sentinel, a human message, and an HTTP status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func NewAppErrorf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{Err: sentinel, Message: fmt.Sprintf(format, args...), StatusCode: statusCode}
}

// HTTPStatusCode maps an error to the status the wire format uses:
// 400 for upload/parse problems, 404 for missing rows, 500 for store errors.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoFileUploaded),
		errors.Is(err, ErrExtraction),
		errors.Is(err, ErrModelInvocation),
		errors.Is(err, ErrModelOutputParse),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WrapError annotates err with message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
