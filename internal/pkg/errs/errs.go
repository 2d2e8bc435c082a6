package errs

import (
	"fmt"
	"net/http"
	"strings"

	"hzroom/internal/pkg/logx"
)

// CustomError is the application error carried to HTTP and websocket clients.
type CustomError struct {
	// Code is the business error code.
	Code int

	// Message is the user-facing description.
	Message string

	// Status is the HTTP status used when the error ends an HTTP request.
	Status int

	// Cause is the internal error behind this one. It is logged, never sent to clients.
	Cause error
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is matches any CustomError with the same code, so errors.Is works against NewError(code).
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	return ok && t.Code == e.Code
}

// WithCause attaches the internal error and returns e.
func (e *CustomError) WithCause(err error) *CustomError {
	e.Cause = err
	return e
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// NewError builds a *CustomError from the code table.
// details are printf arguments for templates containing verbs; ErrUnknown accepts the
// underlying error as its first detail and logs it. Unknown codes fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	switch {
	case len(details) == 0:
	case code == ErrUnknown:
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	case strings.Contains(customErr.Message, "%"):
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	default:
		logx.Warn("Details provided for error without formatting placeholders. Details ignored.", "code", code)
	}

	return &customErr
}
