package apierror

import "fmt"

// AppError is the operational error type every layer returns instead of
// rendering failures itself. Only the response funnel turns it into JSON.
type AppError struct {
	Message    string
	StatusCode int
	// Operational marks expected, client-actionable failures. Anything that
	// is not operational is rendered as a generic 500 outside diagnostic mode.
	Operational bool
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Status is the envelope status string: "fail" for client errors, "error"
// for everything else.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

func New(message string, status int) *AppError {
	return &AppError{Message: message, StatusCode: status, Operational: true}
}

func Newf(status int, format string, args ...any) *AppError {
	return New(fmt.Sprintf(format, args...), status)
}
