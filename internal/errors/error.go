package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryAPI       Category = "api"
	CategoryProtocol  Category = "protocol"
	CategoryTransport Category = "transport"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// MilError is a structured error with a code, an explanation and a hint.
type MilError struct {
	// Code is a unique error identifier (e.g., "E008").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *MilError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *MilError) Unwrap() error {
	return e.Wrapped
}

// Index returns the client error table number of the error, or 0 when the
// code is outside the table.
func (e *MilError) Index() int {
	var n int
	if _, err := fmt.Sscanf(e.Code, "E%03d", &n); err != nil {
		return 0
	}
	if n < 1 || n > ClientErrorCount {
		return 0
	}
	return n
}

// WithDetail adds a detailed explanation to the error.
func (e *MilError) WithDetail(d string) *MilError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *MilError) WithSuggestion(s string) *MilError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *MilError) Wrap(err error) *MilError {
	e.Wrapped = err
	return e
}

// New creates a MilError from a registered error code.
func New(code string) *MilError {
	template, ok := registry[code]
	if !ok {
		return &MilError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &MilError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Client returns the error of the client error table with number n.
func Client(n int) *MilError {
	return New(fmt.Sprintf("E%03d", n))
}

// Newf creates a new MilError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *MilError {
	return &MilError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a MilError.
func FromError(err error, code string) *MilError {
	if err == nil {
		return nil
	}
	if me, ok := err.(*MilError); ok {
		return me
	}
	return New(code).Wrap(err)
}
