// Package apperror classifies swap failures into codes with user-facing messages.
package apperror

import (
	"errors"
	"runtime"
	"strconv"
	"strings"
)

const stackDepth = 32

// AppError is a classified failure. Message is always safe to show to a user.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`

	cause error
	pcs   []uintptr
}

// Option customizes an AppError at construction.
type Option func(*AppError)

// New creates an AppError carrying the taxonomy message for code, or the code
// itself when the taxonomy has none.
func New(code Code, opts ...Option) *AppError {
	e := &AppError{Code: code, Message: Message(code)}
	for _, opt := range opts {
		opt(e)
	}

	var pcs [stackDepth]uintptr
	e.pcs = pcs[:runtime.Callers(2, pcs[:])]
	return e
}

// WithMessage replaces the taxonomy message.
func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

// WithContext names where the failure happened.
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

func (e *AppError) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Context != "" {
		s += " (context: " + e.Context + ")"
	}
	return s
}

func (e *AppError) Unwrap() error { return e.cause }

// Is matches any AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Critical reports whether the error disables the provider that raised it.
func (e *AppError) Critical() bool { return IsCriticalCode(e.Code) }

// LogArgs flattens the error into logger key/value pairs.
func (e *AppError) LogArgs() []any {
	args := []any{"code", e.Code, "message", e.Message}
	if e.Context != "" {
		args = append(args, "context", e.Context)
	}
	if e.cause != nil {
		args = append(args, "cause", e.cause.Error())
	}
	if stack := e.stack(); stack != "" {
		args = append(args, "stack", stack)
	}
	return args
}

// stack renders caller frames outside the runtime, one per line.
func (e *AppError) stack() string {
	if len(e.pcs) == 0 {
		return ""
	}
	var lines []string
	frames := runtime.CallersFrames(e.pcs)
	for more := true; more; {
		var f runtime.Frame
		f, more = frames.Next()
		if strings.HasPrefix(f.Function, "runtime.") {
			continue
		}
		lines = append(lines, f.Function+" "+f.File+":"+strconv.Itoa(f.Line))
	}
	return strings.Join(lines, "\n")
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetCode returns the code of the first AppError in err's chain, or
// CodeUnknownError.
func GetCode(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeUnknownError
}
