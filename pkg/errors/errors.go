package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Warehouse errors (1xxx)
	ErrCodeConnectionFailed ErrorCode = "OTI1001"
	ErrCodeNotConnected     ErrorCode = "OTI1002"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "OTI2001"
	ErrCodeConfigInvalid  ErrorCode = "OTI2002"

	// SQL execution errors (4xxx)
	ErrCodeSQLSyntax         ErrorCode = "OTI4001"
	ErrCodeSQLTransaction    ErrorCode = "OTI4004"
	ErrCodeSQLObjectNotFound ErrorCode = "OTI4005"
	ErrCodeSQLExecution      ErrorCode = "OTI4006"
	ErrCodeStagingCast       ErrorCode = "OTI4007"
	ErrCodeTransformStep     ErrorCode = "OTI4008"

	// File system errors (5xxx)
	ErrCodeFileNotFound  ErrorCode = "OTI5001"
	ErrCodeFileOperation ErrorCode = "OTI5005"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "OTI6001"
	ErrCodeInvalidInput     ErrorCode = "OTI6002"
	ErrCodeQualityGate      ErrorCode = "OTI6005"

	// System errors (9xxx)
	ErrCodeInternal      ErrorCode = "OTI9001"
	ErrCodeResultParsing ErrorCode = "OTI9005"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError. Context of a wrapped AppError is inherited.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var inner *AppError
	if errors.As(err, &inner) {
		for k, v := range inner.Context {
			appErr.Context[k] = v
		}
		appErr.Suggestions = append(appErr.Suggestions, inner.Suggestions...)
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a warehouse open/connection error
func ConnectionError(message string, path string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithContext("path", path).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check that the warehouse directory exists and is writable",
			"Make sure no other process holds a lock on the database file",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'order-to-insight init' to write a fresh config.yaml",
		)
}

// SQLError creates an SQL execution error. The code is refined from the engine message:
// unknown objects become ErrCodeSQLObjectNotFound and failed conversions ErrCodeStagingCast.
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	detail := strings.ToLower(message)
	if cause != nil {
		detail += " " + strings.ToLower(cause.Error())
	}

	switch {
	case strings.Contains(detail, "does not exist"):
		err.Code = ErrCodeSQLObjectNotFound
		_ = err.WithSuggestions("Run the earlier pipeline stage that creates the missing table")
	case strings.Contains(detail, "conversion error"), strings.Contains(detail, "could not convert"):
		err.Code = ErrCodeStagingCast
		_ = err.WithSeverity(SeverityCritical).
			WithSuggestions("Inspect data_quality_report.csv for unparseable values in the raw files")
	case strings.Contains(detail, "syntax error"), strings.Contains(detail, "parser error"):
		err.Code = ErrCodeSQLSyntax
	}

	return err
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value)
}

// FileError creates a file system error; missing files get ErrCodeFileNotFound.
func FileError(message string, path string, cause error) *AppError {
	code := ErrCodeFileOperation
	if errors.Is(cause, fs.ErrNotExist) {
		code = ErrCodeFileNotFound
	}
	return Wrap(cause, code, message).WithContext("path", path)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return errors.Is(err, &AppError{Code: code})
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
