package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ErrorHandler renders errors for the terminal and optionally appends a JSON line per error
// to a log writer.
type ErrorHandler struct {
	out       io.Writer
	logWriter io.Writer
	mu        sync.Mutex
}

// ErrorLogEntry represents a logged error
type ErrorLogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Code      ErrorCode              `json:"code"`
	Severity  ErrorSeverity          `json:"severity"`
	Message   string                 `json:"message"`
	Cause     string                 `json:"cause,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// NewErrorHandler creates a handler writing user output to out. logWriter may be nil.
func NewErrorHandler(out io.Writer, logWriter io.Writer) *ErrorHandler {
	if out == nil {
		out = os.Stderr
	}
	return &ErrorHandler{out: out, logWriter: logWriter}
}

// Handle processes an error: logs it as JSON and prints a readable block
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	appErr, ok := err.(*AppError)
	if !ok {
		appErr = Wrap(err, ErrCodeInternal, err.Error())
	}

	if h.logWriter != nil {
		h.writeLog(appErr)
	}
	h.displayError(appErr)
}

func (h *ErrorHandler) writeLog(err *AppError) {
	entry := ErrorLogEntry{
		Timestamp: err.Timestamp,
		Code:      err.Code,
		Severity:  err.Severity,
		Message:   err.Message,
		Context:   err.Context,
	}
	if err.Cause != nil {
		entry.Cause = err.Cause.Error()
	}

	jsonData, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		fmt.Fprintf(h.logWriter, "failed to marshal error log: %v\n", marshalErr)
		return
	}
	fmt.Fprintln(h.logWriter, string(jsonData))
}

func (h *ErrorHandler) displayError(err *AppError) {
	var header *color.Color
	switch err.Severity {
	case SeverityCritical:
		header = color.New(color.FgRed, color.Bold)
	case SeverityWarning:
		header = color.New(color.FgYellow)
	case SeverityInfo:
		header = color.New(color.FgCyan)
	default:
		header = color.New(color.FgHiRed)
	}

	fmt.Fprintf(h.out, "\n%s\n", header.Sprintf("[%s] %s", err.Code, err.Message))

	if err.Cause != nil {
		fmt.Fprintf(h.out, "  cause: %s\n", rootCause(err))
	}

	if len(err.Context) > 0 {
		fmt.Fprintln(h.out, "\nContext:")
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if len(err.Suggestions) > 0 {
		fmt.Fprintln(h.out, "\nSuggestions:")
		for i, suggestion := range err.Suggestions {
			fmt.Fprintf(h.out, "  %d. %s\n", i+1, suggestion)
		}
	}
}

// rootCause returns the message of the innermost non-AppError cause, or of the deepest AppError.
func rootCause(err *AppError) string {
	current := error(err)
	for {
		appErr, ok := current.(*AppError)
		if !ok {
			return current.Error()
		}
		if appErr.Cause == nil {
			return appErr.Message
		}
		current = appErr.Cause
	}
}

// TransactionHandler rolls a transaction back when the guarded function fails
type TransactionHandler struct {
	rollbackFunc func() error
	committed    bool
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(rollbackFunc func() error) *TransactionHandler {
	return &TransactionHandler{rollbackFunc: rollbackFunc}
}

// Execute runs fn and rolls back on error. A rollback failure is attached to the returned error.
func (th *TransactionHandler) Execute(fn func() error) error {
	err := fn()
	if err == nil {
		th.committed = true
		return nil
	}

	if th.rollbackFunc != nil && !th.committed {
		if rollbackErr := th.rollbackFunc(); rollbackErr != nil {
			if appErr, ok := err.(*AppError); ok {
				return appErr.WithContext("rollback_error", rollbackErr.Error())
			}
			return Wrap(err, ErrCodeSQLTransaction, "transaction failed and rollback did not complete").
				WithContext("rollback_error", rollbackErr.Error())
		}
	}

	return err
}

var (
	globalHandler     *ErrorHandler
	globalHandlerOnce sync.Once
)

// GetGlobalErrorHandler returns the process-wide handler printing to stderr
func GetGlobalErrorHandler() *ErrorHandler {
	globalHandlerOnce.Do(func() {
		globalHandler = NewErrorHandler(os.Stderr, nil)
	})
	return globalHandler
}
