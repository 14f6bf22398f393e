package errors

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeConnectionFailed, "Connection failed"),
			expected: "[OTI1001] ERROR: Connection failed",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithSuggestions("Check path", "Close other sessions"),
			expected: "[OTI1001] ERROR: Connection failed\nSuggestions:\n  1. Check path\n  2. Close other sessions",
		},
		{
			name: "error with context",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithContext("path", "warehouse.duckdb"),
			expected: "[OTI1001] ERROR: Connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("database is locked")

	appErr := Wrap(baseErr, ErrCodeConnectionFailed, "Failed to open warehouse")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}
	if appErr.Code != ErrCodeConnectionFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeConnectionFailed, appErr.Code)
	}
	if Wrap(nil, ErrCodeInternal, "nothing") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestWrapInheritsContext(t *testing.T) {
	inner := New(ErrCodeStagingCast, "cast failed").WithContext("step", "stg_orders")
	outer := Wrap(inner, ErrCodeTransformStep, "Transformations failed at step 'stg_orders'")

	if outer.Context["step"] != "stg_orders" {
		t.Errorf("Expected inherited context, got %v", outer.Context)
	}
	if !HasCode(outer, ErrCodeStagingCast) {
		t.Error("Expected staging cast code in the chain")
	}
	if !HasCode(outer, ErrCodeTransformStep) {
		t.Error("Expected transform step code at the top")
	}
	if HasCode(outer, ErrCodeQualityGate) {
		t.Error("Unexpected quality gate code")
	}
}

func TestSQLErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		code  ErrorCode
	}{
		{"missing table", fmt.Errorf("Catalog Error: Table with name raw_orders does not exist!"), ErrCodeSQLObjectNotFound},
		{"bad cast", fmt.Errorf("Conversion Error: Could not convert string 'abc' to DOUBLE"), ErrCodeStagingCast},
		{"syntax", fmt.Errorf("Parser Error: syntax error at or near \"SELEC\""), ErrCodeSQLSyntax},
		{"other", fmt.Errorf("Constraint Error: duplicate key"), ErrCodeSQLExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SQLError("statement failed", "SELECT 1", tt.cause)
			if err.Code != tt.code {
				t.Errorf("Expected %s, got %s", tt.code, err.Code)
			}
			if err.Context["query"] != "SELECT 1" {
				t.Errorf("Expected query context, got %v", err.Context["query"])
			}
		})
	}
}

func TestSQLErrorTruncatesQuery(t *testing.T) {
	query := strings.Repeat("x", 300)
	err := SQLError("failed", query, fmt.Errorf("boom"))
	got := err.Context["query"].(string)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected truncated query, got length %d", len(got))
	}
}

func TestFileError(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here.csv")
	err := FileError("failed to open orders file", "/definitely/not/here.csv", statErr)
	if err.Code != ErrCodeFileNotFound {
		t.Errorf("Expected %s, got %s", ErrCodeFileNotFound, err.Code)
	}

	err = FileError("failed to write", "out.csv", fmt.Errorf("disk full"))
	if err.Code != ErrCodeFileOperation {
		t.Errorf("Expected %s, got %s", ErrCodeFileOperation, err.Code)
	}
}

func TestErrorHandler(t *testing.T) {
	var out, logBuf bytes.Buffer
	handler := NewErrorHandler(&out, &logBuf)

	handler.Handle(ConfigError("invalid ingestion mode", "ingestion.mode"))
	handler.Handle(fmt.Errorf("plain failure"))
	handler.Handle(nil)

	output := out.String()
	if !strings.Contains(output, "invalid ingestion mode") {
		t.Errorf("Expected message in output, got %q", output)
	}
	if !strings.Contains(output, "field: ingestion.mode") {
		t.Errorf("Expected context in output, got %q", output)
	}
	if !strings.Contains(output, "plain failure") {
		t.Errorf("Expected wrapped plain error, got %q", output)
	}

	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], string(ErrCodeConfigInvalid)) {
		t.Errorf("Expected code in log line, got %q", lines[0])
	}
}

func TestTransactionHandler(t *testing.T) {
	rolledBack := false
	th := NewTransactionHandler(func() error {
		rolledBack = true
		return nil
	})

	err := th.Execute(func() error {
		return New(ErrCodeSQLExecution, "insert failed")
	})
	if err == nil {
		t.Error("Expected error from failed transaction")
	}
	if !rolledBack {
		t.Error("Expected rollback on failure")
	}

	rolledBack = false
	th = NewTransactionHandler(func() error {
		rolledBack = true
		return nil
	})
	if err := th.Execute(func() error { return nil }); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if rolledBack {
		t.Error("Rollback must not run after success")
	}
}

func TestTransactionHandlerRollbackFailure(t *testing.T) {
	th := NewTransactionHandler(func() error { return fmt.Errorf("connection lost") })

	err := th.Execute(func() error { return fmt.Errorf("insert failed") })
	if GetErrorCode(err) != ErrCodeSQLTransaction {
		t.Errorf("Expected %s, got %s", ErrCodeSQLTransaction, GetErrorCode(err))
	}
}

func TestErrorSeverity(t *testing.T) {
	if New(ErrCodeInternal, "x").Severity != SeverityError {
		t.Error("Default severity should be ERROR")
	}
	if ConnectionError("open failed", "db", fmt.Errorf("x")).Severity != SeverityCritical {
		t.Error("Connection errors should be CRITICAL")
	}
}

func BenchmarkErrorCreation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = New(ErrCodeSQLExecution, "benchmark").WithContext("iteration", i)
	}
}
