package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
)

// TimeLayout is the timestamp layout used by fixtures and generated CSVs
const TimeLayout = "2006-01-02 15:04:05"

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// WriteFile writes content to a file in the given directory
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	h.t.Helper()
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), common.FilePermissionNormal); err != nil {
		h.t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// ReadFile returns the content of path or fails the test
func (h *TestHelper) ReadFile(path string) string {
	h.t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		h.t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// Time parses a fixture timestamp in UTC; an empty string is the zero time
func Time(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(TimeLayout, value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// TS builds a nullable timestamp; an empty string is NULL
func TS(value string) sql.NullTime {
	if value == "" {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: Time(value), Valid: true}
}

// Str builds a nullable string; an empty string is NULL
func Str(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// Amount builds a non-null amount
func Amount(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Order builds a staged order with customer C1 and currency EUR
func Order(id, status string, amount float64, createdAt string) model.Order {
	return model.Order{
		OrderID:    id,
		CustomerID: Str("C1"),
		CreatedAt:  TS(createdAt),
		Amount:     Amount(amount),
		Currency:   "EUR",
		Status:     Str(status),
	}
}

// Event builds a staged event from the web source
func Event(id, orderID, eventType, ts string) model.OrderEvent {
	return model.OrderEvent{
		EventID:      id,
		OrderID:      Str(orderID),
		EventType:    eventType,
		Timestamp:    TS(ts),
		SourceSystem: "web",
	}
}
