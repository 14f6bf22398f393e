package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Honar-Abdi/Order-to-Insight/internal/quality"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

var (
	orderColumns = []string{"order_id", "customer_id", "order_created_at", "order_amount", "currency", "order_status"}
	eventColumns = []string{"event_id", "order_id", "event_type", "event_timestamp", "source_system"}
)

// ReadOrders reads orders.csv without interpreting any value
func ReadOrders(path string) ([]quality.RawOrder, error) {
	var orders []quality.RawOrder
	err := readCSV(path, orderColumns, func(get func(string) string) {
		orders = append(orders, quality.RawOrder{
			OrderID:    get("order_id"),
			CustomerID: get("customer_id"),
			CreatedAt:  get("order_created_at"),
			Amount:     get("order_amount"),
			Currency:   get("currency"),
			Status:     get("order_status"),
		})
	})
	return orders, err
}

// ReadEvents reads order_events.csv without interpreting any value
func ReadEvents(path string) ([]quality.RawEvent, error) {
	var events []quality.RawEvent
	err := readCSV(path, eventColumns, func(get func(string) string) {
		events = append(events, quality.RawEvent{
			EventID:      get("event_id"),
			OrderID:      get("order_id"),
			EventType:    get("event_type"),
			Timestamp:    get("event_timestamp"),
			SourceSystem: get("source_system"),
		})
	})
	return events, err
}

func readCSV(path string, required []string, each func(get func(string) string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.FileError("failed to open raw file", path, err).
			WithSuggestions("Run 'order-to-insight generate' to create the raw files")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return errors.New(errors.ErrCodeInvalidInput, "raw file is empty").WithContext("path", path)
	}
	if err != nil {
		return errors.FileError("failed to read CSV header", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("raw file is missing columns: %s", strings.Join(missing, ", "))).
			WithContext("path", path)
	}

	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return errors.FileError("failed to parse CSV row", path, err).WithContext("line", line)
		}
		each(func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return record[i]
		})
	}
}
