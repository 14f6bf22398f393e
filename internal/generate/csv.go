package generate

import (
	"bytes"
	"encoding/csv"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

// TimeLayout is the timestamp layout written to the raw files (UTC, no offset)
const TimeLayout = "2006-01-02 15:04:05"

var (
	OrderHeader = []string{"order_id", "customer_id", "order_created_at", "order_amount", "currency", "order_status"}
	EventHeader = []string{"event_id", "order_id", "event_type", "event_timestamp", "source_system"}
)

// WriteCSV writes orders.csv and order_events.csv into dir and returns their paths
func WriteCSV(dir string, orders []Order, events []Event) (ordersPath, eventsPath string, err error) {
	ordersPath = filepath.Join(dir, "orders.csv")
	eventsPath = filepath.Join(dir, "order_events.csv")

	orderRows := make([][]string, len(orders))
	for i, o := range orders {
		orderRows[i] = []string{
			o.OrderID,
			o.CustomerID,
			o.CreatedAt.UTC().Format(TimeLayout),
			decimal.NewFromFloat(o.Amount).StringFixed(2),
			o.Currency,
			o.Status,
		}
	}
	if err := writeCSVFile(ordersPath, OrderHeader, orderRows); err != nil {
		return "", "", err
	}

	eventRows := make([][]string, len(events))
	for i, e := range events {
		eventRows[i] = []string{
			e.EventID,
			e.OrderID,
			e.EventType,
			e.Timestamp.UTC().Format(TimeLayout),
			e.SourceSystem,
		}
	}
	if err := writeCSVFile(eventsPath, EventHeader, eventRows); err != nil {
		return "", "", err
	}

	return ordersPath, eventsPath, nil
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return errors.FileError("failed to encode CSV header", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.FileError("failed to encode CSV rows", path, err)
	}

	if err := common.WriteFileAtomic(path, buf.Bytes(), common.FilePermissionNormal); err != nil {
		return errors.FileError("failed to write CSV file", path, err)
	}
	return nil
}
