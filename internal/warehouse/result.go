package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

// ResultSet is a fully materialized query result
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

// Query runs a read-only query and materializes every row
func (s *Service) Query(ctx context.Context, query string, args ...interface{}) (*ResultSet, error) {
	if err := s.ensureConnected(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.SQLError("Failed to run query", query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "Failed to read result columns")
	}

	result := &ResultSet{Columns: cols}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		valuePtrs := make([]interface{}, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.SQLError("Failed to read row", query, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.SQLError("Failed to read rows", query, err)
	}
	return result, nil
}

// QueryRow scans the single row returned by query into dest
func (s *Service) QueryRow(ctx context.Context, query string, dest ...interface{}) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}
	if err := s.db.QueryRowContext(ctx, query).Scan(dest...); err != nil {
		return errors.SQLError("Failed to run query", query, err)
	}
	return nil
}

// StringRows renders every value with FormatValue
func (r *ResultSet) StringRows() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

// FormatValue renders a scanned value for reports. Dates print without a time part.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case sql.NullString:
		if !val.Valid {
			return "NULL"
		}
		return val.String
	default:
		return fmt.Sprint(val)
	}
}
