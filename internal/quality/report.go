package quality

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	apperrors "github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

var (
	ReportHeader  = []string{"rule_id", "rule_name", "table_name", "severity", "failed_rows", "total_rows", "failure_rate", "sample_keys"}
	SamplesHeader = []string{"rule_id", "table_name", "event_id", "order_id", "customer_id", "event_type", "event_timestamp", "order_created_at", "order_amount", "order_status"}
)

// Report is the outcome of a full rule run
type Report struct {
	Results []RuleResult
	Samples []FailedSample
}

// Run evaluates every rule against the raw rows. At most sampleLimit failing rows are kept per rule.
func Run(orders []RawOrder, events []RawEvent, sampleLimit int) *Report {
	report := &Report{}

	for _, r := range rules() {
		failed, total := r.eval(orders, events)

		report.Results = append(report.Results, RuleResult{
			RuleID:      r.id,
			RuleName:    r.name,
			TableName:   r.table,
			Severity:    r.severity,
			FailedRows:  len(failed),
			TotalRows:   total,
			FailureRate: failureRate(len(failed), total),
			SampleKeys:  sampleKeys(failed, func(i int) string { return r.keys(orders, events, i) }),
		})

		for n, i := range failed {
			if n >= sampleLimit {
				break
			}
			if r.table == OrdersTable {
				report.Samples = append(report.Samples, orderSample(r.id, orders[i]))
			} else {
				report.Samples = append(report.Samples, eventSample(r.id, events[i]))
			}
		}
	}

	return report
}

func sampleKeys(failed []int, key func(int) string) string {
	seen := make(map[string]bool)
	var keys []string
	for _, i := range failed {
		k := key(i)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
		if len(keys) == maxSampleKeys {
			break
		}
	}
	return strings.Join(keys, "; ")
}

// CriticalFailures returns the critical rules that had at least one failing row
func (r *Report) CriticalFailures() []RuleResult {
	var out []RuleResult
	for _, res := range r.Results {
		if res.Severity == SeverityCritical && res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Result returns the result of ruleID
func (r *Report) Result(ruleID string) (RuleResult, bool) {
	for _, res := range r.Results {
		if res.RuleID == ruleID {
			return res, true
		}
	}
	return RuleResult{}, false
}

// ReportRows returns the results as rows matching ReportHeader
func (r *Report) ReportRows() [][]interface{} {
	rows := make([][]interface{}, len(r.Results))
	for i, res := range r.Results {
		rows[i] = []interface{}{
			res.RuleID, res.RuleName, res.TableName, res.Severity,
			int64(res.FailedRows), int64(res.TotalRows), res.FailureRate, res.SampleKeys,
		}
	}
	return rows
}

// SampleRows returns the failed samples as rows matching SamplesHeader. Missing values become NULL.
func (r *Report) SampleRows() [][]interface{} {
	rows := make([][]interface{}, len(r.Samples))
	for i, s := range r.Samples {
		values := s.values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			if v != "" {
				row[j] = v
			}
		}
		rows[i] = row
	}
	return rows
}

func (s FailedSample) values() []string {
	return []string{
		s.RuleID, s.TableName, s.EventID, s.OrderID, s.CustomerID,
		s.EventType, s.EventTimestamp, s.OrderCreatedAt, s.OrderAmount, s.OrderStatus,
	}
}

// WriteReportCSV writes the rule results to path
func (r *Report) WriteReportCSV(path string) error {
	records := make([][]string, len(r.Results))
	for i, res := range r.Results {
		records[i] = []string{
			res.RuleID,
			res.RuleName,
			res.TableName,
			res.Severity,
			strconv.Itoa(res.FailedRows),
			strconv.Itoa(res.TotalRows),
			decimal.NewFromFloat(res.FailureRate).Round(6).String(),
			res.SampleKeys,
		}
	}
	return writeCSV(path, ReportHeader, records)
}

// WriteSamplesCSV writes the failed sample rows to path
func (r *Report) WriteSamplesCSV(path string) error {
	records := make([][]string, len(r.Samples))
	for i, s := range r.Samples {
		records[i] = s.values()
	}
	return writeCSV(path, SamplesHeader, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return apperrors.FileError("failed to encode CSV header", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		return apperrors.FileError("failed to encode CSV rows", path, err)
	}
	if err := common.WriteFileAtomic(path, buf.Bytes(), common.FilePermissionNormal); err != nil {
		return apperrors.FileError("failed to write quality artifact", path, err)
	}
	return nil
}
