package analysis

import (
	"context"
	stderrors "errors"

	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
	"github.com/Honar-Abdi/Order-to-Insight/internal/observability"
	"github.com/Honar-Abdi/Order-to-Insight/internal/warehouse"
)

// Warehouse is the read side of the store used by the analysis layer
type Warehouse interface {
	RequireTables(ctx context.Context, hint string, names ...string) error
	Query(ctx context.Context, query string, args ...interface{}) (*warehouse.ResultSet, error)
	QueryRow(ctx context.Context, query string, dest ...interface{}) error
	ReadFactOrders(ctx context.Context) ([]model.FactOrder, error)
}

// Section is the rendered outcome of one query. Err is set when the query failed.
type Section struct {
	Title   string
	SQL     string
	Columns []string
	Rows    [][]string
	Err     error
}

// ErrorText returns the engine message of a failed section
func (s Section) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return "ERROR: " + engineMessage(s.Err)
}

// Insights is everything the report renders
type Insights struct {
	Metrics  RevenueMetrics
	LeadTime LeadTimeStats
	Sections []Section
}

// Run executes the queries in order. A missing fct_orders is fatal; a failing query is recorded
// in its section and the battery continues.
func Run(ctx context.Context, wh Warehouse, queries []Query, logger *observability.Logger) (*Insights, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if err := wh.RequireTables(ctx, "transform", warehouse.FctOrders); err != nil {
		return nil, err
	}

	metrics, err := FetchRevenueMetrics(ctx, wh)
	if err != nil {
		return nil, err
	}
	leadTime, err := LeadTimeDistribution(ctx, wh)
	if err != nil {
		return nil, err
	}

	insights := &Insights{Metrics: metrics, LeadTime: leadTime}
	for _, q := range queries {
		section := Section{Title: q.Title, SQL: q.SQL}
		result, err := wh.Query(ctx, q.SQL)
		if err != nil {
			section.Err = err
			logger.WithError(err).WarnWithFields("insight query failed", map[string]interface{}{
				"query": q.Title,
			})
		} else {
			section.Columns = result.Columns
			section.Rows = result.StringRows()
			logger.DebugWithFields("insight query completed", map[string]interface{}{
				"query": q.Title,
				"rows":  len(section.Rows),
			})
		}
		insights.Sections = append(insights.Sections, section)
	}
	return insights, nil
}

// engineMessage returns the innermost error message, which is the engine's own text
func engineMessage(err error) string {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
