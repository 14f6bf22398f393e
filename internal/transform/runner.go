// Package transform rebuilds the staging, intermediate and marts layers of the warehouse
// from the raw tables, one named step at a time.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
	"github.com/Honar-Abdi/Order-to-Insight/internal/observability"
	"github.com/Honar-Abdi/Order-to-Insight/internal/warehouse"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

// Layer is the modeling layer a step belongs to
type Layer string

const (
	LayerStaging      Layer = "staging"
	LayerIntermediate Layer = "intermediate"
	LayerMarts        Layer = "marts"
)

// Warehouse is what the runner needs from the store
type Warehouse interface {
	RequireTables(ctx context.Context, hint string, names ...string) error
	ExecuteSQL(ctx context.Context, sqlText string) error
	ReadStagedOrders(ctx context.Context) ([]model.Order, error)
	ReadStagedEvents(ctx context.Context) ([]model.OrderEvent, error)
	WriteEventSummary(ctx context.Context, rows []model.OrderEventSummary) error
	WriteFactOrders(ctx context.Context, rows []model.FactOrder) error
	WriteDailyRevenue(ctx context.Context, rows []model.DailyRevenue) error
}

// Step is one named unit of the rebuild
type Step struct {
	Layer Layer
	Table string
	run   func(ctx context.Context, st *state) (int, error)
}

// Name returns the step label used in logs and errors, e.g. "marts fct_orders"
func (s Step) Name() string {
	return fmt.Sprintf("%s %s", s.Layer, s.Table)
}

// StepResult records what a step produced
type StepResult struct {
	Name     string
	Rows     int
	Duration time.Duration
}

// Result summarizes a successful run
type Result struct {
	Steps    []StepResult
	Duration time.Duration
}

// state carries the typed rows between steps of one run
type state struct {
	orders    []model.Order
	events    []model.OrderEvent
	summaries []model.OrderEventSummary
	facts     []model.FactOrder
}

// Runner executes the fixed step list
type Runner struct {
	wh     Warehouse
	logger *observability.Logger
	now    func() time.Time
}

// NewRunner creates a runner over wh. A nil logger logs nothing.
func NewRunner(wh Warehouse, logger *observability.Logger) *Runner {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Runner{wh: wh, logger: logger, now: time.Now}
}

// Steps returns the steps in execution order
func (r *Runner) Steps() []Step {
	return []Step{
		{Layer: LayerStaging, Table: warehouse.StgOrders, run: r.stageOrders},
		{Layer: LayerStaging, Table: warehouse.StgOrderEvents, run: r.stageEvents},
		{Layer: LayerIntermediate, Table: warehouse.IntOrderEventSummary, run: r.buildEventSummary},
		{Layer: LayerMarts, Table: warehouse.FctOrders, run: r.buildFactOrders},
		{Layer: LayerMarts, Table: warehouse.FctDailyRevenue, run: r.buildDailyRevenue},
	}
}

// Run rebuilds every derived table. The first failing step aborts the run; tables built by
// earlier steps keep their new contents, the failing table keeps its previous contents.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.wh.RequireTables(ctx, "ingest", warehouse.RawOrders, warehouse.RawOrderEvents); err != nil {
		return nil, err
	}

	start := r.now()
	st := &state{}
	result := &Result{}

	for _, step := range r.Steps() {
		stepStart := r.now()
		rows, err := step.run(ctx, st)
		if err != nil {
			r.logger.WithError(err).ErrorWithFields("transformation step failed", map[string]interface{}{
				"step": step.Name(),
			})
			return nil, errors.Wrap(err, errors.ErrCodeTransformStep,
				fmt.Sprintf("Transformations failed at step '%s'", step.Name())).
				WithContext("step", step.Name())
		}

		sr := StepResult{Name: step.Name(), Rows: rows, Duration: r.now().Sub(stepStart)}
		result.Steps = append(result.Steps, sr)
		r.logger.InfoWithFields("transformation step completed", map[string]interface{}{
			"step":        sr.Name,
			"rows":        sr.Rows,
			"duration_ms": sr.Duration.Milliseconds(),
		})
	}

	result.Duration = r.now().Sub(start)
	return result, nil
}

func (r *Runner) stageOrders(ctx context.Context, st *state) (int, error) {
	if err := r.wh.ExecuteSQL(ctx, stgOrdersSQL); err != nil {
		return 0, err
	}
	orders, err := r.wh.ReadStagedOrders(ctx)
	if err != nil {
		return 0, err
	}
	st.orders = orders
	return len(orders), nil
}

func (r *Runner) stageEvents(ctx context.Context, st *state) (int, error) {
	if err := r.wh.ExecuteSQL(ctx, stgOrderEventsSQL); err != nil {
		return 0, err
	}
	events, err := r.wh.ReadStagedEvents(ctx)
	if err != nil {
		return 0, err
	}
	st.events = events
	return len(events), nil
}

func (r *Runner) buildEventSummary(ctx context.Context, st *state) (int, error) {
	st.summaries = model.SummarizeEvents(st.events)
	return len(st.summaries), r.wh.WriteEventSummary(ctx, st.summaries)
}

func (r *Runner) buildFactOrders(ctx context.Context, st *state) (int, error) {
	st.facts = model.AssembleFactOrders(st.orders, st.summaries)
	return len(st.facts), r.wh.WriteFactOrders(ctx, st.facts)
}

func (r *Runner) buildDailyRevenue(ctx context.Context, st *state) (int, error) {
	daily := model.AggregateDailyRevenue(st.facts)
	return len(daily), r.wh.WriteDailyRevenue(ctx, daily)
}
