// Package pipeline chains the generate, ingest, transform and insights stages over one
// warehouse connection.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Honar-Abdi/Order-to-Insight/internal/analysis"
	"github.com/Honar-Abdi/Order-to-Insight/internal/generate"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ingest"
	"github.com/Honar-Abdi/Order-to-Insight/internal/observability"
	"github.com/Honar-Abdi/Order-to-Insight/internal/report"
	"github.com/Honar-Abdi/Order-to-Insight/internal/transform"
	"github.com/Honar-Abdi/Order-to-Insight/internal/warehouse"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

// Stage names in execution order
const (
	StageGenerate  = "generate"
	StageIngest    = "ingest"
	StageTransform = "transform"
	StageInsights  = "insights"
)

// Store is the warehouse surface used across all stages
type Store interface {
	ingest.Warehouse
	transform.Warehouse
	analysis.Warehouse
	Close() error
}

// Opener connects to the warehouse
type Opener func(ctx context.Context, cfg *models.Config) (Store, error)

// Observer is told about stage boundaries, e.g. to draw progress
type Observer interface {
	StageStarted(name string)
	StageFinished(name, detail string, elapsed time.Duration)
	StageFailed(name string, err error)
	StageSkipped(name string)
}

// Options selects the stages to run
type Options struct {
	SkipGenerate  bool
	SkipIngest    bool
	SkipTransform bool
	SkipInsights  bool
}

// Result collects the outputs of every stage that ran
type Result struct {
	RunID      string
	Generated  *GenerateResult
	Ingest     *ingest.Result
	Transform  *transform.Result
	Insights   *analysis.Insights
	ReportPath string
	Duration   time.Duration
}

// GenerateResult describes the raw files written by the generate stage
type GenerateResult struct {
	Orders     int
	Events     int
	OrdersPath string
	EventsPath string
}

// Pipeline runs the stages for one configuration
type Pipeline struct {
	cfg      *models.Config
	logger   *observability.Logger
	open     Opener
	observer Observer
	now      func() time.Time
	newID    func() string
}

// New creates a pipeline backed by the DuckDB warehouse configured in cfg
func New(cfg *models.Config, logger *observability.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
		open:   OpenWarehouse,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// WithOpener replaces the warehouse opener
func (p *Pipeline) WithOpener(open Opener) *Pipeline {
	p.open = open
	return p
}

// WithObserver attaches a stage observer
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// OpenWarehouse connects to the DuckDB file named in cfg
func OpenWarehouse(ctx context.Context, cfg *models.Config) (Store, error) {
	svc := warehouse.NewService(warehouse.Config{
		Path:            cfg.Warehouse.Path,
		InsertBatchSize: cfg.Warehouse.InsertBatchSize,
	})
	if err := svc.Connect(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// Run executes the selected stages in order. The first failing stage aborts the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := p.now()
	result := &Result{RunID: p.newID()}
	logger := p.logger.WithField("run_id", result.RunID)

	logger.InfoWithFields("pipeline started", map[string]interface{}{
		"profile": p.cfg.Generate.Profile,
		"orders":  p.cfg.Generate.Orders,
		"seed":    p.cfg.Generate.Seed,
		"mode":    p.cfg.Ingestion.Mode,
	})

	if err := p.stage(StageGenerate, opts.SkipGenerate, func() (string, error) {
		gen, err := Generate(p.cfg, p.now())
		if err != nil {
			return "", err
		}
		result.Generated = gen
		return fmt.Sprintf("%d orders, %d events", gen.Orders, gen.Events), nil
	}); err != nil {
		return result, err
	}

	if opts.SkipIngest && opts.SkipTransform && opts.SkipInsights {
		result.Duration = p.now().Sub(start)
		return result, nil
	}

	store, err := p.open(ctx, p.cfg)
	if err != nil {
		return result, err
	}
	defer store.Close()

	if err := p.stage(StageIngest, opts.SkipIngest, func() (string, error) {
		res, err := Ingest(ctx, store, p.cfg, logger)
		result.Ingest = res
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d orders, %d events, %d critical rule(s) failed",
			res.Orders, res.Events, len(res.Quality.CriticalFailures())), nil
	}); err != nil {
		return result, err
	}

	if err := p.stage(StageTransform, opts.SkipTransform, func() (string, error) {
		res, err := transform.NewRunner(store, logger).Run(ctx)
		if err != nil {
			return "", err
		}
		result.Transform = res
		return fmt.Sprintf("%d steps", len(res.Steps)), nil
	}); err != nil {
		return result, err
	}

	if err := p.stage(StageInsights, opts.SkipInsights, func() (string, error) {
		rc := report.RunContext{
			RunID:       result.RunID,
			GeneratedAt: p.now(),
			Profile:     p.cfg.Generate.Profile,
			Orders:      p.cfg.Generate.Orders,
			Seed:        p.cfg.Generate.Seed,
			Mode:        p.cfg.Ingestion.Mode,
		}
		insights, err := Insights(ctx, store, p.cfg, rc, logger)
		if err != nil {
			return "", err
		}
		result.Insights = insights
		result.ReportPath = p.cfg.Report.Output
		return fmt.Sprintf("%d queries -> %s", len(insights.Sections), p.cfg.Report.Output), nil
	}); err != nil {
		return result, err
	}

	result.Duration = p.now().Sub(start)
	logger.InfoWithFields("pipeline completed", map[string]interface{}{
		"duration_ms": result.Duration.Milliseconds(),
	})
	return result, nil
}

func (p *Pipeline) stage(name string, skip bool, fn func() (string, error)) error {
	if skip {
		p.logger.Debugf("skipping stage %s", name)
		if p.observer != nil {
			p.observer.StageSkipped(name)
		}
		return nil
	}

	if p.observer != nil {
		p.observer.StageStarted(name)
	}
	start := p.now()
	detail, err := fn()
	if err != nil {
		if p.observer != nil {
			p.observer.StageFailed(name, err)
		}
		return err
	}
	if p.observer != nil {
		p.observer.StageFinished(name, detail, p.now().Sub(start))
	}
	return nil
}

// Generate writes synthetic raw files into cfg.Paths.RawDir. The data is anchored sixty days
// before now.
func Generate(cfg *models.Config, now time.Time) (*GenerateResult, error) {
	profile, err := generate.LookupProfile(cfg.Generate.Profile)
	if err != nil {
		return nil, err
	}

	opts := generate.Options{
		Orders:  cfg.Generate.Orders,
		Seed:    cfg.Generate.Seed,
		Profile: profile,
		Anchor:  generate.DefaultAnchor(now),
	}
	orders := generate.Orders(opts)
	events := generate.Events(orders, opts)

	ordersPath, eventsPath, err := generate.WriteCSV(cfg.Paths.RawDir, orders, events)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{
		Orders:     len(orders),
		Events:     len(events),
		OrdersPath: ordersPath,
		EventsPath: eventsPath,
	}, nil
}

// Ingest loads the raw files named by cfg
func Ingest(ctx context.Context, wh ingest.Warehouse, cfg *models.Config, logger *observability.Logger) (*ingest.Result, error) {
	return ingest.Run(ctx, wh, ingest.Options{
		OrdersFile:        cfg.Paths.OrdersFile(),
		EventsFile:        cfg.Paths.EventsFile(),
		QualityReportFile: cfg.Paths.QualityReportFile(),
		FailedSamplesFile: cfg.Paths.FailedSamplesFile(),
		Mode:              ingest.Mode(cfg.Ingestion.Mode),
		SampleLimit:       cfg.Ingestion.SampleLimit,
	}, logger)
}

// Insights runs the query battery and writes the text report, plus the workbook when configured
func Insights(ctx context.Context, wh analysis.Warehouse, cfg *models.Config, rc report.RunContext, logger *observability.Logger) (*analysis.Insights, error) {
	insights, err := analysis.Run(ctx, wh, analysis.DefaultQueries(cfg.Report.TopCustomers), logger)
	if err != nil {
		return nil, err
	}
	if err := report.WriteText(cfg.Report.Output, rc, insights, cfg.Report.MaxRows); err != nil {
		return nil, err
	}
	if cfg.Report.Workbook != "" {
		if err := report.WriteWorkbook(cfg.Report.Workbook, rc, insights); err != nil {
			return nil, err
		}
	}
	return insights, nil
}
