package models

import "path/filepath"

// Config is the on-disk configuration (config.yaml) of the pipeline.
type Config struct {
	Paths     Paths     `yaml:"paths" mapstructure:"paths"`
	Warehouse Warehouse `yaml:"warehouse" mapstructure:"warehouse"`
	Generate  Generate  `yaml:"generate" mapstructure:"generate"`
	Ingestion Ingestion `yaml:"ingestion" mapstructure:"ingestion"`
	Report    Report    `yaml:"report" mapstructure:"report"`
	Logging   Logging   `yaml:"logging" mapstructure:"logging"`
}

type Paths struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir" validate:"required"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir" validate:"required"`
}

type Warehouse struct {
	Path            string `yaml:"path" mapstructure:"path" validate:"required"`
	InsertBatchSize int    `yaml:"insert_batch_size" mapstructure:"insert_batch_size" validate:"min=1,max=10000"`
}

// Generate controls the synthetic data generator.
type Generate struct {
	Profile string `yaml:"profile" mapstructure:"profile" validate:"oneof=clean messy"`
	Orders  int    `yaml:"orders" mapstructure:"orders" validate:"min=1"`
	Seed    int64  `yaml:"seed" mapstructure:"seed"`
}

// Ingestion controls raw loading and the data-quality gate.
type Ingestion struct {
	Mode        string `yaml:"mode" mapstructure:"mode" validate:"oneof=dev prod"`
	SampleLimit int    `yaml:"sample_limit" mapstructure:"sample_limit" validate:"min=0"`
}

type Report struct {
	Output       string `yaml:"output" mapstructure:"output" validate:"required"`
	Workbook     string `yaml:"workbook" mapstructure:"workbook"`
	MaxRows      int    `yaml:"max_rows" mapstructure:"max_rows" validate:"min=1"`
	TopCustomers int    `yaml:"top_customers" mapstructure:"top_customers" validate:"min=1"`
}

type Logging struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json"`
}

// OrdersFile returns the raw orders CSV path.
func (p Paths) OrdersFile() string {
	return filepath.Join(p.RawDir, "orders.csv")
}

// EventsFile returns the raw order events CSV path.
func (p Paths) EventsFile() string {
	return filepath.Join(p.RawDir, "order_events.csv")
}

// QualityReportFile returns the data-quality report CSV path.
func (p Paths) QualityReportFile() string {
	return filepath.Join(p.ProcessedDir, "data_quality_report.csv")
}

// FailedSamplesFile returns the failed sample rows CSV path.
func (p Paths) FailedSamplesFile() string {
	return filepath.Join(p.ProcessedDir, "failed_samples.csv")
}
