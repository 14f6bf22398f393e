package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

// ErrWizardCancelled is returned when the user aborts or declines to save
var ErrWizardCancelled = fmt.Errorf("configuration cancelled")

// Asker abstracts survey so the wizard can be driven from tests
type Asker interface {
	Ask(questions []*survey.Question, response interface{}) error
	AskOne(prompt survey.Prompt, response interface{}) error
}

type surveyAsker struct{}

func (surveyAsker) Ask(questions []*survey.Question, response interface{}) error {
	return survey.Ask(questions, response)
}

func (surveyAsker) AskOne(prompt survey.Prompt, response interface{}) error {
	return survey.AskOne(prompt, response)
}

// ConfigWizard provides an interactive configuration setup
type ConfigWizard struct {
	asker       Asker
	currentStep int
	totalSteps  int
}

// NewConfigWizard creates a wizard that prompts on the terminal
func NewConfigWizard() *ConfigWizard {
	return NewConfigWizardWithAsker(surveyAsker{})
}

// NewConfigWizardWithAsker creates a wizard backed by asker
func NewConfigWizardWithAsker(asker Asker) *ConfigWizard {
	return &ConfigWizard{
		asker:       asker,
		currentStep: 1,
		totalSteps:  5,
	}
}

type storageAnswers struct {
	RawDir        string `survey:"raw_dir"`
	ProcessedDir  string `survey:"processed_dir"`
	WarehousePath string `survey:"warehouse_path"`
}

type generatorAnswers struct {
	Profile string `survey:"profile"`
	Orders  string `survey:"orders"`
	Seed    string `survey:"seed"`
}

type ingestionAnswers struct {
	Mode        string `survey:"mode"`
	SampleLimit string `survey:"sample_limit"`
}

type reportAnswers struct {
	Output   string `survey:"output"`
	Workbook string `survey:"workbook"`
	LogLevel string `survey:"log_level"`
}

// Run walks through every step starting from defaults and returns the edited copy
func (w *ConfigWizard) Run(defaults models.Config) (*models.Config, error) {
	ShowHeader("Order-to-Insight - Configuration Setup")

	config := defaults
	steps := []func(*models.Config) error{
		w.configureStorageStep,
		w.configureGeneratorStep,
		w.configureIngestionStep,
		w.configureReportStep,
		w.reviewConfiguration,
	}
	for _, step := range steps {
		if err := step(&config); err != nil {
			if err == terminal.InterruptErr {
				return nil, ErrWizardCancelled
			}
			return nil, err
		}
	}
	return &config, nil
}

func (w *ConfigWizard) configureStorageStep(config *models.Config) error {
	w.showProgress("Storage")

	questions := []*survey.Question{
		{
			Name: "raw_dir",
			Prompt: &survey.Input{
				Message: "Raw data directory:",
				Default: config.Paths.RawDir,
				Help:    "Where orders.csv and order_events.csv live",
			},
			Validate: survey.Required,
		},
		{
			Name: "processed_dir",
			Prompt: &survey.Input{
				Message: "Processed data directory:",
				Default: config.Paths.ProcessedDir,
				Help:    "Where quality artifacts and reports are written",
			},
			Validate: survey.Required,
		},
		{
			Name: "warehouse_path",
			Prompt: &survey.Input{
				Message: "Warehouse file:",
				Default: config.Warehouse.Path,
				Help:    "DuckDB database file, rebuilt on every run",
			},
			Validate: survey.Required,
		},
	}

	var answers storageAnswers
	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	config.Paths.RawDir = answers.RawDir
	config.Paths.ProcessedDir = answers.ProcessedDir
	config.Warehouse.Path = answers.WarehousePath

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureGeneratorStep(config *models.Config) error {
	w.showProgress("Synthetic Data")

	questions := []*survey.Question{
		{
			Name: "profile",
			Prompt: &survey.Select{
				Message: "Data quality profile:",
				Options: []string{"clean", "messy"},
				Default: config.Generate.Profile,
				Help:    "messy injects duplicates, orphans, missing payments and bad amounts",
			},
		},
		{
			Name: "orders",
			Prompt: &survey.Input{
				Message: "Number of orders:",
				Default: strconv.Itoa(config.Generate.Orders),
			},
			Validate: positiveInt,
		},
		{
			Name: "seed",
			Prompt: &survey.Input{
				Message: "Random seed:",
				Default: strconv.FormatInt(config.Generate.Seed, 10),
			},
			Validate: integer,
		},
	}

	var answers generatorAnswers
	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	orders, err := strconv.Atoi(strings.TrimSpace(answers.Orders))
	if err != nil {
		return fmt.Errorf("invalid number of orders: %w", err)
	}
	seed, err := strconv.ParseInt(strings.TrimSpace(answers.Seed), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}

	config.Generate.Profile = answers.Profile
	config.Generate.Orders = orders
	config.Generate.Seed = seed

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureIngestionStep(config *models.Config) error {
	w.showProgress("Ingestion")

	questions := []*survey.Question{
		{
			Name: "mode",
			Prompt: &survey.Select{
				Message: "Mode:",
				Options: []string{"dev", "prod"},
				Default: config.Ingestion.Mode,
				Help:    "prod stops the run on critical data quality failures",
			},
		},
		{
			Name: "sample_limit",
			Prompt: &survey.Input{
				Message: "Failed samples kept per rule:",
				Default: strconv.Itoa(config.Ingestion.SampleLimit),
			},
			Validate: nonNegativeInt,
		},
	}

	var answers ingestionAnswers
	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	limit, err := strconv.Atoi(strings.TrimSpace(answers.SampleLimit))
	if err != nil {
		return fmt.Errorf("invalid sample limit: %w", err)
	}
	config.Ingestion.Mode = answers.Mode
	config.Ingestion.SampleLimit = limit

	w.currentStep++
	return nil
}

func (w *ConfigWizard) configureReportStep(config *models.Config) error {
	w.showProgress("Report")

	questions := []*survey.Question{
		{
			Name: "output",
			Prompt: &survey.Input{
				Message: "Text report path:",
				Default: config.Report.Output,
			},
			Validate: survey.Required,
		},
		{
			Name: "workbook",
			Prompt: &survey.Input{
				Message: "Excel workbook path (empty to skip):",
				Default: config.Report.Workbook,
			},
		},
		{
			Name: "log_level",
			Prompt: &survey.Select{
				Message: "Log level:",
				Options: []string{"debug", "info", "warn", "error"},
				Default: config.Logging.Level,
			},
		},
	}

	var answers reportAnswers
	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	config.Report.Output = answers.Output
	config.Report.Workbook = answers.Workbook
	config.Logging.Level = answers.LogLevel

	w.currentStep++
	return nil
}

func (w *ConfigWizard) reviewConfiguration(config *models.Config) error {
	w.showProgress("Review Configuration")

	fmt.Fprintln(Output, "\n"+ColorInfo("Configuration Summary:"))
	fmt.Fprintln(Output, strings.Repeat("─", 50))

	fmt.Fprintln(Output, ColorBold("\nStorage:"))
	ShowKeyValue("raw_dir", config.Paths.RawDir)
	ShowKeyValue("processed_dir", config.Paths.ProcessedDir)
	ShowKeyValue("warehouse", config.Warehouse.Path)

	fmt.Fprintln(Output, ColorBold("\nRun:"))
	ShowKeyValue("profile", config.Generate.Profile)
	ShowKeyValue("orders", strconv.Itoa(config.Generate.Orders))
	ShowKeyValue("seed", strconv.FormatInt(config.Generate.Seed, 10))
	ShowKeyValue("mode", config.Ingestion.Mode)

	fmt.Fprintln(Output, ColorBold("\nReport:"))
	ShowKeyValue("output", config.Report.Output)
	if config.Report.Workbook != "" {
		ShowKeyValue("workbook", config.Report.Workbook)
	}

	fmt.Fprintln(Output, strings.Repeat("─", 50))

	confirm := false
	prompt := &survey.Confirm{
		Message: "Save this configuration?",
		Default: true,
	}
	if err := w.asker.AskOne(prompt, &confirm); err != nil {
		return err
	}
	if !confirm {
		return ErrWizardCancelled
	}
	return nil
}

func (w *ConfigWizard) showProgress(step string) {
	fmt.Fprintf(Output, "\n%s [Step %d/%d] %s\n\n",
		ColorProgress("►"),
		w.currentStep,
		w.totalSteps,
		ColorBold(step),
	)
}

func integer(val interface{}) error {
	s, _ := val.(string)
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
		return fmt.Errorf("%q is not a whole number", s)
	}
	return nil
}

func positiveInt(val interface{}) error {
	s, _ := val.(string)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("%q must be a whole number of at least 1", s)
	}
	return nil
}

func nonNegativeInt(val interface{}) error {
	s, _ := val.(string)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("%q must be zero or a positive whole number", s)
	}
	return nil
}
