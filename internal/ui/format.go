package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/olekukonko/tablewriter"
)

var (
	// Output receives everything the ui package prints
	Output io.Writer = os.Stdout

	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color functions
	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	padding := (width - len(title) - 2) / 2
	if padding < 0 {
		padding = 0
	}
	right := width - 2 - padding - len(title)
	if right < 0 {
		right = 0
	}

	fmt.Fprintln(Output, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(Output, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", right),
	)
	fmt.Fprintln(Output, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays a formatted error message
func ShowError(err error) {
	fmt.Fprintf(Output, "\n%s\n", ColorError("ERROR:"))

	message := err.Error()
	for i, line := range strings.Split(message, "\n") {
		if i == 0 {
			fmt.Fprintf(Output, "  %s\n", line)
		} else {
			fmt.Fprintf(Output, "  %s\n", ColorDim(line))
		}
	}

	if suggestion := getSuggestion(message); suggestion != "" {
		fmt.Fprintf(Output, "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(Output, "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(Output, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(Output, "%s %s\n", ColorInfo("INFO:"), message)
}

// ShowKeyValue prints an indented "key: value" line
func ShowKeyValue(key, value string) {
	fmt.Fprintf(Output, "  %s %s\n", ColorDim(key+":"), value)
}

// Table collects rows and renders them aligned
type Table struct {
	header []string
	rows   [][]string
}

// NewTable creates a new table
func NewTable() *Table {
	return &Table{}
}

// AddHeader sets the header row
func (t *Table) AddHeader(columns ...string) {
	t.header = columns
}

// AddRow adds a data row to the table
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Render displays the table
func (t *Table) Render() {
	table := tablewriter.NewWriter(Output)
	table.SetHeader(t.header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(t.rows)
	table.Render()
}

// FormatCount colors a problem count: green when zero, yellow otherwise
func FormatCount(n int) string {
	if n == 0 {
		return ColorSuccess("0")
	}
	return ColorWarning(fmt.Sprintf("%d", n))
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "could not set lock"), strings.Contains(lower, "conflicting lock"):
		return "Another process holds the warehouse file; close it and retry"
	case strings.Contains(lower, "could not convert"), strings.Contains(lower, "conversion error"):
		return "A raw value failed its staging cast; check the data quality report"
	case strings.Contains(lower, "does not exist"), strings.Contains(lower, "missing"):
		return "Run the pipeline stages in order: generate, ingest, transform, insights"
	case strings.Contains(lower, "permission denied"):
		return "Check write access to the data directories"
	default:
		return ""
	}
}
