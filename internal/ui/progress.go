package ui

import (
	"fmt"
	"sync"
	"time"
)

// StageProgress prints one line per pipeline stage
type StageProgress struct {
	total     int
	current   int
	startTime time.Time
	mu        sync.Mutex

	successCount int
	failureCount int
	skippedCount int
}

// NewStageProgress creates a progress display for total stages
func NewStageProgress(total int) *StageProgress {
	return &StageProgress{
		total:     total,
		startTime: time.Now(),
	}
}

// StageStarted announces a stage
func (p *StageProgress) StageStarted(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	fmt.Fprintf(Output, "%s [%d/%d] %s\n", ColorProgress("►"), p.current, p.total, ColorBold(name))
}

// StageFinished reports a completed stage
func (p *StageProgress) StageFinished(name, detail string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	fmt.Fprintf(Output, "  %s %s: %s (%s)\n", ColorSuccess("✓"), name, detail, formatDuration(elapsed))
}

// StageFailed reports a failed stage
func (p *StageProgress) StageFailed(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	fmt.Fprintf(Output, "  %s %s failed\n", ColorError("✗"), name)
}

// StageSkipped reports a skipped stage
func (p *StageProgress) StageSkipped(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.skippedCount++
	fmt.Fprintf(Output, "%s [%d/%d] %s %s\n", ColorDim("-"), p.current, p.total, name, ColorDim("(skipped)"))
}

// Finish prints the totals
func (p *StageProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	if p.failureCount > 0 {
		fmt.Fprintf(Output, "\n%s Pipeline failed after %s\n", ColorError("✗"), formatDuration(elapsed))
		return
	}
	fmt.Fprintf(Output, "\n%s Pipeline completed in %s\n", ColorSuccess("✓"), formatDuration(elapsed))
	fmt.Fprintf(Output, "  %s %d stage(s) run, %d skipped\n", ColorSuccess("✓"), p.successCount, p.skippedCount)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
