package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Start(total int)
	Update(name string, result Result)
	Finish()
}

// ProgressReporter handles progress feedback during a directory import
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	added     int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{writer: w}
}

// Start resets the reporter for total files
func (p *ProgressReporter) Start(total int) {
	p.total = total
	p.current = 0
	p.added = 0
	p.startTime = time.Now()
}

// Update advances the progress bar by one file
func (p *ProgressReporter) Update(name string, result Result) {
	p.current++
	p.added += result.Added
	if p.total < p.current {
		p.total = p.current
	}

	// Calculate progress percentage
	pct := float64(p.current) / float64(p.total) * 100

	// Draw progress bar (30 chars wide)
	barWidth := 30
	filled := int(float64(barWidth) * float64(p.current) / float64(p.total))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	status := fmt.Sprintf("+%d", result.Added)
	if result.Skipped {
		status = "already imported"
	}

	// Truncate display text to fit terminal
	displayText := name
	if len(displayText) > 40 {
		displayText = displayText[:37] + "..."
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) %s %s", bar, pct, p.current, p.total, displayText, status)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nCompleted: imported %d sessions from %d files in %s\n", p.added, p.current, elapsed.Round(time.Millisecond))
}
