package reindex

import (
	"fmt"
	"io"
	"time"
)

// ProgressReporter prints reindex progress keyed to the checkpoint position:
// it is fed the positions that have been durably checkpointed, so every line
// it prints is also exactly what a resumed run would skip. Rate and the
// processed count exclude work a previous run already did.
//
// Not safe for concurrent use; the reindexer drives it from one goroutine.
type ProgressReporter struct {
	writer    io.Writer
	total     int
	every     int
	resumedAt int
	printedAt int
	started   time.Time
}

// NewProgressReporter creates a reporter for a run over total chunks that
// resumes at position resumedAt. A line is printed whenever at least every
// chunks have been checkpointed since the previous line.
func NewProgressReporter(writer io.Writer, total, resumedAt, every int) *ProgressReporter {
	if every <= 0 {
		every = DefaultBatchSize
	}
	if resumedAt < 0 {
		resumedAt = 0
	}

	return &ProgressReporter{
		writer:    writer,
		total:     total,
		every:     every,
		resumedAt: resumedAt,
		printedAt: resumedAt,
		started:   time.Now(),
	}
}

// Checkpointed records that the run is durable up to position.
func (p *ProgressReporter) Checkpointed(position int) {
	if position > p.total {
		position = p.total
	}
	if position-p.printedAt < p.every {
		return
	}

	p.print(position)
	p.printedAt = position
}

// Finish prints the final progress line. It returns the elapsed time and the
// number of chunks this run processed, with resumed work excluded.
func (p *ProgressReporter) Finish() (time.Duration, int) {
	p.print(p.total)
	fmt.Fprintln(p.writer)

	return time.Since(p.started), p.total - p.resumedAt
}

func (p *ProgressReporter) print(position int) {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(position) / float64(p.total) * 100.0
	}
	rate := float64(position-p.resumedAt) / time.Since(p.started).Seconds()

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f chunks/s",
		position, p.total, percentage, rate)
}
