package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"resume-ingest/internal/candidates"
)

// ErrBusy is returned when a batch is already running.
var ErrBusy = errors.New("a batch is already in progress")

// Summary is the result of processing an archive and storing its records.
type Summary struct {
	Report
	Inserted   int `json:"inserted"`
	Total      int `json:"total"`
	Duplicates int `json:"duplicates"`
}

// Pipeline runs archives through a Processor and stores the records.
// Only one archive is processed at a time.
type Pipeline struct {
	Processor  *Processor
	Candidates *candidates.Service

	running sync.Mutex
}

// Run processes the archive and inserts whatever records it produced, even
// when processing stopped early. The processing error, if any, is returned
// alongside the summary.
func (p *Pipeline) Run(ctx context.Context, r io.ReaderAt, size int64) (Summary, error) {
	if !p.running.TryLock() {
		return Summary{}, ErrBusy
	}
	defer p.running.Unlock()

	report, procErr := p.Processor.ProcessArchive(ctx, r, size)
	summary := Summary{Report: report}
	if errors.Is(procErr, ErrInvalidArchive) {
		return summary, procErr
	}

	if len(report.Records) > 0 {
		inserted, total, err := p.Candidates.Insert(ctx, report.Records)
		summary.Inserted = inserted
		summary.Total = total
		summary.Duplicates = total - inserted
		if err != nil {
			return summary, errors.Join(procErr, fmt.Errorf("store records: %w", err))
		}
	}
	return summary, procErr
}

// Store inserts recovered records, reporting the same counters as Run.
func (p *Pipeline) Store(ctx context.Context, records []candidates.Record) (inserted, total int, err error) {
	if !p.running.TryLock() {
		return 0, 0, ErrBusy
	}
	defer p.running.Unlock()
	return p.Candidates.Insert(ctx, records)
}
