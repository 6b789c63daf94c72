// Package batch drives resume archives through extraction and normalization
// and collects the resulting candidate records.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"resume-ingest/internal/candidates"
	"resume-ingest/internal/extract"
	"resume-ingest/internal/llm/failover"
	"resume-ingest/internal/normalize"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/storage/object"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

// DefaultMaxDocumentBytes caps a single PDF read from an archive.
const DefaultMaxDocumentBytes = 20 << 20 // 20MB

// ErrInvalidArchive is returned when the input is not a readable zip archive.
var ErrInvalidArchive = errors.New("invalid archive")

// ExtractFunc turns PDF bytes into a structured document.
type ExtractFunc func(ctx context.Context, data []byte) (extract.Document, error)

// Normalizer turns a document into candidate records.
type Normalizer interface {
	Normalize(ctx context.Context, doc extract.Document) (normalize.Result, error)
}

// Processor handles one archive at a time, one document at a time.
type Processor struct {
	Extract          ExtractFunc
	Normalizer       Normalizer
	Outputs          object.Store
	MaxDocumentBytes int64
}

// DocumentOutcome describes what happened to one archive entry.
type DocumentOutcome struct {
	Entry     string `json:"entry"`
	OutputKey string `json:"outputKey,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	Records   int    `json:"records"`
	Raw       bool   `json:"raw"`
	Error     string `json:"error,omitempty"`
}

// Report summarizes a processed archive.
type Report struct {
	Documents  []DocumentOutcome   `json:"documents"`
	Processed  int                 `json:"processed"`
	Failed     int                 `json:"failed"`
	RawOutputs int                 `json:"rawOutputs"`
	Aborted    bool                `json:"aborted"`
	Records    []candidates.Record `json:"-"`
}

// ProcessArchive walks the PDF entries of a zip archive in archive order.
// A document that fails is recorded and skipped. Credential exhaustion and
// context cancellation stop the batch; the partial report is returned with
// the error.
func (p *Processor) ProcessArchive(ctx context.Context, r io.ReaderAt, size int64) (Report, error) {
	report := Report{Documents: []DocumentOutcome{}, Records: []candidates.Record{}}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	start := time.Now()
	entries := pdfEntries(zr)
	telemetry.Info("batch.started", map[string]any{"documents": len(entries)})

	for _, f := range entries {
		if err := ctx.Err(); err != nil {
			return p.abort(report, err)
		}
		outcome, records, err := p.processEntry(ctx, f)
		if err != nil && isBatchFatal(ctx, err) {
			outcome.Error = err.Error()
			report.Documents = append(report.Documents, outcome)
			report.Failed++
			metrics.IncDocumentsFailed()
			return p.abort(report, err)
		}
		report.Documents = append(report.Documents, outcome)
		switch {
		case err != nil:
			report.Failed++
			metrics.IncDocumentsFailed()
			telemetry.Error("batch.document.failed", map[string]any{
				"entry": outcome.Entry,
				"error": err.Error(),
			})
		default:
			report.Processed++
			metrics.IncDocumentsProcessed()
			if outcome.Raw {
				report.RawOutputs++
				metrics.IncRawFallbacks()
				telemetry.Warn("batch.document.raw_output", map[string]any{"entry": outcome.Entry})
			}
			report.Records = append(report.Records, records...)
			telemetry.Info("batch.document.processed", map[string]any{
				"entry":   outcome.Entry,
				"records": outcome.Records,
				"output":  outcome.OutputKey,
			})
		}
	}

	metrics.IncBatchesCompleted()
	telemetry.Info("batch.completed", map[string]any{
		"processed":   report.Processed,
		"failed":      report.Failed,
		"raw_outputs": report.RawOutputs,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return report, nil
}

func (p *Processor) abort(report Report, err error) (Report, error) {
	report.Aborted = true
	metrics.IncBatchesAborted()
	telemetry.Error("batch.aborted", map[string]any{
		"processed": report.Processed,
		"failed":    report.Failed,
		"error":     err.Error(),
	})
	return report, err
}

func isBatchFatal(ctx context.Context, err error) bool {
	return failover.IsFatal(err) || ctx.Err() != nil
}

func pdfEntries(zr *zip.Reader) []*zip.File {
	out := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			out = append(out, f)
		}
	}
	return out
}

func (p *Processor) processEntry(ctx context.Context, f *zip.File) (DocumentOutcome, []candidates.Record, error) {
	outcome := DocumentOutcome{Entry: f.Name}

	key, err := util.CleanKey(f.Name)
	if err != nil {
		return outcome, nil, fmt.Errorf("entry name: %w", err)
	}
	outcome.OutputKey = util.ReplaceExt(key, ".json")

	data, err := p.readEntry(f)
	if err != nil {
		return outcome, nil, err
	}
	outcome.SHA256 = util.Digest(data)

	extractFn := p.Extract
	if extractFn == nil {
		extractFn = extract.Extract
	}
	doc, err := extractFn(ctx, data)
	if err != nil {
		return outcome, nil, err
	}

	result, err := p.Normalizer.Normalize(ctx, doc)
	if err != nil {
		return outcome, nil, err
	}
	outcome.Raw = result.IsRaw()
	outcome.Records = len(result.Records)

	if err := p.writeOutput(ctx, outcome.OutputKey, result); err != nil {
		return outcome, nil, err
	}
	return outcome, result.Records, nil
}

func (p *Processor) readEntry(f *zip.File) ([]byte, error) {
	limit := p.MaxDocumentBytes
	if limit <= 0 {
		limit = DefaultMaxDocumentBytes
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry exceeds %d bytes", limit)
	}
	return data, nil
}

func (p *Processor) writeOutput(ctx context.Context, key string, result normalize.Result) error {
	if p.Outputs == nil {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if _, err := p.Outputs.Put(ctx, key, "application/json", &buf); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
