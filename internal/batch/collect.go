package batch

import (
	"context"
	"fmt"
	"io"

	"resume-ingest/internal/candidates"
	"resume-ingest/internal/normalize"
	"resume-ingest/internal/shared/storage/object"
	"resume-ingest/internal/shared/storage/object/local"
	"resume-ingest/internal/shared/telemetry"
)

// CollectReport lists what was recovered from stored outputs.
type CollectReport struct {
	Files   int                 `json:"files"`
	Skipped []string            `json:"skipped"`
	Records []candidates.Record `json:"-"`
}

// Collect reads every .json output in the store and recovers records,
// including replies that were stored raw but contain JSON. Outputs that
// still cannot be parsed are listed in Skipped.
func Collect(ctx context.Context, store object.Store) (CollectReport, error) {
	report := CollectReport{Skipped: []string{}, Records: []candidates.Record{}}

	keys, err := store.List(ctx, ".json")
	if err != nil {
		return report, fmt.Errorf("list outputs: %w", err)
	}
	for _, key := range keys {
		data, err := readAll(ctx, store, key)
		if err != nil {
			return report, err
		}
		report.Files++
		result := normalize.Recover(data)
		if result.IsRaw() {
			report.Skipped = append(report.Skipped, key)
			telemetry.Warn("collect.output.unparsed", map[string]any{"key": key})
			continue
		}
		report.Records = append(report.Records, result.Records...)
	}
	return report, nil
}

// CollectDir is Collect over a local output directory.
func CollectDir(ctx context.Context, dir string) (CollectReport, error) {
	return Collect(ctx, local.New(dir))
}

func readAll(ctx context.Context, store object.Store, key string) ([]byte, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read output %s: %w", key, err)
	}
	return data, nil
}
