package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCounters(t *testing.T) {
	IncDocumentsProcessed()
	AddRecordsInserted(2)
	AddRecordsDuplicate(0)
	ObserveLLMDurationMs(120)

	out := Render()
	for _, want := range []string{
		"# TYPE documents_processed_total counter",
		"records_inserted_total ",
		"llm_request_duration_ms_bucket{le=\"250\"}",
		"llm_request_duration_ms_count ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 2 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
}
