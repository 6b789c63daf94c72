package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal atomic.Uint64
	documentsFailedTotal    atomic.Uint64
	rawFallbacksTotal       atomic.Uint64
	llmRequestsTotal        atomic.Uint64
	llmRetriesTotal         atomic.Uint64
	credentialsInvalidTotal atomic.Uint64
	recordsInsertedTotal    atomic.Uint64
	recordsDuplicateTotal   atomic.Uint64
	batchesCompletedTotal   atomic.Uint64
	batchesAbortedTotal     atomic.Uint64
	rateLimitedTotal        atomic.Uint64

	llmDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncDocumentsProcessed counts a document that produced an output.
func IncDocumentsProcessed() { documentsProcessedTotal.Add(1) }

// IncDocumentsFailed counts a document skipped because of an error.
func IncDocumentsFailed() { documentsFailedTotal.Add(1) }

// IncRawFallbacks counts model outputs that could not be parsed as records.
func IncRawFallbacks() { rawFallbacksTotal.Add(1) }

// IncLLMRequests counts completion attempts, retries included.
func IncLLMRequests() { llmRequestsTotal.Add(1) }

// IncLLMRetries counts credential rotations after a failed attempt.
func IncLLMRetries() { llmRetriesTotal.Add(1) }

// IncCredentialsInvalidated counts credentials rejected during completion.
func IncCredentialsInvalidated() { credentialsInvalidTotal.Add(1) }

// AddRecordsInserted adds to the inserted-records counter.
func AddRecordsInserted(n int) {
	if n > 0 {
		recordsInsertedTotal.Add(uint64(n))
	}
}

// AddRecordsDuplicate adds to the skipped-duplicate counter.
func AddRecordsDuplicate(n int) {
	if n > 0 {
		recordsDuplicateTotal.Add(uint64(n))
	}
}

// IncBatchesCompleted counts batches that ran to the end.
func IncBatchesCompleted() { batchesCompletedTotal.Add(1) }

// IncBatchesAborted counts batches stopped by credential exhaustion.
func IncBatchesAborted() { batchesAbortedTotal.Add(1) }

// IncRateLimited counts HTTP requests rejected by the rate limiter.
func IncRateLimited() { rateLimitedTotal.Add(1) }

// ObserveLLMDurationMs records one completion attempt in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_processed_total", "Documents that produced an output", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Documents skipped after an error", documentsFailedTotal.Load())
	writeCounter(&buf, "llm_raw_fallbacks_total", "Model outputs kept as raw text", rawFallbacksTotal.Load())
	writeCounter(&buf, "llm_requests_total", "Completion attempts", llmRequestsTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Credential rotations after a failed attempt", llmRetriesTotal.Load())
	writeCounter(&buf, "llm_credentials_invalidated_total", "Credentials rejected by the service", credentialsInvalidTotal.Load())
	writeCounter(&buf, "records_inserted_total", "Candidate records stored", recordsInsertedTotal.Load())
	writeCounter(&buf, "records_duplicate_total", "Candidate records skipped as duplicates", recordsDuplicateTotal.Load())
	writeCounter(&buf, "batches_completed_total", "Batches processed to the end", batchesCompletedTotal.Load())
	writeCounter(&buf, "batches_aborted_total", "Batches stopped by credential exhaustion", batchesAbortedTotal.Load())
	writeCounter(&buf, "http_rate_limited_total", "Requests rejected by the rate limiter", rateLimitedTotal.Load())
	writeHistogram(&buf, "llm_request_duration_ms", "Completion attempt duration in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	// Observe already counts a value in every bucket whose bound it fits under.
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
