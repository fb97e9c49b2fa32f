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
	workflowStartedTotal   atomic.Uint64
	workflowCompletedTotal atomic.Uint64
	workflowFailedTotal    atomic.Uint64
	workflowDegradedTotal  atomic.Uint64

	jobsReceivedTotal             atomic.Uint64
	jobsCompletedTotal            atomic.Uint64
	jobsFailedTotal               atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64

	workflowDuration = newHistogram([]float64{500, 1000, 2500, 5000, 10000, 20000, 40000, 60000, 120000})
	llmDuration      = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 20000, 40000, 60000})
)

// IncWorkflowStarted increments the started counter.
func IncWorkflowStarted() {
	workflowStartedTotal.Add(1)
}

// IncWorkflowCompleted increments the completed counter.
func IncWorkflowCompleted() {
	workflowCompletedTotal.Add(1)
}

// IncWorkflowFailed increments the failed counter.
func IncWorkflowFailed() {
	workflowFailedTotal.Add(1)
}

// IncWorkflowDegraded counts analyses that completed with a fallback result.
func IncWorkflowDegraded() {
	workflowDegradedTotal.Add(1)
}

// ObserveWorkflowDurationMs records a full workflow phase duration in milliseconds.
func ObserveWorkflowDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	workflowDuration.Observe(value)
}

// ObserveLLMDurationMs records a single model call duration in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// IncJobsReceived counts queue messages picked up by the worker.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsCompleted counts queue messages processed and deleted.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed counts queue messages whose processing failed.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDeletedUnrecoverable counts malformed messages dropped without processing.
func IncJobsDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Add(1)
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
	writeCounter(&buf, "workflow_started_total", "Total analysis workflows started", workflowStartedTotal.Load())
	writeCounter(&buf, "workflow_completed_total", "Total analysis workflows completed", workflowCompletedTotal.Load())
	writeCounter(&buf, "workflow_failed_total", "Total analysis workflows failed", workflowFailedTotal.Load())
	writeCounter(&buf, "workflow_degraded_total", "Total analysis workflows completed with fallback results", workflowDegradedTotal.Load())
	writeCounter(&buf, "workflow_jobs_received_total", "Total queue jobs received", jobsReceivedTotal.Load())
	writeCounter(&buf, "workflow_jobs_completed_total", "Total queue jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "workflow_jobs_failed_total", "Total queue jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "workflow_jobs_deleted_unrecoverable_total", "Total malformed queue jobs dropped", jobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "workflow_duration_ms", "Workflow phase duration in milliseconds", workflowDuration.Snapshot())
	writeHistogram(&buf, "llm_request_duration_ms", "Model call duration in milliseconds", llmDuration.Snapshot())
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
			break
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
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
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
