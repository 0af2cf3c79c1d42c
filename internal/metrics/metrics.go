package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitler_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subtitler_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Alignment Metrics
	AlignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitler_alignments_total",
			Help: "Total number of alignments by strategy used",
		},
		[]string{"strategy", "language"},
	)

	AlignmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subtitler_alignment_duration_seconds",
			Help:    "Time spent aligning a script to audio",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"strategy"},
	)

	AlignmentCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitler_alignment_cache_total",
			Help: "Alignment cache lookups by result",
		},
		[]string{"result"},
	)

	// Render Metrics
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitler_renders_total",
			Help: "Total number of subtitle burn-in renders",
		},
		[]string{"preset", "status"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subtitler_render_duration_seconds",
			Help:    "Render processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		},
		[]string{"preset"},
	)

	// Job Metrics
	JobsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subtitler_jobs_created_total",
			Help: "Total number of asynchronous render jobs created",
		},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitler_jobs_completed_total",
			Help: "Total number of finished render jobs",
		},
		[]string{"status"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subtitler_jobs_in_progress",
			Help: "Number of render jobs currently being processed",
		},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subtitler_queue_depth",
			Help: "Messages waiting in each render queue",
		},
		[]string{"queue"},
	)

	// Pipeline errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitler_errors_total",
			Help: "Total number of pipeline errors",
		},
		[]string{"operation", "class"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordAlignment records a finished alignment and the strategy that produced it
func RecordAlignment(strategy, language string, duration float64) {
	AlignmentsTotal.WithLabelValues(strategy, language).Inc()
	AlignmentDuration.WithLabelValues(strategy).Observe(duration)
}

// RecordCacheLookup records an alignment cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	AlignmentCacheTotal.WithLabelValues(result).Inc()
}

// RecordRender records a render attempt
func RecordRender(preset string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	RendersTotal.WithLabelValues(preset, status).Inc()
	if err == nil {
		RenderDuration.WithLabelValues(preset).Observe(duration)
	}
}

// RecordQueueDepth records the backlog of a queue
func RecordQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordJobCreated records a new render job
func RecordJobCreated() {
	JobsCreatedTotal.Inc()
}

// RecordJobStarted marks a job as in progress
func RecordJobStarted() {
	JobsInProgress.Inc()
}

// RecordJobCompleted records a finished job
func RecordJobCompleted(status string) {
	JobsInProgress.Dec()
	JobsCompletedTotal.WithLabelValues(status).Inc()
}

// RecordError records a pipeline error
func RecordError(operation, class string) {
	ErrorsTotal.WithLabelValues(operation, class).Inc()
}
