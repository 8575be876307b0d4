package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursehub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Enrollment Metrics
	EnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_enrollments_total",
			Help: "Total number of enrollment operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Payment Metrics
	PaymentEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_payment_events_total",
			Help: "Total number of payment events processed by outcome",
		},
		[]string{"stage", "outcome"},
	)

	PaymentIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_payment_intents_total",
			Help: "Total number of payment intents requested",
		},
		[]string{"status"},
	)

	// Auth Metrics
	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_auth_events_total",
			Help: "Total number of authentication events",
		},
		[]string{"event", "outcome"},
	)

	// Upload Metrics
	MediaUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_media_uploads_total",
			Help: "Total number of course media uploads",
		},
		[]string{"kind", "status"},
	)

	MediaUploadSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursehub_media_upload_size_bytes",
			Help:    "Size of uploaded course media in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 12), // 64KB to 128MB
		},
		[]string{"kind"},
	)

	// Queue Metrics
	QueueMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_queue_messages_total",
			Help: "Total number of queue messages by action",
		},
		[]string{"queue", "action"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coursehub_queue_depth",
			Help: "Number of messages waiting in a queue",
		},
		[]string{"queue"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Scheduler Metrics
	ScheduledJobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_scheduled_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "status"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordEnrollment records an enrollment operation outcome
func RecordEnrollment(operation, outcome string) {
	EnrollmentsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordPaymentEvent records a payment event at the webhook or reconciler stage
func RecordPaymentEvent(stage, outcome string) {
	PaymentEventsTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordPaymentIntent records a payment intent request
func RecordPaymentIntent(status string) {
	PaymentIntentsTotal.WithLabelValues(status).Inc()
}

// RecordAuthEvent records a login, registration or password reset event
func RecordAuthEvent(event, outcome string) {
	AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordMediaUpload records a course media upload
func RecordMediaUpload(kind, status string, size int64) {
	MediaUploadsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" {
		MediaUploadSizeBytes.WithLabelValues(kind).Observe(float64(size))
	}
}

// RecordQueueMessage records a published, acked, requeued or dead-lettered message
func RecordQueueMessage(queue, action string) {
	QueueMessagesTotal.WithLabelValues(queue, action).Inc()
}

// SetQueueDepth records the current depth of a queue
func SetQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordScheduledJob records a scheduled job run
func RecordScheduledJob(job, status string) {
	ScheduledJobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
