package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of one process. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec   // pixeldust_http_requests_total{method,route,status}
	RequestDuration *prometheus.HistogramVec // pixeldust_http_request_duration_seconds{method,route}

	LoginsTotal  *prometheus.CounterVec // pixeldust_logins_total{result}
	UploadsTotal *prometheus.CounterVec // pixeldust_uploads_total{result}
	UploadBytes  prometheus.Counter
	ViewsTotal   prometheus.Counter

	CleanupRemoved prometheus.Counter
	CleanupFailed  prometheus.Counter
	JobsTotal      *prometheus.CounterVec // pixeldust_jobs_total{type,result}
}

func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pixeldust_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixeldust_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pixeldust_logins_total",
			Help: "Authentication attempts by result",
		}, []string{"result"}),

		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pixeldust_uploads_total",
			Help: "Upload attempts by result",
		}, []string{"result"}),

		UploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "pixeldust_upload_bytes_total",
			Help: "Bytes accepted by the upload pipeline",
		}),

		ViewsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "pixeldust_views_total",
			Help: "File retrievals counted as views",
		}),

		CleanupRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "pixeldust_cleanup_removed_total",
			Help: "Blobs removed by wipe and expiry",
		}),

		CleanupFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pixeldust_cleanup_failed_total",
			Help: "Blob deletions that failed during wipe and expiry",
		}),

		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pixeldust_jobs_total",
			Help: "Background jobs processed by type and result",
		}, []string{"type", "result"}),
	}
}

func (m *Metrics) RecordRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordLogin(ok bool) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) RecordUpload(ok bool, bytes int64) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(result(ok)).Inc()
	if ok {
		m.UploadBytes.Add(float64(bytes))
	}
}

func (m *Metrics) RecordView() {
	if m == nil {
		return
	}
	m.ViewsTotal.Inc()
}

func (m *Metrics) RecordCleanup(removed, failed int) {
	if m == nil {
		return
	}
	m.CleanupRemoved.Add(float64(removed))
	m.CleanupFailed.Add(float64(failed))
}

func (m *Metrics) RecordJob(jobType string, ok bool) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(jobType, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
