package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// Vendor calls
	VendorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_requests_total",
		Help: "Outbound vendor API requests by endpoint and outcome",
	}, []string{"vendor", "endpoint", "outcome"})

	VendorProbeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_probe_attempts_total",
		Help: "Probe chain attempts by endpoint and probe name",
	}, []string{"endpoint", "probe"})

	VendorRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_rate_limited_total",
		Help: "Vendor responses signalling an operation-too-frequent condition",
	}, []string{"endpoint"})

	// Reports
	ReportBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_builds_total",
		Help: "Report builds by kind and outcome",
	}, []string{"kind", "outcome"})

	ReportBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "report_build_duration_seconds",
		Help:    "Report build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"kind"})

	SubFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_subfetch_failures_total",
		Help: "Report sub-fetches that degraded to an absent field",
	}, []string{"fetch"})

	SeriesValuesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "series_values_skipped_total",
		Help: "Malformed vendor series values dropped during normalization",
	}, []string{"kind"})

	ForecastCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_cache_lookups_total",
		Help: "Forecast cache lookups by result",
	}, []string{"result"})

	ReportFilesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_files_delivered_total",
		Help: "Rendered report artifacts uploaded, by format",
	}, []string{"format"})
)
