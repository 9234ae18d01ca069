package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every instrument the compliance platform exports.
// Both binaries register the same set so dashboards can join on name.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Compliance engine
	RecalcRunsTotal      CounterVec
	RecalcDuration       HistogramVec
	RecalcShipsProcessed CounterVec
	RecalcRecordsUpdated CounterVec

	// Alert scanning
	AlertScansTotal     CounterVec
	AlertsEmittedTotal  CounterVec
	AlertScanDuration   HistogramVec
	ReportsUploadsTotal CounterVec

	// Messaging
	KafkaMessagesProduced CounterVec
	KafkaMessagesConsumed CounterVec
	KafkaConsumeDuration  HistogramVec

	// Infrastructure
	DBConnectionPoolSize   GaugeVec
	DBConnectionPoolActive GaugeVec
	DBQueryDuration        HistogramVec
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec

	// System health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRecalcDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
	DefaultDBDurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers the full instrument set against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Compliance engine
	m.RecalcRunsTotal = collector.RegisterCounter("recalc_runs_total", "Compliance recalculation runs", "scope", "status")
	m.RecalcDuration = collector.RegisterHistogram("recalc_duration_seconds", "Compliance recalculation duration", DefaultRecalcDurationBuckets, "scope")
	m.RecalcShipsProcessed = collector.RegisterCounter("recalc_ships_processed_total", "Ships processed during recalculation", "status")
	m.RecalcRecordsUpdated = collector.RegisterCounter("recalc_records_updated_total", "Certificate and equipment records updated during recalculation", "kind")

	// Alert scanning
	m.AlertScansTotal = collector.RegisterCounter("alert_scans_total", "Compliance alert scan runs", "status")
	m.AlertsEmittedTotal = collector.RegisterCounter("alerts_emitted_total", "Compliance alerts emitted", "kind", "severity")
	m.AlertScanDuration = collector.RegisterHistogram("alert_scan_duration_seconds", "Alert scan duration", DefaultRecalcDurationBuckets)
	m.ReportsUploadsTotal = collector.RegisterCounter("report_uploads_total", "Fleet report archive uploads", "format", "status")

	// Messaging
	m.KafkaMessagesProduced = collector.RegisterCounter("kafka_messages_produced_total", "Kafka messages produced", "topic", "status")
	m.KafkaMessagesConsumed = collector.RegisterCounter("kafka_messages_consumed_total", "Kafka messages consumed", "topic", "status")
	m.KafkaConsumeDuration = collector.RegisterHistogram("kafka_consume_duration_seconds", "Kafka message handling duration", DefaultHTTPDurationBuckets, "topic")

	// Infrastructure
	m.DBConnectionPoolSize = collector.RegisterGauge("db_pool_size", "Database connection pool size", "db")
	m.DBConnectionPoolActive = collector.RegisterGauge("db_pool_active", "Database active connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	// System health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Recording helpers
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRecalcRun tracks a full recalculation pass. Scope is "ship" or
// "fleet".
func RecordRecalcRun(m *AppMetrics, scope string, duration time.Duration, processed, failed int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.RecalcRunsTotal.WithLabelValues(scope, status).Inc()
	m.RecalcDuration.WithLabelValues(scope).Observe(duration.Seconds())
	m.RecalcShipsProcessed.WithLabelValues("ok").Add(float64(processed))
	if failed > 0 {
		m.RecalcShipsProcessed.WithLabelValues("failed").Add(float64(failed))
	}
}

func RecordAlertScan(m *AppMetrics, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.AlertScansTotal.WithLabelValues(status).Inc()
	m.AlertScanDuration.WithLabelValues().Observe(duration.Seconds())
}

func RecordAlertEmitted(m *AppMetrics, kind, severity string) {
	m.AlertsEmittedTotal.WithLabelValues(kind, severity).Inc()
}

func RecordKafkaProduce(m *AppMetrics, topic string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.KafkaMessagesProduced.WithLabelValues(topic, status).Inc()
}

func RecordKafkaConsume(m *AppMetrics, topic string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.KafkaMessagesConsumed.WithLabelValues(topic, status).Inc()
	m.KafkaConsumeDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func RecordDBQuery(m *AppMetrics, db, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		m.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func SetHealthStatus(m *AppMetrics, component string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
