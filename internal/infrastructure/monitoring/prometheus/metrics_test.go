package prometheus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_CoreInstrumentsRegistered(t *testing.T) {
	m, c := newTestAppMetrics(t)

	// Touch one instrument per group so they appear in the scrape.
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/ships", "200").Inc()
	m.RecalcRunsTotal.WithLabelValues("fleet", "success").Inc()
	m.AlertsEmittedTotal.WithLabelValues("certificate", "critical").Inc()
	m.KafkaMessagesConsumed.WithLabelValues("seacert.recalc.requested", "success").Inc()
	m.DBConnectionPoolSize.WithLabelValues("postgres").Set(10)
	m.CacheHitsTotal.WithLabelValues("fleet_summary").Inc()
	m.HealthCheckStatus.WithLabelValues("redis").Set(1)

	out := scrapeMetrics(t, c)
	for _, name := range []string{
		"seacert_test_http_requests_total",
		"seacert_test_recalc_runs_total",
		"seacert_test_alerts_emitted_total",
		"seacert_test_kafka_messages_consumed_total",
		"seacert_test_db_pool_size",
		"seacert_test_cache_hits_total",
		"seacert_test_health_check_status",
	} {
		assert.Contains(t, out, name)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "GET", "/api/v1/fleet/summary", 200, 30*time.Millisecond)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `status_code="200"`)
	assert.Contains(t, out, "seacert_test_http_request_duration_seconds_count")
}

func TestRecordRecalcRun(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordRecalcRun(m, "fleet", 2*time.Second, 40, 2, nil)
	RecordRecalcRun(m, "ship", 100*time.Millisecond, 1, 0, assert.AnError)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `scope="fleet",status="success"`)
	assert.Contains(t, out, `scope="ship",status="failure"`)
	assert.Contains(t, out, `status="ok"} 41`)
	assert.Contains(t, out, `status="failed"} 2`)
}

func TestRecordAlertScan(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordAlertScan(m, 500*time.Millisecond, nil)
	RecordAlertScan(m, time.Second, assert.AnError)
	RecordAlertEmitted(m, "survey_window", "overdue")

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `seacert_test_alert_scans_total{status="success"} 1`)
	assert.Contains(t, out, `seacert_test_alert_scans_total{status="failure"} 1`)
	assert.Contains(t, out, `kind="survey_window",severity="overdue"`)
}

func TestRecordKafka(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordKafkaProduce(m, "seacert.compliance.alert", nil)
	RecordKafkaConsume(m, "seacert.recalc.requested", 10*time.Millisecond, assert.AnError)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `status="success",topic="seacert.compliance.alert"`)
	assert.Contains(t, out, `status="failure",topic="seacert.recalc.requested"`)
}

func TestRecordDBQuery_ErrorCountsTowardErrorsTotal(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "select", 5*time.Millisecond, nil)
	RecordDBQuery(m, "postgres", "insert", 5*time.Millisecond, assert.AnError)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `component="postgres",error_type="query_error"} 1`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "fleet_summary", true)
	RecordCacheAccess(m, "fleet_summary", true)
	RecordCacheAccess(m, "fleet_summary", false)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `seacert_test_cache_hits_total{cache="fleet_summary"} 2`)
	assert.Contains(t, out, `seacert_test_cache_misses_total{cache="fleet_summary"} 1`)
}

func TestSetHealthStatus(t *testing.T) {
	m, c := newTestAppMetrics(t)

	SetHealthStatus(m, "minio", true)
	SetHealthStatus(m, "kafka", false)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `component="minio"} 1`)
	assert.Contains(t, out, `component="kafka"} 0`)
}

func TestConcurrentRecording(t *testing.T) {
	m, c := newTestAppMetrics(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordCacheAccess(m, "shared", true)
		}()
	}
	wg.Wait()

	assert.Contains(t, scrapeMetrics(t, c), `cache="shared"} 20`)
}

// Duplicate AppMetrics registration against the same collector must not
// panic; instruments are shared.
func TestNewAppMetrics_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	assert.NotPanics(t, func() {
		NewAppMetrics(c)
		NewAppMetrics(c)
	})
}
