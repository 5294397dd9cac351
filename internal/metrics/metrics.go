// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	etlDocumentsFetchedTotal  *prometheus.CounterVec
	etlDocumentBytesTotal     *prometheus.CounterVec
	etlRowsNormalizedTotal    *prometheus.CounterVec
	etlRelationsUploadedTotal *prometheus.CounterVec
	etlRunDurationSeconds     prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		etlDocumentsFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_documents_fetched_total",
				Help: "Total number of source documents downloaded, labeled by format.",
			},
			[]string{"format"},
		)

		etlDocumentBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_document_bytes_total",
				Help: "Total number of bytes downloaded, labeled by format.",
			},
			[]string{"format"},
		)

		etlRowsNormalizedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_rows_normalized_total",
				Help: "Total number of rows emitted by normalization, labeled by table.",
			},
			[]string{"table"},
		)

		etlRelationsUploadedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_relations_uploaded_total",
				Help: "Total number of relation loads, labeled by status.",
			},
			[]string{"status"},
		)

		etlRunDurationSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "etl_run_duration_seconds",
				Help: "Wall-clock duration of the last pipeline run.",
			},
		)
	})
}

// ObserveDocument records one downloaded document.
func ObserveDocument(format string, bytesFetched int) {
	etlDocumentsFetchedTotal.WithLabelValues(format).Inc()
	if bytesFetched > 0 {
		etlDocumentBytesTotal.WithLabelValues(format).Add(float64(bytesFetched))
	}
}

// ObserveRows records rows emitted for a normalized table.
func ObserveRows(table string, rows int) {
	etlRowsNormalizedTotal.WithLabelValues(table).Add(float64(rows))
}

// ObserveUpload records one relation load attempt's final status.
func ObserveUpload(status string) {
	etlRelationsUploadedTotal.WithLabelValues(status).Inc()
}

// ObserveRunDuration records the run's wall-clock duration.
func ObserveRunDuration(seconds float64) {
	etlRunDurationSeconds.Set(seconds)
}

// Push sends the default registry to a Pushgateway. Batch jobs exit right
// after the run, so scraping is not an option.
func Push(gatewayURL, jobName string) error {
	return push.New(gatewayURL, jobName).
		Gatherer(prometheus.DefaultGatherer).
		Push()
}
