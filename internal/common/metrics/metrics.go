// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "churn_loader_rows_inserted_total",
			Help: "Total number of CSV rows inserted into the destination table",
		},
	)

	RowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "churn_loader_rows_skipped_total",
			Help: "Total number of CSV rows skipped because the primary key already existed",
		},
	)

	StepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_loader_step_failures_total",
			Help: "Total number of failed loader steps",
		},
		[]string{"step", "error_code"},
	)

	DownloadBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "churn_loader_download_bytes",
			Help: "Size in bytes of the last downloaded dataset",
		},
	)

	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "churn_loader_last_success_timestamp_seconds",
			Help: "Unix time of the last run whose row load completed",
		},
	)
)
