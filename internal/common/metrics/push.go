package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything in gatherer to a Prometheus pushgateway, grouped by
// job and run id. A batch job has no scrape window, so this is the only way
// its metrics leave the process.
func Push(gatewayURL, job, runID string, gatherer prometheus.Gatherer) error {
	if gatewayURL == "" {
		return nil
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	pusher := push.New(gatewayURL, job).Gatherer(gatherer)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
