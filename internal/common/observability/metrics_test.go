package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStep_ExposedOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("churn-loader-test", reg)
	require.NoError(t, err)
	defer obs.Shutdown()

	obs.RecordStep(context.Background(), "load-rows", "ok", 120*time.Millisecond)
	obs.RecordStep(context.Background(), "fetch-dataset", "failed", 5*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "churn_loader_steps_total")
	assert.Contains(t, names, "churn_loader_step_duration_milliseconds")
	for _, name := range names {
		assert.False(t, strings.Contains(name, "."), "metric name %q is not a legacy Prometheus name", name)
	}
}

func TestRecordStep_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordStep(context.Background(), "x", "ok", time.Millisecond)
		obs.Shutdown()
	})
}
