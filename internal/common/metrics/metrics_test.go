package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(RowsInserted)
	RowsInserted.Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(RowsInserted))

	StepFailures.WithLabelValues("load-rows", "INSERT_ERROR").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(StepFailures.WithLabelValues("load-rows", "INSERT_ERROR")), 1.0)
}

func TestPush_NoGatewayIsNoop(t *testing.T) {
	assert.NoError(t, Push("", "churn-loader", "run-1", nil))
}

func TestPush_SendsGroupedMetrics(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_rows_total", Help: "rows"})
	c.Add(2)
	reg.MustRegister(c)

	require.NoError(t, Push(srv.URL, "churn-loader", "run-1", reg))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/churn-loader/run_id/run-1", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(srv.URL, "churn-loader", "", prometheus.NewRegistry())
	assert.Error(t, err)
}
