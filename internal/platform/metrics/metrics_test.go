package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := New()
	m.RentGenerated.Add(3)
	m.JobRuns.WithLabelValues("rent_generation", "ok").Inc()

	assert.Equal(t, float64(3), testutil.ToFloat64(m.RentGenerated))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "propertyhub_rent_payments_generated_total 3")
	assert.Contains(t, string(body), `propertyhub_job_runs_total{job="rent_generation",result="ok"} 1`)
}

func TestNewIsIndependent(t *testing.T) {
	a, b := New(), New()
	a.TransactionsRecorded.Inc()
	assert.Equal(t, float64(0), testutil.ToFloat64(b.TransactionsRecorded))
}
