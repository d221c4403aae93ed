package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CountPrediction(OutcomeOK)
	m.CountPrediction(OutcomeOK)
	m.CountPrediction(OutcomeRelayError)
	m.ObserveRelay("/predict", "", 10*time.Millisecond)
	m.ObserveRelay("/predict", "timeout", time.Second)
	m.ObserveRequest(http.MethodPost, "/predict", "200", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues(OutcomeRelayError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayErrors.WithLabelValues("/predict", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodPost, "/predict", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RelayDuration, "gateway_relay_duration_seconds"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CountPrediction(OutcomeOK)
		m.ObserveRelay("/predict", "status", time.Second)
		m.ObserveRequest(http.MethodGet, "/healthz", "200", time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.CountPrediction(OutcomeValidationError)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gateway_predictions_total{outcome="validation_error"} 1`)
}
