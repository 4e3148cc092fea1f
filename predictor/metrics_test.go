package predictor

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.recordPrediction("Depression", 3*time.Millisecond)
	m.recordPrediction("Depression", time.Millisecond)
	m.recordRejection(ReasonEmptyInput)
	m.recordError()

	require.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues("Depression")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues(ReasonEmptyInput)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PredictionErrors))
	require.Equal(t, 1, testutil.CollectAndCount(m.PredictionLatency))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.recordPrediction("Unknown", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `predictor_predictions_total{label="Unknown"} 1`)
	require.Contains(t, string(body), "predictor_prediction_duration_seconds_bucket")
	require.Contains(t, string(body), "go_goroutines")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.recordPrediction("Depression", time.Millisecond)
	m.recordRejection(ReasonEmptyNormalized)
	m.recordError()
	require.Nil(t, m.Registry())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(-1))

	_, err = NewLogger("loud")
	require.Error(t, err)
}
