package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"yashubustudio/healthpredictor/predictor"
)

type stubPredictor struct {
	result predictor.Result
	err    error
	calls  []string
}

func (s *stubPredictor) Predict(_ context.Context, raw string) (predictor.Result, error) {
	s.calls = append(s.calls, raw)
	return s.result, s.err
}

func newTestApp(t *testing.T, p Predictor, opts Options) *fiber.App {
	t.Helper()
	handler, err := NewHandler(p, opts)
	require.NoError(t, err)
	return NewApp(handler)
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postDescription(description string) *http.Request {
	form := url.Values{"description": {description}}
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestShowFormStyled(t *testing.T) {
	app := newTestApp(t, &stubPredictor{}, Options{})
	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "🩺 Health Condition Predictor")
	require.Contains(t, body, "💬 Describe your current symptoms or health issue:")
	require.Contains(t, body, "🔍 Predict Condition")
	require.Contains(t, body, `class="main-title"`)
	require.Contains(t, body, "Built with ❤️ using Go and Fiber")
	require.NotContains(t, body, "Predicted Condition</strong>")
}

func TestShowFormPlain(t *testing.T) {
	app := newTestApp(t, &stubPredictor{}, Options{Theme: predictor.ThemePlain})
	_, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, body, "<h1>🩺 Health Condition Predictor</h1>")
	require.NotContains(t, body, `class="main-title"`)
	require.NotContains(t, body, "Built with")
}

func TestPredictShowsLabel(t *testing.T) {
	stub := &stubPredictor{result: predictor.Result{Status: predictor.StatusPredicted, Code: 1, Label: "Diabetes, Type 2"}}
	app := newTestApp(t, stub, Options{})
	status, body := doRequest(t, app, postDescription("always thirsty"))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "🧠 <strong>Predicted Condition</strong>: <code>Diabetes, Type 2</code>")
	require.Contains(t, body, "always thirsty</textarea>")
	require.Equal(t, []string{"always thirsty"}, stub.calls)
}

func TestPredictShowsWarning(t *testing.T) {
	stub := &stubPredictor{result: predictor.Result{Status: predictor.StatusRejected, Warning: predictor.WarningEmptyInput}}
	app := newTestApp(t, stub, Options{})
	status, body := doRequest(t, app, postDescription("   "))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "⚠️ "+predictor.WarningEmptyInput)
	require.NotContains(t, body, "Predicted Condition</strong>")
}

func TestPredictNotesOtherLanguage(t *testing.T) {
	stub := &stubPredictor{result: predictor.Result{Status: predictor.StatusPredicted, Label: "Depression", Language: "fr"}}
	app := newTestApp(t, stub, Options{})
	_, body := doRequest(t, app, postDescription("je suis triste"))
	require.Contains(t, body, "<code>Depression</code>")
	require.Contains(t, body, "“fr”")
}

func TestPredictError(t *testing.T) {
	stub := &stubPredictor{err: errors.New("classifier exploded")}
	app := newTestApp(t, stub, Options{})
	status, body := doRequest(t, app, postDescription("sad"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Contains(t, body, "Prediction failed: classifier exploded")
}

func TestPredictGetRedirects(t *testing.T) {
	app := newTestApp(t, &stubPredictor{}, Options{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/predict", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := predictor.NewMetrics()
	metrics.Predictions.WithLabelValues("Depression").Inc()
	app := newTestApp(t, &stubPredictor{}, Options{Metrics: metrics.Handler()})

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"status":"ok"}`, body)

	status, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `predictor_predictions_total{label="Depression"} 1`)
}

func TestMetricsRouteOptional(t *testing.T) {
	app := newTestApp(t, &stubPredictor{}, Options{})
	status, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, status)
}

func TestNewHandlerRequiresPredictor(t *testing.T) {
	_, err := NewHandler(nil, Options{})
	require.Error(t, err)
}
