package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/monitor"
)

func testSettings() config.Settings {
	return config.Settings{
		AccelerationThreshold: 6.5,
		BrakingThreshold:      -6.5,
		AlertCooldownMs:       5000,
		SamplingRateHz:        10,
		// Fusion off: the monitor is immediately calibrated, which keeps
		// handler tests independent of the calibration pipeline.
		EnableSensorFusion:        false,
		EnableMultistageFiltering: false,
		ProcessNoise:              0.01,
		MeasurementNoise:          0.5,
		CutoffFrequency:           2.0,
		MovingAverageWindow:       5,
	}
}

func newTestServer(t *testing.T) (*Server, *monitor.Monitor) {
	t.Helper()
	mon := monitor.New(testSettings(), nil, nil)
	mon.Start()
	require.Equal(t, monitor.StateCalibrated, mon.State())
	return NewServer(mon, nil), mon
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "calibrated", resp["state"])
	assert.Equal(t, true, resp["calibrated"])
	assert.Equal(t, float64(1), resp["calibration_progress"])
	assert.Equal(t, "dev", resp["version"])
	assert.Equal(t, float64(0), resp["session_violations"])
}

func TestStatusRejectsPost(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEventsEndpointEmpty(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String(), "no events yet")
}

func TestConfigGet(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got config.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, testSettings(), got)
}

func TestConfigPartialUpdate(t *testing.T) {
	t.Parallel()

	srv, mon := newTestServer(t)
	body := strings.NewReader(`{"acceleration_threshold": 8.0, "alert_cooldown_ms": 2500}`)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", body))

	require.Equal(t, http.StatusOK, w.Code)

	got := mon.Settings()
	assert.InDelta(t, 8.0, got.AccelerationThreshold, 1e-9)
	assert.Equal(t, int64(2500), got.AlertCooldownMs)
	// Untouched fields survive the merge.
	assert.InDelta(t, -6.5, got.BrakingThreshold, 1e-9)
	assert.Equal(t, 5, got.MovingAverageWindow)
}

func TestConfigRejectsInvalidUpdate(t *testing.T) {
	t.Parallel()

	srv, mon := newTestServer(t)
	before := mon.Settings()

	t.Run("bad json", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid value", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(`{"braking_threshold": 3}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp["error"], "braking_threshold")
	})

	assert.Equal(t, before, mon.Settings(), "rejected updates must not change settings")
}

func TestRunsWithoutStore(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompareReportWithoutStore(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/report/compare?run=abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHome(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "behavior.report")
}
