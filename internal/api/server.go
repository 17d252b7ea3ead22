// Package api exposes the HTTP surface of the violation engine: live
// monitor status, the violation log, runtime configuration updates, and
// rendered comparison reports for stored validation runs.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/db"
	"github.com/fleetsense-data/behavior.report/internal/monitor"
	"github.com/fleetsense-data/behavior.report/internal/monitoring"
	"github.com/fleetsense-data/behavior.report/internal/version"
)

// Server routes HTTP requests to the monitor and store. The store may be nil
// when persistence is disabled; endpoints that need it fall back to the
// in-memory log or report 404.
type Server struct {
	mon   *monitor.Monitor
	store *db.DB
}

// NewServer builds a server around a live monitor and an optional store.
func NewServer(mon *monitor.Monitor, store *db.DB) *Server {
	return &Server{mon: mon, store: store}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/report/compare", s.handleCompareReport)
	mux.HandleFunc("/", s.handleHome)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("behavior.report violation engine\n"))
}

// statusResponse is the live monitor snapshot.
type statusResponse struct {
	Version             string        `json:"version"`
	State               monitor.State `json:"state"`
	Calibrated          bool          `json:"calibrated"`
	CalibrationProgress float64       `json:"calibration_progress"`
	DrivingAxis         string        `json:"driving_axis"`
	Orientation         string        `json:"orientation,omitempty"`
	ActiveViolation     bool          `json:"active_violation"`
	SessionViolations   int           `json:"session_violations"`
	TotalViolations     int           `json:"total_violations"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	engine := s.mon.Engine()
	resp := statusResponse{
		Version:             version.Version,
		State:               s.mon.State(),
		Calibrated:          engine.IsCalibrated(),
		CalibrationProgress: engine.CalibrationProgress(),
		DrivingAxis:         string(engine.DrivingAxis()),
		Orientation:         engine.Orientation().Description,
		ActiveViolation:     s.mon.ActiveViolation(),
		SessionViolations:   s.mon.SessionViolations(),
		TotalViolations:     s.mon.TotalViolations(),
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 10000 {
			limit = v
		}
	}

	var events []monitor.ViolationEvent
	if s.store != nil {
		stored, err := s.store.Violations(limit)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to retrieve events: %v", err))
			return
		}
		events = stored
	} else {
		events = s.mon.Events()
		if len(events) > limit {
			events = events[len(events)-limit:]
		}
	}
	s.writeJSON(w, events)
}

// handleConfig reports the active settings on GET and applies a partial
// tuning document on POST. Updates rebuild the filter chain.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, s.mon.Settings())
	case http.MethodPost:
		var tuning config.TuningConfig
		if err := json.NewDecoder(r.Body).Decode(&tuning); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid config JSON: %v", err))
			return
		}
		if err := tuning.Validate(); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		merged := mergeSettings(s.mon.Settings(), &tuning)
		s.mon.UpdateSettings(merged)
		monitoring.Logf("api: settings updated")
		s.writeJSON(w, merged)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// mergeSettings overlays the fields present in a partial tuning document
// onto the current settings.
func mergeSettings(current config.Settings, t *config.TuningConfig) config.Settings {
	if t.AccelerationThreshold != nil {
		current.AccelerationThreshold = *t.AccelerationThreshold
	}
	if t.BrakingThreshold != nil {
		current.BrakingThreshold = *t.BrakingThreshold
	}
	if t.AlertCooldownMs != nil {
		current.AlertCooldownMs = *t.AlertCooldownMs
	}
	if t.SamplingRateHz != nil {
		current.SamplingRateHz = *t.SamplingRateHz
	}
	if t.EnableSensorFusion != nil {
		current.EnableSensorFusion = *t.EnableSensorFusion
	}
	if t.EnableMultistageFiltering != nil {
		current.EnableMultistageFiltering = *t.EnableMultistageFiltering
	}
	if t.ProcessNoise != nil {
		current.ProcessNoise = *t.ProcessNoise
	}
	if t.MeasurementNoise != nil {
		current.MeasurementNoise = *t.MeasurementNoise
	}
	if t.CutoffFrequency != nil {
		current.CutoffFrequency = *t.CutoffFrequency
	}
	if t.MovingAverageWindow != nil {
		current.MovingAverageWindow = *t.MovingAverageWindow
	}
	return current
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "no store configured")
		return
	}
	runs, err := s.store.ValidationRuns(50)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, runs)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
