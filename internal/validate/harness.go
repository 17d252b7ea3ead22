// Package validate replays recorded sensor sessions through the live
// violation pipeline and computes classification metrics over the results.
//
// Replays are deterministic: each session gets a brand-new engine and
// monitor driven by a replay clock set to the recorded timestamps, so two
// runs of the same session under the same settings produce identical
// results (wall-clock processing time aside).
package validate

import (
	"time"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/monitor"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

// lowQualityThreshold flags samples whose quality score falls below it.
// Flagged samples still count as processed for rate purposes.
const lowQualityThreshold = 0.6

// QualityStats aggregates per-sample quality scores over a session.
type QualityStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`

	// LowQualityCount is the number of samples below the 0.6 flag line.
	LowQualityCount int `json:"low_quality_count"`
}

// SessionTestResult is the outcome of replaying one session under one
// settings configuration.
type SessionTestResult struct {
	SessionName  string               `json:"session_name"`
	BehaviorType dataset.BehaviorType `json:"behavior_type"`

	// Calibration outcome in recorded time.
	CalibrationCompleted bool  `json:"calibration_completed"`
	CalibrationTimeMs    int64 `json:"calibration_time_ms"`

	Violations        []monitor.ViolationEvent `json:"violations"`
	ViolationCount    int                      `json:"violation_count"`
	AccelerationCount int                      `json:"acceleration_count"`
	BrakingCount      int                      `json:"braking_count"`

	// ViolationRate is violations per minute of session duration.
	ViolationRate float64 `json:"violation_rate"`

	Quality          QualityStats `json:"quality"`
	SamplesProcessed int          `json:"samples_processed"`

	// ProcessingTime is host wall-clock time spent replaying, for perf
	// tracking only. It is excluded from determinism comparisons.
	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// RunSession replays one session through a fresh pipeline instance built
// from settings. No state leaks between sessions: the monitor, engine and
// filter are constructed here and discarded afterwards.
func RunSession(settings config.Settings, session *dataset.Session) *SessionTestResult {
	result := &SessionTestResult{
		SessionName:  session.Name,
		BehaviorType: session.BehaviorType,
	}
	if len(session.Samples) == 0 {
		return result
	}

	start := time.Now()
	firstTs := session.Samples[0].TimestampMs

	clk := timeutil.NewReplayClock(time.UnixMilli(firstTs))
	mon := monitor.New(settings, clk, nil)
	mon.Start()

	qualitySum := 0.0
	result.Quality.Min = 1
	wasCalibrated := mon.Engine().IsCalibrated()

	for _, s := range session.Samples {
		clk.SetUnixMs(s.TimestampMs)
		p, _ := mon.Ingest(s)

		if !wasCalibrated && mon.Engine().IsCalibrated() {
			wasCalibrated = true
			result.CalibrationCompleted = true
			result.CalibrationTimeMs = s.TimestampMs - firstTs
		}

		result.SamplesProcessed++
		qualitySum += p.Quality
		if p.Quality < result.Quality.Min {
			result.Quality.Min = p.Quality
		}
		if p.Quality > result.Quality.Max {
			result.Quality.Max = p.Quality
		}
		if p.Quality < lowQualityThreshold {
			result.Quality.LowQualityCount++
		}
	}

	if result.SamplesProcessed > 0 {
		result.Quality.Average = qualitySum / float64(result.SamplesProcessed)
	} else {
		result.Quality.Min = 0
	}

	// A monitor constructed from already-calibrated settings (fusion
	// disabled) counts as an immediate success.
	if mon.Engine().IsCalibrated() && !result.CalibrationCompleted {
		result.CalibrationCompleted = true
	}

	result.Violations = mon.Events()
	result.ViolationCount = len(result.Violations)
	for _, v := range result.Violations {
		switch v.Type {
		case monitor.ViolationAcceleration:
			result.AccelerationCount++
		case monitor.ViolationBraking:
			result.BrakingCount++
		}
	}

	if session.DurationMs > 0 {
		minutes := float64(session.DurationMs) / 60000.0
		result.ViolationRate = float64(result.ViolationCount) / minutes
	}

	result.ProcessingTime = time.Since(start)
	return result
}

// RunAll replays every session sequentially under the same settings, each
// with its own fresh pipeline.
func RunAll(settings config.Settings, sessions []*dataset.Session) []*SessionTestResult {
	results := make([]*SessionTestResult, 0, len(sessions))
	for _, s := range sessions {
		results = append(results, RunSession(settings, s))
	}
	return results
}
