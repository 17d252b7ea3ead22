package validate

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/monitoring"
)

// Configuration is a named settings variant under test.
type Configuration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Settings    config.Settings `json:"settings"`
}

// DefaultConfigurations returns the standard comparison slate derived from a
// base settings value. The first entry is always the baseline the others are
// scored against.
func DefaultConfigurations(base config.Settings) []Configuration {
	baseline := base
	baseline.EnableSensorFusion = false
	baseline.EnableMultistageFiltering = false

	improved := base
	improved.EnableSensorFusion = true
	improved.EnableMultistageFiltering = true

	conservative := improved
	conservative.AccelerationThreshold = base.AccelerationThreshold * 1.25
	conservative.BrakingThreshold = base.BrakingThreshold * 1.25

	sensitive := improved
	sensitive.AccelerationThreshold = base.AccelerationThreshold * 0.75
	sensitive.BrakingThreshold = base.BrakingThreshold * 0.75

	return []Configuration{
		{Name: "baseline", Description: "magnitude-only estimation, no filtering", Settings: baseline},
		{Name: "improved", Description: "sensor fusion plus multistage filtering", Settings: improved},
		{Name: "conservative", Description: "fusion with thresholds raised 25%", Settings: conservative},
		{Name: "sensitive", Description: "fusion with thresholds lowered 25%", Settings: sensitive},
	}
}

// BehaviorSummary aggregates results for one behaviour label under one
// configuration.
type BehaviorSummary struct {
	Sessions         int     `json:"sessions"`
	TotalViolations  int     `json:"total_violations"`
	AvgViolationRate float64 `json:"avg_violation_rate"`
	AvgQuality       float64 `json:"avg_quality"`
}

// ComparisonReport is the per-configuration outcome handed to external
// report formatters.
type ComparisonReport struct {
	ConfigurationName string              `json:"configuration_name"`
	Description       string              `json:"description"`
	Metrics           ValidationMetrics   `json:"metrics"`
	SafeSessions      BehaviorSummary     `json:"safe_sessions"`
	RiskySessions     BehaviorSummary     `json:"risky_sessions"`
	Improvements      Improvements        `json:"improvements"`
	SessionResults    []*SessionTestResult `json:"session_results,omitempty"`
}

// Coordinator runs a fixed list of configurations over a fixed dataset, in
// sequence, and builds comparison reports against the first configuration.
// Each configuration gets fresh pipeline instances per session, so runs are
// side-effect-free between configurations and comparisons stay valid.
type Coordinator struct {
	RunID          string
	Configurations []Configuration
	Sessions       []*dataset.Session

	// KeepSessionResults embeds per-session results in each report, for
	// JSON export. Off by default to keep reports small.
	KeepSessionResults bool
}

// NewCoordinator builds a coordinator with a fresh run ID.
func NewCoordinator(configs []Configuration, sessions []*dataset.Session) *Coordinator {
	return &Coordinator{
		RunID:          uuid.New().String(),
		Configurations: configs,
		Sessions:       sessions,
	}
}

// Run executes every configuration over every session and returns one
// report per configuration, in configuration order.
func (c *Coordinator) Run() []ComparisonReport {
	reports := make([]ComparisonReport, 0, len(c.Configurations))
	var baseline ValidationMetrics

	for i, cfg := range c.Configurations {
		start := time.Now()
		results := RunAll(cfg.Settings, c.Sessions)
		metrics := CalculateMetrics(results)
		monitoring.Logf("validate: configuration %q over %d sessions in %s (accuracy %.2f)",
			cfg.Name, len(c.Sessions), time.Since(start).Round(time.Millisecond), metrics.Accuracy)

		if i == 0 {
			baseline = metrics
		}

		report := ComparisonReport{
			ConfigurationName: cfg.Name,
			Description:       cfg.Description,
			Metrics:           metrics,
			SafeSessions:      summarise(results, dataset.BehaviorSafe),
			RiskySessions:     summarise(results, dataset.BehaviorRisky),
			Improvements:      CalculateImprovements(metrics, baseline),
		}
		if c.KeepSessionResults {
			report.SessionResults = results
		}
		reports = append(reports, report)
	}
	return reports
}

func summarise(results []*SessionTestResult, behavior dataset.BehaviorType) BehaviorSummary {
	var s BehaviorSummary
	var rateSum, qualitySum float64
	for _, r := range results {
		if r.BehaviorType != behavior {
			continue
		}
		s.Sessions++
		s.TotalViolations += r.ViolationCount
		rateSum += r.ViolationRate
		qualitySum += r.Quality.Average
	}
	s.AvgViolationRate = safeDiv(rateSum, float64(s.Sessions))
	s.AvgQuality = safeDiv(qualitySum, float64(s.Sessions))
	return s
}
