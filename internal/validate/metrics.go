package validate

import (
	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// RiskyRateThreshold is the fixed classification line: a session whose
// violation rate meets or exceeds it is predicted risky.
const RiskyRateThreshold = 5.0 // violations per minute

// ValidationMetrics summarises a configuration's performance over a dataset
// as confusion-matrix classification metrics plus pipeline health
// aggregates. Risky sessions are the positive class. Every ratio defaults to
// 0 when its denominator is empty rather than propagating NaN.
type ValidationMetrics struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`

	Accuracy          float64 `json:"accuracy"`
	Precision         float64 `json:"precision"`
	Recall            float64 `json:"recall"`
	F1                float64 `json:"f1"`
	FalsePositiveRate float64 `json:"false_positive_rate"`

	AvgViolationRateSafe  float64 `json:"avg_violation_rate_safe"`
	AvgViolationRateRisky float64 `json:"avg_violation_rate_risky"`

	AverageQuality           float64 `json:"average_quality"`
	CalibrationSuccessRate   float64 `json:"calibration_success_rate"`
	AverageCalibrationTimeMs float64 `json:"average_calibration_time_ms"`
}

// safeDiv returns a/b, or 0 when b is 0.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// PredictedRisky applies the fixed rate threshold to one session result.
func PredictedRisky(r *SessionTestResult) bool {
	return r.ViolationRate >= RiskyRateThreshold
}

// CalculateMetrics builds ValidationMetrics from per-session results.
func CalculateMetrics(results []*SessionTestResult) ValidationMetrics {
	var m ValidationMetrics

	var safeRateSum, riskyRateSum float64
	var safeCount, riskyCount int
	var qualitySum float64
	var calibrated int
	var calibrationTimeSum float64

	for _, r := range results {
		predicted := PredictedRisky(r)
		actual := r.BehaviorType == dataset.BehaviorRisky
		switch {
		case actual && predicted:
			m.TruePositives++
		case actual && !predicted:
			m.FalseNegatives++
		case !actual && predicted:
			m.FalsePositives++
		default:
			m.TrueNegatives++
		}

		if actual {
			riskyRateSum += r.ViolationRate
			riskyCount++
		} else {
			safeRateSum += r.ViolationRate
			safeCount++
		}

		qualitySum += r.Quality.Average
		if r.CalibrationCompleted {
			calibrated++
			calibrationTimeSum += float64(r.CalibrationTimeMs)
		}
	}

	total := len(results)
	m.Accuracy = safeDiv(float64(m.TruePositives+m.TrueNegatives), float64(total))
	m.Precision = safeDiv(float64(m.TruePositives), float64(m.TruePositives+m.FalsePositives))
	m.Recall = safeDiv(float64(m.TruePositives), float64(m.TruePositives+m.FalseNegatives))
	m.F1 = safeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall)
	m.FalsePositiveRate = safeDiv(float64(m.FalsePositives), float64(m.FalsePositives+m.TrueNegatives))

	m.AvgViolationRateSafe = safeDiv(safeRateSum, float64(safeCount))
	m.AvgViolationRateRisky = safeDiv(riskyRateSum, float64(riskyCount))
	m.AverageQuality = safeDiv(qualitySum, float64(total))
	m.CalibrationSuccessRate = safeDiv(float64(calibrated), float64(total))
	m.AverageCalibrationTimeMs = safeDiv(calibrationTimeSum, float64(calibrated))

	return m
}

// Improvements holds percentage deltas of one configuration against the
// baseline, and a weighted overall score in [0,100].
type Improvements struct {
	FalsePositiveReduction float64 `json:"false_positive_reduction_pct"`
	QualityImprovement     float64 `json:"quality_improvement_pct"`
	CalibrationImprovement float64 `json:"calibration_improvement_pct"`
	OverallScore           float64 `json:"overall_score"`
}

// CalculateImprovements compares current metrics against a baseline.
// Positive numbers mean current is better. The overall score weighs
// false-positive reduction heaviest, then quality, then calibration, with a
// flat accuracy bonus, clamped to [0,100].
func CalculateImprovements(current, baseline ValidationMetrics) Improvements {
	imp := Improvements{
		FalsePositiveReduction: 100 * safeDiv(baseline.FalsePositiveRate-current.FalsePositiveRate, baseline.FalsePositiveRate),
		QualityImprovement:     100 * safeDiv(current.AverageQuality-baseline.AverageQuality, baseline.AverageQuality),
		CalibrationImprovement: 100 * safeDiv(current.CalibrationSuccessRate-baseline.CalibrationSuccessRate, baseline.CalibrationSuccessRate),
	}

	score := 0.4*imp.FalsePositiveReduction +
		0.3*imp.QualityImprovement +
		0.2*imp.CalibrationImprovement +
		10*current.Accuracy
	imp.OverallScore = 100 * motion.Clamp01(score/100)
	return imp
}
