package validate

import (
	"fmt"
	"strings"
)

// Rule thresholds for the recommendation list.
const (
	minCalibrationSuccessRate = 0.9
	maxSensitiveFalsePositive = 0.2
)

// ExecutiveSummary renders a human-readable comparison across all reports.
// The output is plain text suitable for terminals and slide formatters.
func ExecutiveSummary(reports []ComparisonReport) string {
	var b strings.Builder
	b.WriteString("Configuration comparison\n")
	b.WriteString("========================\n\n")

	for i, r := range reports {
		fmt.Fprintf(&b, "%s - %s\n", r.ConfigurationName, r.Description)
		fmt.Fprintf(&b, "  accuracy %.2f  precision %.2f  recall %.2f  f1 %.2f\n",
			r.Metrics.Accuracy, r.Metrics.Precision, r.Metrics.Recall, r.Metrics.F1)
		fmt.Fprintf(&b, "  false positive rate %.2f  avg quality %.2f  calibration success %.0f%%\n",
			r.Metrics.FalsePositiveRate, r.Metrics.AverageQuality, 100*r.Metrics.CalibrationSuccessRate)
		fmt.Fprintf(&b, "  safe sessions: %d (%.1f viol/min)  risky sessions: %d (%.1f viol/min)\n",
			r.SafeSessions.Sessions, r.SafeSessions.AvgViolationRate,
			r.RiskySessions.Sessions, r.RiskySessions.AvgViolationRate)
		if i > 0 {
			fmt.Fprintf(&b, "  vs baseline: fp %+.1f%%  quality %+.1f%%  calibration %+.1f%%  score %.0f/100\n",
				r.Improvements.FalsePositiveReduction, r.Improvements.QualityImprovement,
				r.Improvements.CalibrationImprovement, r.Improvements.OverallScore)
		}
		b.WriteString("\n")
	}

	if best := bestConfiguration(reports); best != "" {
		fmt.Fprintf(&b, "Best overall: %s\n", best)
	}
	return b.String()
}

// Recommendations applies fixed rules across the reports and returns the
// findings worth acting on.
func Recommendations(reports []ComparisonReport) []string {
	var recs []string
	for _, r := range reports {
		if r.Metrics.CalibrationSuccessRate < minCalibrationSuccessRate && r.RiskySessions.Sessions+r.SafeSessions.Sessions > 0 {
			recs = append(recs, fmt.Sprintf(
				"%s: calibration succeeded in only %.0f%% of sessions; consider extending the calibration window or relaxing the stability variance ceiling",
				r.ConfigurationName, 100*r.Metrics.CalibrationSuccessRate))
		}
		if r.ConfigurationName == "sensitive" && r.Metrics.FalsePositiveRate > maxSensitiveFalsePositive {
			recs = append(recs, fmt.Sprintf(
				"sensitive: false-positive rate %.0f%% exceeds %.0f%%; lowered thresholds are flagging normal driving",
				100*r.Metrics.FalsePositiveRate, 100*maxSensitiveFalsePositive))
		}
	}
	if best := bestConfiguration(reports); best != "" && best != "baseline" {
		recs = append(recs, fmt.Sprintf("adopt the %q configuration as the new default", best))
	}
	return recs
}

// bestConfiguration picks the non-baseline report with the highest overall
// score, falling back to highest accuracy when scores tie at zero.
func bestConfiguration(reports []ComparisonReport) string {
	best := ""
	bestScore := -1.0
	for i, r := range reports {
		if i == 0 {
			continue
		}
		score := r.Improvements.OverallScore + r.Metrics.Accuracy
		if score > bestScore {
			bestScore = score
			best = r.ConfigurationName
		}
	}
	return best
}
