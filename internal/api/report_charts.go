package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fleetsense-data/behavior.report/internal/validate"
)

// handleCompareReport renders a stored validation run as an HTML page of
// bar charts: one for classification metrics per configuration, one for
// violation rates by behaviour label. Query params:
//   - run_id (required)
func (s *Server) handleCompareReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeJSONError(w, http.StatusNotFound, "no store configured")
		return
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "run_id is required")
		return
	}

	reports, err := s.store.ValidationRun(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("run not found: %v", err))
		return
	}

	page := components.NewPage()
	page.SetPageTitle("Configuration comparison " + runID)
	page.AddCharts(metricsChart(reports), ratesChart(reports))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render charts: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func metricsChart(reports []validate.ComparisonReport) *charts.Bar {
	names := make([]string, 0, len(reports))
	accuracy := make([]opts.BarData, 0, len(reports))
	precision := make([]opts.BarData, 0, len(reports))
	recall := make([]opts.BarData, 0, len(reports))
	f1 := make([]opts.BarData, 0, len(reports))
	for _, r := range reports {
		names = append(names, r.ConfigurationName)
		accuracy = append(accuracy, opts.BarData{Value: r.Metrics.Accuracy})
		precision = append(precision, opts.BarData{Value: r.Metrics.Precision})
		recall = append(recall, opts.BarData{Value: r.Metrics.Recall})
		f1 = append(f1, opts.BarData{Value: r.Metrics.F1})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Classification metrics", Subtitle: "risky sessions are the positive class"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("accuracy", accuracy).
		AddSeries("precision", precision).
		AddSeries("recall", recall).
		AddSeries("f1", f1)
	return bar
}

func ratesChart(reports []validate.ComparisonReport) *charts.Bar {
	names := make([]string, 0, len(reports))
	safe := make([]opts.BarData, 0, len(reports))
	risky := make([]opts.BarData, 0, len(reports))
	for _, r := range reports {
		names = append(names, r.ConfigurationName)
		safe = append(safe, opts.BarData{Value: r.SafeSessions.AvgViolationRate})
		risky = append(risky, opts.BarData{Value: r.RiskySessions.AvgViolationRate})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Violation rates by behaviour",
			Subtitle: fmt.Sprintf("classification line at %.0f violations/min", validate.RiskyRateThreshold),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("safe sessions", safe).
		AddSeries("risky sessions", risky)
	return bar
}
