// Command session-plot replays one recorded session through the pipeline
// and renders PNG traces of the signed driving acceleration, the quality
// score, and the threshold lines. Useful for eyeballing why a session did
// or did not produce violations.
package main

import (
	"flag"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/monitor"
	"github.com/fleetsense-data/behavior.report/internal/security"
	"github.com/fleetsense-data/behavior.report/internal/timeutil"
)

var (
	accelCSV   = flag.String("accel", "", "Accelerometer CSV path")
	gyroCSV    = flag.String("gyro", "", "Optional gyroscope CSV path")
	outputDir  = flag.String("output", "plots", "Output directory for PNGs")
	configPath = flag.String("config", config.DefaultConfigPath, "Path to tuning config JSON")
)

func main() {
	flag.Parse()

	if *accelCSV == "" {
		log.Fatal("accelerometer CSV is required")
	}

	name := filepath.Base(*accelCSV)
	session, err := dataset.LoadSession(name, *accelCSV, *gyroCSV)
	if err != nil {
		log.Fatalf("failed to load session: %v", err)
	}

	tuning, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	settings := config.SettingsFromTuning(tuning)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	accelPts, qualityPts, violationPts := replay(settings, session)

	if err := plotAcceleration(session, settings, accelPts, violationPts); err != nil {
		log.Fatalf("failed to plot acceleration trace: %v", err)
	}
	if err := plotQuality(session, qualityPts); err != nil {
		log.Fatalf("failed to plot quality trace: %v", err)
	}
	log.Printf("plots written to %s", *outputDir)
}

// replay runs the session through a fresh monitor and collects the traces.
// X coordinates are seconds since session start.
func replay(settings config.Settings, session *dataset.Session) (accel, quality, violations plotter.XYs) {
	if len(session.Samples) == 0 {
		return
	}
	firstTs := session.Samples[0].TimestampMs
	clk := timeutil.NewReplayClock(time.UnixMilli(firstTs))
	mon := monitor.New(settings, clk, nil)
	mon.Start()

	for _, s := range session.Samples {
		clk.SetUnixMs(s.TimestampMs)
		p, ev := mon.Ingest(s)
		x := float64(s.TimestampMs-firstTs) / 1000.0
		accel = append(accel, plotter.XY{X: x, Y: p.DrivingAcceleration})
		quality = append(quality, plotter.XY{X: x, Y: p.Quality})
		if ev != nil {
			violations = append(violations, plotter.XY{X: x, Y: ev.Value})
		}
	}
	return accel, quality, violations
}

func plotAcceleration(session *dataset.Session, settings config.Settings, accelPts, violationPts plotter.XYs) error {
	p := plot.New()
	p.Title.Text = "Driving acceleration: " + session.Name
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "m/s²"

	line, err := plotter.NewLine(accelPts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("driving accel", line)

	for _, threshold := range []float64{settings.AccelerationThreshold, settings.BrakingThreshold} {
		thresholdLine := plotter.NewFunction(func(float64) float64 { return threshold })
		thresholdLine.Color = color.RGBA{R: 200, A: 255}
		thresholdLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(thresholdLine)
	}

	if len(violationPts) > 0 {
		scatter, err := plotter.NewScatter(violationPts)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("violations", scatter)
	}

	out := filepath.Join(*outputDir, security.SanitizeFilename(session.Name)+"_accel.png")
	return p.Save(14*vg.Inch, 6*vg.Inch, out)
}

func plotQuality(session *dataset.Session, qualityPts plotter.XYs) error {
	p := plot.New()
	p.Title.Text = "Sample quality: " + session.Name
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "quality"
	p.Y.Min, p.Y.Max = 0, 1

	line, err := plotter.NewLine(qualityPts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	out := filepath.Join(*outputDir, security.SanitizeFilename(session.Name)+"_quality.png")
	return p.Save(14*vg.Inch, 6*vg.Inch, out)
}
