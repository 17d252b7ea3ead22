// Package testutil provides shared fixtures for pipeline tests: synthetic
// motion samples and recorded-session CSV files in the on-disk format the
// dataset loader reads.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fleetsense-data/behavior.report/internal/motion"
)

// StationarySamples returns n samples of a phone lying flat (gravity on Z),
// spaced stepMs apart starting at startMs. A small deterministic wobble keeps
// the stream realistic without breaking the stability window.
func StationarySamples(n int, startMs, stepMs int64) []motion.Sample {
	samples := make([]motion.Sample, n)
	for i := range samples {
		wobble := 0.02 * math.Sin(float64(i)/3)
		samples[i] = motion.Sample{
			TimestampMs: startMs + int64(i)*stepMs,
			Accel:       motion.Vector3D{X: wobble, Y: -wobble, Z: motion.StandardGravity + wobble},
			Gyro:        &motion.Vector3D{},
		}
	}
	return samples
}

// DrivingSamples returns n samples with a given acceleration applied along
// the Y axis on top of gravity on Z, the orientation StationarySamples
// calibrates to.
func DrivingSamples(n int, startMs, stepMs int64, accelY float64) []motion.Sample {
	samples := make([]motion.Sample, n)
	for i := range samples {
		samples[i] = motion.Sample{
			TimestampMs: startMs + int64(i)*stepMs,
			Accel:       motion.Vector3D{Y: accelY, Z: motion.StandardGravity},
			Gyro:        &motion.Vector3D{},
		}
	}
	return samples
}

// WriteSessionCSV writes samples as a recorded accelerometer session file
// under dir and returns its path. The file uses the six-column export format
// with a Unix timestamp column.
func WriteSessionCSV(t *testing.T, dir, name string, samples []motion.Sample) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create session csv: %v", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "Timestamp,Unix Timestamp,Milliseconds,X,Y,Z")
	for _, s := range samples {
		sec := s.TimestampMs / 1000
		ms := s.TimestampMs % 1000
		fmt.Fprintf(f, "01-01-2026 00:00,%d,%d,%.4f,%.4f,%.4f\n", sec, ms, s.Accel.X, s.Accel.Y, s.Accel.Z)
	}
	return path
}

// WriteGyroCSV writes the matching gyroscope file for a session.
func WriteGyroCSV(t *testing.T, dir, name string, samples []motion.Sample) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create gyro csv: %v", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "Timestamp,Unix Timestamp,Milliseconds,X,Y,Z")
	for _, s := range samples {
		g := s.Gyro
		if g == nil {
			g = &motion.Vector3D{}
		}
		sec := s.TimestampMs / 1000
		ms := s.TimestampMs % 1000
		fmt.Fprintf(f, "01-01-2026 00:00,%d,%d,%.4f,%.4f,%.4f\n", sec, ms, g.X, g.Y, g.Z)
	}
	return path
}
