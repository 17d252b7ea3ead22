// Command gen-session writes synthetic recorded-session CSVs for testing
// and demos: a calibration-friendly stationary lead-in followed by driving
// noise, with optional harsh acceleration/braking bursts for risky
// sessions. Output follows the recorder format the dataset loader parses.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	outputDir  = flag.String("output", "testdata", "Output directory")
	name       = flag.String("name", "drive-01-S", "Session name (-S safe, -R risky)")
	durationS  = flag.Int("duration", 300, "Session duration in seconds")
	rateHz     = flag.Float64("rate", 10, "Sampling rate in Hz")
	bursts     = flag.Int("bursts", 0, "Number of harsh acceleration/braking bursts")
	noise      = flag.Float64("noise", 0.15, "Accelerometer noise sigma (m/s²)")
	seed       = flag.Int64("seed", 1, "Random seed")
	withGyro   = flag.Bool("gyro", true, "Also write a gyroscope CSV")
	baseUnixMs = flag.Int64("start", 1714548000000, "Session start (Unix ms)")
)

func main() {
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	stepMs := int64(1000.0 / *rateHz)
	total := int64(*durationS) * 1000 / stepMs

	accelPath := filepath.Join(*outputDir, *name+".csv")
	accelFile, err := os.Create(accelPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", accelPath, err)
	}
	defer accelFile.Close()
	fmt.Fprintln(accelFile, "Timestamp,Unix Timestamp,Milliseconds,X,Y,Z")

	var gyroFile *os.File
	if *withGyro {
		gyroPath := filepath.Join(*outputDir, *name+"_gyro.csv")
		gyroFile, err = os.Create(gyroPath)
		if err != nil {
			log.Fatalf("failed to create %s: %v", gyroPath, err)
		}
		defer gyroFile.Close()
		fmt.Fprintln(gyroFile, "Timestamp,Unix Timestamp,Milliseconds,X,Y,Z")
	}

	// Burst centres spread over the driving portion, alternating harsh
	// acceleration and harsh braking.
	burstAt := make(map[int64]float64)
	for i := 0; i < *bursts; i++ {
		centre := total/5 + int64(float64(total)*0.7*float64(i+1)/float64(*bursts+1))
		magnitude := 8.0
		if i%2 == 1 {
			magnitude = -8.0
		}
		burstAt[centre] = magnitude
	}

	const calibrationTicks = 200 // stationary lead-in so calibration can lock

	for i := int64(0); i < total; i++ {
		offsetMs := i * stepMs
		unixMs := *baseUnixMs + offsetMs

		// Device flat on the dashboard: gravity on +z, driving on y.
		x := rng.NormFloat64() * *noise
		y := rng.NormFloat64() * *noise
		z := 9.81 + rng.NormFloat64()**noise

		if i >= calibrationTicks {
			// Gentle speed changes plus any harsh burst on the driving axis.
			y += 1.2 * math.Sin(float64(i)/80.0)
			for centre, magnitude := range burstAt {
				d := float64(i - centre)
				y += magnitude * math.Exp(-d*d/18.0)
			}
		}

		writeRow(accelFile, unixMs, x, y, z)
		if gyroFile != nil {
			writeRow(gyroFile, unixMs,
				rng.NormFloat64()*0.02, rng.NormFloat64()*0.02, rng.NormFloat64()*0.02)
		}
	}

	log.Printf("wrote %d samples to %s", total, accelPath)
}

func writeRow(f *os.File, unixMs int64, x, y, z float64) {
	// The loader prefers the Unix Timestamp column; the date column is
	// carried at minute precision like the recorder apps write it.
	sec := unixMs / 1000
	ms := unixMs % 1000
	fmt.Fprintf(f, "01-05-2024 00:00,%d,%d,%.4f,%.4f,%.4f\n", sec, ms, x, y, z)
}
