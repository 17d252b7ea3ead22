// Command behavior.report runs the driver-behavior violation engine: it
// ingests accelerometer/gyroscope samples from a serial-attached IMU, an
// MQTT broker, or a recorded session replay, detects harsh-acceleration and
// harsh-braking violations, persists them, and serves the HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fleetsense-data/behavior.report/internal/api"
	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/db"
	"github.com/fleetsense-data/behavior.report/internal/monitor"
	"github.com/fleetsense-data/behavior.report/internal/motion"
	"github.com/fleetsense-data/behavior.report/internal/source"
	"github.com/fleetsense-data/behavior.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", config.DefaultConfigPath, "Path to tuning config JSON")
	dbFile     = flag.String("db", "behavior.db", "SQLite database path (empty disables persistence)")

	serialPath = flag.String("serial", "", "Serial IMU device path (e.g. /dev/ttyUSB0)")
	serialBaud = flag.Int("baud", 115200, "Serial baud rate")
	brokerURL  = flag.String("broker", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
	mqttTopic  = flag.String("topic", source.DefaultSampleTopic, "MQTT sample topic")
	replayFile = flag.String("replay", "", "Replay a recorded session CSV instead of live input")
	speedup    = flag.Float64("speedup", 1, "Replay speed multiplier")
)

func main() {
	flag.Parse()

	log.Printf("behavior.report %s (%s)", version.Version, version.GitSHA)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	settings := config.SettingsFromTuning(tuning)

	var store *db.DB
	if *dbFile != "" {
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		if err := store.MigrateUp(db.DefaultMigrationsDir); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	// Store writes must not stall the sample loop; failures degrade to a
	// log line.
	notify := func(ev monitor.ViolationEvent) {
		if store == nil {
			return
		}
		if err := store.RecordViolation(ev); err != nil {
			log.Printf("failed to persist violation: %v", err)
		}
	}

	mon := monitor.New(settings, nil, notify)
	mon.Start()

	src, err := buildSource()
	if err != nil {
		log.Fatalf("failed to build sample source: %v", err)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sample ingestion goroutine: one synchronous Ingest per delivered
	// sample, no queueing.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if src == nil {
			<-ctx.Done()
			return
		}
		if err := src.Run(ctx, func(s motion.Sample) {
			mon.Ingest(s)
		}); err != nil && err != context.Canceled {
			log.Printf("sample source stopped: %v", err)
		}
		log.Print("ingestion routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.NewServer(mon, store).ServeMux(),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	mon.Stop()
	log.Printf("Graceful shutdown complete")
}

// buildSource picks the sample transport from flags. Nil means the process
// serves the API only and waits for nothing.
func buildSource() (source.Source, error) {
	switch {
	case *replayFile != "":
		session, err := dataset.LoadSession(*replayFile, *replayFile, "")
		if err != nil {
			return nil, err
		}
		return &source.ReplaySource{Session: session, Speedup: *speedup}, nil
	case *serialPath != "":
		return source.NewSerialSource(*serialPath, *serialBaud), nil
	case *brokerURL != "":
		return source.NewMQTTSource(*brokerURL, "behavior-report-monitor", *mqttTopic), nil
	default:
		return nil, nil
	}
}
