// Command algo-compare runs the configuration comparison harness over a
// directory of recorded sessions. It replays every session through each
// named configuration, prints the executive summary and recommendations,
// and can export the reports as JSON or store them for the HTTP report
// renderer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fleetsense-data/behavior.report/internal/config"
	"github.com/fleetsense-data/behavior.report/internal/dataset"
	"github.com/fleetsense-data/behavior.report/internal/db"
	"github.com/fleetsense-data/behavior.report/internal/security"
	"github.com/fleetsense-data/behavior.report/internal/validate"
)

// Config holds configuration for the comparison run.
type Config struct {
	DatasetDir  string
	ConfigPath  string
	OutputJSON  string
	DBFile      string
	ResampleHz  float64
	KeepDetails bool
}

func main() {
	cfg := parseFlags()

	if cfg.DatasetDir == "" {
		log.Fatal("dataset directory is required")
	}

	sessions, err := dataset.LoadDirectory(cfg.DatasetDir)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	if len(sessions) == 0 {
		log.Fatalf("no sessions found in %s", cfg.DatasetDir)
	}
	log.Printf("loaded %d sessions from %s", len(sessions), cfg.DatasetDir)

	if cfg.ResampleHz > 0 {
		for i, s := range sessions {
			sessions[i] = dataset.ResampleSession(s, cfg.ResampleHz)
		}
		log.Printf("resampled sessions to %.1f Hz", cfg.ResampleHz)
	}

	tuning, err := config.LoadTuningConfig(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	base := config.SettingsFromTuning(tuning)

	coordinator := validate.NewCoordinator(validate.DefaultConfigurations(base), sessions)
	coordinator.KeepSessionResults = cfg.KeepDetails
	reports := coordinator.Run()

	fmt.Println(validate.ExecutiveSummary(reports))
	if recs := validate.Recommendations(reports); len(recs) > 0 {
		fmt.Println("Recommendations")
		fmt.Println("---------------")
		for _, r := range recs {
			fmt.Printf("- %s\n", r)
		}
	}

	if cfg.OutputJSON != "" {
		if err := exportJSON(reports, cfg.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", cfg.OutputJSON)
		}
	}

	if cfg.DBFile != "" {
		if err := storeRun(cfg.DBFile, coordinator.RunID, reports); err != nil {
			log.Printf("Warning: failed to store run: %v", err)
		} else {
			log.Printf("Run stored as %s", coordinator.RunID)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.DatasetDir, "dataset", "", "Directory of recorded session CSVs")
	flag.StringVar(&cfg.ConfigPath, "config", config.DefaultConfigPath, "Path to tuning config JSON")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Output JSON filename (e.g. results.json)")
	flag.StringVar(&cfg.DBFile, "db", "", "SQLite database to store the run in")
	flag.Float64Var(&cfg.ResampleHz, "resample", 0, "Resample sessions to a fixed rate (Hz, 0 disables)")
	flag.BoolVar(&cfg.KeepDetails, "details", false, "Embed per-session results in the reports")

	flag.Parse()
	return cfg
}

func exportJSON(reports []validate.ComparisonReport, path string) error {
	if err := security.ValidateExportPath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func storeRun(dbFile, runID string, reports []validate.ComparisonReport) error {
	store, err := db.NewDB(dbFile)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.MigrateUp(db.DefaultMigrationsDir); err != nil {
		return err
	}
	return store.RecordValidationRun(runID, reports)
}
