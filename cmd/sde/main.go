package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"go-gatewatch/pkg/app"
	"go-gatewatch/pkg/config"
)

const dumpBaseURL = "https://www.fuzzwork.co.uk/dump/latest/"

// tables lists the SDE dump tables the converters below consume
var tables = []string{
	"mapSolarSystems",
	"mapRegions",
	"mapDenormalize",
	"invTypes",
	"invMarketGroups",
}

func main() {
	ctx := context.Background()

	// Initialize application with shared components
	appCtx, err := app.InitializeApp("sde")
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer appCtx.Shutdown(ctx)

	slog.Info("Starting SDE utility...")

	tmpDir := filepath.Join("tmp", "sde")
	dataDir := config.GetEnv("SDE_DATA_PATH", "data/sde")

	// Create the tmp directory if it doesn't exist
	if err := os.MkdirAll(tmpDir, os.ModePerm); err != nil {
		slog.Error("Failed to create tmp directory", "error", err)
		os.Exit(1)
	}

	// Download any dump files that are not already present
	for _, table := range tables {
		csvFile := filepath.Join(tmpDir, table+".csv")
		if _, err := os.Stat(csvFile); os.IsNotExist(err) {
			url := dumpBaseURL + table + ".csv"
			slog.Info("Downloading SDE dump", "table", table, "url", url)
			if err := downloadFile(csvFile, url); err != nil {
				slog.Error("Failed to download SDE dump", "table", table, "error", err)
				os.Exit(1)
			}
		} else {
			slog.Info("SDE dump already present, skipping download", "table", table)
		}
	}

	if err := os.MkdirAll(dataDir, os.ModePerm); err != nil {
		slog.Error("Failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Convert the dumps into the JSON files pkg/sde loads
	conversions := []struct {
		output  string
		convert func(tmpDir, dataDir string) error
	}{
		{"solar_systems.json", convertSolarSystems},
		{"regions.json", convertRegions},
		{"celestials.json", convertCelestials},
		{"ship_types.json", convertShipTypes},
		{"market_groups.json", convertMarketGroups},
	}
	for _, c := range conversions {
		if err := c.convert(tmpDir, dataDir); err != nil {
			slog.Error("Failed to convert SDE table", "output", c.output, "error", err)
			os.Exit(1)
		}
	}

	slog.Info("SDE processing completed successfully", "data_dir", dataDir)
}
