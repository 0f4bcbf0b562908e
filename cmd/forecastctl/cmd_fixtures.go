package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/spf13/cobra"
)

// fixtureSite is a named location rendered into the fixture set.
type fixtureSite struct {
	name  string
	coord domain.Coordinate
	crop  domain.CropType
	stage domain.GrowthStage
}

var fixtureSites = []fixtureSite{
	{name: "iowa-corn", coord: domain.Coordinate{Latitude: 42.05, Longitude: -93.45}, crop: domain.CropCorn, stage: domain.StageFlowering},
	{name: "kansas-wheat", coord: domain.Coordinate{Latitude: 38.50, Longitude: -98.70}, crop: domain.CropWheat, stage: domain.StageMaturity},
	{name: "nebraska-soybeans", coord: domain.Coordinate{Latitude: 41.13, Longitude: -100.77}, crop: domain.CropSoybeans, stage: domain.StageVegetative},
	{name: "texas-cotton", coord: domain.Coordinate{Latitude: 33.58, Longitude: -101.85}, crop: domain.CropCotton, stage: domain.StageHarvest},
}

// defaultFixtureTime pins the weather in generated fixtures. Alert IDs still
// differ between runs.
const defaultFixtureTime = "2026-07-15T12:00:00Z"

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Write reproducible forecast fixtures for API and client tests",
	RunE:  runFixtures,
}

var fixturesOut string

func init() {
	fixturesCmd.Flags().StringVar(&fixturesOut, "out", "data/fixtures", "output directory")
	rootCmd.AddCommand(fixturesCmd)
}

func runFixtures(cmd *cobra.Command, _ []string) error {
	if flags.at == "" {
		flags.at = defaultFixtureTime
	}
	engine, clock, err := newEngine()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fixturesOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx := cmd.Context()
	today := clock.Now().UTC().Truncate(24 * time.Hour)
	for _, site := range fixtureSites {
		crop, err := engine.GetCropSpecificForecast(ctx, domain.CropRequest{
			FieldRequest: domain.FieldRequest{Coordinate: site.coord, FieldID: site.name},
			Crop:         site.crop,
			Stage:        site.stage,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", site.name, err)
		}
		trends, err := engine.GetWeatherTrends(ctx, domain.TrendsRequest{
			Coordinate: site.coord,
			Start:      today.AddDate(0, 0, -7),
			End:        today.AddDate(0, 0, 6),
		})
		if err != nil {
			return fmt.Errorf("%s trends: %w", site.name, err)
		}
		grid, err := engine.PredictGrid(ctx, domain.GridRequest{Center: site.coord, RadiusKm: 1})
		if err != nil {
			return fmt.Errorf("%s grid: %w", site.name, err)
		}

		files := map[string]any{
			site.name + "_crop.json":   crop,
			site.name + "_trends.json": trends,
			site.name + "_grid.json":   grid,
		}
		for name, v := range files {
			if err := writeFixture(filepath.Join(fixturesOut, name), v); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s fixtures\n", site.name)
	}
	return nil
}

func writeFixture(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
