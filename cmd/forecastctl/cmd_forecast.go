package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/spf13/cobra"
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Print the hyperlocal forecast for a coordinate",
	RunE:  runField,
}

var cropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Print a field forecast with crop-specific advice",
	RunE:  runCrop,
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Print daily weather trends over a date range",
	RunE:  runTrends,
}

var microclimateCmd = &cobra.Command{
	Use:   "microclimate",
	Short: "Analyze temperature and risk variation across a field",
	Long: `Analyze a field boundary read from --boundary (a JSON array of
{"latitude","longitude"} vertices), or a circular area of --radius km around
--lat/--lon.`,
	RunE: runMicroclimate,
}

var (
	cropType     string
	cropStage    string
	trendStart   string
	trendEnd     string
	boundaryFile string
	radiusKm     float64
)

func init() {
	cropCmd.Flags().StringVar(&cropType, "crop", "corn", "crop type")
	cropCmd.Flags().StringVar(&cropStage, "stage", string(domain.StageVegetative), "growth stage")

	trendsCmd.Flags().StringVar(&trendStart, "start", "", "first day, YYYY-MM-DD")
	trendsCmd.Flags().StringVar(&trendEnd, "end", "", "last day, YYYY-MM-DD")
	_ = trendsCmd.MarkFlagRequired("start")
	_ = trendsCmd.MarkFlagRequired("end")

	microclimateCmd.Flags().StringVar(&boundaryFile, "boundary", "", "path to a JSON boundary file")
	microclimateCmd.Flags().Float64Var(&radiusKm, "radius", 0, "analyze a circle of this radius in km instead of a boundary")

	rootCmd.AddCommand(fieldCmd, cropCmd, trendsCmd, microclimateCmd)
}

func runField(cmd *cobra.Command, _ []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	f, err := engine.GetFieldForecast(cmd.Context(), domain.FieldRequest{Coordinate: coordinate(), FieldID: flags.fieldID})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), f)
}

func runCrop(cmd *cobra.Command, _ []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	cf, err := engine.GetCropSpecificForecast(cmd.Context(), domain.CropRequest{
		FieldRequest: domain.FieldRequest{Coordinate: coordinate(), FieldID: flags.fieldID},
		Crop:         domain.CropType(cropType),
		Stage:        domain.GrowthStage(cropStage),
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), cf)
}

func runTrends(cmd *cobra.Command, _ []string) error {
	start, err := time.Parse(time.DateOnly, trendStart)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, trendEnd)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	trends, err := engine.GetWeatherTrends(cmd.Context(), domain.TrendsRequest{Coordinate: coordinate(), Start: start, End: end})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), trends)
}

func runMicroclimate(cmd *cobra.Command, _ []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	var grid domain.GridPrediction
	switch {
	case radiusKm > 0:
		grid, err = engine.PredictGrid(cmd.Context(), domain.GridRequest{Center: coordinate(), RadiusKm: radiusKm})
	case boundaryFile != "":
		var boundary []domain.Coordinate
		boundary, err = readBoundary(boundaryFile)
		if err != nil {
			return err
		}
		grid, err = engine.AnalyzeFieldMicroclimate(cmd.Context(), domain.MicroclimateRequest{FieldID: flags.fieldID, Boundary: boundary})
	default:
		return fmt.Errorf("one of --boundary or --radius is required")
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), grid)
}

func readBoundary(path string) ([]domain.Coordinate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary: %w", err)
	}
	var boundary []domain.Coordinate
	if err := json.Unmarshal(data, &boundary); err != nil {
		return nil, fmt.Errorf("decode boundary %s: %w", path, err)
	}
	return boundary, nil
}
