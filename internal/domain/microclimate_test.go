package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareField() []Coordinate {
	return []Coordinate{
		{Latitude: 41.00, Longitude: -93.00},
		{Latitude: 41.00, Longitude: -92.99},
		{Latitude: 41.01, Longitude: -92.99},
		{Latitude: 41.01, Longitude: -93.00},
	}
}

func TestFieldPolygon_Validation(t *testing.T) {
	tests := []struct {
		name     string
		boundary []Coordinate
	}{
		{"empty", nil},
		{"two points", squareField()[:2]},
		{"closed triangle of two points", []Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}, {Latitude: 1, Longitude: 1}}},
		{"collinear", []Coordinate{{Latitude: 1, Longitude: 1}, {Latitude: 2, Longitude: 2}, {Latitude: 3, Longitude: 3}}},
		{"out of range", []Coordinate{{Latitude: 91, Longitude: 1}, {Latitude: 2, Longitude: 2}, {Latitude: 3, Longitude: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FieldPolygon(tt.boundary)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestFieldPolygon_ClosesRing(t *testing.T) {
	poly, err := FieldPolygon(squareField())

	require.NoError(t, err)
	ring := poly.LinearRing(0)
	assert.Equal(t, 5, ring.NumCoords())
	assert.Equal(t, ring.Coord(0), ring.Coord(4))
}

func TestSampleFieldPoints_Square(t *testing.T) {
	points, err := SampleFieldPoints(squareField(), DefaultSamplePoints)

	require.NoError(t, err)
	assert.Len(t, points, DefaultSamplePoints)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Latitude, 41.00)
		assert.LessOrEqual(t, p.Latitude, 41.01)
		assert.GreaterOrEqual(t, p.Longitude, -93.00)
		assert.LessOrEqual(t, p.Longitude, -92.99)
	}

	again, err := SampleFieldPoints(squareField(), DefaultSamplePoints)
	require.NoError(t, err)
	assert.Equal(t, points, again)
}

func TestSampleFieldPoints_ConcaveField(t *testing.T) {
	lShape := []Coordinate{
		{Latitude: 40.00, Longitude: -95.00},
		{Latitude: 40.00, Longitude: -94.98},
		{Latitude: 40.01, Longitude: -94.98},
		{Latitude: 40.01, Longitude: -94.99},
		{Latitude: 40.02, Longitude: -94.99},
		{Latitude: 40.02, Longitude: -95.00},
	}
	poly, err := FieldPolygon(lShape)
	require.NoError(t, err)

	points := SamplePolygon(poly, DefaultSamplePoints)

	require.NotEmpty(t, points)
	assert.LessOrEqual(t, len(points), DefaultSamplePoints)
	for _, p := range points {
		assert.True(t, polygonContains(poly, p.Longitude, p.Latitude), "point %+v outside field", p)
	}
}

func TestSampleRadius(t *testing.T) {
	center := Coordinate{Latitude: 39.5, Longitude: -98.3}

	points, err := SampleRadius(center, 2, 12)

	require.NoError(t, err)
	assert.Len(t, points, 12)
	for _, p := range points {
		assert.LessOrEqual(t, DistanceKm(center.Latitude, center.Longitude, p.Latitude, p.Longitude), 2.05)
	}

	_, err = SampleRadius(center, 0, 12)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = SampleRadius(center, 80, 12)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFrostRisk(t *testing.T) {
	cold := HyperlocalForecast{Daily: []DailyForecast{day(0, -4, 5, 0)}}
	assert.Equal(t, 1.0, FrostRisk(cold))

	cool := HyperlocalForecast{Daily: []DailyForecast{day(0, 2, 10, 0)}}
	assert.InDelta(t, 0.25, FrostRisk(cool), 1e-9)

	cool.Metadata.Topography.Microclimate = MicroclimateValley
	assert.InDelta(t, 0.45, FrostRisk(cool), 1e-9)

	warm := HyperlocalForecast{Daily: []DailyForecast{day(0, 12, 25, 0)}}
	warm.Metadata.Topography.Microclimate = MicroclimateValley
	assert.Zero(t, FrostRisk(warm))

	assert.Zero(t, FrostRisk(HyperlocalForecast{}))
}

func TestDroughtRisk(t *testing.T) {
	hotDry := HyperlocalForecast{
		Current: WeatherSample{Humidity: 20},
		Daily:   []DailyForecast{day(0, 22, 36, 0), day(1, 22, 36, 0)},
	}
	assert.Equal(t, 1.0, DroughtRisk(hotDry))

	coolWet := HyperlocalForecast{
		Current: WeatherSample{Humidity: 85},
		Daily:   []DailyForecast{day(0, 8, 16, 12), day(1, 8, 16, 4)},
	}
	assert.Zero(t, DroughtRisk(coolWet))
}

func TestSummarizeField(t *testing.T) {
	points := []PointSummary{
		{Coordinate: Coordinate{Latitude: 1, Longitude: 1}, Temperature: 10, Humidity: 60, WindSpeed: 4, FrostRisk: 0.5},
		{Coordinate: Coordinate{Latitude: 1, Longitude: 2}, Temperature: 14.5, Humidity: 62, WindSpeed: 16, DroughtRisk: 0.4},
		{Coordinate: Coordinate{Latitude: 1, Longitude: 3}, Temperature: 12, Humidity: 61, WindSpeed: 8},
	}

	grid, err := SummarizeField(points)

	require.NoError(t, err)
	assert.Equal(t, Variations{TemperatureRange: 4.5, MoistureVariation: 2, WindVariation: 12}, grid.Variations)
	assert.Equal(t, []Coordinate{{Latitude: 1, Longitude: 1}}, grid.RiskZones.FrostPockets)
	assert.Equal(t, []Coordinate{{Latitude: 1, Longitude: 2}}, grid.RiskZones.WindExposed)
	assert.Equal(t, []Coordinate{{Latitude: 1, Longitude: 2}}, grid.RiskZones.DroughtProne)
	assert.Equal(t, 3, grid.SampledPoints)
	assert.True(t, containsText(grid.Recommendations, "stagger planting"))
	assert.True(t, containsText(grid.Recommendations, "frost protection"))
	assert.True(t, containsText(grid.Recommendations, "windbreaks"))
	assert.True(t, containsText(grid.Recommendations, "variable-rate irrigation"))
	assert.True(t, containsText(grid.Recommendations, "time spraying"))
}

func TestSummarizeField_Uniform(t *testing.T) {
	points := []PointSummary{
		{Temperature: 10, Humidity: 60, WindSpeed: 4},
		{Temperature: 10.5, Humidity: 61, WindSpeed: 4.5},
	}

	grid, err := SummarizeField(points)

	require.NoError(t, err)
	assert.Equal(t, []string{"Conditions are uniform; manage the field as a single zone"}, grid.Recommendations)
	assert.Empty(t, grid.RiskZones.FrostPockets)
}

func TestSummarizeField_NoPoints(t *testing.T) {
	_, err := SummarizeField(nil)
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestSummarizePoint(t *testing.T) {
	f := HyperlocalForecast{
		Current:  WeatherSample{Temperature: 3, Humidity: 70, WindSpeed: 6},
		Daily:    []DailyForecast{day(0, 0, 8, 2)},
		Metadata: ForecastMetadata{Topography: TopographyProfile{Microclimate: MicroclimateHilltop}},
	}
	c := Coordinate{Latitude: 40, Longitude: -95}

	p := SummarizePoint(c, f)

	assert.Equal(t, c, p.Coordinate)
	assert.Equal(t, 3.0, p.Temperature)
	assert.Equal(t, 0.5, p.FrostRisk)
	assert.Equal(t, MicroclimateHilltop, p.Microclimate)
}
