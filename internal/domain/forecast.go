package domain

import (
	"context"
	"time"
)

// HorizonHours is the fixed length of every source series and of the
// hourly forecast.
const HorizonHours = 48

// MaxDailyDays caps the number of daily buckets in a forecast.
const MaxDailyDays = 7

// Coordinate is a WGS-84 point with an optional known elevation.
type Coordinate struct {
	Latitude        float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64  `json:"longitude" validate:"gte=-180,lte=180"`
	ElevationMeters *float64 `json:"elevation_meters,omitempty" validate:"omitempty,gte=-500,lte=9000"`
}

// LandUse classifies the surface at a coordinate.
type LandUse string

const (
	LandUseAgriculture LandUse = "agriculture"
	LandUseForest      LandUse = "forest"
	LandUseUrban       LandUse = "urban"
	LandUseWater       LandUse = "water"
	LandUseBare        LandUse = "bare"
)

// Microclimate is the local terrain/land-cover regime of a coordinate.
type Microclimate string

const (
	MicroclimateValley  Microclimate = "valley"
	MicroclimateHilltop Microclimate = "hilltop"
	MicroclimateCoastal Microclimate = "coastal"
	MicroclimateUrban   Microclimate = "urban"
	MicroclimateRural   Microclimate = "rural"
)

// TopographyProfile describes the terrain at a coordinate.
type TopographyProfile struct {
	ElevationMeters float64      `json:"elevation_meters"`
	SlopeDegrees    float64      `json:"slope_degrees"`
	AspectDegrees   float64      `json:"aspect_degrees"`
	Curvature       float64      `json:"curvature"`
	Roughness       float64      `json:"roughness"`
	LandUse         LandUse      `json:"land_use"`
	Microclimate    Microclimate `json:"microclimate"`
}

// WeatherSample is one hour of one weather series.
type WeatherSample struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`    // °C
	Humidity      float64   `json:"humidity"`       // %
	Pressure      float64   `json:"pressure"`       // hPa
	WindSpeed     float64   `json:"wind_speed"`     // m/s
	WindDirection float64   `json:"wind_direction"` // degrees
	Precipitation float64   `json:"precipitation"`  // mm
	CloudCover    float64   `json:"cloud_cover"`    // %
	Visibility    float64   `json:"visibility"`     // km
	UVIndex       float64   `json:"uv_index"`
}

// HourlyForecast is an ensemble-combined, adjusted hourly value.
type HourlyForecast = WeatherSample

// WeatherSource is one model's hourly series with its ensemble weight.
type WeatherSource struct {
	Name     string          `json:"name"`
	Weight   float64         `json:"weight"`
	Accuracy float64         `json:"accuracy"`
	Series   []WeatherSample `json:"series"`

	// ReferenceElevationMeters is the terrain height the source's values
	// are valid for (model grid cell or station).
	ReferenceElevationMeters float64 `json:"reference_elevation_meters"`
}

// Precipitation summarizes one day of precipitation.
type Precipitation struct {
	Total       float64 `json:"total"`
	Probability float64 `json:"probability"`
	Type        string  `json:"type"` // none, rain, snow, mixed
}

// DailyForecast is a 24-hour bucket rolled up from hourly values.
type DailyForecast struct {
	Date           time.Time     `json:"date"`
	TemperatureMin float64       `json:"temperature_min"`
	TemperatureMax float64       `json:"temperature_max"`
	Humidity       float64       `json:"humidity"`
	WindSpeed      float64       `json:"wind_speed"`
	WindDirection  float64       `json:"wind_direction"`
	Precipitation  Precipitation `json:"precipitation"`
	Conditions     string        `json:"conditions"`
	Confidence     float64       `json:"confidence"`
}

// AlertType enumerates agronomic weather hazards.
type AlertType string

const (
	AlertFrost   AlertType = "frost"
	AlertFreeze  AlertType = "freeze"
	AlertStorm   AlertType = "storm"
	AlertDrought AlertType = "drought"
	AlertFlood   AlertType = "flood"
	AlertWind    AlertType = "wind"
	AlertHail    AlertType = "hail"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityExtreme  Severity = "extreme"
)

// FarmingImpact is the agronomic guidance attached to an alert.
type FarmingImpact struct {
	Crops           []string `json:"crops"`
	Operations      []string `json:"operations"`
	Recommendations []string `json:"recommendations"`
}

// WeatherAlert is a detected threshold breach.
type WeatherAlert struct {
	ID            string        `json:"id"`
	Type          AlertType     `json:"type"`
	Severity      Severity      `json:"severity"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Description   string        `json:"description"`
	FarmingImpact FarmingImpact `json:"farming_impact"`
}

// ForecastLocation is the coordinate a forecast was built for.
type ForecastLocation struct {
	Coordinate
	FieldID string `json:"field_id,omitempty"`
}

// ForecastMetadata records provenance for auditability.
type ForecastMetadata struct {
	Sources     []string          `json:"sources"`
	Confidence  float64           `json:"confidence"`
	LastUpdated time.Time         `json:"last_updated"`
	Model       string            `json:"model"`
	Adjustments []Adjustment      `json:"adjustments"`
	Topography  TopographyProfile `json:"topography"`
}

// HyperlocalForecast is the aggregate root returned by the engine. It is
// never mutated after construction.
type HyperlocalForecast struct {
	Location ForecastLocation `json:"location"`
	Current  WeatherSample    `json:"current"`
	Hourly   []HourlyForecast `json:"hourly"`
	Daily    []DailyForecast  `json:"daily"`
	Alerts   []WeatherAlert   `json:"alerts"`
	Metadata ForecastMetadata `json:"metadata"`
}

// ConditionsSnapshot is the base provider's current observation.
type ConditionsSnapshot struct {
	ObservedAt    time.Time `json:"observed_at"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	Precipitation float64   `json:"precipitation"`
	CloudCover    float64   `json:"cloud_cover"`
	Visibility    float64   `json:"visibility"`
	UVIndex       float64   `json:"uv_index"`

	// StationElevationMeters is nil when the provider does not report it.
	StationElevationMeters *float64 `json:"station_elevation_meters,omitempty"`
}

// DailyOutlook is one day of the base provider's short-range forecast.
type DailyOutlook struct {
	Date                     time.Time `json:"date"`
	TemperatureMin           float64   `json:"temperature_min"`
	TemperatureMax           float64   `json:"temperature_max"`
	PrecipitationProbability float64   `json:"precipitation_probability"` // 0-1
	PrecipitationMM          float64   `json:"precipitation_mm"`
	WindSpeed                float64   `json:"wind_speed"`
	Humidity                 float64   `json:"humidity"`
}

// WeatherProvider is the base weather collaborator. Both methods return
// (nil, nil) when the provider has no data for the coordinate.
type WeatherProvider interface {
	CurrentConditions(ctx context.Context, lat, lon float64) (*ConditionsSnapshot, error)
	Forecast(ctx context.Context, lat, lon float64, days int) ([]DailyOutlook, error)
}

// ElevationSource looks up terrain height for a coordinate.
type ElevationSource interface {
	Elevation(ctx context.Context, lat, lon float64) (float64, error)
}
