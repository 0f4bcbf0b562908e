// Package provider supplies base weather providers: a deterministic
// climatology-driven provider for development and tests, and a circuit
// breaker decorator for any upstream provider.
package provider

import (
	"context"
	"math"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

const (
	// maxCoverageLatitude is the edge of the synthetic station network.
	// Beyond it the provider reports no data.
	maxCoverageLatitude = 85.0
	maxForecastDays     = 16
	stationGridDeg      = 0.1
	seaLevelPressure    = 1013.25
)

// Synthetic is a deterministic WeatherProvider built on climatology. The
// same coordinate and clock reading always produce the same data.
type Synthetic struct {
	clock clockwork.Clock
}

// NewSynthetic creates a synthetic provider reading time from clock.
func NewSynthetic(clock clockwork.Clock) *Synthetic {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Synthetic{clock: clock}
}

// CurrentConditions reports the observation of the nearest station on a
// 0.1° grid at the top of the current hour.
func (s *Synthetic) CurrentConditions(ctx context.Context, lat, lon float64) (*domain.ConditionsSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if math.Abs(lat) > maxCoverageLatitude {
		return nil, nil
	}

	now := s.clock.Now().UTC().Truncate(time.Hour)
	day := domain.ClimateOutlook(lat, lon, now)
	solar := domain.SolarHour(now, lon)

	stationLat := math.Round(lat/stationGridDeg) * stationGridDeg
	stationLon := math.Round(lon/stationGridDeg) * stationGridDeg
	stationElevation := domain.EstimateTopography(stationLat, stationLon).ElevationMeters

	temp := domain.DiurnalTemperature(day.TemperatureMin, day.TemperatureMax, solar)
	cloud := 20 + 70*day.PrecipitationProbability
	precip := 0.0
	if day.PrecipitationMM > 0 {
		precip = day.PrecipitationMM / 24
	}

	return &domain.ConditionsSnapshot{
		ObservedAt:             now,
		Temperature:            round1(temp),
		Humidity:               round1(math.Min(100, day.Humidity+(day.TemperatureMax-temp)*2)),
		Pressure:               round1(seaLevelPressure - stationElevation/8.3),
		WindSpeed:              day.WindSpeed,
		WindDirection:          math.Mod(math.Round(math.Abs(lat*37+lon*11)), 360),
		Precipitation:          round1(precip),
		CloudCover:             round1(cloud),
		Visibility:             round1(10 - 6*day.PrecipitationProbability),
		UVIndex:                round1(domain.UVIndex(solar, cloud)),
		StationElevationMeters: &stationElevation,
	}, nil
}

// Forecast returns up to 16 daily outlooks starting today.
func (s *Synthetic) Forecast(ctx context.Context, lat, lon float64, days int) ([]domain.DailyOutlook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 || math.Abs(lat) > maxCoverageLatitude {
		return nil, nil
	}
	days = min(days, maxForecastDays)

	today := s.clock.Now().UTC()
	out := make([]domain.DailyOutlook, days)
	for i := range out {
		out[i] = domain.ClimateOutlook(lat, lon, today.AddDate(0, 0, i))
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
