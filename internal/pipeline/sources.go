package pipeline

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	// sourceForecastDays covers the 48-hour horizon from any start hour.
	sourceForecastDays = 3
	// nudgeDecayHours is the e-folding time of the pull toward the current
	// observation in the local composite.
	nudgeDecayHours = 6.0

	seaLevelPressure      = 1013.25
	prevailingWindBearing = 225.0
)

// sourceProfile describes how one model deviates from the base outlook.
type sourceProfile struct {
	name     string
	weight   float64
	accuracy float64

	tempBias     float64
	humidityBias float64
	windScale    float64
	precipScale  float64
	// phaseHours shifts the modeled diurnal cycle.
	phaseHours float64
	// nudged sources blend toward current conditions and require them.
	nudged bool
}

var sourceProfiles = []sourceProfile{
	{name: "global_model", weight: 0.25, accuracy: 0.72, tempBias: -0.4, humidityBias: 2, windScale: 1.10, precipScale: 0.9, phaseHours: 0.5},
	{name: "regional_model", weight: 0.30, accuracy: 0.80, tempBias: 0.2, humidityBias: -1, windScale: 0.95, precipScale: 1.1},
	{name: "weather_api", weight: 0.20, accuracy: 0.76, tempBias: 0.5, humidityBias: -3, windScale: 1.0, precipScale: 1.0, phaseHours: -0.5},
	{name: "local_composite", weight: 0.40, accuracy: 0.88, windScale: 1.0, precipScale: 1.0, nudged: true},
}

// SourceAggregator turns the base provider's current conditions and short
// outlook into the weighted hourly sources the ensemble combines.
type SourceAggregator struct {
	provider domain.WeatherProvider
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewSourceAggregator creates an aggregator. A nil provider yields
// climatology-only sources.
func NewSourceAggregator(provider domain.WeatherProvider, clock clockwork.Clock, logger *slog.Logger) *SourceAggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceAggregator{provider: provider, clock: clock, logger: logger}
}

// FetchSources queries the provider concurrently and builds every source
// over the same 48 hourly slots starting at the current hour. Provider
// failures degrade the result instead of failing it: without current
// conditions the local composite is omitted, and without an outlook the
// models run on climatology. Only context cancellation is returned.
func (a *SourceAggregator) FetchSources(ctx context.Context, c domain.Coordinate) ([]domain.WeatherSource, error) {
	var (
		current *domain.ConditionsSnapshot
		outlook []domain.DailyOutlook
	)

	if a.provider != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			snap, err := a.provider.CurrentConditions(gctx, c.Latitude, c.Longitude)
			if err != nil {
				a.logger.Warn("current conditions unavailable, omitting local composite",
					"lat", c.Latitude, "lon", c.Longitude, "error", err)
				return nil
			}
			current = snap
			return nil
		})
		g.Go(func() error {
			days, err := a.provider.Forecast(gctx, c.Latitude, c.Longitude, sourceForecastDays)
			if err != nil {
				a.logger.Warn("provider forecast unavailable, using climatology",
					"lat", c.Latitude, "lon", c.Longitude, "error", err)
				return nil
			}
			outlook = days
			return nil
		})
		_ = g.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := a.clock.Now().UTC().Truncate(time.Hour)
	base := baseSeries(c, start, outlook, current)

	reference := domain.DefaultReferenceElevationMeters
	if current != nil && current.StationElevationMeters != nil {
		reference = *current.StationElevationMeters
	}

	sources := make([]domain.WeatherSource, 0, len(sourceProfiles))
	for _, p := range sourceProfiles {
		if p.nudged && current == nil {
			continue
		}
		sources = append(sources, domain.WeatherSource{
			Name:                     p.name,
			Weight:                   p.weight,
			Accuracy:                 p.accuracy,
			Series:                   p.series(c, base, current),
			ReferenceElevationMeters: reference,
		})
	}
	return sources, nil
}

// baseSlot is the unbiased hourly value interpolated from a daily outlook.
type baseSlot struct {
	at       time.Time
	day      domain.DailyOutlook
	sample   domain.WeatherSample
	pressure float64
}

func baseSeries(c domain.Coordinate, start time.Time, outlook []domain.DailyOutlook, current *domain.ConditionsSnapshot) []baseSlot {
	byDate := make(map[string]domain.DailyOutlook, len(outlook))
	for _, o := range outlook {
		byDate[o.Date.UTC().Format(time.DateOnly)] = o
	}

	pressure := seaLevelPressure
	bearing := prevailingWindBearing
	if current != nil {
		pressure = current.Pressure
		bearing = current.WindDirection
	}

	slots := make([]baseSlot, domain.HorizonHours)
	for i := range slots {
		at := start.Add(time.Duration(i) * time.Hour)
		day, ok := byDate[at.Format(time.DateOnly)]
		if !ok {
			day = domain.ClimateOutlook(c.Latitude, c.Longitude, at)
		}
		sample := domain.WeatherSample{
			Timestamp:     at,
			WindDirection: bearing,
			CloudCover:    20 + 70*day.PrecipitationProbability,
			Visibility:    10 - 6*day.PrecipitationProbability,
		}
		slots[i] = baseSlot{at: at, day: day, sample: sample, pressure: pressure - 4*day.PrecipitationProbability}
	}
	return slots
}

func (p sourceProfile) series(c domain.Coordinate, base []baseSlot, current *domain.ConditionsSnapshot) []domain.WeatherSample {
	out := make([]domain.WeatherSample, len(base))
	for i, b := range base {
		solar := domain.SolarHour(b.at, c.Longitude) + p.phaseHours
		temp := domain.DiurnalTemperature(b.day.TemperatureMin, b.day.TemperatureMax, solar)
		humidity := b.day.Humidity + (b.day.TemperatureMax-temp)*2

		s := b.sample
		s.Temperature = temp + p.tempBias
		s.Humidity = clampPercent(humidity + p.humidityBias)
		s.Pressure = b.pressure
		s.WindSpeed = b.day.WindSpeed * p.windScale
		s.Precipitation = math.Max(0, b.day.PrecipitationMM) / 24 * p.precipScale
		s.UVIndex = domain.UVIndex(solar, s.CloudCover)
		out[i] = s
	}

	if p.nudged && current != nil {
		nudge(out, current)
	}
	return out
}

// nudge pulls a series toward the current observation, fully at the first
// slot and decaying exponentially with lead time.
func nudge(series []domain.WeatherSample, current *domain.ConditionsSnapshot) {
	if len(series) == 0 {
		return
	}
	dTemp := current.Temperature - series[0].Temperature
	dHumidity := current.Humidity - series[0].Humidity
	dWind := current.WindSpeed - series[0].WindSpeed
	dCloud := current.CloudCover - series[0].CloudCover

	for i := range series {
		w := math.Exp(-float64(i) / nudgeDecayHours)
		series[i].Temperature += dTemp * w
		series[i].Humidity = clampPercent(series[i].Humidity + dHumidity*w)
		series[i].WindSpeed = math.Max(0, series[i].WindSpeed+dWind*w)
		series[i].CloudCover = clampPercent(series[i].CloudCover + dCloud*w)
	}
	series[0].Precipitation = current.Precipitation
	series[0].Visibility = current.Visibility
	series[0].UVIndex = current.UVIndex
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
