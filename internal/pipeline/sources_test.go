package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sourceNow = time.Date(2026, 10, 15, 10, 42, 0, 0, time.UTC)

type fixedProvider struct {
	snap    *domain.ConditionsSnapshot
	outlook []domain.DailyOutlook
	err     error
}

func (p fixedProvider) CurrentConditions(context.Context, float64, float64) (*domain.ConditionsSnapshot, error) {
	return p.snap, p.err
}

func (p fixedProvider) Forecast(context.Context, float64, float64, int) ([]domain.DailyOutlook, error) {
	return p.outlook, p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func flatOutlook(start time.Time, days int, minT, maxT float64) []domain.DailyOutlook {
	out := make([]domain.DailyOutlook, days)
	for i := range out {
		out[i] = domain.DailyOutlook{
			Date:                     start.Truncate(24*time.Hour).AddDate(0, 0, i),
			TemperatureMin:           minT,
			TemperatureMax:           maxT,
			PrecipitationProbability: 0.2,
			WindSpeed:                4,
			Humidity:                 60,
		}
	}
	return out
}

func TestFetchSources_AllSources(t *testing.T) {
	p := fixedProvider{
		snap: &domain.ConditionsSnapshot{
			Temperature:            17.5,
			Humidity:               70,
			Pressure:               1009,
			WindSpeed:              3,
			CloudCover:             40,
			StationElevationMeters: ptr(312.0),
		},
		outlook: flatOutlook(sourceNow, 3, 8, 20),
	}
	a := NewSourceAggregator(p, clockwork.NewFakeClockAt(sourceNow), quietLogger())

	sources, err := a.FetchSources(context.Background(), domain.Coordinate{Latitude: 42, Longitude: -93.5})
	require.NoError(t, err)
	require.Len(t, sources, 4)

	start := sourceNow.Truncate(time.Hour)
	for _, s := range sources {
		require.Len(t, s.Series, domain.HorizonHours, s.Name)
		assert.Equal(t, start, s.Series[0].Timestamp, s.Name)
		assert.Equal(t, start.Add(47*time.Hour), s.Series[47].Timestamp, s.Name)
		assert.Equal(t, 312.0, s.ReferenceElevationMeters, s.Name)
		assert.Positive(t, s.Weight)
	}

	local := sources[3]
	assert.Equal(t, "local_composite", local.Name)
	assert.InDelta(t, 17.5, local.Series[0].Temperature, 1e-9)
	assert.InDelta(t, 70, local.Series[0].Humidity, 1e-9)
}

func TestFetchSources_UsesOutlookRange(t *testing.T) {
	p := fixedProvider{outlook: flatOutlook(sourceNow, 3, 8, 20)}
	a := NewSourceAggregator(p, clockwork.NewFakeClockAt(sourceNow), quietLogger())

	sources, err := a.FetchSources(context.Background(), domain.Coordinate{Latitude: 42, Longitude: -93.5})
	require.NoError(t, err)

	for _, s := range sources {
		if s.Name != "regional_model" {
			continue
		}
		for _, h := range s.Series {
			assert.GreaterOrEqual(t, h.Temperature, 8.2-1e-9)
			assert.LessOrEqual(t, h.Temperature, 20.2+1e-9)
			assert.InDelta(t, 1012.45, h.Pressure, 1e-9)
		}
	}
}

func TestFetchSources_NoCurrentConditionsOmitsLocalComposite(t *testing.T) {
	a := NewSourceAggregator(fixedProvider{}, clockwork.NewFakeClockAt(sourceNow), quietLogger())

	sources, err := a.FetchSources(context.Background(), domain.Coordinate{Latitude: 42, Longitude: -93.5})
	require.NoError(t, err)
	require.Len(t, sources, 3)
	for _, s := range sources {
		assert.NotEqual(t, "local_composite", s.Name)
		assert.Equal(t, domain.DefaultReferenceElevationMeters, s.ReferenceElevationMeters)
		assert.Len(t, s.Series, domain.HorizonHours)
	}
}

func TestFetchSources_ProviderErrorDegrades(t *testing.T) {
	p := fixedProvider{err: errors.New("upstream unavailable")}
	a := NewSourceAggregator(p, clockwork.NewFakeClockAt(sourceNow), quietLogger())

	sources, err := a.FetchSources(context.Background(), domain.Coordinate{Latitude: 42, Longitude: -93.5})
	require.NoError(t, err)
	assert.Len(t, sources, 3)
}

func TestFetchSources_NilProvider(t *testing.T) {
	a := NewSourceAggregator(nil, clockwork.NewFakeClockAt(sourceNow), quietLogger())

	sources, err := a.FetchSources(context.Background(), domain.Coordinate{Latitude: -33.9, Longitude: 18.4})
	require.NoError(t, err)
	assert.Len(t, sources, 3)
}

func TestFetchSources_CanceledContext(t *testing.T) {
	a := NewSourceAggregator(fixedProvider{}, clockwork.NewFakeClockAt(sourceNow), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.FetchSources(ctx, domain.Coordinate{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNudge_DecaysTowardBase(t *testing.T) {
	series := make([]domain.WeatherSample, 24)
	for i := range series {
		series[i] = domain.WeatherSample{Temperature: 10, Humidity: 50, WindSpeed: 2}
	}
	nudge(series, &domain.ConditionsSnapshot{Temperature: 16, Humidity: 50, WindSpeed: 2})

	assert.InDelta(t, 16, series[0].Temperature, 1e-9)
	assert.Greater(t, series[1].Temperature, series[12].Temperature)
	assert.InDelta(t, 10, series[23].Temperature, 0.2)
}
