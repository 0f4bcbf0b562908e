package provider

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 7, 15, 14, 25, 0, 0, time.UTC)

func TestSynthetic_CurrentConditions(t *testing.T) {
	p := NewSynthetic(clockwork.NewFakeClockAt(testNow))

	snap, err := p.CurrentConditions(context.Background(), 41.88, -93.1)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, testNow.Truncate(time.Hour), snap.ObservedAt)
	require.NotNil(t, snap.StationElevationMeters)
	assert.InDelta(t, 50, snap.Humidity, 50)
	assert.InDelta(t, 50, snap.CloudCover, 50)
	assert.GreaterOrEqual(t, snap.UVIndex, 0.0)
	assert.GreaterOrEqual(t, snap.Precipitation, 0.0)
}

func TestSynthetic_Deterministic(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	a, err := NewSynthetic(clock).CurrentConditions(context.Background(), 10.5, 20.25)
	require.NoError(t, err)
	b, err := NewSynthetic(clock).CurrentConditions(context.Background(), 10.5, 20.25)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSynthetic_NoCoverageNearPoles(t *testing.T) {
	p := NewSynthetic(clockwork.NewFakeClockAt(testNow))

	snap, err := p.CurrentConditions(context.Background(), 88, 0)
	require.NoError(t, err)
	assert.Nil(t, snap)

	outlook, err := p.Forecast(context.Background(), -86, 0, 3)
	require.NoError(t, err)
	assert.Nil(t, outlook)
}

func TestSynthetic_Forecast(t *testing.T) {
	p := NewSynthetic(clockwork.NewFakeClockAt(testNow))

	outlook, err := p.Forecast(context.Background(), 41.88, -93.1, 3)
	require.NoError(t, err)
	require.Len(t, outlook, 3)
	for i, d := range outlook {
		assert.Equal(t, time.Date(2026, 7, 15+i, 0, 0, 0, 0, time.UTC), d.Date)
		assert.LessOrEqual(t, d.TemperatureMin, d.TemperatureMax)
	}

	capped, err := p.Forecast(context.Background(), 41.88, -93.1, 40)
	require.NoError(t, err)
	assert.Len(t, capped, maxForecastDays)

	none, err := p.Forecast(context.Background(), 41.88, -93.1, 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSynthetic_CanceledContext(t *testing.T) {
	p := NewSynthetic(clockwork.NewFakeClockAt(testNow))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.CurrentConditions(ctx, 0, 0)
	require.ErrorIs(t, err, context.Canceled)
}
