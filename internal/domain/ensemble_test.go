package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func constantSample(temp, humidity float64) WeatherSample {
	return WeatherSample{
		Temperature:   temp,
		Humidity:      humidity,
		Pressure:      1013,
		WindSpeed:     4,
		WindDirection: 180,
		CloudCover:    20,
		Visibility:    10,
	}
}

func makeSource(name string, weight float64, hours int, sample func(i int) WeatherSample) WeatherSource {
	series := make([]WeatherSample, hours)
	for i := range series {
		s := sample(i)
		s.Timestamp = testStart.Add(time.Duration(i) * time.Hour)
		series[i] = s
	}
	return WeatherSource{Name: name, Weight: weight, Accuracy: 0.8, Series: series}
}

func constantSource(name string, weight, temp, humidity float64) WeatherSource {
	return makeSource(name, weight, HorizonHours, func(int) WeatherSample { return constantSample(temp, humidity) })
}

func TestBuildEnsemble_Shape(t *testing.T) {
	result, err := BuildEnsemble([]WeatherSource{
		constantSource("a", 0.4, 10, 60),
		constantSource("b", 0.3, 12, 70),
	}, nil)

	require.NoError(t, err)
	assert.Len(t, result.Hourly, HorizonHours)
	assert.Len(t, result.Daily, 2)
	assert.Equal(t, result.Hourly[0], result.Current)
	assert.Equal(t, []string{"a", "b"}, result.Sources)
	assert.Equal(t, testStart, result.Daily[0].Date)
	assert.Equal(t, testStart.AddDate(0, 0, 1), result.Daily[1].Date)
}

func TestBuildEnsemble_Renormalizes(t *testing.T) {
	full := []WeatherSource{
		constantSource("a", 0.3, 10, 90),
		constantSource("b", 0.2, 20, 100),
	}
	result, err := BuildEnsemble(full, nil)
	require.NoError(t, err)
	assert.InDelta(t, 14, result.Hourly[5].Temperature, 1e-9)
	assert.InDelta(t, 94, result.Hourly[5].Humidity, 1e-9)

	// A source with a short series is excluded; the remaining weight is
	// renormalized to 1.
	degraded := []WeatherSource{
		constantSource("a", 0.3, 10, 90),
		makeSource("b", 0.2, 12, func(int) WeatherSample { return constantSample(20, 100) }),
	}
	result, err = BuildEnsemble(degraded, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.Sources)
	for _, h := range result.Hourly {
		assert.InDelta(t, 10, h.Temperature, 1e-9)
		assert.InDelta(t, 90, h.Humidity, 1e-9)
	}
}

func TestBuildEnsemble_HumidityStaysInRange(t *testing.T) {
	sources := []WeatherSource{
		constantSource("a", 0.25, 10, 99),
		constantSource("b", 0.30, 10, 100),
		{Name: "empty", Weight: 0.4},
	}
	adjs := []Adjustment{{Factor: FactorMicroclimate, Quantity: QuantityHumidity, Delta: 8}}

	result, err := BuildEnsemble(sources, adjs)

	require.NoError(t, err)
	for _, h := range result.Hourly {
		assert.GreaterOrEqual(t, h.Humidity, 0.0)
		assert.LessOrEqual(t, h.Humidity, 100.0)
	}
}

func TestBuildEnsemble_NoActiveSources(t *testing.T) {
	_, err := BuildEnsemble([]WeatherSource{
		{Name: "zero", Weight: 0, Series: constantSource("x", 1, 1, 1).Series},
		{Name: "short", Weight: 0.5, Series: make([]WeatherSample, 10)},
	}, nil)
	assert.ErrorIs(t, err, ErrNoActiveSources)

	_, err = BuildEnsemble(nil, nil)
	assert.ErrorIs(t, err, ErrNoActiveSources)
}

func TestBuildEnsemble_AppliesHourlyAdjustments(t *testing.T) {
	adjs := []Adjustment{
		{Factor: FactorElevation, Quantity: QuantityTemperature, Delta: -2.6},
		{Factor: FactorUrbanHeatIsland, Quantity: QuantityTemperature, Delta: 1.1},
		{Factor: FactorMicroclimate, Quantity: QuantityWindSpeed, Scale: 0.5},
	}

	result, err := BuildEnsemble([]WeatherSource{constantSource("a", 1, 15, 50)}, adjs)

	require.NoError(t, err)
	for _, h := range result.Hourly {
		assert.InDelta(t, 13.5, h.Temperature, 1e-9)
		assert.InDelta(t, 2, h.WindSpeed, 1e-9)
	}
}

func TestBuildEnsemble_PrecipitationProbabilityIsDaily(t *testing.T) {
	wet := makeSource("wet", 1, HorizonHours, func(i int) WeatherSample {
		s := constantSample(15, 80)
		if i < 24 {
			s.Precipitation = 0.5
		}
		return s
	})
	adjs := []Adjustment{{Factor: FactorMicroclimate, Quantity: QuantityPrecipitationProbability, Delta: 0.05}}

	result, err := BuildEnsemble([]WeatherSource{wet}, adjs)

	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Hourly[0].Precipitation, 1e-9)
	assert.InDelta(t, 12, result.Daily[0].Precipitation.Total, 1e-9)
	// min(1, 12*0.1+0.1) = 1, clamped after the correction.
	assert.Equal(t, 1.0, result.Daily[0].Precipitation.Probability)
	assert.InDelta(t, 0.15, result.Daily[1].Precipitation.Probability, 1e-9)
	assert.Equal(t, "rain", result.Daily[0].Precipitation.Type)
	assert.Equal(t, "none", result.Daily[1].Precipitation.Type)
}

func TestBuildEnsemble_DailyRollup(t *testing.T) {
	src := makeSource("a", 1, HorizonHours, func(i int) WeatherSample {
		s := constantSample(float64(i%24), 60)
		return s
	})

	result, err := BuildEnsemble([]WeatherSource{src}, nil)

	require.NoError(t, err)
	for _, d := range result.Daily {
		assert.Equal(t, 0.0, d.TemperatureMin)
		assert.Equal(t, 23.0, d.TemperatureMax)
		assert.Equal(t, 60.0, d.Humidity)
		assert.Equal(t, 180.0, d.WindDirection)
	}
}

func TestBuildEnsemble_WindDirectionVectorMean(t *testing.T) {
	north1 := makeSource("a", 0.5, HorizonHours, func(int) WeatherSample {
		s := constantSample(10, 50)
		s.WindDirection = 350
		return s
	})
	north2 := makeSource("b", 0.5, HorizonHours, func(int) WeatherSample {
		s := constantSample(10, 50)
		s.WindDirection = 10
		return s
	})

	result, err := BuildEnsemble([]WeatherSource{north1, north2}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Hourly[0].WindDirection)
}

func TestBuildEnsemble_Confidence(t *testing.T) {
	agree, err := BuildEnsemble([]WeatherSource{
		constantSource("a", 0.5, 10, 50),
		constantSource("b", 0.5, 10, 50),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, ensembleConfidenceMax, agree.Confidence)

	disagree, err := BuildEnsemble([]WeatherSource{
		constantSource("a", 0.5, 5, 50),
		constantSource("b", 0.5, 15, 50),
	}, nil)
	require.NoError(t, err)
	// Weighted spread is 5°C.
	assert.InDelta(t, 0.65, disagree.Confidence, 1e-9)
	assert.Less(t, disagree.Confidence, agree.Confidence)
}

func TestDailyConfidence_NonIncreasing(t *testing.T) {
	assert.Equal(t, 0.85, DailyConfidence(0))
	for d := 1; d < 20; d++ {
		assert.LessOrEqual(t, DailyConfidence(d), DailyConfidence(d-1))
		assert.GreaterOrEqual(t, DailyConfidence(d), dailyConfidenceFloor)
	}

	result, err := BuildEnsemble([]WeatherSource{constantSource("a", 1, 10, 50)}, nil)
	require.NoError(t, err)
	for i := 1; i < len(result.Daily); i++ {
		assert.LessOrEqual(t, result.Daily[i].Confidence, result.Daily[i-1].Confidence)
	}
}

func TestRollupDaily_DropsPartialBucket(t *testing.T) {
	hourly := make([]HourlyForecast, 30)
	for i := range hourly {
		hourly[i] = HourlyForecast{Timestamp: testStart.Add(time.Duration(i) * time.Hour)}
	}
	assert.Len(t, rollupDaily(hourly, correction{scale: 1}), 1)

	long := make([]HourlyForecast, 24*9)
	for i := range long {
		long[i] = HourlyForecast{Timestamp: testStart.Add(time.Duration(i) * time.Hour)}
	}
	assert.Len(t, rollupDaily(long, correction{scale: 1}), MaxDailyDays)
}

func TestPrecipitationProbability(t *testing.T) {
	assert.InDelta(t, 0.1, PrecipitationProbability(0), 1e-9)
	assert.InDelta(t, 0.6, PrecipitationProbability(5), 1e-9)
	assert.Equal(t, 1.0, PrecipitationProbability(75))
}
