package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int, low, high, precip float64) DailyForecast {
	return DailyForecast{
		Date:           testStart.AddDate(0, 0, offset),
		TemperatureMin: low,
		TemperatureMax: high,
		Precipitation:  Precipitation{Total: precip},
		WindSpeed:      3,
		Confidence:     DailyConfidence(offset),
	}
}

func calmHours(n int) []HourlyForecast {
	hours := make([]HourlyForecast, n)
	for i := range hours {
		hours[i] = HourlyForecast{
			Timestamp:   testStart.Add(time.Duration(i) * time.Hour),
			Temperature: 15,
			Pressure:    1013,
			WindSpeed:   4,
		}
	}
	return hours
}

func forecastWith(daily []DailyForecast, hourly []HourlyForecast) HyperlocalForecast {
	return HyperlocalForecast{Daily: daily, Hourly: hourly}
}

func alertsOfType(alerts []WeatherAlert, typ AlertType) []WeatherAlert {
	var out []WeatherAlert
	for _, a := range alerts {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestDetectAlerts_FreezeSeverity(t *testing.T) {
	tests := []struct {
		low  float64
		want Severity
	}{
		{-6, SeverityExtreme},
		{-3, SeverityHigh},
		{-1, SeverityModerate},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			f := forecastWith([]DailyForecast{day(0, 5, 12, 0), day(1, tt.low, 8, 0), day(2, 3, 10, 0)}, calmHours(HorizonHours))

			alerts := DetectAlerts(f)

			freeze := alertsOfType(alerts, AlertFreeze)
			require.Len(t, freeze, 1)
			assert.Equal(t, tt.want, freeze[0].Severity)
			assert.Empty(t, alertsOfType(alerts, AlertFrost))
			assert.Len(t, alerts, 1)
			assert.Equal(t, testStart.AddDate(0, 0, 1), freeze[0].StartTime)
			assert.Equal(t, testStart.AddDate(0, 0, 2), freeze[0].EndTime)
		})
	}
}

func TestDetectAlerts_FrostWithoutFreeze(t *testing.T) {
	f := forecastWith([]DailyForecast{day(0, 8, 15, 0), day(1, 2, 12, 0)}, calmHours(HorizonHours))

	alerts := DetectAlerts(f)

	frost := alertsOfType(alerts, AlertFrost)
	require.Len(t, frost, 1)
	assert.Equal(t, SeverityModerate, frost[0].Severity)
	assert.Empty(t, alertsOfType(alerts, AlertFreeze))
}

func TestDetectAlerts_OnlyNextThreeDays(t *testing.T) {
	f := forecastWith([]DailyForecast{
		day(0, 8, 15, 0), day(1, 8, 15, 0), day(2, 8, 15, 0), day(3, -10, 0, 80),
	}, nil)

	assert.Empty(t, DetectAlerts(f))
}

func TestDetectAlerts_Flood(t *testing.T) {
	f := forecastWith([]DailyForecast{day(0, 10, 20, 75), day(1, 10, 20, 5)}, calmHours(HorizonHours))

	alerts := DetectAlerts(f)

	flood := alertsOfType(alerts, AlertFlood)
	require.Len(t, flood, 1)
	assert.Equal(t, SeverityHigh, flood[0].Severity)
	hasFieldAccess := false
	for _, op := range flood[0].FarmingImpact.Operations {
		if strings.Contains(op, "field access") {
			hasFieldAccess = true
		}
	}
	assert.True(t, hasFieldAccess, "operations should mention field access: %v", flood[0].FarmingImpact.Operations)
}

func TestDetectAlerts_Wind(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		want  Severity
	}{
		{"high", 18, SeverityHigh},
		{"extreme", 27, SeverityExtreme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hours := calmHours(HorizonHours)
			hours[6].WindSpeed = tt.speed
			hours[7].WindSpeed = tt.speed - 1

			alerts := DetectAlerts(forecastWith([]DailyForecast{day(0, 10, 20, 0)}, hours))

			wind := alertsOfType(alerts, AlertWind)
			require.Len(t, wind, 1)
			assert.Equal(t, tt.want, wind[0].Severity)
			assert.Equal(t, hours[6].Timestamp, wind[0].StartTime)
			assert.Equal(t, hours[8].Timestamp, wind[0].EndTime)
		})
	}
}

func TestDetectAlerts_WindBeyond24HoursIgnored(t *testing.T) {
	hours := calmHours(HorizonHours)
	hours[30].WindSpeed = 40

	assert.Empty(t, DetectAlerts(forecastWith([]DailyForecast{day(0, 10, 20, 5)}, hours)))
}

func TestDetectAlerts_StormAndHail(t *testing.T) {
	hours := calmHours(HorizonHours)
	hours[3].Pressure = 990
	hours[3].WindSpeed = 13
	hours[10].Temperature = 27
	hours[10].Precipitation = 8

	alerts := DetectAlerts(forecastWith([]DailyForecast{day(0, 12, 28, 8)}, hours))

	require.Len(t, alertsOfType(alerts, AlertStorm), 1)
	hail := alertsOfType(alerts, AlertHail)
	require.Len(t, hail, 1)
	assert.Equal(t, SeverityHigh, hail[0].Severity)
	assert.Empty(t, alertsOfType(alerts, AlertWind))
}

func TestDetectAlerts_Drought(t *testing.T) {
	f := forecastWith([]DailyForecast{day(0, 20, 34, 0), day(1, 21, 35, 0.2)}, calmHours(HorizonHours))

	drought := alertsOfType(DetectAlerts(f), AlertDrought)
	require.Len(t, drought, 1)
	assert.Equal(t, SeverityModerate, drought[0].Severity)

	f.Daily[1].Precipitation.Total = 3
	assert.Empty(t, alertsOfType(DetectAlerts(f), AlertDrought))
}

func TestDetectAlerts_EveryAlertHasGuidance(t *testing.T) {
	hours := calmHours(HorizonHours)
	hours[2].WindSpeed = 30
	hours[2].Pressure = 980
	hours[5].Temperature = 26
	hours[5].Precipitation = 12
	f := forecastWith([]DailyForecast{day(0, -7, 4, 60), day(1, -2, 3, 0)}, hours)

	alerts := DetectAlerts(f)
	require.NotEmpty(t, alerts)

	ids := make(map[string]bool)
	for _, a := range alerts {
		assert.NotEmpty(t, a.FarmingImpact.Recommendations, "alert %s", a.Type)
		assert.NotEmpty(t, a.FarmingImpact.Crops, "alert %s", a.Type)
		assert.NotEmpty(t, a.FarmingImpact.Operations, "alert %s", a.Type)
		assert.NotEmpty(t, a.Description)
		assert.False(t, a.EndTime.Before(a.StartTime))
		assert.NotEmpty(t, a.ID)
		assert.False(t, ids[a.ID], "duplicate alert id")
		ids[a.ID] = true
	}
}

func TestDetectAlerts_EmptyForecast(t *testing.T) {
	assert.Empty(t, DetectAlerts(HyperlocalForecast{}))
}
