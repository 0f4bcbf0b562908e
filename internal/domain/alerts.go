package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	alertWindowDays  = 3
	alertWindowHours = 24

	freezeThreshold        = 0.0
	freezeHighThreshold    = -2.0
	freezeExtremeThreshold = -5.0
	frostThreshold         = 4.0
	floodThreshold         = 50.0
	windThreshold          = 15.0
	windExtremeThreshold   = 25.0
	hailMinTemperature     = 24.0
	hailMinPrecipitation   = 5.0
	stormMaxPressure       = 995.0
	stormMinWind           = 12.0
	droughtMaxPrecip       = 1.0
	droughtMinTempMax      = 32.0
)

// DetectAlerts scans a built forecast for agronomic threshold breaches. It
// performs no I/O; daily checks cover the next three days and hourly checks
// the next 24 hours.
func DetectAlerts(f HyperlocalForecast) []WeatherAlert {
	days := f.Daily
	if len(days) > alertWindowDays {
		days = days[:alertWindowDays]
	}
	hours := f.Hourly
	if len(hours) > alertWindowHours {
		hours = hours[:alertWindowHours]
	}

	var alerts []WeatherAlert
	if a, ok := temperatureAlert(days); ok {
		alerts = append(alerts, a)
	}
	if a, ok := floodAlert(days); ok {
		alerts = append(alerts, a)
	}
	if a, ok := droughtAlert(days); ok {
		alerts = append(alerts, a)
	}
	if a, ok := windAlert(hours); ok {
		alerts = append(alerts, a)
	}
	if a, ok := stormAlert(hours); ok {
		alerts = append(alerts, a)
	}
	if a, ok := hailAlert(hours); ok {
		alerts = append(alerts, a)
	}
	return alerts
}

// temperatureAlert raises a freeze alert for sub-zero lows, or a milder
// frost alert for lows in [0, 4). Never both.
func temperatureAlert(days []DailyForecast) (WeatherAlert, bool) {
	if len(days) == 0 {
		return WeatherAlert{}, false
	}
	minLow := math.Inf(1)
	for _, d := range days {
		minLow = math.Min(minLow, d.TemperatureMin)
	}

	if minLow < freezeThreshold {
		start, end := dayRange(days, func(d DailyForecast) bool { return d.TemperatureMin < freezeThreshold })
		severity := SeverityModerate
		switch {
		case minLow < freezeExtremeThreshold:
			severity = SeverityExtreme
		case minLow < freezeHighThreshold:
			severity = SeverityHigh
		}
		return newAlert(AlertFreeze, severity, start, end,
			fmt.Sprintf("Freeze expected with lows down to %.1f°C", minLow),
			FarmingImpact{
				Crops:      []string{"tender vegetables", "fruit blossoms", "emerging seedlings", "winter wheat"},
				Operations: []string{"irrigation systems", "livestock watering", "planting"},
				Recommendations: []string{
					"Protect sensitive crops with row covers or frost cloth",
					"Drain or insulate exposed irrigation lines",
					"Delay planting until soil temperatures recover",
					"Ensure livestock have unfrozen water and shelter",
				},
			}), true
	}

	if minLow < frostThreshold {
		start, end := dayRange(days, func(d DailyForecast) bool { return d.TemperatureMin < frostThreshold })
		return newAlert(AlertFrost, SeverityModerate, start, end,
			fmt.Sprintf("Frost possible with lows near %.1f°C", minLow),
			FarmingImpact{
				Crops:      []string{"tender vegetables", "fruit blossoms", "emerging seedlings"},
				Operations: []string{"planting", "transplanting"},
				Recommendations: []string{
					"Cover frost-sensitive plants overnight",
					"Irrigate before sunset to hold soil heat",
					"Postpone transplanting until lows stay above 4°C",
				},
			}), true
	}
	return WeatherAlert{}, false
}

func floodAlert(days []DailyForecast) (WeatherAlert, bool) {
	wet := func(d DailyForecast) bool { return d.Precipitation.Total > floodThreshold }
	maxTotal := 0.0
	for _, d := range days {
		if wet(d) {
			maxTotal = math.Max(maxTotal, d.Precipitation.Total)
		}
	}
	if maxTotal == 0 {
		return WeatherAlert{}, false
	}
	start, end := dayRange(days, wet)
	return newAlert(AlertFlood, SeverityHigh, start, end,
		fmt.Sprintf("Heavy rainfall of up to %.0fmm in a day may cause flooding", maxTotal),
		FarmingImpact{
			Crops:      []string{"row crops in low-lying fields", "root crops", "stored hay and grain"},
			Operations: []string{"field access and heavy machinery", "harvest", "fertilizer application"},
			Recommendations: []string{
				"Delay field access and heavy machinery until soils drain",
				"Clear drainage ditches and tile outlets",
				"Postpone fertilizer and chemical applications to avoid runoff",
				"Move equipment and stored feed out of flood-prone areas",
			},
		}), true
}

func droughtAlert(days []DailyForecast) (WeatherAlert, bool) {
	if len(days) == 0 {
		return WeatherAlert{}, false
	}
	var maxSum float64
	for _, d := range days {
		if d.Precipitation.Total >= droughtMaxPrecip {
			return WeatherAlert{}, false
		}
		maxSum += d.TemperatureMax
	}
	avgMax := maxSum / float64(len(days))
	if avgMax < droughtMinTempMax {
		return WeatherAlert{}, false
	}
	return newAlert(AlertDrought, SeverityModerate, days[0].Date, days[len(days)-1].Date.Add(24*time.Hour),
		fmt.Sprintf("Dry, hot spell with average highs of %.1f°C and no measurable rain", avgMax),
		FarmingImpact{
			Crops:      []string{"corn", "soybeans", "vegetables", "pasture"},
			Operations: []string{"irrigation", "spraying"},
			Recommendations: []string{
				"Prioritize irrigation for crops at moisture-sensitive stages",
				"Irrigate during early morning to limit evaporation",
				"Monitor soil moisture daily",
			},
		}), true
}

func windAlert(hours []HourlyForecast) (WeatherAlert, bool) {
	start, end, peak, ok := hourRange(hours, func(h HourlyForecast) bool { return h.WindSpeed > windThreshold }, func(h HourlyForecast) float64 { return h.WindSpeed })
	if !ok {
		return WeatherAlert{}, false
	}
	severity := SeverityHigh
	if peak > windExtremeThreshold {
		severity = SeverityExtreme
	}
	return newAlert(AlertWind, severity, start, end,
		fmt.Sprintf("Strong winds up to %.1f m/s", peak),
		FarmingImpact{
			Crops:      []string{"tall crops", "orchards", "greenhouse crops"},
			Operations: []string{"spraying", "irrigation with center pivots", "harvest"},
			Recommendations: []string{
				"Suspend pesticide and herbicide spraying to prevent drift",
				"Secure greenhouse covers, row covers and loose equipment",
				"Park center pivots in the wind direction",
			},
		}), true
}

func stormAlert(hours []HourlyForecast) (WeatherAlert, bool) {
	start, end, peak, ok := hourRange(hours, func(h HourlyForecast) bool {
		return h.Pressure < stormMaxPressure && h.WindSpeed > stormMinWind
	}, func(h HourlyForecast) float64 { return h.WindSpeed })
	if !ok {
		return WeatherAlert{}, false
	}
	return newAlert(AlertStorm, SeverityHigh, start, end,
		fmt.Sprintf("Low pressure system with winds up to %.1f m/s", peak),
		FarmingImpact{
			Crops:      []string{"standing grain", "orchards", "greenhouse crops"},
			Operations: []string{"harvest", "field work", "livestock grazing"},
			Recommendations: []string{
				"Bring livestock to sheltered areas",
				"Complete urgent harvest before the storm arrives",
				"Secure structures and equipment",
			},
		}), true
}

func hailAlert(hours []HourlyForecast) (WeatherAlert, bool) {
	start, end, peak, ok := hourRange(hours, func(h HourlyForecast) bool {
		return h.Temperature >= hailMinTemperature && h.Precipitation >= hailMinPrecipitation
	}, func(h HourlyForecast) float64 { return h.Precipitation })
	if !ok {
		return WeatherAlert{}, false
	}
	return newAlert(AlertHail, SeverityHigh, start, end,
		fmt.Sprintf("Convective rainfall of %.1f mm/h in warm air indicates hail potential", peak),
		FarmingImpact{
			Crops:      []string{"fruit", "vegetables", "small grains", "tobacco"},
			Operations: []string{"harvest", "equipment storage"},
			Recommendations: []string{
				"Deploy hail nets over high-value crops where available",
				"Move vehicles and equipment under cover",
				"Scout fields for damage after the storm and document for insurance",
			},
		}), true
}

func newAlert(t AlertType, s Severity, start, end time.Time, description string, impact FarmingImpact) WeatherAlert {
	return WeatherAlert{
		ID:            uuid.NewString(),
		Type:          t,
		Severity:      s,
		StartTime:     start,
		EndTime:       end,
		Description:   description,
		FarmingImpact: impact,
	}
}

// dayRange returns the span from the first to the last matching day.
func dayRange(days []DailyForecast, match func(DailyForecast) bool) (time.Time, time.Time) {
	var start, end time.Time
	for _, d := range days {
		if !match(d) {
			continue
		}
		if start.IsZero() {
			start = d.Date
		}
		end = d.Date.Add(24 * time.Hour)
	}
	return start, end
}

// hourRange returns the span of matching hours and the peak of value over
// them.
func hourRange(hours []HourlyForecast, match func(HourlyForecast) bool, value func(HourlyForecast) float64) (time.Time, time.Time, float64, bool) {
	var start, end time.Time
	peak := math.Inf(-1)
	found := false
	for _, h := range hours {
		if !match(h) {
			continue
		}
		if !found {
			start = h.Timestamp
			found = true
		}
		end = h.Timestamp.Add(time.Hour)
		peak = math.Max(peak, value(h))
	}
	return start, end, peak, found
}
