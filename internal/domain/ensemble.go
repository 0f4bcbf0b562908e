package domain

import (
	"math"
	"time"
)

const (
	dailyConfidenceBase  = 0.85
	dailyConfidenceStep  = 0.05
	dailyConfidenceFloor = 0.5

	ensembleConfidenceMax = 0.9
	ensembleConfidenceMin = 0.5
	// spreadPenalty is the confidence lost per °C of weighted temperature
	// spread between sources.
	spreadPenalty = 0.05
)

// EnsembleResult is the output of BuildEnsemble.
type EnsembleResult struct {
	Current    WeatherSample
	Hourly     []HourlyForecast
	Daily      []DailyForecast
	Confidence float64
	Sources    []string
}

// BuildEnsemble combines weighted sources slot by slot, applies the hourly
// adjustments uniformly, and rolls the result into daily buckets.
//
// A source is active when its weight is positive and its series covers the
// full horizon. Weights are renormalized over the active set, so an omitted
// source never pulls values out of their valid range.
func BuildEnsemble(sources []WeatherSource, adjustments []Adjustment) (EnsembleResult, error) {
	active := activeSources(sources)
	if len(active) == 0 {
		return EnsembleResult{}, ErrNoActiveSources
	}

	var totalWeight float64
	for _, s := range active {
		totalWeight += s.Weight
	}

	corrections := composeAdjustments(adjustments)
	hourly := make([]HourlyForecast, HorizonHours)
	for i := range hourly {
		hourly[i] = applyHourlyCorrections(combineSlot(active, totalWeight, i), corrections)
	}

	names := make([]string, len(active))
	for i, s := range active {
		names[i] = s.Name
	}

	return EnsembleResult{
		Current:    hourly[0],
		Hourly:     hourly,
		Daily:      rollupDaily(hourly, correctionFor(corrections, QuantityPrecipitationProbability)),
		Confidence: ensembleConfidence(active, totalWeight),
		Sources:    names,
	}, nil
}

func activeSources(sources []WeatherSource) []WeatherSource {
	out := make([]WeatherSource, 0, len(sources))
	for _, s := range sources {
		if s.Weight <= 0 || len(s.Series) < HorizonHours {
			continue
		}
		out = append(out, s)
	}
	return out
}

// combineSlot computes the normalized weighted average of every numeric
// field at slot i. Wind direction is averaged as a vector.
func combineSlot(active []WeatherSource, totalWeight float64, i int) WeatherSample {
	var out WeatherSample
	var windX, windY float64

	out.Timestamp = active[0].Series[i].Timestamp
	for _, s := range active {
		w := s.Weight / totalWeight
		v := s.Series[i]
		out.Temperature += v.Temperature * w
		out.Humidity += v.Humidity * w
		out.Pressure += v.Pressure * w
		out.WindSpeed += v.WindSpeed * w
		out.Precipitation += v.Precipitation * w
		out.CloudCover += v.CloudCover * w
		out.Visibility += v.Visibility * w
		out.UVIndex += v.UVIndex * w

		rad := v.WindDirection * math.Pi / 180
		windX += math.Sin(rad) * w
		windY += math.Cos(rad) * w
	}
	out.WindDirection = bearing(windX, windY)
	return out
}

func applyHourlyCorrections(s WeatherSample, corrections map[Quantity]correction) WeatherSample {
	for q, c := range corrections {
		if !q.Hourly() {
			continue
		}
		switch q {
		case QuantityTemperature:
			s.Temperature = c.apply(s.Temperature)
		case QuantityHumidity:
			s.Humidity = c.apply(s.Humidity)
		case QuantityWindSpeed:
			s.WindSpeed = c.apply(s.WindSpeed)
		}
	}
	return normalizeSample(s)
}

// normalizeSample clamps every field to its physical domain and rounds for
// presentation.
func normalizeSample(s WeatherSample) WeatherSample {
	s.Temperature = round(s.Temperature, 2)
	s.Humidity = round(clamp(s.Humidity, 0, 100), 1)
	s.Pressure = round(s.Pressure, 1)
	s.WindSpeed = round(math.Max(0, s.WindSpeed), 2)
	s.WindDirection = math.Mod(round(s.WindDirection, 0), 360)
	s.Precipitation = round(math.Max(0, s.Precipitation), 2)
	s.CloudCover = round(clamp(s.CloudCover, 0, 100), 1)
	s.Visibility = round(math.Max(0, s.Visibility), 1)
	s.UVIndex = round(math.Max(0, s.UVIndex), 1)
	return s
}

// rollupDaily groups consecutive 24-hour buckets into daily forecasts.
// A partial trailing bucket is dropped. probability corrects the derived
// precipitation probability.
func rollupDaily(hourly []HourlyForecast, probability correction) []DailyForecast {
	days := len(hourly) / 24
	if days > MaxDailyDays {
		days = MaxDailyDays
	}

	daily := make([]DailyForecast, 0, days)
	for d := 0; d < days; d++ {
		bucket := hourly[d*24 : (d+1)*24]
		daily = append(daily, summarizeDay(bucket, d, probability))
	}
	return daily
}

func summarizeDay(bucket []HourlyForecast, offset int, probability correction) DailyForecast {
	minT, maxT := math.Inf(1), math.Inf(-1)
	var humidity, wind, total, cloud, windX, windY, maxWind float64

	for _, h := range bucket {
		minT = math.Min(minT, h.Temperature)
		maxT = math.Max(maxT, h.Temperature)
		humidity += h.Humidity
		wind += h.WindSpeed
		maxWind = math.Max(maxWind, h.WindSpeed)
		total += h.Precipitation
		cloud += h.CloudCover

		rad := h.WindDirection * math.Pi / 180
		windX += math.Sin(rad) * h.WindSpeed
		windY += math.Cos(rad) * h.WindSpeed
	}
	n := float64(len(bucket))

	first := bucket[0].Timestamp
	date := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())

	return DailyForecast{
		Date:           date,
		TemperatureMin: round(minT, 2),
		TemperatureMax: round(maxT, 2),
		Humidity:       round(humidity/n, 1),
		WindSpeed:      round(wind/n, 2),
		WindDirection:  math.Mod(round(bearing(windX, windY), 0), 360),
		Precipitation: Precipitation{
			Total:       round(total, 2),
			Probability: round(clamp(probability.apply(PrecipitationProbability(total)), 0, 1), 2),
			Type:        precipitationType(total, minT, maxT),
		},
		Conditions: conditionsLabel(total, cloud/n, maxWind),
		Confidence: DailyConfidence(offset),
	}
}

// PrecipitationProbability derives a daily probability from the daily total.
func PrecipitationProbability(total float64) float64 {
	return math.Min(1, total*0.1+0.1)
}

// DailyConfidence decreases with the day offset and never rises.
func DailyConfidence(offset int) float64 {
	return round(math.Max(dailyConfidenceFloor, dailyConfidenceBase-dailyConfidenceStep*float64(offset)), 2)
}

func precipitationType(total, minT, maxT float64) string {
	switch {
	case total < 0.1:
		return "none"
	case maxT <= 1:
		return "snow"
	case minT <= 0:
		return "mixed"
	default:
		return "rain"
	}
}

func conditionsLabel(total, cloud, maxWind float64) string {
	switch {
	case total > 25 || maxWind > 17:
		return "stormy"
	case total > 2:
		return "rainy"
	case cloud > 70:
		return "cloudy"
	case cloud > 30:
		return "partly_cloudy"
	default:
		return "clear"
	}
}

// ensembleConfidence scores agreement between sources: the mean weighted
// standard deviation of temperature across slots lowers confidence.
func ensembleConfidence(active []WeatherSource, totalWeight float64) float64 {
	if len(active) == 1 {
		return round(ensembleConfidenceMin+(ensembleConfidenceMax-ensembleConfidenceMin)*active[0].Accuracy/2, 2)
	}

	var spread float64
	for i := 0; i < HorizonHours; i++ {
		var mean float64
		for _, s := range active {
			mean += s.Series[i].Temperature * s.Weight / totalWeight
		}
		var variance float64
		for _, s := range active {
			d := s.Series[i].Temperature - mean
			variance += d * d * s.Weight / totalWeight
		}
		spread += math.Sqrt(variance)
	}
	spread /= HorizonHours

	return round(clamp(ensembleConfidenceMax-spreadPenalty*spread, ensembleConfidenceMin, ensembleConfidenceMax), 2)
}

// bearing converts a wind vector into a compass bearing in [0, 360).
func bearing(x, y float64) float64 {
	if x == 0 && y == 0 {
		return 0
	}
	deg := math.Atan2(x, y) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
