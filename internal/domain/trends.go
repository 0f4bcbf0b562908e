package domain

import (
	"math"
	"time"
)

const (
	// MaxTrendDays bounds the length of a trends request.
	MaxTrendDays = 366

	gddBaseC        = 10.0
	wetDayMM        = 1.0
	extremeHeatC    = 35.0
	extremeColdC    = -10.0
	extremePrecipMM = 50.0
)

// TrendSummary aggregates a trends series. DryDays + WetDays always equals
// the series length.
type TrendSummary struct {
	AvgTemperature     float64 `json:"avg_temperature"`
	TotalPrecipitation float64 `json:"total_precipitation"`
	DryDays            int     `json:"dry_days"`
	WetDays            int     `json:"wet_days"`
	ExtremeEvents      int     `json:"extreme_events"`
	AccumulatedGDD     float64 `json:"accumulated_gdd"`
}

// WeatherTrends is a daily series over an inclusive date range.
type WeatherTrends struct {
	Start              time.Time    `json:"start"`
	End                time.Time    `json:"end"`
	TemperatureTrend   []float64    `json:"temperature_trend"`
	PrecipitationTrend []float64    `json:"precipitation_trend"`
	GrowingDegreeDays  []float64    `json:"growing_degree_days"`
	Summary            TrendSummary `json:"summary"`
}

// TrendDays returns the number of calendar days in [start, end].
func TrendDays(start, end time.Time) (int, error) {
	s, e := dateOf(start), dateOf(end)
	if e.Before(s) {
		return 0, invalidf("end date %s is before start date %s", e.Format(time.DateOnly), s.Format(time.DateOnly))
	}
	n := int(e.Sub(s)/(24*time.Hour)) + 1
	if n > MaxTrendDays {
		return 0, invalidf("date range of %d days exceeds %d", n, MaxTrendDays)
	}
	return n, nil
}

// BuildTrends builds the daily series for [start, end]. Days covered by the
// provider outlook use it; the rest fall back to climatology.
func BuildTrends(c Coordinate, start, end time.Time, outlook []DailyOutlook) (WeatherTrends, error) {
	n, err := TrendDays(start, end)
	if err != nil {
		return WeatherTrends{}, err
	}

	byDate := make(map[string]DailyOutlook, len(outlook))
	for _, o := range outlook {
		byDate[dateOf(o.Date).Format(time.DateOnly)] = o
	}

	t := WeatherTrends{
		Start:              dateOf(start),
		End:                dateOf(end),
		TemperatureTrend:   make([]float64, 0, n),
		PrecipitationTrend: make([]float64, 0, n),
		GrowingDegreeDays:  make([]float64, 0, n),
	}

	var tempSum float64
	for i := 0; i < n; i++ {
		day := t.Start.AddDate(0, 0, i)
		o, ok := byDate[day.Format(time.DateOnly)]
		if !ok {
			o = ClimateOutlook(c.Latitude, c.Longitude, day)
		}

		mean := round((o.TemperatureMin+o.TemperatureMax)/2, 1)
		precip := round(math.Max(0, o.PrecipitationMM), 1)
		gdd := round(math.Max(0, mean-gddBaseC), 1)

		t.TemperatureTrend = append(t.TemperatureTrend, mean)
		t.PrecipitationTrend = append(t.PrecipitationTrend, precip)
		t.GrowingDegreeDays = append(t.GrowingDegreeDays, gdd)

		tempSum += mean
		t.Summary.TotalPrecipitation += precip
		t.Summary.AccumulatedGDD += gdd
		if precip < wetDayMM {
			t.Summary.DryDays++
		} else {
			t.Summary.WetDays++
		}
		if mean > extremeHeatC || mean < extremeColdC || precip > extremePrecipMM {
			t.Summary.ExtremeEvents++
		}
	}

	t.Summary.AvgTemperature = round(tempSum/float64(n), 1)
	t.Summary.TotalPrecipitation = round(t.Summary.TotalPrecipitation, 1)
	t.Summary.AccumulatedGDD = round(t.Summary.AccumulatedGDD, 1)
	return t, nil
}

// dateOf truncates t to midnight UTC of its calendar day.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
