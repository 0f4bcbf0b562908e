package domain

import (
	"math"
	"time"
)

const (
	seasonPeakDayOfYear = 200
	coolestSolarHour    = 6.0
	warmestSolarHour    = 15.0
)

// ClimateOutlook is a deterministic climatological estimate for one day:
// a latitude-driven annual cycle with lapse-rate correction for terrain and
// reproducible day-to-day variation.
func ClimateOutlook(lat, lon float64, date time.Time) DailyOutlook {
	day := dateOf(date)
	absLat := math.Abs(lat)
	doy := float64(day.YearDay())
	year := float64(day.Year())

	phase := 2 * math.Pi * (doy - seasonPeakDayOfYear) / 365.25
	if lat < 0 {
		phase += math.Pi
	}
	season := math.Cos(phase)

	annualMean := 27 - 0.45*absLat
	amplitude := 3 + 0.28*absLat
	lapse := (terrainHeight(lat, lon) - DefaultReferenceElevationMeters) * LapseRate
	noise := (hash01(lat+doy, lon+year) - 0.5) * 4
	mean := annualMean + amplitude*season + lapse + noise
	diurnal := 8 + 4*hash01(lon+doy, lat-year)

	wetProb := clamp(0.3+0.1*season, 0.05, 0.9)
	precip := 0.0
	if hash01(lon*3+doy, lat*7+year) < wetProb {
		r := hash01(lat*5-doy, lon*11+year)
		precip = 1 + 14*r*r
	}

	return DailyOutlook{
		Date:                     day,
		TemperatureMin:           round(mean-diurnal/2, 1),
		TemperatureMax:           round(mean+diurnal/2, 1),
		PrecipitationProbability: round(wetProb, 2),
		PrecipitationMM:          round(precip, 1),
		WindSpeed:                round(2.5+3*hash01(doy-lat, year+lon), 1),
		Humidity:                 round(55+30*wetProb, 0),
	}
}

// DiurnalTemperature interpolates a day's temperature at a local solar
// hour: the minimum falls at 06:00, the maximum at 15:00, with cosine
// warming and cooling between them.
func DiurnalTemperature(minT, maxT, solarHour float64) float64 {
	h := math.Mod(math.Mod(solarHour, 24)+24, 24)
	mid := (minT + maxT) / 2
	amp := (maxT - minT) / 2
	if h >= coolestSolarHour && h <= warmestSolarHour {
		return mid - amp*math.Cos(math.Pi*(h-coolestSolarHour)/(warmestSolarHour-coolestSolarHour))
	}
	d := h - warmestSolarHour
	if d < 0 {
		d += 24
	}
	return mid + amp*math.Cos(math.Pi*d/(24-(warmestSolarHour-coolestSolarHour)))
}

// SolarHour returns the local mean solar hour for a UTC instant.
func SolarHour(t time.Time, lon float64) float64 {
	t = t.UTC()
	h := float64(t.Hour()) + float64(t.Minute())/60 + lon/15
	return math.Mod(math.Mod(h, 24)+24, 24)
}

// UVIndex approximates the UV index from the local solar hour and cloud
// cover percentage. It is zero outside 06:00-18:00.
func UVIndex(solarHour, cloudCover float64) float64 {
	if solarHour < 6 || solarHour > 18 {
		return 0
	}
	sun := math.Sin(math.Pi * (solarHour - 6) / 12)
	return 9 * sun * (1 - 0.7*clamp(cloudCover, 0, 100)/100)
}
