// Package domain implements the hyperlocal forecasting rules as pure
// functions: terrain profiling, topographical adjustments, ensemble
// combination, alert detection, crop advice, trends and spatial analysis.
//
// # Forecast Shape
//
// Every source series and every hourly forecast covers the same 48 hourly
// slots starting at the current hour. Daily buckets are 24 consecutive
// hourly slots; a partial trailing bucket is dropped, so a 48-hour horizon
// yields two days.
//
// # Adjustment Composition
//
// An adjustment targets one quantity and carries an additive Delta and an
// optional multiplicative Scale. All adjustments on the same quantity
// compose: deltas are summed and scales multiplied, then applied as
//
//	corrected = value*scale + delta
//
// Temperature, humidity and wind speed are corrected on every hourly slot.
// Precipitation probability is a daily value and is corrected during the
// daily rollup.
//
// Elevation correction uses a fixed lapse rate:
//
//	delta = (pointElevation - referenceElevation) * -0.0065 °C/m
//
// and is only emitted when |delta| > 0.5°C.
//
// # Alert Thresholds
//
//	Freeze:  3-day minimum low < 0°C    | < -5 extreme, < -2 high, else moderate
//	Frost:   3-day minimum low in [0,4) | moderate, never alongside freeze
//	Flood:   any day total > 50mm       | high
//	Wind:    any hour in 24h > 15 m/s   | > 25 extreme, else high
//	Storm:   pressure < 995 hPa with wind > 12 m/s in 24h | high
//	Hail:    temperature ≥ 24°C with ≥ 5mm/h in 24h       | high
//	Drought: no day ≥ 1mm and mean high ≥ 32°C            | moderate
//
// # Units
//
// Temperature °C, humidity %, pressure hPa, wind speed m/s, wind direction
// degrees, precipitation mm, cloud cover %, visibility km.
package domain
