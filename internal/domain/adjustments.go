package domain

import (
	"fmt"
	"math"
)

// AdjustmentFactor names the physical cause of a correction.
type AdjustmentFactor string

const (
	FactorElevation       AdjustmentFactor = "elevation"
	FactorWaterProximity  AdjustmentFactor = "water_proximity"
	FactorUrbanHeatIsland AdjustmentFactor = "urban_heat_island"
	FactorSlopeAspect     AdjustmentFactor = "slope_aspect"
	FactorMicroclimate    AdjustmentFactor = "microclimate"
)

// Quantity is the forecast variable an adjustment corrects.
type Quantity string

const (
	QuantityTemperature              Quantity = "temperature"
	QuantityHumidity                 Quantity = "humidity"
	QuantityWindSpeed                Quantity = "wind_speed"
	QuantityPrecipitationProbability Quantity = "precipitation_probability"
)

// Hourly reports whether the quantity is instantaneous and therefore
// corrected on every hourly slot. Precipitation probability is a daily value.
func (q Quantity) Hourly() bool {
	return q != QuantityPrecipitationProbability
}

// Adjustment is one topographical or microclimate correction. The corrected
// value is v*Scale + Delta, with a zero Scale meaning 1.
type Adjustment struct {
	Factor      AdjustmentFactor `json:"factor"`
	Quantity    Quantity         `json:"quantity"`
	Delta       float64          `json:"delta"`
	Scale       float64          `json:"scale,omitempty"`
	Description string           `json:"description"`
}

const (
	// LapseRate is the environmental lapse rate in °C per meter.
	LapseRate = -0.0065

	// DefaultReferenceElevationMeters is used when no source reports the
	// elevation its values are valid for.
	DefaultReferenceElevationMeters = 200.0

	minElevationDelta   = 0.5
	heatIslandRadiusKm  = 50.0
	heatIslandDecayKm   = 20.0
	minHeatIsland       = 0.1
	minSlopeDegrees     = 5.0
	slopeWarmingPerDeg  = 0.1
	maxSlopeTempDelta   = 2.0
	southAspectMinDeg   = 135.0
	southAspectMaxDeg   = 225.0
	northAspectLimitDeg = 45.0
)

// ComputeAdjustments derives every applicable correction for a point.
// Contributions to the same quantity are additive: temperature may carry
// elevation, heat-island, slope and microclimate entries at once.
func ComputeAdjustments(c Coordinate, topo TopographyProfile, referenceElevation float64) []Adjustment {
	var out []Adjustment

	if adj, ok := ElevationAdjustment(topo.ElevationMeters, referenceElevation); ok {
		out = append(out, adj)
	}

	if name, ok := NearWater(c.Latitude, c.Longitude); ok {
		out = append(out, Adjustment{
			Factor:      FactorWaterProximity,
			Quantity:    QuantityTemperature,
			Delta:       0,
			Description: fmt.Sprintf("Temperature extremes moderated by proximity to %s", name),
		})
	}

	if uhi := UrbanHeatIsland(c.Latitude, c.Longitude); uhi > minHeatIsland {
		out = append(out, Adjustment{
			Factor:      FactorUrbanHeatIsland,
			Quantity:    QuantityTemperature,
			Delta:       round(uhi, 2),
			Description: fmt.Sprintf("Urban heat island warming of %.1f°C", uhi),
		})
	}

	if adj, ok := slopeAspectAdjustment(topo); ok {
		out = append(out, adj)
	}

	out = append(out, microclimateAdjustments(topo.Microclimate)...)
	return out
}

// ElevationAdjustment applies the lapse rate to the height difference
// between the point and the reference. No entry is produced when the
// resulting correction is within ±0.5°C.
func ElevationAdjustment(pointElevation, referenceElevation float64) (Adjustment, bool) {
	diff := pointElevation - referenceElevation
	delta := diff * LapseRate
	if math.Abs(delta) <= minElevationDelta {
		return Adjustment{}, false
	}
	return Adjustment{
		Factor:      FactorElevation,
		Quantity:    QuantityTemperature,
		Delta:       round(delta, 2),
		Description: fmt.Sprintf("Lapse-rate correction for %.0fm elevation difference", diff),
	}, true
}

// UrbanHeatIsland sums the exponentially decaying warming of every
// reference urban center within 50 km.
func UrbanHeatIsland(lat, lon float64) float64 {
	total := 0.0
	for _, c := range urbanCenters {
		d := DistanceKm(lat, lon, c.Latitude, c.Longitude)
		if d > heatIslandRadiusKm {
			continue
		}
		total += c.Intensity * math.Exp(-d/heatIslandDecayKm)
	}
	return total
}

// ReferenceElevation is the weight-averaged elevation the sources' values
// are valid for.
func ReferenceElevation(sources []WeatherSource) float64 {
	var sum, weights float64
	for _, s := range sources {
		if s.Weight <= 0 {
			continue
		}
		sum += s.ReferenceElevationMeters * s.Weight
		weights += s.Weight
	}
	if weights == 0 {
		return DefaultReferenceElevationMeters
	}
	return sum / weights
}

func slopeAspectAdjustment(topo TopographyProfile) (Adjustment, bool) {
	if topo.SlopeDegrees <= minSlopeDegrees {
		return Adjustment{}, false
	}
	warmth := math.Min(topo.SlopeDegrees*slopeWarmingPerDeg, maxSlopeTempDelta)

	switch {
	case topo.AspectDegrees >= southAspectMinDeg && topo.AspectDegrees <= southAspectMaxDeg:
		return Adjustment{
			Factor:      FactorSlopeAspect,
			Quantity:    QuantityTemperature,
			Delta:       round(warmth, 2),
			Description: fmt.Sprintf("South-facing %.0f° slope receives extra insolation", topo.SlopeDegrees),
		}, true
	case topo.AspectDegrees <= northAspectLimitDeg || topo.AspectDegrees >= 360-northAspectLimitDeg:
		return Adjustment{
			Factor:      FactorSlopeAspect,
			Quantity:    QuantityTemperature,
			Delta:       round(-warmth, 2),
			Description: fmt.Sprintf("North-facing %.0f° slope receives reduced insolation", topo.SlopeDegrees),
		}, true
	default:
		return Adjustment{}, false
	}
}

func microclimateAdjustments(mc Microclimate) []Adjustment {
	switch mc {
	case MicroclimateValley:
		return []Adjustment{
			{Factor: FactorMicroclimate, Quantity: QuantityTemperature, Delta: -1.5, Description: "Cold air pooling in valley"},
			{Factor: FactorMicroclimate, Quantity: QuantityWindSpeed, Scale: 0.7, Description: "Valley sheltering reduces wind"},
			{Factor: FactorMicroclimate, Quantity: QuantityHumidity, Delta: 8, Description: "Moisture accumulation in valley"},
		}
	case MicroclimateHilltop:
		return []Adjustment{
			{Factor: FactorMicroclimate, Quantity: QuantityTemperature, Delta: 1.0, Description: "Hilltop above nocturnal inversion"},
			{Factor: FactorMicroclimate, Quantity: QuantityWindSpeed, Scale: 1.3, Description: "Hilltop exposure increases wind"},
			{Factor: FactorMicroclimate, Quantity: QuantityHumidity, Delta: -5, Description: "Better drainage and mixing on hilltop"},
		}
	case MicroclimateCoastal:
		return []Adjustment{
			{Factor: FactorMicroclimate, Quantity: QuantityTemperature, Delta: -0.5, Description: "Coastal cooling"},
		}
	default:
		return nil
	}
}

// correction is the composed effect of all adjustments on one quantity.
type correction struct {
	delta float64
	scale float64
}

func (c correction) apply(v float64) float64 {
	return v*c.scale + c.delta
}

// composeAdjustments sums deltas and multiplies scales per quantity.
func composeAdjustments(adjs []Adjustment) map[Quantity]correction {
	out := make(map[Quantity]correction)
	for _, a := range adjs {
		c, ok := out[a.Quantity]
		if !ok {
			c = correction{scale: 1}
		}
		c.delta += a.Delta
		if a.Scale != 0 {
			c.scale *= a.Scale
		}
		out[a.Quantity] = c
	}
	return out
}

func correctionFor(corrections map[Quantity]correction, q Quantity) correction {
	if c, ok := corrections[q]; ok {
		return c
	}
	return correction{scale: 1}
}
