package domain

import (
	"context"
	"log/slog"
	"math"
)

const (
	// gradientStepDeg is the finite-difference step for slope and curvature
	// (about 110 m of latitude).
	gradientStepDeg  = 0.001
	metersPerDegLat  = 110540.0
	metersPerDegLon  = 111320.0
	urbanRadiusKm    = 15.0
	forestElevationM = 600.0
	alpineElevationM = 2500.0

	// curvatureThreshold separates valleys (concave) and hilltops (convex)
	// from open terrain, in meters of second difference.
	curvatureThreshold = 1.5
)

// TopographyResolver derives a TopographyProfile for a coordinate. It never
// fails: when the elevation source is missing or errors, the built-in
// terrain estimate is used instead.
type TopographyResolver struct {
	elevation ElevationSource
	logger    *slog.Logger
}

// NewTopographyResolver creates a resolver. Pass a nil elevation source to
// rely on the terrain estimate alone.
func NewTopographyResolver(elevation ElevationSource, logger *slog.Logger) *TopographyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopographyResolver{elevation: elevation, logger: logger}
}

// Resolve returns the terrain profile for c. A coordinate that already
// carries an elevation keeps it.
func (r *TopographyResolver) Resolve(ctx context.Context, c Coordinate) TopographyProfile {
	profile := EstimateTopography(c.Latitude, c.Longitude)

	switch {
	case c.ElevationMeters != nil:
		profile.ElevationMeters = *c.ElevationMeters
	case r.elevation != nil:
		elev, err := r.elevation.Elevation(ctx, c.Latitude, c.Longitude)
		if err != nil {
			r.logger.Warn("elevation lookup failed, using terrain estimate",
				"lat", c.Latitude,
				"lon", c.Longitude,
				"error", err,
			)
			break
		}
		profile.ElevationMeters = elev
	}

	profile.LandUse = classifyLandUse(c.Latitude, c.Longitude, profile.ElevationMeters)
	profile.Roughness = roughnessFor(profile.LandUse)
	profile.Microclimate = classifyMicroclimate(c.Latitude, c.Longitude, profile.LandUse, profile.Curvature)
	profile.ElevationMeters = round(profile.ElevationMeters, 1)
	return profile
}

// EstimateTopography computes a deterministic terrain profile from the
// built-in terrain model. The same coordinate always yields the same profile.
func EstimateTopography(lat, lon float64) TopographyProfile {
	h := terrainHeight(lat, lon)

	north := terrainHeight(lat+gradientStepDeg, lon)
	south := terrainHeight(lat-gradientStepDeg, lon)
	east := terrainHeight(lat, lon+gradientStepDeg)
	west := terrainHeight(lat, lon-gradientStepDeg)

	dy := gradientStepDeg * metersPerDegLat
	dx := gradientStepDeg * metersPerDegLon * math.Max(math.Cos(lat*math.Pi/180), 0.01)

	dzdx := (east - west) / (2 * dx)
	dzdy := (north - south) / (2 * dy)

	slope := math.Atan(math.Hypot(dzdx, dzdy)) * 180 / math.Pi

	// Aspect is the compass bearing of the downslope direction.
	aspect := math.Atan2(-dzdx, -dzdy) * 180 / math.Pi
	if aspect < 0 {
		aspect += 360
	}

	// Positive curvature is convex (ridge), negative is concave (hollow).
	curvature := 4*h - (north + south + east + west)

	landUse := classifyLandUse(lat, lon, h)
	return TopographyProfile{
		ElevationMeters: round(h, 1),
		SlopeDegrees:    round(slope, 2),
		AspectDegrees:   round(aspect, 1),
		Curvature:       round(curvature, 2),
		Roughness:       roughnessFor(landUse),
		LandUse:         landUse,
		Microclimate:    classifyMicroclimate(lat, lon, landUse, curvature),
	}
}

// terrainHeight is a smooth synthetic elevation field in meters: a regional
// swell, rolling hills, and field-scale undulation.
func terrainHeight(lat, lon float64) float64 {
	h := 250 +
		180*math.Sin(lat*1.9)*math.Cos(lon*1.3) +
		60*math.Sin(lat*7.3+lon*5.1) +
		30*math.Sin(lat*480)*math.Cos(lon*410)
	return math.Max(0, h)
}

func classifyLandUse(lat, lon, elevation float64) LandUse {
	if _, dist := nearestUrbanCenter(lat, lon); dist <= urbanRadiusKm {
		return LandUseUrban
	}
	switch {
	case elevation <= 0:
		return LandUseWater
	case elevation > alpineElevationM:
		return LandUseBare
	case elevation > forestElevationM:
		return LandUseForest
	default:
		return LandUseAgriculture
	}
}

// roughnessFor returns the aerodynamic roughness length in meters.
func roughnessFor(lu LandUse) float64 {
	switch lu {
	case LandUseUrban:
		return 1.0
	case LandUseForest:
		return 0.8
	case LandUseWater:
		return 0.0002
	case LandUseBare:
		return 0.03
	default:
		return 0.1
	}
}

func classifyMicroclimate(lat, lon float64, lu LandUse, curvature float64) Microclimate {
	if lu == LandUseUrban {
		return MicroclimateUrban
	}
	if _, ok := NearWater(lat, lon); ok {
		return MicroclimateCoastal
	}
	switch {
	case curvature < -curvatureThreshold:
		return MicroclimateValley
	case curvature > curvatureThreshold:
		return MicroclimateHilltop
	default:
		return MicroclimateRural
	}
}
