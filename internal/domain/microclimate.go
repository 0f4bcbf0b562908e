package domain

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

const (
	// DefaultSamplePoints is the number of points sampled per field.
	DefaultSamplePoints = 20

	minBoundaryPoints  = 3
	circleVertices     = 24
	maxSampleRadiusKm  = 50.0
	riskZoneThreshold  = 0.3
	windExposedSpeed   = 15.0
	frostReferenceC    = 4.0
	frostScoreSpanC    = 8.0
	valleyFrostBonus   = 0.2
	droughtRainSpanMM  = 10.0
	droughtHeatBaseC   = 25.0
	droughtHeatSpanC   = 10.0
	aridHumidity       = 60.0
	aridHumiditySpan   = 40.0
	staggerRangeC      = 3.0
	zonedMoistureRange = 15.0
	sprayWindRange     = 5.0
)

// PointSummary is the per-point extract of a forecast used for spatial
// analysis.
type PointSummary struct {
	Coordinate   Coordinate   `json:"coordinate"`
	Temperature  float64      `json:"temperature"`
	Humidity     float64      `json:"humidity"`
	WindSpeed    float64      `json:"wind_speed"`
	FrostRisk    float64      `json:"frost_risk"`
	DroughtRisk  float64      `json:"drought_risk"`
	Microclimate Microclimate `json:"microclimate"`
}

// Variations is the max-min spread of current conditions across points.
type Variations struct {
	TemperatureRange  float64 `json:"temperature_range"`
	MoistureVariation float64 `json:"moisture_variation"`
	WindVariation     float64 `json:"wind_variation"`
}

// RiskZones lists the points that crossed each risk threshold.
type RiskZones struct {
	FrostPockets []Coordinate `json:"frost_pockets"`
	WindExposed  []Coordinate `json:"wind_exposed"`
	DroughtProne []Coordinate `json:"drought_prone"`
}

// GridPrediction is the result of a field or radius microclimate analysis.
type GridPrediction struct {
	Points          []PointSummary `json:"points"`
	Variations      Variations     `json:"variations"`
	RiskZones       RiskZones      `json:"risk_zones"`
	Recommendations []string       `json:"recommendations"`
	SampledPoints   int            `json:"sampled_points"`
	FailedPoints    int            `json:"failed_points"`
}

// FieldPolygon validates a boundary and converts it to a closed polygon.
// The boundary needs at least three distinct vertices enclosing a non-zero
// area.
func FieldPolygon(boundary []Coordinate) (*geom.Polygon, error) {
	if len(boundary) < minBoundaryPoints {
		return nil, invalidf("field boundary needs at least %d points, got %d", minBoundaryPoints, len(boundary))
	}
	ring := make([]geom.Coord, 0, len(boundary)+1)
	for i, c := range boundary {
		if err := Validate(c); err != nil {
			return nil, fmt.Errorf("boundary point %d: %w", i, err)
		}
		ring = append(ring, geom.Coord{c.Longitude, c.Latitude})
	}
	if first, last := ring[0], ring[len(ring)-1]; !first.Equal(geom.XY, last) {
		ring = append(ring, geom.Coord{first.X(), first.Y()})
	}
	if len(ring) < minBoundaryPoints+1 {
		return nil, invalidf("field boundary needs at least %d distinct points", minBoundaryPoints)
	}

	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
	if err != nil {
		return nil, invalidf("field boundary: %v", err)
	}
	if poly.Area() == 0 {
		return nil, invalidf("field boundary encloses no area")
	}
	return poly, nil
}

// SampleFieldPoints returns n deterministic points inside the boundary.
func SampleFieldPoints(boundary []Coordinate, n int) ([]Coordinate, error) {
	poly, err := FieldPolygon(boundary)
	if err != nil {
		return nil, err
	}
	return SamplePolygon(poly, n), nil
}

// SampleRadius returns n deterministic points within radiusKm of center.
func SampleRadius(center Coordinate, radiusKm float64, n int) ([]Coordinate, error) {
	if err := Validate(center); err != nil {
		return nil, err
	}
	if radiusKm <= 0 || radiusKm > maxSampleRadiusKm {
		return nil, invalidf("radius must be in (0, %.0f] km, got %.2f", maxSampleRadiusKm, radiusKm)
	}

	dLat := radiusKm / (metersPerDegLat / 1000)
	dLon := radiusKm / (metersPerDegLon / 1000 * math.Max(math.Cos(center.Latitude*math.Pi/180), 0.01))
	boundary := make([]Coordinate, circleVertices)
	for i := range boundary {
		theta := 2 * math.Pi * float64(i) / circleVertices
		boundary[i] = Coordinate{
			Latitude:  clamp(center.Latitude+dLat*math.Sin(theta), -90, 90),
			Longitude: clamp(center.Longitude+dLon*math.Cos(theta), -180, 180),
		}
	}
	return SampleFieldPoints(boundary, n)
}

// SamplePolygon lays a jittered grid over the polygon's bounding box and
// keeps the cells that fall inside. Any shortfall is filled with points
// stepped from the vertices toward the centroid. The result is always
// non-empty and at most n long.
func SamplePolygon(poly *geom.Polygon, n int) []Coordinate {
	if n <= 0 {
		n = DefaultSamplePoints
	}
	b := poly.Bounds()
	minX, minY, maxX, maxY := b.Min(0), b.Min(1), b.Max(0), b.Max(1)

	k := int(math.Ceil(math.Sqrt(float64(n)))) + 1
	cellX := (maxX - minX) / float64(k)
	cellY := (maxY - minY) / float64(k)

	out := make([]Coordinate, 0, n)
	for i := 0; i < k && len(out) < n; i++ {
		for j := 0; j < k && len(out) < n; j++ {
			jx := (hash01(float64(i), float64(j)) - 0.5) * 0.6
			jy := (hash01(float64(j)+0.5, float64(i)+0.5) - 0.5) * 0.6
			x := minX + (float64(i)+0.5+jx)*cellX
			y := minY + (float64(j)+0.5+jy)*cellY
			if polygonContains(poly, x, y) {
				out = append(out, point(x, y))
			}
		}
	}

	vertices := ringVertices(poly)
	cx, cy := centroid(vertices)
	for step := 1; step <= 4 && len(out) < n; step++ {
		t := float64(step) / 5
		for _, v := range vertices {
			if len(out) >= n {
				break
			}
			x := v.X() + t*(cx-v.X())
			y := v.Y() + t*(cy-v.Y())
			if polygonContains(poly, x, y) {
				out = append(out, point(x, y))
			}
		}
	}

	if len(out) == 0 {
		out = append(out, point(vertices[0].X(), vertices[0].Y()))
	}
	return out
}

// SummarizePoint extracts the spatial-analysis view of a point forecast.
func SummarizePoint(c Coordinate, f HyperlocalForecast) PointSummary {
	return PointSummary{
		Coordinate:   c,
		Temperature:  f.Current.Temperature,
		Humidity:     f.Current.Humidity,
		WindSpeed:    f.Current.WindSpeed,
		FrostRisk:    round(FrostRisk(f), 2),
		DroughtRisk:  round(DroughtRisk(f), 2),
		Microclimate: f.Metadata.Topography.Microclimate,
	}
}

// FrostRisk scores in [0, 1] how far the lowest temperature falls below
// 4°C. Valleys pool cold air and score higher.
func FrostRisk(f HyperlocalForecast) float64 {
	low := math.Inf(1)
	for _, d := range f.Daily {
		low = math.Min(low, d.TemperatureMin)
	}
	if math.IsInf(low, 1) {
		for _, h := range f.Hourly {
			low = math.Min(low, h.Temperature)
		}
	}
	if math.IsInf(low, 1) {
		return 0
	}
	score := clamp((frostReferenceC-low)/frostScoreSpanC, 0, 1)
	if score > 0 && f.Metadata.Topography.Microclimate == MicroclimateValley {
		score += valleyFrostBonus
	}
	return clamp(score, 0, 1)
}

// DroughtRisk scores in [0, 1] the combination of little rain, heat and dry
// air over the forecast horizon.
func DroughtRisk(f HyperlocalForecast) float64 {
	if len(f.Daily) == 0 {
		return 0
	}
	var precip, maxSum float64
	for _, d := range f.Daily {
		precip += d.Precipitation.Total
		maxSum += d.TemperatureMax
	}
	avgMax := maxSum / float64(len(f.Daily))

	dryness := clamp(1-precip/droughtRainSpanMM, 0, 1)
	heat := clamp((avgMax-droughtHeatBaseC)/droughtHeatSpanC, 0, 1)
	aridity := clamp((aridHumidity-f.Current.Humidity)/aridHumiditySpan, 0, 1)
	return clamp(0.3*dryness+0.5*heat+0.2*aridity, 0, 1)
}

// SummarizeField aggregates point summaries into variations, risk zones and
// recommendations. It returns ErrNoPredictions for an empty input.
func SummarizeField(points []PointSummary) (GridPrediction, error) {
	if len(points) == 0 {
		return GridPrediction{}, ErrNoPredictions
	}

	minT, maxT := math.Inf(1), math.Inf(-1)
	minH, maxH := math.Inf(1), math.Inf(-1)
	minW, maxW := math.Inf(1), math.Inf(-1)
	zones := RiskZones{FrostPockets: []Coordinate{}, WindExposed: []Coordinate{}, DroughtProne: []Coordinate{}}

	for _, p := range points {
		minT, maxT = math.Min(minT, p.Temperature), math.Max(maxT, p.Temperature)
		minH, maxH = math.Min(minH, p.Humidity), math.Max(maxH, p.Humidity)
		minW, maxW = math.Min(minW, p.WindSpeed), math.Max(maxW, p.WindSpeed)

		if p.FrostRisk > riskZoneThreshold {
			zones.FrostPockets = append(zones.FrostPockets, p.Coordinate)
		}
		if p.WindSpeed > windExposedSpeed {
			zones.WindExposed = append(zones.WindExposed, p.Coordinate)
		}
		if p.DroughtRisk > riskZoneThreshold {
			zones.DroughtProne = append(zones.DroughtProne, p.Coordinate)
		}
	}

	v := Variations{
		TemperatureRange:  round(maxT-minT, 2),
		MoistureVariation: round(maxH-minH, 2),
		WindVariation:     round(maxW-minW, 2),
	}
	return GridPrediction{
		Points:          points,
		Variations:      v,
		RiskZones:       zones,
		Recommendations: fieldRecommendations(v, zones),
		SampledPoints:   len(points),
	}, nil
}

func fieldRecommendations(v Variations, z RiskZones) []string {
	var out []string
	if v.TemperatureRange > staggerRangeC {
		out = append(out, fmt.Sprintf("Temperatures vary by %.1f°C across the field; stagger planting times by zone", v.TemperatureRange))
	}
	if n := len(z.FrostPockets); n > 0 {
		out = append(out, fmt.Sprintf("Deploy frost protection in %d frost-pocket zone(s)", n))
	}
	if n := len(z.WindExposed); n > 0 {
		out = append(out, fmt.Sprintf("Consider windbreaks for %d wind-exposed zone(s)", n))
	}
	if n := len(z.DroughtProne); n > 0 {
		out = append(out, fmt.Sprintf("Use variable-rate irrigation for %d drought-prone zone(s)", n))
	}
	if v.MoistureVariation > zonedMoistureRange {
		out = append(out, "Humidity varies widely; manage irrigation in separate zones")
	}
	if v.WindVariation > sprayWindRange {
		out = append(out, "Wind varies across the field; time spraying for the calmest zones")
	}
	if len(out) == 0 {
		out = append(out, "Conditions are uniform; manage the field as a single zone")
	}
	return out
}

// polygonContains tests (x, y) against the exterior ring and any holes
// using the even-odd rule.
func polygonContains(poly *geom.Polygon, x, y float64) bool {
	if !ringContains(poly.LinearRing(0), x, y) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if ringContains(poly.LinearRing(i), x, y) {
			return false
		}
	}
	return true
}

func ringContains(ring *geom.LinearRing, x, y float64) bool {
	inside := false
	n := ring.NumCoords()
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring.Coord(i), ring.Coord(j)
		if (a.Y() > y) != (b.Y() > y) &&
			x < (b.X()-a.X())*(y-a.Y())/(b.Y()-a.Y())+a.X() {
			inside = !inside
		}
	}
	return inside
}

// ringVertices returns the exterior ring without its closing coordinate.
func ringVertices(poly *geom.Polygon) []geom.Coord {
	ring := poly.LinearRing(0)
	n := ring.NumCoords() - 1
	out := make([]geom.Coord, n)
	for i := range out {
		out[i] = ring.Coord(i)
	}
	return out
}

func centroid(vertices []geom.Coord) (float64, float64) {
	var x, y float64
	for _, v := range vertices {
		x += v.X()
		y += v.Y()
	}
	n := float64(len(vertices))
	return x / n, y / n
}

func point(x, y float64) Coordinate {
	return Coordinate{Latitude: round(y, 6), Longitude: round(x, 6)}
}
