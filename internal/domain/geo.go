package domain

import "math"

const earthRadiusKm = 6371.0

// UrbanCenter is a reference city used for heat-island and land-use
// estimates. Intensity is the peak heat-island warming in °C.
type UrbanCenter struct {
	Name      string
	Latitude  float64
	Longitude float64
	Intensity float64
}

// urbanCenters is the fixed reference table for heat-island contributions.
var urbanCenters = []UrbanCenter{
	{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Intensity: 3.0},
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060, Intensity: 3.5},
	{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437, Intensity: 3.0},
	{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698, Intensity: 2.5},
	{Name: "Phoenix", Latitude: 33.4484, Longitude: -112.0740, Intensity: 3.0},
	{Name: "Philadelphia", Latitude: 39.9526, Longitude: -75.1652, Intensity: 2.5},
	{Name: "Dallas", Latitude: 32.7767, Longitude: -96.7970, Intensity: 2.5},
	{Name: "Atlanta", Latitude: 33.7490, Longitude: -84.3880, Intensity: 2.5},
	{Name: "Denver", Latitude: 39.7392, Longitude: -104.9903, Intensity: 2.0},
	{Name: "Minneapolis", Latitude: 44.9778, Longitude: -93.2650, Intensity: 2.0},
	{Name: "St. Louis", Latitude: 38.6270, Longitude: -90.1994, Intensity: 2.0},
	{Name: "Kansas City", Latitude: 39.0997, Longitude: -94.5786, Intensity: 1.8},
	{Name: "Omaha", Latitude: 41.2565, Longitude: -95.9345, Intensity: 1.5},
	{Name: "Des Moines", Latitude: 41.5868, Longitude: -93.6250, Intensity: 1.2},
}

// UrbanCenters returns a copy of the reference urban center table.
func UrbanCenters() []UrbanCenter {
	out := make([]UrbanCenter, len(urbanCenters))
	copy(out, urbanCenters)
	return out
}

// region is a lat/lon bounding box.
type region struct {
	name           string
	minLat, maxLat float64
	minLon, maxLon float64
}

func (r region) contains(lat, lon float64) bool {
	return lat >= r.minLat && lat <= r.maxLat && lon >= r.minLon && lon <= r.maxLon
}

// waterRegions approximates large water bodies whose proximity moderates
// temperature: the Great Lakes and the continental coastal bands.
var waterRegions = []region{
	{name: "Lake Superior", minLat: 46.4, maxLat: 49.0, minLon: -92.2, maxLon: -84.3},
	{name: "Lake Michigan", minLat: 41.6, maxLat: 46.1, minLon: -88.1, maxLon: -84.7},
	{name: "Lake Huron", minLat: 43.0, maxLat: 46.3, minLon: -84.8, maxLon: -79.7},
	{name: "Lake Erie", minLat: 41.3, maxLat: 42.9, minLon: -83.5, maxLon: -78.8},
	{name: "Lake Ontario", minLat: 43.1, maxLat: 44.3, minLon: -79.9, maxLon: -76.0},
	{name: "Gulf Coast", minLat: 25.8, maxLat: 30.4, minLon: -97.6, maxLon: -82.0},
	{name: "Atlantic Coast", minLat: 25.0, maxLat: 45.0, minLon: -77.0, maxLon: -69.5},
	{name: "Pacific Coast", minLat: 32.5, maxLat: 49.0, minLon: -125.0, maxLon: -122.0},
}

// NearWater reports whether the coordinate lies in a known water-moderated
// region, and returns the region's name.
func NearWater(lat, lon float64) (string, bool) {
	for _, r := range waterRegions {
		if r.contains(lat, lon) {
			return r.name, true
		}
	}
	return "", false
}

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// nearestUrbanCenter returns the closest reference city and its distance.
func nearestUrbanCenter(lat, lon float64) (UrbanCenter, float64) {
	best := urbanCenters[0]
	bestDist := math.Inf(1)
	for _, c := range urbanCenters {
		if d := DistanceKm(lat, lon, c.Latitude, c.Longitude); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// hash01 maps two values to a deterministic pseudo-random number in [0, 1).
func hash01(a, b float64) float64 {
	v := math.Sin(a*12.9898+b*78.233) * 43758.5453
	return v - math.Floor(v)
}
