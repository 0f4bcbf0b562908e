package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/observability"
)

// DefaultBaseURL is the Tilequery endpoint for the Mapbox Terrain tileset.
const DefaultBaseURL = "https://api.mapbox.com/v4/mapbox.mapbox-terrain-v2/tilequery"

// ErrNoElevation is returned when the tileset has no contour at a point,
// which happens over open water and outside tile coverage.
var ErrNoElevation = errors.New("no elevation data at coordinate")

// Client implements domain.ElevationSource using the Mapbox Tilequery API
// against the terrain contour layer.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox elevation client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: DefaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Elevation returns the terrain height in meters at a coordinate. Tilequery
// returns every contour within the query radius; the highest one is the
// closest estimate of the surface height at the point.
func (c *Client) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	// Mapbox uses lon,lat order.
	u := fmt.Sprintf("%s/%.6f,%.6f.json", c.baseURL, lon, lat)
	params := url.Values{
		"access_token": {c.token},
		"layers":       {"contour"},
		"limit":        {"50"},
	}

	elev, err := c.doRequest(ctx, u+"?"+params.Encode())
	if err != nil {
		c.metrics.ElevationLookups.WithLabelValues("error").Inc()
		c.logger.Debug("elevation lookup failed", "lat", lat, "lon", lon, "error", err)
		return 0, err
	}
	c.metrics.ElevationLookups.WithLabelValues("success").Inc()
	return elev, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("tilequery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var tq response
	if err := json.NewDecoder(resp.Body).Decode(&tq); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	highest := math.Inf(-1)
	for _, f := range tq.Features {
		if f.Properties.Elevation != nil {
			highest = math.Max(highest, *f.Properties.Elevation)
		}
	}
	if math.IsInf(highest, -1) {
		return 0, ErrNoElevation
	}
	return highest, nil
}

// Mapbox Tilequery response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
}

type properties struct {
	Elevation *float64 `json:"ele"` // meters
	Tilequery struct {
		Distance float64 `json:"distance"`
		Layer    string  `json:"layer"`
	} `json:"tilequery"`
}
