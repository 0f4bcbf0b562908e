package mapbox

import (
	"context"
	"fmt"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/cache"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/observability"
)

// CachedElevation wraps an ElevationSource with an in-memory LRU cache.
// Terrain does not change, so entries never expire.
type CachedElevation struct {
	inner   domain.ElevationSource
	cache   *cache.LRU[float64]
	metrics *observability.Metrics
}

// NewCachedElevation creates a cache decorator around an elevation source.
func NewCachedElevation(inner domain.ElevationSource, maxEntries int, metrics *observability.Metrics) *CachedElevation {
	return &CachedElevation{
		inner:   inner,
		cache:   cache.NewLRU[float64](maxEntries, 0, nil),
		metrics: metrics,
	}
}

func (c *CachedElevation) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	// Five decimals is about one meter, finer than the contour interval.
	key := fmt.Sprintf("%.5f,%.5f", lat, lon)
	if elev, ok := c.cache.Get(key); ok {
		c.metrics.ElevationCache.WithLabelValues("hit").Inc()
		return elev, nil
	}
	c.metrics.ElevationCache.WithLabelValues("miss").Inc()

	// Errors are not cached so transient failures can be retried.
	elev, err := c.inner.Elevation(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	c.cache.Put(key, elev)
	return elev, nil
}
