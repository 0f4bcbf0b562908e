// Package pipeline orchestrates the forecast pipeline: it resolves terrain
// and sources concurrently, composes the pure domain steps, and caches,
// publishes and measures the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/cache"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ModelName identifies the pipeline version in forecast metadata.
const ModelName = "hyperlocal-ensemble-v1"

const (
	defaultFieldTTL   = 10 * time.Minute
	defaultGridTTL    = 30 * time.Minute
	defaultCacheSize  = 5000
	defaultFanout     = 5
	defaultPointLimit = 10 * time.Second
	maxProviderDays   = 16
	fieldNamespace    = "field"
	gridNamespace     = "grid"
	outcomeSuccess    = "success"
	outcomeError      = "error"
	outcomeFailed     = "failed"
	operationField    = "field_forecast"
	operationCrop     = "crop_forecast"
	operationTrends   = "weather_trends"
	operationMicro    = "field_microclimate"
	operationGrid     = "grid_prediction"
	operationPointRun = "point_forecast"
)

// AlertPublisher delivers alerts raised by freshly built field forecasts.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, loc domain.ForecastLocation, alerts []domain.WeatherAlert) error
}

// ReadinessChecker is implemented by collaborators that can report whether
// they are able to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ForecastStore caches built forecasts.
type ForecastStore = cache.Store[domain.HyperlocalForecast]

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Clock     clockwork.Clock
	Elevation domain.ElevationSource

	// FieldCache holds field forecasts; GridCache holds per-point forecasts
	// built for microclimate analysis. Nil caches default to in-memory LRUs
	// with FieldTTL and GridTTL freshness.
	FieldCache ForecastStore
	GridCache  ForecastStore
	FieldTTL   time.Duration
	GridTTL    time.Duration
	CacheSize  int

	Publisher    AlertPublisher
	SamplePoints int
	Fanout       int
	// PointTimeout bounds each per-point build of a microclimate analysis.
	// A point that exceeds it is dropped.
	PointTimeout time.Duration

	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Engine is the forecast service. It is safe for concurrent use.
type Engine struct {
	provider   domain.WeatherProvider
	resolver   *domain.TopographyResolver
	sources    *SourceAggregator
	fieldCache ForecastStore
	gridCache  ForecastStore
	publisher  AlertPublisher
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger

	samplePoints int
	fanout       int
	pointTimeout time.Duration
}

// New creates an Engine on top of the base weather provider.
func New(provider domain.WeatherProvider, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.FieldTTL <= 0 {
		opts.FieldTTL = defaultFieldTTL
	}
	if opts.GridTTL <= 0 {
		opts.GridTTL = defaultGridTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.FieldCache == nil {
		opts.FieldCache = cache.NewMemory(cache.NewLRU[domain.HyperlocalForecast](opts.CacheSize, opts.FieldTTL, opts.Clock))
	}
	if opts.GridCache == nil {
		opts.GridCache = cache.NewMemory(cache.NewLRU[domain.HyperlocalForecast](opts.CacheSize, opts.GridTTL, opts.Clock))
	}
	if opts.SamplePoints <= 0 {
		opts.SamplePoints = domain.DefaultSamplePoints
	}
	if opts.Fanout <= 0 {
		opts.Fanout = defaultFanout
	}
	if opts.PointTimeout <= 0 {
		opts.PointTimeout = defaultPointLimit
	}

	return &Engine{
		provider:     provider,
		resolver:     domain.NewTopographyResolver(opts.Elevation, opts.Logger),
		sources:      NewSourceAggregator(provider, opts.Clock, opts.Logger),
		fieldCache:   opts.FieldCache,
		gridCache:    opts.GridCache,
		publisher:    opts.Publisher,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		samplePoints: opts.SamplePoints,
		fanout:       opts.Fanout,
		pointTimeout: opts.PointTimeout,
	}
}

// CheckReadiness reports the provider's readiness when it can tell.
func (e *Engine) CheckReadiness(ctx context.Context) error {
	if rc, ok := e.provider.(ReadinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// GetFieldForecast returns the hyperlocal forecast for a field coordinate.
// A forecast built within the field freshness window is served from cache
// unchanged. Alerts of freshly built forecasts are published.
func (e *Engine) GetFieldForecast(ctx context.Context, req domain.FieldRequest) (domain.HyperlocalForecast, error) {
	defer e.observe(operationField)()

	if err := domain.Validate(req); err != nil {
		e.recordOutcome(operationField, err)
		return domain.HyperlocalForecast{}, err
	}

	f, fresh, err := e.cachedForecast(ctx, operationField, e.fieldCache, fieldNamespace, req.Coordinate, req.FieldID)
	e.recordOutcome(operationField, err)
	if err != nil {
		return domain.HyperlocalForecast{}, err
	}
	if fresh {
		e.publish(ctx, f)
	}
	return f, nil
}

// GetCropSpecificForecast returns the field forecast with crop and growth
// stage specific advice. It shares the field forecast cache.
func (e *Engine) GetCropSpecificForecast(ctx context.Context, req domain.CropRequest) (domain.CropForecast, error) {
	defer e.observe(operationCrop)()

	if err := domain.Validate(req); err != nil {
		e.recordOutcome(operationCrop, err)
		return domain.CropForecast{}, err
	}

	f, fresh, err := e.cachedForecast(ctx, operationCrop, e.fieldCache, fieldNamespace, req.Coordinate, req.FieldID)
	e.recordOutcome(operationCrop, err)
	if err != nil {
		return domain.CropForecast{}, err
	}
	if fresh {
		e.publish(ctx, f)
	}
	return domain.CropForecast{
		HyperlocalForecast: f,
		CropAdvisory:       domain.BuildCropAdvisory(f, req.Crop, req.Stage),
	}, nil
}

// GetWeatherTrends returns a daily series over the requested inclusive date
// range. Days inside the provider's forecast reach use its outlook; the rest
// use climatology.
func (e *Engine) GetWeatherTrends(ctx context.Context, req domain.TrendsRequest) (domain.WeatherTrends, error) {
	defer e.observe(operationTrends)()

	if err := domain.Validate(req); err != nil {
		e.recordOutcome(operationTrends, err)
		return domain.WeatherTrends{}, err
	}
	if _, err := domain.TrendDays(req.Start, req.End); err != nil {
		e.recordOutcome(operationTrends, err)
		return domain.WeatherTrends{}, err
	}

	outlook := e.trendOutlook(ctx, req)
	if err := ctx.Err(); err != nil {
		e.recordOutcome(operationTrends, err)
		return domain.WeatherTrends{}, err
	}

	t, err := domain.BuildTrends(req.Coordinate, req.Start, req.End, outlook)
	e.recordOutcome(operationTrends, err)
	return t, err
}

// trendOutlook fetches provider days overlapping the range. Failures fall
// back to climatology.
func (e *Engine) trendOutlook(ctx context.Context, req domain.TrendsRequest) []domain.DailyOutlook {
	today := e.clock.Now().UTC().Truncate(24 * time.Hour)
	end := req.End.UTC()
	if end.Before(today) || e.provider == nil {
		return nil
	}
	days := min(int(end.Sub(today)/(24*time.Hour))+1, maxProviderDays)

	outlook, err := e.provider.Forecast(ctx, req.Latitude, req.Longitude, days)
	if err != nil {
		e.logger.Warn("provider forecast unavailable for trends, using climatology",
			"operation", operationTrends,
			"lat", req.Latitude,
			"lon", req.Longitude,
			"error", err,
		)
		return nil
	}
	return outlook
}

// AnalyzeFieldMicroclimate samples points inside the field boundary, builds
// a forecast for each, and summarizes their spatial variation. Points whose
// forecast fails are dropped; if all fail, domain.ErrNoPredictions is
// returned.
func (e *Engine) AnalyzeFieldMicroclimate(ctx context.Context, req domain.MicroclimateRequest) (domain.GridPrediction, error) {
	defer e.observe(operationMicro)()

	if err := domain.Validate(req); err != nil {
		e.recordOutcome(operationMicro, err)
		return domain.GridPrediction{}, err
	}
	points, err := domain.SampleFieldPoints(req.Boundary, e.samplePoints)
	if err != nil {
		e.recordOutcome(operationMicro, err)
		return domain.GridPrediction{}, err
	}

	g, err := e.analyzePoints(ctx, operationMicro, points)
	e.recordOutcome(operationMicro, err)
	return g, err
}

// PredictGrid analyzes a circular area the same way as a field boundary.
func (e *Engine) PredictGrid(ctx context.Context, req domain.GridRequest) (domain.GridPrediction, error) {
	defer e.observe(operationGrid)()

	if err := domain.Validate(req); err != nil {
		e.recordOutcome(operationGrid, err)
		return domain.GridPrediction{}, err
	}
	points, err := domain.SampleRadius(req.Center, req.RadiusKm, e.samplePoints)
	if err != nil {
		e.recordOutcome(operationGrid, err)
		return domain.GridPrediction{}, err
	}

	g, err := e.analyzePoints(ctx, operationGrid, points)
	e.recordOutcome(operationGrid, err)
	return g, err
}

func (e *Engine) analyzePoints(ctx context.Context, operation string, points []domain.Coordinate) (domain.GridPrediction, error) {
	results := make([]*domain.PointSummary, len(points))

	var g errgroup.Group
	g.SetLimit(e.fanout)
	for i, c := range points {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, e.pointTimeout)
			defer cancel()

			f, _, err := e.cachedForecast(pctx, operationPointRun, e.gridCache, gridNamespace, c, "")
			if err != nil {
				e.metrics.MicroclimatePoints.WithLabelValues(outcomeFailed).Inc()
				e.logger.Warn("dropping microclimate point",
					"operation", operation,
					"lat", c.Latitude,
					"lon", c.Longitude,
					"error", err,
				)
				return nil
			}
			e.metrics.MicroclimatePoints.WithLabelValues(outcomeSuccess).Inc()
			s := domain.SummarizePoint(c, f)
			results[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.GridPrediction{}, err
	}

	summaries := make([]domain.PointSummary, 0, len(results))
	for _, r := range results {
		if r != nil {
			summaries = append(summaries, *r)
		}
	}

	grid, err := domain.SummarizeField(summaries)
	if err != nil {
		e.logger.Error("microclimate analysis produced no predictions",
			"operation", operation,
			"sampled_points", len(points),
		)
		return domain.GridPrediction{}, err
	}
	grid.SampledPoints = len(points)
	grid.FailedPoints = len(points) - len(summaries)
	return grid, nil
}

// cachedForecast serves a fresh cached forecast or builds and stores a new
// one. The boolean reports whether the forecast was built by this call.
// Cache failures are logged and bypassed.
func (e *Engine) cachedForecast(ctx context.Context, operation string, store ForecastStore, namespace string, c domain.Coordinate, fieldID string) (domain.HyperlocalForecast, bool, error) {
	key := cache.Key(namespace, c.Latitude, c.Longitude, fieldID)

	cached, ok, err := store.Get(ctx, key)
	switch {
	case err != nil:
		e.metrics.ForecastCache.WithLabelValues(namespace, "error").Inc()
		e.logger.Warn("forecast cache read failed", "operation", operation, "key", key, "error", err)
	case ok:
		e.metrics.ForecastCache.WithLabelValues(namespace, "hit").Inc()
		return cached, false, nil
	default:
		e.metrics.ForecastCache.WithLabelValues(namespace, "miss").Inc()
	}

	f, err := e.buildForecast(ctx, c, fieldID)
	if err != nil {
		e.logger.Error("forecast build failed",
			"operation", operation,
			"lat", c.Latitude,
			"lon", c.Longitude,
			"error", err,
		)
		return domain.HyperlocalForecast{}, false, err
	}

	if err := store.Set(ctx, key, f); err != nil {
		e.metrics.ForecastCache.WithLabelValues(namespace, "error").Inc()
		e.logger.Warn("forecast cache write failed", "operation", operation, "key", key, "error", err)
	}
	return f, true, nil
}

// buildForecast runs the full pipeline for one coordinate. Topography and
// sources are resolved concurrently.
func (e *Engine) buildForecast(ctx context.Context, c domain.Coordinate, fieldID string) (domain.HyperlocalForecast, error) {
	var (
		topo    domain.TopographyProfile
		sources []domain.WeatherSource
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		topo = e.resolver.Resolve(gctx, c)
		return nil
	})
	g.Go(func() error {
		var err error
		sources, err = e.sources.FetchSources(gctx, c)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.HyperlocalForecast{}, fmt.Errorf("fetch sources: %w", err)
	}

	adjustments := domain.ComputeAdjustments(c, topo, domain.ReferenceElevation(sources))
	if adjustments == nil {
		adjustments = []domain.Adjustment{}
	}

	ens, err := domain.BuildEnsemble(sources, adjustments)
	if err != nil {
		return domain.HyperlocalForecast{}, fmt.Errorf("build ensemble: %w", err)
	}

	f := domain.HyperlocalForecast{
		Location: domain.ForecastLocation{Coordinate: c, FieldID: fieldID},
		Current:  ens.Current,
		Hourly:   ens.Hourly,
		Daily:    ens.Daily,
		Metadata: domain.ForecastMetadata{
			Sources:     ens.Sources,
			Confidence:  ens.Confidence,
			LastUpdated: e.clock.Now().UTC(),
			Model:       ModelName,
			Adjustments: adjustments,
			Topography:  topo,
		},
	}
	f.Alerts = domain.DetectAlerts(f)
	if f.Alerts == nil {
		f.Alerts = []domain.WeatherAlert{}
	}
	for _, a := range f.Alerts {
		e.metrics.AlertsDetected.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}
	return f, nil
}

func (e *Engine) publish(ctx context.Context, f domain.HyperlocalForecast) {
	if e.publisher == nil || len(f.Alerts) == 0 {
		return
	}
	if err := e.publisher.PublishAlerts(ctx, f.Location, f.Alerts); err != nil {
		e.logger.Warn("alert publish failed",
			"lat", f.Location.Latitude,
			"lon", f.Location.Longitude,
			"alerts", len(f.Alerts),
			"error", err,
		)
	}
}

// observe records the duration of an operation. Use as
// defer e.observe(op)().
func (e *Engine) observe(operation string) func() {
	start := e.clock.Now()
	return func() {
		e.metrics.ForecastBuildDuration.WithLabelValues(operation).Observe(e.clock.Since(start).Seconds())
	}
}

func (e *Engine) recordOutcome(operation string, err error) {
	outcome := outcomeSuccess
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		outcome = "invalid"
	case err != nil:
		outcome = outcomeError
	}
	e.metrics.ForecastBuilds.WithLabelValues(operation, outcome).Inc()
}
