package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/couchcryptid/hyperlocal-weather-service/internal/observability"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the provider circuit breaker.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
	// CallTimeout bounds each upstream call. Zero disables it.
	CallTimeout time.Duration
}

// Breaker wraps a WeatherProvider with per-call timeouts and one circuit
// breaker per operation. An open circuit fails fast so the engine can
// degrade to its fallbacks.
type Breaker struct {
	inner       domain.WeatherProvider
	current     *gobreaker.CircuitBreaker[*domain.ConditionsSnapshot]
	forecast    *gobreaker.CircuitBreaker[[]domain.DailyOutlook]
	callTimeout time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewBreaker creates a circuit breaker decorator around inner.
func NewBreaker(inner domain.WeatherProvider, s BreakerSettings, metrics *observability.Metrics, logger *slog.Logger) *Breaker {
	if s.MaxFailures <= 0 {
		s.MaxFailures = 5
	}
	b := &Breaker{
		inner:       inner,
		callTimeout: s.CallTimeout,
		metrics:     metrics,
		logger:      logger,
	}
	b.current = gobreaker.NewCircuitBreaker[*domain.ConditionsSnapshot](b.settings("provider-current", s))
	b.forecast = gobreaker.NewCircuitBreaker[[]domain.DailyOutlook](b.settings("provider-forecast", s))
	return b
}

func (b *Breaker) settings(name string, s BreakerSettings) gobreaker.Settings {
	maxFailures := uint32(s.MaxFailures) //nolint:gosec // validated positive by config
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("provider circuit state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
}

func (b *Breaker) CurrentConditions(ctx context.Context, lat, lon float64) (*domain.ConditionsSnapshot, error) {
	snap, err := b.current.Execute(func() (*domain.ConditionsSnapshot, error) {
		ctx, cancel := b.withTimeout(ctx)
		defer cancel()
		return b.inner.CurrentConditions(ctx, lat, lon)
	})
	b.record("current", snap == nil, err)
	if err != nil {
		return nil, fmt.Errorf("current conditions: %w", err)
	}
	return snap, nil
}

func (b *Breaker) Forecast(ctx context.Context, lat, lon float64, days int) ([]domain.DailyOutlook, error) {
	outlook, err := b.forecast.Execute(func() ([]domain.DailyOutlook, error) {
		ctx, cancel := b.withTimeout(ctx)
		defer cancel()
		return b.inner.Forecast(ctx, lat, lon, days)
	})
	b.record("forecast", len(outlook) == 0, err)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	return outlook, nil
}

// CheckReadiness fails only when both circuits are open, since the engine
// can still serve forecasts while either operation is available.
func (b *Breaker) CheckReadiness(_ context.Context) error {
	if b.current.State() == gobreaker.StateOpen && b.forecast.State() == gobreaker.StateOpen {
		return errors.New("weather provider circuit is open")
	}
	return nil
}

func (b *Breaker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.callTimeout)
}

func (b *Breaker) record(operation string, absent bool, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	case absent:
		outcome = "absent"
	}
	if b.metrics != nil {
		b.metrics.ProviderCalls.WithLabelValues(operation, outcome).Inc()
	}
}
