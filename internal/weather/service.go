package weather

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
)

// ForecastDays is the number of daily summaries attached to a forecast.
const ForecastDays = 7

// ErrNoProviders is returned when the service was built without providers.
var ErrNoProviders = errors.New("no weather providers configured")

// Service fetches forecasts from the configured providers in order,
// falling back to the next one when a provider fails.
type Service struct {
	providers []Provider
	cache     Cache
	cacheTTL  time.Duration
	places    PlaceResolver
	logger    *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithCache enables forecast caching for ttl.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithPlaceResolver attaches place names to forecast locations.
func WithPlaceResolver(r PlaceResolver) Option {
	return func(s *Service) { s.places = r }
}

// NewService creates a new Service.
func NewService(providers []Provider, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		providers: providers,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetForecast returns current, hourly and daily weather for the coordinates.
func (s *Service) GetForecast(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if len(s.providers) == 0 {
		return nil, apperr.Internal("weather forecast unavailable", ErrNoProviders)
	}

	loc := Location{Latitude: lat, Longitude: lon}
	key := "forecast:" + loc.Key()

	if f, ok := s.fromCache(ctx, key); ok {
		// Entries are shared by nearby coordinates; report the caller's own.
		f.Location.Latitude, f.Location.Longitude = lat, lon
		return f, nil
	}

	var lastErr error
	for _, p := range s.providers {
		pf, err := p.FetchForecast(ctx, lat, lon)
		if err != nil {
			metrics.VendorRequests.WithLabelValues(p.Name(), "forecast", "error").Inc()
			s.logger.Warn("[Weather] provider forecast failed",
				zap.String("provider", p.Name()),
				zap.String("location", loc.Key()),
				zap.Error(err),
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		metrics.VendorRequests.WithLabelValues(p.Name(), "forecast", "ok").Inc()

		f := s.assemble(ctx, loc, p.Name(), pf)
		s.toCache(ctx, key, f)
		return f, nil
	}

	return nil, apperr.VendorAPI("no forecast data available", lastErr)
}

func (s *Service) assemble(ctx context.Context, loc Location, provider string, pf ProviderForecast) *Forecast {
	f := &Forecast{
		Location:  loc,
		Provider:  provider,
		FetchedAt: time.Now().UTC(),
		Current:   pf.Current.Snapshot(),
		Daily:     pf.Daily,
	}
	if len(f.Daily) > ForecastDays {
		f.Daily = f.Daily[:ForecastDays]
	}
	f.Hourly = make([]Snapshot, 0, len(pf.Hourly))
	for _, r := range pf.Hourly {
		f.Hourly = append(f.Hourly, r.Snapshot())
	}
	if len(f.Daily) == 0 {
		f.Daily = DailyFromHourly(pf.Hourly, ForecastDays)
	}

	if s.places != nil {
		name, err := s.places.ResolvePlace(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			s.logger.Debug("[Weather] place lookup failed",
				zap.String("location", loc.Key()),
				zap.Error(err),
			)
		} else {
			f.Location.Name = name
		}
	}
	return f
}

func (s *Service) fromCache(ctx context.Context, key string) (*Forecast, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.ForecastCache.WithLabelValues("error").Inc()
		s.logger.Warn("[Weather] cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		metrics.ForecastCache.WithLabelValues("miss").Inc()
		return nil, false
	}

	var f Forecast
	if err := json.Unmarshal(raw, &f); err != nil {
		metrics.ForecastCache.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.ForecastCache.WithLabelValues("hit").Inc()
	return &f, true
}

func (s *Service) toCache(ctx context.Context, key string, f *Forecast) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("[Weather] cache write failed", zap.String("key", key), zap.Error(err))
	}
}
