package weather

import (
	"context"
	"time"
)

// ProviderReading is a single provider's normalized reading for one instant.
type ProviderReading struct {
	Timestamp time.Time

	TemperatureC float64
	HumidityPct  float64
	WindSpeedMS  float64
	PressureHpa  float64
	PrecipMm     float64
	Condition    Condition
}

// Snapshot converts the reading into its public form.
func (r ProviderReading) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:   r.Timestamp.UTC(),
		Temperature: r.TemperatureC,
		Humidity:    r.HumidityPct,
		WindSpeed:   r.WindSpeedMS,
		Pressure:    r.PressureHpa,
		PrecipMM:    r.PrecipMm,
		Condition:   r.Condition,
	}
}

// ProviderForecast is what a Provider returns for a coordinate pair.
// Daily may be empty, in which case it is derived from Hourly.
type ProviderForecast struct {
	Current ProviderReading
	Hourly  []ProviderReading
	Daily   []DailySummary
}

// Provider abstracts a forecast source (e.g. OpenWeather One Call, Open-Meteo).
type Provider interface {
	Name() string
	FetchForecast(ctx context.Context, lat, lon float64) (ProviderForecast, error)
}

// Cache stores encoded forecasts. Implementations live in internal/cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// PlaceResolver turns coordinates into a human-readable place name.
type PlaceResolver interface {
	ResolvePlace(ctx context.Context, lat, lon float64) (string, error)
}
