package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
)

type stubProvider struct {
	name  string
	out   ProviderForecast
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) FetchForecast(_ context.Context, _, _ float64) (ProviderForecast, error) {
	p.calls++
	return p.out, p.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = value
	return nil
}

type stubPlaces struct {
	name string
	err  error
}

func (s stubPlaces) ResolvePlace(context.Context, float64, float64) (string, error) {
	return s.name, s.err
}

func sampleForecast() ProviderForecast {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return ProviderForecast{
		Current: ProviderReading{Timestamp: now, TemperatureC: 25, Condition: ConditionClear},
		Hourly: []ProviderReading{
			{Timestamp: now, TemperatureC: 25},
			{Timestamp: now.Add(time.Hour), TemperatureC: 27},
			{Timestamp: now.Add(24 * time.Hour), TemperatureC: 22},
		},
	}
}

func TestGetForecast_FallsBackToNextProvider(t *testing.T) {
	failing := &stubProvider{name: "primary", err: errors.New("boom")}
	backup := &stubProvider{name: "backup", out: sampleForecast()}
	svc := NewService([]Provider{failing, backup}, zap.NewNop())

	f, err := svc.GetForecast(context.Background(), 18.48, -69.93)

	require.NoError(t, err)
	assert.Equal(t, "backup", f.Provider)
	assert.Equal(t, 25.0, f.Current.Temperature)
	assert.Len(t, f.Hourly, 3)
	require.Len(t, f.Daily, 2, "daily summaries derive from hourly readings")
	assert.Equal(t, 27.0, f.Daily[0].MaxTemp)
	assert.Equal(t, 1, failing.calls)
}

func TestGetForecast_AllProvidersFail(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "a", err: errors.New("down")}}, zap.NewNop())

	_, err := svc.GetForecast(context.Background(), 1, 1)

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindVendorAPI))
}

func TestGetForecast_NoProviders(t *testing.T) {
	svc := NewService(nil, zap.NewNop())

	_, err := svc.GetForecast(context.Background(), 1, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestGetForecast_UsesCache(t *testing.T) {
	p := &stubProvider{name: "p", out: sampleForecast()}
	svc := NewService([]Provider{p}, zap.NewNop(), WithCache(&mapCache{}, time.Minute))

	first, err := svc.GetForecast(context.Background(), 18.4801, -69.9301)
	require.NoError(t, err)
	second, err := svc.GetForecast(context.Background(), 18.4804, -69.9304)
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls, "nearby coordinates share a cache entry")
	assert.Equal(t, first.Current.Temperature, second.Current.Temperature)
	assert.Equal(t, first.Provider, second.Provider)
}

func TestGetForecast_CacheHitKeepsRequestedCoordinates(t *testing.T) {
	p := &stubProvider{name: "p", out: sampleForecast()}
	svc := NewService([]Provider{p}, zap.NewNop(), WithCache(&mapCache{}, time.Minute))

	first, err := svc.GetForecast(context.Background(), 18.4801, -69.9301)
	require.NoError(t, err)
	second, err := svc.GetForecast(context.Background(), 18.4804, -69.9304)
	require.NoError(t, err)

	require.Equal(t, 1, p.calls)
	assert.Equal(t, 18.4801, first.Location.Latitude)
	assert.Equal(t, 18.4804, second.Location.Latitude)
	assert.Equal(t, -69.9304, second.Location.Longitude)
}

func TestGetForecast_PlaceName(t *testing.T) {
	p := &stubProvider{name: "p", out: sampleForecast()}

	svc := NewService([]Provider{p}, zap.NewNop(), WithPlaceResolver(stubPlaces{name: "Santo Domingo, DR"}))
	f, err := svc.GetForecast(context.Background(), 18.48, -69.93)
	require.NoError(t, err)
	assert.Equal(t, "Santo Domingo, DR", f.Location.Name)

	svc = NewService([]Provider{p}, zap.NewNop(), WithPlaceResolver(stubPlaces{err: errors.New("quota")}))
	f, err = svc.GetForecast(context.Background(), 18.48, -69.93)
	require.NoError(t, err, "place lookup failures are soft")
	assert.Empty(t, f.Location.Name)
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "18.480:-69.930", Location{Latitude: 18.48, Longitude: -69.93}.Key())
}
