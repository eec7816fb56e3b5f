package report

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetDeviceByID(ctx context.Context, id string) (*store.Device, error) {
	args := m.Called(ctx, id)
	if d := args.Get(0); d != nil {
		return d.(*store.Device), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetGroupByID(ctx context.Context, id string) (*store.DeviceGroup, error) {
	args := m.Called(ctx, id)
	if g := args.Get(0); g != nil {
		return g.(*store.DeviceGroup), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListGroupDeviceIDs(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockTelemetry struct {
	mock.Mock
}

func (m *mockTelemetry) FetchRealtime(ctx context.Context, creds ecowitt.Credentials) (ecowitt.Result, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(ecowitt.Result), args.Error(1)
}

func (m *mockTelemetry) FetchHistory(ctx context.Context, creds ecowitt.Credentials, start, end time.Time) (ecowitt.Result, error) {
	args := m.Called(ctx, creds, start, end)
	return args.Get(0).(ecowitt.Result), args.Error(1)
}

func (m *mockTelemetry) FetchDeviceInfo(ctx context.Context, creds ecowitt.Credentials) (ecowitt.DeviceInfo, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(ecowitt.DeviceInfo), args.Error(1)
}

type mockForecaster struct {
	mock.Mock
}

func (m *mockForecaster) GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error) {
	args := m.Called(ctx, lat, lon)
	if f := args.Get(0); f != nil {
		return f.(*weather.Forecast), args.Error(1)
	}
	return nil, args.Error(1)
}
