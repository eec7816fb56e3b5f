package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
)

func TestDeviceRealtime(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetDeviceByID", mock.Anything, "dev-1").Return(testDevice("dev-1", "user-1"), nil)
	f.telemetry.On("FetchRealtime", mock.Anything, mock.Anything).Return(realtimeOK(testNow.Add(-5*time.Minute)), nil)

	v, err := f.svc.DeviceRealtime(context.Background(), "dev-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, ecowitt.StatusOK, v.Status)
	assert.True(t, v.Online)
	require.NotNil(t, v.Realtime)
	assert.Equal(t, 21.5, v.Realtime.Readings[series.KindTemperature].Value)
}

func TestDeviceRealtime_EmptyKeepsDiagnostics(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetDeviceByID", mock.Anything, "dev-1").Return(testDevice("dev-1", "user-1"), nil)
	diag := &ecowitt.Diagnostics{Endpoint: ecowitt.EndpointRealtime}
	f.telemetry.On("FetchRealtime", mock.Anything, mock.Anything).
		Return(ecowitt.Result{Status: ecowitt.StatusEmpty, Diag: diag}, nil)

	v, err := f.svc.DeviceRealtime(context.Background(), "dev-1", "user-1")

	require.NoError(t, err)
	assert.Equal(t, ecowitt.StatusEmpty, v.Status)
	assert.Nil(t, v.Realtime)
	assert.Same(t, diag, v.Diagnostics)
}

func TestDeviceRealtime_VendorFailure(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetDeviceByID", mock.Anything, "dev-1").Return(testDevice("dev-1", "user-1"), nil)
	f.telemetry.On("FetchRealtime", mock.Anything, mock.Anything).Return(ecowitt.Result{}, errors.New("dial tcp: timeout"))

	_, err := f.svc.DeviceRealtime(context.Background(), "dev-1", "user-1")

	assert.True(t, apperr.IsKind(err, apperr.KindVendorAPI))
}

func TestDeviceHistory(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetDeviceByID", mock.Anything, "dev-1").Return(testDevice("dev-1", "user-1"), nil)
	f.telemetry.On("FetchHistory", mock.Anything, mock.Anything, testNow.Add(-DefaultHistoryWindow), testNow).
		Return(historyOK(), nil)

	v, err := f.svc.DeviceHistory(context.Background(), "dev-1", "user-1", nil)

	require.NoError(t, err)
	require.NotNil(t, v.Historical)
	assert.Equal(t, "last week", v.Historical.Description)
	assert.Contains(t, v.Historical.Series, series.KindTemperature)
	assert.Contains(t, v.Historical.Series, series.KindSoilMoisture)
	assert.NotContains(t, v.Historical.Series, series.KindPressure)
}

func TestDeviceHistory_ForeignDevice(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetDeviceByID", mock.Anything, "dev-1").Return(testDevice("dev-1", "user-2"), nil)

	_, err := f.svc.DeviceHistory(context.Background(), "dev-1", "user-1", nil)

	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	f.telemetry.AssertNotCalled(t, "FetchHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeviceHistory_KeepsClassifiedErrors(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetDeviceByID", mock.Anything, "dev-1").Return(testDevice("dev-1", "user-1"), nil)
	f.telemetry.On("FetchHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ecowitt.Result{}, apperr.Validation("invalid range", nil))

	_, err := f.svc.DeviceHistory(context.Background(), "dev-1", "user-1", nil)

	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
