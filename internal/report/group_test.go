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
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
)

func testGroup(userID string) *store.DeviceGroup {
	return &store.DeviceGroup{ID: "grp-1", UserID: userID, Name: "North field"}
}

func TestBuildGroupReport_IsolatesMemberFailures(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetGroupByID", mock.Anything, "grp-1").Return(testGroup("user-1"), nil)
	f.store.On("ListGroupDeviceIDs", mock.Anything, "grp-1").Return([]string{"a", "b", "c"}, nil)
	f.store.On("GetDeviceByID", mock.Anything, "a").Return(testDevice("a", "user-1"), nil)
	f.store.On("GetDeviceByID", mock.Anything, "b").Return(nil, errors.New("connection refused"))
	f.store.On("GetDeviceByID", mock.Anything, "c").Return(testDevice("c", "user-1"), nil)
	f.healthyTelemetry()

	gr, err := f.svc.BuildGroupReport(context.Background(), "grp-1", "user-1", true, nil)

	require.NoError(t, err)
	require.Len(t, gr.Devices, 2)
	assert.Equal(t, "a", gr.Devices[0].Device.ID)
	assert.Equal(t, "c", gr.Devices[1].Device.ID)
	require.Len(t, gr.Errors, 1)
	assert.Equal(t, "b", gr.Errors[0].DeviceID)
	assert.Contains(t, gr.Errors[0].Error, "connection refused")

	m := gr.Metadata
	assert.Equal(t, 3, m.TotalDevices)
	assert.Equal(t, 2, m.SuccessfulReports)
	assert.Equal(t, 1, m.FailedReports)
	assert.Equal(t, 2, m.DevicesWithHistoricalData)
	assert.Equal(t, 2, m.DevicesWithSoilMoisture)
	assert.Equal(t, 2, m.DevicesWithWeatherData)
	assert.Equal(t, 66.67, m.SuccessRate)
	assert.Equal(t, 66.67, m.HistoricalDataRate)
	assert.Equal(t, 66.67, m.SoilMoistureRate)
}

func TestBuildGroupReport_ForeignMemberIsAnError(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetGroupByID", mock.Anything, "grp-1").Return(testGroup("user-1"), nil)
	f.store.On("ListGroupDeviceIDs", mock.Anything, "grp-1").Return([]string{"mine", "theirs", "gone"}, nil)
	f.store.On("GetDeviceByID", mock.Anything, "mine").Return(testDevice("mine", "user-1"), nil)
	f.store.On("GetDeviceByID", mock.Anything, "theirs").Return(testDevice("theirs", "user-2"), nil)
	f.store.On("GetDeviceByID", mock.Anything, "gone").Return(nil, store.ErrNotFound)
	f.healthyTelemetry()

	gr, err := f.svc.BuildGroupReport(context.Background(), "grp-1", "user-1", false, nil)

	require.NoError(t, err)
	require.Len(t, gr.Devices, 1)
	require.Len(t, gr.Errors, 2)
	assert.Equal(t, DeviceError{DeviceID: "theirs", Error: "device not found"}, gr.Errors[0])
	assert.Equal(t, DeviceError{DeviceID: "gone", Error: "device not found"}, gr.Errors[1])
	assert.Equal(t, 0, gr.Metadata.DevicesWithHistoricalData)
}

func TestBuildGroupReport_EveryMemberFailing(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetGroupByID", mock.Anything, "grp-1").Return(testGroup("user-1"), nil)
	f.store.On("ListGroupDeviceIDs", mock.Anything, "grp-1").Return([]string{"a", "b"}, nil)
	f.store.On("GetDeviceByID", mock.Anything, mock.Anything).Return(nil, store.ErrNotFound)

	gr, err := f.svc.BuildGroupReport(context.Background(), "grp-1", "user-1", true, nil)

	require.NoError(t, err)
	assert.Empty(t, gr.Devices)
	assert.Len(t, gr.Errors, 2)
	assert.Equal(t, 0.0, gr.Metadata.SuccessRate)
}

func TestBuildGroupReport_EmptyGroup(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetGroupByID", mock.Anything, "grp-1").Return(testGroup("user-1"), nil)
	f.store.On("ListGroupDeviceIDs", mock.Anything, "grp-1").Return([]string{}, nil)

	gr, err := f.svc.BuildGroupReport(context.Background(), "grp-1", "user-1", false, nil)

	require.NoError(t, err)
	assert.NotNil(t, gr.Devices)
	assert.NotNil(t, gr.Errors)
	assert.Equal(t, 0, gr.Metadata.TotalDevices)
}

func TestBuildGroupReport_PreservesOrderUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	f.svc.groupConcurrency = 2
	ids := []string{"d1", "d2", "d3", "d4", "d5", "d6"}
	f.store.On("GetGroupByID", mock.Anything, "grp-1").Return(testGroup("user-1"), nil)
	f.store.On("ListGroupDeviceIDs", mock.Anything, "grp-1").Return(ids, nil)
	for i, id := range ids {
		f.store.On("GetDeviceByID", mock.Anything, id).
			After(time.Duration(len(ids)-i) * time.Millisecond).
			Return(testDevice(id, "user-1"), nil)
	}
	f.telemetry.On("FetchRealtime", mock.Anything, mock.Anything).Return(ecowitt.Result{Status: ecowitt.StatusEmpty}, nil)
	f.telemetry.On("FetchDeviceInfo", mock.Anything, mock.Anything).Return(ecowitt.DeviceInfo{}, nil)

	gr, err := f.svc.BuildGroupReport(context.Background(), "grp-1", "user-1", false, nil)

	require.NoError(t, err)
	require.Len(t, gr.Devices, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, gr.Devices[i].Device.ID)
	}
}

func TestBuildGroupReport_ForeignGroupIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetGroupByID", mock.Anything, "grp-1").Return(testGroup("user-2"), nil)

	_, err := f.svc.BuildGroupReport(context.Background(), "grp-1", "user-1", false, nil)

	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	f.store.AssertNotCalled(t, "ListGroupDeviceIDs", mock.Anything, mock.Anything)
}

func TestBuildGroupReport_MissingGroup(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetGroupByID", mock.Anything, "grp-x").Return(nil, store.ErrNotFound)

	_, err := f.svc.BuildGroupReport(context.Background(), "grp-x", "user-1", false, nil)

	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
