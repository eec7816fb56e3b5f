package report

import (
	"context"
	"errors"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
)

// RealtimeView is the current snapshot of one device outside of a report.
type RealtimeView struct {
	DeviceID    string               `json:"deviceId"`
	Status      ecowitt.Status       `json:"status"`
	Online      bool                 `json:"online"`
	Realtime    *Realtime            `json:"realtime"`
	Diagnostics *ecowitt.Diagnostics `json:"diagnostics,omitempty"`
}

// HistoryView is the normalized history of one device outside of a report.
type HistoryView struct {
	DeviceID    string               `json:"deviceId"`
	Status      ecowitt.Status       `json:"status"`
	Historical  *Historical          `json:"historical"`
	Diagnostics *ecowitt.Diagnostics `json:"diagnostics,omitempty"`
}

// vendorError keeps classified client errors and classifies the rest.
func vendorError(msg string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.VendorAPI(msg, err)
}

// DeviceRealtime fetches the current readings of a device owned by userID.
// Unlike report sub-fetches, vendor failures are returned to the caller.
func (s *Service) DeviceRealtime(ctx context.Context, deviceID, userID string) (*RealtimeView, error) {
	d, err := s.userDevice(ctx, deviceID, userID)
	if err != nil {
		return nil, err
	}

	res, err := s.telemetry.FetchRealtime(ctx, credentialsOf(d))
	if err != nil {
		return nil, vendorError("fetch realtime data", err)
	}

	view := &RealtimeView{DeviceID: d.ID, Status: res.Status, Diagnostics: res.Diag}
	if !res.OK() {
		return view, nil
	}
	readings := series.LatestAll(res.Data)
	view.Realtime = &Realtime{Readings: readings, Probe: res.Probe, Raw: res.Data}
	view.Online = s.online(readings)
	return view, nil
}

// DeviceHistory fetches and normalizes the history of a device owned by
// userID. A nil range means the default window.
func (s *Service) DeviceHistory(ctx context.Context, deviceID, userID string, rng *TimeRange) (*HistoryView, error) {
	d, err := s.userDevice(ctx, deviceID, userID)
	if err != nil {
		return nil, err
	}
	hist, err := s.resolveRange(rng)
	if err != nil {
		return nil, err
	}

	res, err := s.telemetry.FetchHistory(ctx, credentialsOf(d), hist.Start, hist.End)
	if err != nil {
		return nil, vendorError("fetch historical data", err)
	}

	view := &HistoryView{DeviceID: d.ID, Status: res.Status, Diagnostics: res.Diag}
	if !res.OK() {
		return view, nil
	}
	view.Historical = &Historical{
		Range:       hist,
		Description: DescribeRange(hist.Duration()),
		Probe:       res.Probe,
		Series:      nonEmptySeries(s.normalizer, res.Data),
	}
	return view, nil
}
