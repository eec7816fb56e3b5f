package report

import (
	"context"
	"sync"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
)

// DiagnosticWindow is the history range probed by Diagnose.
const DiagnosticWindow = 24 * time.Hour

// ProbeReport is the outcome of one vendor endpoint during diagnosis.
type ProbeReport struct {
	Status      string               `json:"status"`
	Probe       string               `json:"probe,omitempty"`
	Attempted   []string             `json:"attempted,omitempty"`
	Diagnostics *ecowitt.Diagnostics `json:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Diagnosis explains what the vendor returns for a device.
type Diagnosis struct {
	DeviceID   string      `json:"deviceId"`
	MAC        string      `json:"mac"`
	CheckedAt  time.Time   `json:"checkedAt"`
	Realtime   ProbeReport `json:"realtime"`
	History    ProbeReport `json:"history"`
	DeviceInfo ProbeReport `json:"deviceInfo"`
	Healthy    bool        `json:"healthy"`
}

const statusError = "error"

func probeReport(res ecowitt.Result, err error) ProbeReport {
	if err != nil {
		return ProbeReport{Status: statusError, Error: err.Error()}
	}
	return ProbeReport{
		Status:      string(res.Status),
		Probe:       res.Probe,
		Attempted:   res.Attempted,
		Diagnostics: res.Diag,
	}
}

// Diagnose runs every vendor endpoint for a device owned by userID and
// reports the probe outcome of each.
func (s *Service) Diagnose(ctx context.Context, deviceID, userID string) (*Diagnosis, error) {
	d, err := s.userDevice(ctx, deviceID, userID)
	if err != nil {
		return nil, err
	}
	creds := credentialsOf(d)
	now := s.now().UTC()
	window := LastWindow(now, DiagnosticWindow)

	var (
		wg   sync.WaitGroup
		diag = &Diagnosis{DeviceID: d.ID, MAC: d.MAC, CheckedAt: now}
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		diag.Realtime = probeReport(s.telemetry.FetchRealtime(ctx, creds))
	}()
	go func() {
		defer wg.Done()
		diag.History = probeReport(s.telemetry.FetchHistory(ctx, creds, window.Start, window.End))
	}()
	go func() {
		defer wg.Done()
		if _, err := s.telemetry.FetchDeviceInfo(ctx, creds); err != nil {
			diag.DeviceInfo = ProbeReport{Status: statusError, Error: err.Error()}
			return
		}
		diag.DeviceInfo = ProbeReport{Status: string(ecowitt.StatusOK)}
	}()
	wg.Wait()

	ok := string(ecowitt.StatusOK)
	diag.Healthy = diag.Realtime.Status == ok && diag.History.Status == ok && diag.DeviceInfo.Status == ok
	return diag, nil
}
