package report

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
)

// memberResult is the outcome of one member slot.
type memberResult struct {
	report *DeviceReport
	err    *DeviceError
}

// BuildGroupReport assembles a report for every member of a group owned by
// userID. Member failures are collected into Errors; the group report only
// fails when the group itself cannot be loaded or belongs to someone else.
func (s *Service) BuildGroupReport(ctx context.Context, groupID, userID string, includeHistory bool, rng *TimeRange) (*GroupReport, error) {
	start := time.Now()

	g, err := s.store.GetGroupByID(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && g.UserID != userID) {
		metrics.ReportBuilds.WithLabelValues("group", "failed").Inc()
		return nil, apperr.NotFound("group not found", err)
	}
	if err != nil {
		metrics.ReportBuilds.WithLabelValues("group", "failed").Inc()
		return nil, apperr.Internal("load group", err)
	}

	var hist TimeRange
	if includeHistory {
		if hist, err = s.resolveRange(rng); err != nil {
			metrics.ReportBuilds.WithLabelValues("group", "failed").Inc()
			return nil, err
		}
	}

	ids, err := s.store.ListGroupDeviceIDs(ctx, groupID)
	if err != nil {
		metrics.ReportBuilds.WithLabelValues("group", "failed").Inc()
		return nil, apperr.Internal("load group members", err)
	}

	results := make([]memberResult, len(ids))
	p := pool.New().WithMaxGoroutines(s.groupConcurrency)
	for i, id := range ids {
		p.Go(func() {
			results[i] = s.buildMember(ctx, id, userID, includeHistory, hist)
		})
	}
	p.Wait()

	gr := &GroupReport{
		Group: GroupSummary{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			CreatedAt:   g.CreatedAt,
		},
		Devices: make([]DeviceReport, 0, len(ids)),
		Errors:  make([]DeviceError, 0),
	}
	for _, res := range results {
		if res.err != nil {
			gr.Errors = append(gr.Errors, *res.err)
			continue
		}
		gr.Devices = append(gr.Devices, *res.report)
	}
	gr.Metadata = s.groupMetadata(gr, len(ids))

	if len(gr.Errors) > 0 {
		s.logger.Warn("[Report] group report has failed members",
			zap.String("group_id", g.ID),
			zap.Int("failed", len(gr.Errors)),
			zap.Int("total", len(ids)),
		)
	}

	metrics.ReportBuilds.WithLabelValues("group", "ok").Inc()
	metrics.ReportBuildDuration.WithLabelValues("group").Observe(time.Since(start).Seconds())
	return gr, nil
}

// buildMember loads one member and builds its report. Members owned by another
// user are reported as errors, never built.
func (s *Service) buildMember(ctx context.Context, deviceID, userID string, includeHistory bool, hist TimeRange) memberResult {
	d, err := s.store.GetDeviceByID(ctx, deviceID)
	if err != nil {
		msg := "device lookup failed: " + err.Error()
		if errors.Is(err, store.ErrNotFound) {
			msg = "device not found"
		}
		return memberResult{err: &DeviceError{DeviceID: deviceID, Error: msg}}
	}
	if d.UserID != userID {
		return memberResult{err: &DeviceError{DeviceID: deviceID, Error: "device not found"}}
	}

	return memberResult{report: s.assemble(ctx, d, includeHistory, hist)}
}

func (s *Service) groupMetadata(gr *GroupReport, total int) GroupMetadata {
	m := GroupMetadata{
		GeneratedAt:       s.now().UTC(),
		TotalDevices:      total,
		SuccessfulReports: len(gr.Devices),
		FailedReports:     len(gr.Errors),
	}
	for _, r := range gr.Devices {
		if r.Metadata.HasHistoricalData {
			m.DevicesWithHistoricalData++
		}
		if r.Metadata.HasSoilMoisture {
			m.DevicesWithSoilMoisture++
		}
		if r.Metadata.HasWeatherData {
			m.DevicesWithWeatherData++
		}
	}
	m.SuccessRate = percent(m.SuccessfulReports, total)
	m.HistoricalDataRate = percent(m.DevicesWithHistoricalData, total)
	m.SoilMoistureRate = percent(m.DevicesWithSoilMoisture, total)
	return m
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*10000) / 100
}
