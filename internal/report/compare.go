package report

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
)

// MaxCompareDevices is the largest comparison accepted.
const MaxCompareDevices = 4

// ComparedDevice is one column of a comparison.
type ComparedDevice struct {
	DeviceID string                        `json:"deviceId"`
	Name     string                        `json:"name"`
	Series   map[series.Kind]series.Series `json:"series"`
	Error    string                        `json:"error,omitempty"`
}

// Comparison lines up the history of several devices over one range.
type Comparison struct {
	Range       TimeRange        `json:"range"`
	Description string           `json:"description"`
	Devices     []ComparedDevice `json:"devices"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// CompareDevices fetches history for 1 to MaxCompareDevices devices owned by
// userID. Every device must be owned by the caller; history failures only
// blank the affected column.
func (s *Service) CompareDevices(ctx context.Context, userID string, deviceIDs []string, rng TimeRange) (*Comparison, error) {
	if len(deviceIDs) == 0 {
		return nil, apperr.Validation("at least one device is required", nil)
	}
	if len(deviceIDs) > MaxCompareDevices {
		return nil, apperr.Validation("at most 4 devices can be compared", nil)
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(deviceIDs))
	devices := make([]*store.Device, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation("device "+id+" listed twice", nil)
		}
		seen[id] = struct{}{}

		d, err := s.userDevice(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}

	columns := make([]ComparedDevice, len(devices))
	p := pool.New().WithMaxGoroutines(s.groupConcurrency)
	for i, d := range devices {
		p.Go(func() {
			columns[i] = s.compareColumn(ctx, d, rng)
		})
	}
	p.Wait()

	metrics.ReportBuilds.WithLabelValues("comparison", "ok").Inc()
	return &Comparison{
		Range:       rng,
		Description: DescribeRange(rng.Duration()),
		Devices:     columns,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *Service) compareColumn(ctx context.Context, d *store.Device, rng TimeRange) ComparedDevice {
	col := ComparedDevice{DeviceID: d.ID, Name: d.Name, Series: map[series.Kind]series.Series{}}

	res, err := s.telemetry.FetchHistory(ctx, credentialsOf(d), rng.Start, rng.End)
	switch {
	case err != nil:
		metrics.SubFetchFailures.WithLabelValues("history").Inc()
		s.logger.Warn("[Report] comparison history failed", zap.String("device_id", d.ID), zap.Error(err))
		col.Error = "historical data unavailable"
	case !res.OK():
		col.Error = "history returned no data (" + string(res.Status) + ")"
	default:
		col.Series = nonEmptySeries(s.normalizer, res.Data)
	}
	return col
}
