// Package report assembles device and group reports from stored devices,
// vendor telemetry and weather forecasts. Partial data beats total failure:
// only ownership and input problems fail a report.
package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
)

// DefaultGroupConcurrency bounds parallel member reports.
const DefaultGroupConcurrency = 4

// OfflineAfter is how old the newest realtime reading may be before the
// station is reported offline.
const OfflineAfter = time.Hour

// DeviceStore is the part of the store the assembler reads.
type DeviceStore interface {
	GetDeviceByID(ctx context.Context, id string) (*store.Device, error)
	GetGroupByID(ctx context.Context, id string) (*store.DeviceGroup, error)
	ListGroupDeviceIDs(ctx context.Context, groupID string) ([]string, error)
}

// Telemetry is the vendor client.
type Telemetry interface {
	FetchRealtime(ctx context.Context, creds ecowitt.Credentials) (ecowitt.Result, error)
	FetchHistory(ctx context.Context, creds ecowitt.Credentials, start, end time.Time) (ecowitt.Result, error)
	FetchDeviceInfo(ctx context.Context, creds ecowitt.Credentials) (ecowitt.DeviceInfo, error)
}

// Forecaster supplies weather for coordinates.
type Forecaster interface {
	GetForecast(ctx context.Context, lat, lon float64) (*weather.Forecast, error)
}

// Service builds reports.
type Service struct {
	store      DeviceStore
	telemetry  Telemetry
	forecaster Forecaster
	normalizer *series.Normalizer
	logger     *zap.Logger

	groupConcurrency int
	now              func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithForecaster enables the weather section of device reports.
func WithForecaster(f Forecaster) Option {
	return func(s *Service) { s.forecaster = f }
}

// WithGroupConcurrency sets how many member reports are built at once.
func WithGroupConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.groupConcurrency = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a report Service.
func NewService(st DeviceStore, tel Telemetry, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:            st,
		telemetry:        tel,
		normalizer:       series.NewNormalizer(logger),
		logger:           logger,
		groupConcurrency: DefaultGroupConcurrency,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func credentialsOf(d *store.Device) ecowitt.Credentials {
	return ecowitt.Credentials{
		ApplicationKey: d.ApplicationKey,
		APIKey:         d.APIKey,
		MAC:            d.MAC,
	}
}

// userDevice loads a device and hides devices of other users behind NotFound.
func (s *Service) userDevice(ctx context.Context, deviceID, userID string) (*store.Device, error) {
	d, err := s.store.GetDeviceByID(ctx, deviceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("device not found", err)
	}
	if err != nil {
		return nil, apperr.Internal("load device", err)
	}
	if d.UserID != userID {
		return nil, apperr.NotFound("device not found", nil)
	}
	return d, nil
}

// resolveRange applies the default window and validates the result.
func (s *Service) resolveRange(rng *TimeRange) (TimeRange, error) {
	if rng == nil {
		return LastWindow(s.now().UTC(), DefaultHistoryWindow), nil
	}
	if err := rng.Validate(); err != nil {
		return TimeRange{}, err
	}
	return *rng, nil
}

// BuildDeviceReport assembles the report of one device owned by userID.
func (s *Service) BuildDeviceReport(ctx context.Context, deviceID, userID string, includeHistory bool, rng *TimeRange) (*DeviceReport, error) {
	start := time.Now()

	d, err := s.userDevice(ctx, deviceID, userID)
	if err != nil {
		metrics.ReportBuilds.WithLabelValues("device", "failed").Inc()
		return nil, err
	}

	var hist TimeRange
	if includeHistory {
		if hist, err = s.resolveRange(rng); err != nil {
			metrics.ReportBuilds.WithLabelValues("device", "failed").Inc()
			return nil, err
		}
	}

	r := s.assemble(ctx, d, includeHistory, hist)

	metrics.ReportBuilds.WithLabelValues("device", "ok").Inc()
	metrics.ReportBuildDuration.WithLabelValues("device").Observe(time.Since(start).Seconds())
	return r, nil
}

type fetchOutcome struct {
	realtime    ecowitt.Result
	realtimeErr error

	history    ecowitt.Result
	historyErr error

	info    ecowitt.DeviceInfo
	infoErr error

	forecast    *weather.Forecast
	forecastErr error
	forecastRan bool
}

// assemble runs the sub-fetches concurrently and merges whatever succeeded.
func (s *Service) assemble(ctx context.Context, d *store.Device, includeHistory bool, hist TimeRange) *DeviceReport {
	creds := credentialsOf(d)

	var (
		wg  sync.WaitGroup
		out fetchOutcome
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		out.realtime, out.realtimeErr = s.telemetry.FetchRealtime(ctx, creds)
	}()

	// Weather depends on the coordinates from device info.
	go func() {
		defer wg.Done()
		out.info, out.infoErr = s.telemetry.FetchDeviceInfo(ctx, creds)
		if out.infoErr != nil || s.forecaster == nil || !out.info.HasCoordinates() {
			return
		}
		out.forecastRan = true
		out.forecast, out.forecastErr = s.forecaster.GetForecast(ctx, *out.info.Latitude, *out.info.Longitude)
	}()

	if includeHistory {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out.history, out.historyErr = s.telemetry.FetchHistory(ctx, creds, hist.Start, hist.End)
		}()
	}

	wg.Wait()

	r := &DeviceReport{
		Device: DeviceSummary{
			ID:        d.ID,
			Name:      d.Name,
			MAC:       d.MAC,
			Category:  d.Category,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
		},
		Metadata: Metadata{GeneratedAt: s.now().UTC()},
	}
	log := s.logger.With(zap.String("device_id", d.ID))

	s.applyDeviceInfo(r, out, log)
	s.applyRealtime(r, out, log)
	if includeHistory {
		s.applyHistory(r, out, hist, log)
	}
	s.applyWeather(r, out, log)

	return r
}

func (s *Service) subFetchFailed(r *DeviceReport, log *zap.Logger, fetch, warning string, err error) {
	metrics.SubFetchFailures.WithLabelValues(fetch).Inc()
	r.Metadata.Warnings = append(r.Metadata.Warnings, warning)
	if err != nil {
		log.Warn("[Report] sub-fetch failed", zap.String("fetch", fetch), zap.Error(err))
	} else {
		log.Info("[Report] sub-fetch returned no data", zap.String("fetch", fetch), zap.String("reason", warning))
	}
}

func (s *Service) applyDeviceInfo(r *DeviceReport, out fetchOutcome, log *zap.Logger) {
	if out.infoErr != nil {
		s.subFetchFailed(r, log, "device_info", "device info unavailable", out.infoErr)
		return
	}
	info := out.info
	r.DeviceInfo = &info
	r.Metadata.HasDeviceInfo = true

	if info.HasCoordinates() {
		r.Location = &Location{
			Latitude:  *info.Latitude,
			Longitude: *info.Longitude,
			Timezone:  info.Timezone,
		}
	} else {
		r.Metadata.Warnings = append(r.Metadata.Warnings, "device coordinates unknown; weather skipped")
	}
}

func (s *Service) applyRealtime(r *DeviceReport, out fetchOutcome, log *zap.Logger) {
	if out.realtimeErr != nil {
		s.subFetchFailed(r, log, "realtime", "realtime data unavailable", out.realtimeErr)
		return
	}
	if !out.realtime.OK() {
		s.subFetchFailed(r, log, "realtime", "realtime returned no data ("+string(out.realtime.Status)+")", nil)
		if out.realtime.Diag != nil {
			r.Metadata.Diagnostics = append(r.Metadata.Diagnostics, out.realtime.Diag)
		}
		return
	}

	readings := series.LatestAll(out.realtime.Data)
	r.Realtime = &Realtime{
		Readings: readings,
		Probe:    out.realtime.Probe,
		Raw:      out.realtime.Data,
	}
	r.Metadata.HasRealtimeData = true
	r.Metadata.DeviceOnline = s.online(readings)
	if !r.Metadata.DeviceOnline {
		r.Metadata.Warnings = append(r.Metadata.Warnings, "latest realtime reading is stale; device appears offline")
	}
}

// online reports whether the newest reading is recent. Readings without a
// timestamp count as current.
func (s *Service) online(readings map[series.Kind]series.Reading) bool {
	var newest int64
	for _, rd := range readings {
		if rd.Time > newest {
			newest = rd.Time
		}
	}
	if newest == 0 {
		return true
	}
	return s.now().Sub(time.UnixMilli(newest)) <= OfflineAfter
}

func (s *Service) applyHistory(r *DeviceReport, out fetchOutcome, hist TimeRange, log *zap.Logger) {
	if out.historyErr != nil {
		s.subFetchFailed(r, log, "history", "historical data unavailable", out.historyErr)
		return
	}
	if !out.history.OK() {
		s.subFetchFailed(r, log, "history", "history returned no data ("+string(out.history.Status)+")", nil)
		if out.history.Diag != nil {
			r.Metadata.Diagnostics = append(r.Metadata.Diagnostics, out.history.Diag)
		}
		return
	}

	found := nonEmptySeries(s.normalizer, out.history.Data)
	if len(found) == 0 {
		s.subFetchFailed(r, log, "history", "history payload contained no known sensor series", nil)
		return
	}

	r.Historical = &Historical{
		Range:       hist,
		Description: DescribeRange(hist.Duration()),
		Probe:       out.history.Probe,
		Series:      found,
	}
	r.Metadata.HasHistoricalData = true
	if soil, ok := found[series.KindSoilMoisture]; ok {
		r.Metadata.HasSoilMoisture = true
		r.Metadata.SoilChannelCount = soil.ChannelCount
	}
}

func (s *Service) applyWeather(r *DeviceReport, out fetchOutcome, log *zap.Logger) {
	if !out.forecastRan {
		return
	}
	if out.forecastErr != nil || out.forecast == nil {
		s.subFetchFailed(r, log, "weather", "weather forecast unavailable", out.forecastErr)
		return
	}
	r.Weather = out.forecast
	r.Metadata.HasWeatherData = true
	if r.Location != nil {
		r.Location.PlaceName = out.forecast.Location.Name
	}
}

// nonEmptySeries keeps only the kinds that had data.
func nonEmptySeries(n *series.Normalizer, payload map[string]any) map[series.Kind]series.Series {
	out := make(map[series.Kind]series.Series)
	for kind, sr := range n.ExtractAll(payload) {
		if !sr.Empty() {
			out[kind] = sr
		}
	}
	return out
}
