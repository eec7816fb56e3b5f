package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
)

type fakePDF struct {
	got []byte
	err error
}

func (f *fakePDF) Convert(_ context.Context, html []byte) ([]byte, error) {
	f.got = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakeStorage struct {
	key         string
	body        []byte
	contentType string
	err         error
}

func (f *fakeStorage) Upload(_ context.Context, key string, body []byte, contentType string) (string, error) {
	f.key, f.body, f.contentType = key, body, contentType
	if f.err != nil {
		return "", f.err
	}
	return "https://files.example.com/" + key, nil
}

type fakeFiles struct {
	created []*store.File
}

func (f *fakeFiles) CreateFile(_ context.Context, file *store.File) error {
	file.ID = "file-1"
	f.created = append(f.created, file)
	return nil
}

func sampleDeviceReport() *report.DeviceReport {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	temps := []series.Point{{Time: at.UnixMilli(), Value: 20}, {Time: at.Add(time.Hour).UnixMilli(), Value: 24}}
	return &report.DeviceReport{
		Device:   report.DeviceSummary{ID: "dev-1", Name: "North Greenhouse", MAC: "AA:BB", Status: "active"},
		Location: &report.Location{Latitude: 18.48, Longitude: -69.93, PlaceName: "Santo Domingo"},
		Realtime: &report.Realtime{Readings: map[series.Kind]series.Reading{
			series.KindHumidity: {Kind: series.KindHumidity, Value: 61, Unit: "%", Time: at.UnixMilli()},
		}},
		Historical: &report.Historical{
			Range:       report.TimeRange{Start: at.Add(-24 * time.Hour), End: at},
			Description: "last day",
			Series: map[series.Kind]series.Series{
				series.KindTemperature: {Kind: series.KindTemperature, Points: temps, Stats: series.ComputeStats(temps), Unit: "℃"},
			},
		},
		Weather: &weather.Forecast{
			Provider: "openmeteo",
			Current:  weather.Snapshot{Temperature: 27, Humidity: 70, Condition: weather.ConditionCloudy},
			Daily:    []weather.DailySummary{{Date: at, MinTemp: 22, MaxTemp: 31, Condition: weather.ConditionRain}},
		},
		Metadata: report.Metadata{
			GeneratedAt:       at,
			HasRealtimeData:   true,
			HasHistoricalData: true,
			HasWeatherData:    true,
			Warnings:          []string{"device info unavailable"},
		},
	}
}

func TestHTMLRenderer_Device(t *testing.T) {
	h, err := NewHTMLRenderer()
	require.NoError(t, err)

	out, err := h.RenderDevice(sampleDeviceReport())
	require.NoError(t, err)

	page := string(out)
	assert.Contains(t, page, "<h1>North Greenhouse</h1>")
	assert.Contains(t, page, "Santo Domingo")
	assert.Contains(t, page, "History (last day)")
	assert.Contains(t, page, "Temperature")
	assert.Contains(t, page, "24.00")
	assert.Contains(t, page, "Humidity")
	assert.Contains(t, page, "device info unavailable")
	assert.Contains(t, page, "Weather (openmeteo)")
}

func TestHTMLRenderer_GroupEscapesNames(t *testing.T) {
	h, err := NewHTMLRenderer()
	require.NoError(t, err)

	gr := &report.GroupReport{
		Group:   report.GroupSummary{Name: "<script>x</script>"},
		Devices: []report.DeviceReport{*sampleDeviceReport()},
		Errors:  []report.DeviceError{{DeviceID: "dev-9", Error: "device not found"}},
	}
	out, err := h.RenderGroup(gr)
	require.NoError(t, err)

	page := string(out)
	assert.NotContains(t, page, "<script>x</script>")
	assert.Contains(t, page, "dev-9: device not found")
	assert.Contains(t, page, "North Greenhouse")
}

func newTestService(t *testing.T, pdf PDFConverter, st *fakeStorage, files *fakeFiles) *Service {
	t.Helper()
	h, err := NewHTMLRenderer()
	require.NoError(t, err)
	s := NewService(h, pdf, st, files, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC) }
	return s
}

func TestDeliverDeviceReport_PDF(t *testing.T) {
	pdf, st, files := &fakePDF{}, &fakeStorage{}, &fakeFiles{}
	s := newTestService(t, pdf, st, files)

	f, err := s.DeliverDeviceReport(context.Background(), "user-1", sampleDeviceReport(), FormatPDF)

	require.NoError(t, err)
	assert.Contains(t, string(pdf.got), "North Greenhouse")
	assert.Equal(t, "application/pdf", st.contentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), st.body)
	assert.True(t, strings.HasPrefix(st.key, "reports/user-1/"))
	assert.True(t, strings.HasSuffix(st.key, "device-report-north-greenhouse-20240601-123000.pdf"))

	require.Len(t, files.created, 1)
	assert.Equal(t, "file-1", f.ID)
	assert.Equal(t, "user-1", f.UserID)
	assert.Equal(t, "device-report-north-greenhouse-20240601-123000.pdf", f.Name)
	assert.Equal(t, "https://files.example.com/"+st.key, f.URL)
	assert.Equal(t, int64(len(st.body)), f.Size)
}

func TestDeliverDeviceReport_HTMLSkipsPDF(t *testing.T) {
	pdf, st, files := &fakePDF{}, &fakeStorage{}, &fakeFiles{}
	s := newTestService(t, pdf, st, files)

	f, err := s.DeliverDeviceReport(context.Background(), "user-1", sampleDeviceReport(), FormatHTML)

	require.NoError(t, err)
	assert.Nil(t, pdf.got)
	assert.Equal(t, "text/html; charset=utf-8", f.ContentType)
	assert.Contains(t, string(st.body), "<h1>North Greenhouse</h1>")
}

func TestDeliver_PDFDisabled(t *testing.T) {
	s := newTestService(t, nil, &fakeStorage{}, &fakeFiles{})

	_, err := s.DeliverDeviceReport(context.Background(), "user-1", sampleDeviceReport(), FormatPDF)

	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDeliver_UploadFailureRecordsNothing(t *testing.T) {
	files := &fakeFiles{}
	s := newTestService(t, &fakePDF{}, &fakeStorage{err: errors.New("access denied")}, files)

	_, err := s.DeliverGroupReport(context.Background(), "user-1", &report.GroupReport{Group: report.GroupSummary{Name: "g"}}, FormatHTML)

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.Empty(t, files.created)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	_, err = ParseFormat("docx")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
