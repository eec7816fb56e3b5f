package report

import (
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/ecowitt"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/series"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
)

// DeviceSummary is the stored part of a device that reports may expose.
type DeviceSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MAC       string    `json:"mac"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Location is where the station reports itself to be.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceName string  `json:"placeName,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Realtime is the current sensor snapshot.
type Realtime struct {
	Readings map[series.Kind]series.Reading `json:"readings"`
	Probe    string                         `json:"probe"`
	Raw      map[string]any                 `json:"raw,omitempty"`
}

// Historical holds the normalized series that had data for the range.
type Historical struct {
	Range       TimeRange                     `json:"range"`
	Description string                        `json:"description"`
	Probe       string                        `json:"probe"`
	Series      map[series.Kind]series.Series `json:"series"`
}

// Metadata records which sub-fetches succeeded and why the others did not.
type Metadata struct {
	GeneratedAt       time.Time              `json:"generatedAt"`
	HasDeviceInfo     bool                   `json:"hasDeviceInfo"`
	HasRealtimeData   bool                   `json:"hasRealtimeData"`
	DeviceOnline      bool                   `json:"deviceOnline"`
	HasHistoricalData bool                   `json:"hasHistoricalData"`
	HasWeatherData    bool                   `json:"hasWeatherData"`
	HasSoilMoisture   bool                   `json:"hasSoilMoisture"`
	SoilChannelCount  int                    `json:"soilChannelCount"`
	Warnings          []string               `json:"warnings,omitempty"`
	Diagnostics       []*ecowitt.Diagnostics `json:"diagnostics,omitempty"`
}

// DeviceReport is the assembled document for one station. Optional sections
// are nil when their sub-fetch failed or was not requested.
type DeviceReport struct {
	Device     DeviceSummary       `json:"device"`
	DeviceInfo *ecowitt.DeviceInfo `json:"deviceInfo"`
	Location   *Location           `json:"location"`
	Realtime   *Realtime           `json:"realtime"`
	Historical *Historical         `json:"historical"`
	Weather    *weather.Forecast   `json:"weather"`
	Metadata   Metadata            `json:"metadata"`
}

// GroupSummary is the stored part of a group.
type GroupSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DeviceError is a member that could not be reported on.
type DeviceError struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName,omitempty"`
	Error      string `json:"error"`
}

// GroupMetadata aggregates the member reports. Rates are percentages of
// TotalDevices.
type GroupMetadata struct {
	GeneratedAt               time.Time `json:"generatedAt"`
	TotalDevices              int       `json:"totalDevices"`
	SuccessfulReports         int       `json:"successfulReports"`
	FailedReports             int       `json:"failedReports"`
	DevicesWithHistoricalData int       `json:"devicesWithHistoricalData"`
	DevicesWithSoilMoisture   int       `json:"devicesWithSoilMoisture"`
	DevicesWithWeatherData    int       `json:"devicesWithWeatherData"`
	SuccessRate               float64   `json:"successRate"`
	HistoricalDataRate        float64   `json:"historicalDataRate"`
	SoilMoistureRate          float64   `json:"soilMoistureRate"`
}

// GroupReport is the assembled document for a device group.
type GroupReport struct {
	Group    GroupSummary   `json:"group"`
	Devices  []DeviceReport `json:"devices"`
	Errors   []DeviceError  `json:"errors"`
	Metadata GroupMetadata  `json:"metadata"`
}
