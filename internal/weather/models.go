package weather

import (
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location is the position a forecast was requested for.
// Name is filled by a PlaceResolver when one is configured.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// Key returns a canonical string key for caching this location.
// Coordinates are rounded to ~100m so nearby stations share entries.
func (l Location) Key() string {
	return fmt.Sprintf("%.3f:%.3f", l.Latitude, l.Longitude)
}

// Snapshot is the normalized weather at a point in time.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeed"`
	Pressure    float64   `json:"pressureHpa"`
	PrecipMM    float64   `json:"precipMm"`
	Condition   Condition `json:"condition"`
}

// DailySummary condenses one UTC day of readings.
type DailySummary struct {
	Date         time.Time `json:"date"` // midnight UTC
	MinTemp      float64   `json:"minTemperatureC"`
	MaxTemp      float64   `json:"maxTemperatureC"`
	AvgHumidity  float64   `json:"avgHumidityPercent"`
	AvgWindSpeed float64   `json:"avgWindSpeed"`
	TotalPrecip  float64   `json:"totalPrecipMm"`
	Condition    Condition `json:"condition"`
}

// Forecast is the weather section attached to device reports.
// Hourly and Daily are ordered by time ascending.
type Forecast struct {
	Location  Location       `json:"location"`
	Provider  string         `json:"provider"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Current   Snapshot       `json:"current"`
	Hourly    []Snapshot     `json:"hourly,omitempty"`
	Daily     []DailySummary `json:"daily,omitempty"`
}
