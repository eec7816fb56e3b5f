package ecowitt

import (
	"context"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
)

// DateLayout is the vendor's start_date/end_date format.
const DateLayout = "2006-01-02 15:04:05"

const historyScope = "indoor,outdoor,pressure,soil_ch1,soil_ch2,soil_ch3,soil_ch4,soil_ch5,soil_ch6,soil_ch7,soil_ch8"

var historyChain = []Probe{
	{Name: "default"},
	{Name: "outdoor-scope", Set: map[string]string{"call_back": "outdoor"}},
	{Name: "five-minute-cycle", Set: map[string]string{"cycle_type": "5min"}},
	{Name: "metric-units", Set: map[string]string{
		"temp_unitid":       tempCelsius,
		"pressure_unitid":   pressureHpa,
		"wind_speed_unitid": windMetersPerSec,
		"rainfall_unitid":   rainMillimeters,
	}},
}

var historyCauses = []string{
	"no data recorded by the station in the requested time range",
	"call_back scope does not include the station's sensors",
	"cycle_type granularity not retained by the vendor for this range",
	"device offline or not uploading to the EcoWitt cloud",
	"application_key/api_key not authorized for this MAC address",
}

// FetchHistory returns the raw history payload for [start, end].
// Times are sent in UTC.
func (c *Client) FetchHistory(ctx context.Context, creds Credentials, start, end time.Time) (Result, error) {
	if !end.After(start) {
		return Result{}, apperr.Validation("history end must be after start", nil)
	}

	params := creds.values()
	params.Set("start_date", start.UTC().Format(DateLayout))
	params.Set("end_date", end.UTC().Format(DateLayout))
	params.Set("cycle_type", "auto")
	params.Set("call_back", historyScope)
	params.Set("temp_unitid", tempFahrenheit)
	params.Set("pressure_unitid", pressureInHg)
	params.Set("wind_speed_unitid", windMph)
	params.Set("rainfall_unitid", rainInches)

	return c.probe(ctx, EndpointHistory, params, historyChain, historyCauses)
}
