package ecowitt

import (
	"context"
)

// Unit ids understood by the vendor.
const (
	tempCelsius      = "1"
	tempFahrenheit   = "2"
	pressureHpa      = "3"
	pressureInHg     = "4"
	windMetersPerSec = "6"
	windMph          = "9"
	rainMillimeters  = "12"
	rainInches       = "13"
)

var realtimeChain = []Probe{
	{Name: "default"},
	{Name: "without-call-back", Remove: []string{"call_back"}},
	{Name: "indoor-scope", Set: map[string]string{"call_back": "indoor"}},
	{Name: "root-level", FromRoot: true},
}

var realtimeCauses = []string{
	"device offline or not uploading to the EcoWitt cloud",
	"call_back scope does not include the station's sensors",
	"no sensors configured on the station",
	"application_key/api_key not authorized for this MAC address",
}

// FetchRealtime returns the current sensor snapshot of a station.
func (c *Client) FetchRealtime(ctx context.Context, creds Credentials) (Result, error) {
	params := creds.values()
	params.Set("call_back", "all")
	params.Set("temp_unitid", tempCelsius)
	params.Set("pressure_unitid", pressureHpa)
	params.Set("wind_speed_unitid", windMetersPerSec)
	params.Set("rainfall_unitid", rainMillimeters)

	return c.probe(ctx, EndpointRealtime, params, realtimeChain, realtimeCauses)
}
