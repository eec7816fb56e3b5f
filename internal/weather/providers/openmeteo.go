package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/common"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/weather"
)

// OpenMeteoBaseURL is the keyless forecast endpoint.
const OpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// Open-Meteo returns local ISO times without offset when timezone=UTC.
const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider implements weather.Provider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg common.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates the provider. An empty baseURL uses the public endpoint.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = OpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: common.HTTPClientConfig{
			Client:  client,
			Backoff: common.DefaultBackoff,
		},
		circuit: common.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, lat, lon float64) (weather.ProviderForecast, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', 6, 64))
		values.Set("current", "temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,precipitation,weather_code")
		values.Set("hourly", "temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,precipitation,weather_code")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")
		values.Set("forecast_days", strconv.Itoa(weather.ForecastDays))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := common.DoRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderForecast{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time          string  `json:"time"`
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Pressure      float64 `json:"surface_pressure"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			Precipitation float64 `json:"precipitation"`
			WeatherCode   int     `json:"weather_code"`
		} `json:"current"`
		Hourly struct {
			Time          []string  `json:"time"`
			Temperature   []float64 `json:"temperature_2m"`
			Humidity      []float64 `json:"relative_humidity_2m"`
			Pressure      []float64 `json:"surface_pressure"`
			WindSpeed     []float64 `json:"wind_speed_10m"`
			Precipitation []float64 `json:"precipitation"`
			WeatherCode   []int     `json:"weather_code"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderForecast{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	cur := payload.Current
	out := weather.ProviderForecast{
		Current: weather.ProviderReading{
			Timestamp:    parseOpenMeteoTime(cur.Time),
			TemperatureC: cur.Temperature,
			HumidityPct:  cur.Humidity,
			WindSpeedMS:  cur.WindSpeed,
			PressureHpa:  cur.Pressure,
			PrecipMm:     cur.Precipitation,
			Condition:    mapOpenMeteoCondition(cur.WeatherCode),
		},
	}

	h := payload.Hourly
	out.Hourly = make([]weather.ProviderReading, 0, len(h.Time))
	for i, t := range h.Time {
		out.Hourly = append(out.Hourly, weather.ProviderReading{
			Timestamp:    parseOpenMeteoTime(t),
			TemperatureC: at(h.Temperature, i),
			HumidityPct:  at(h.Humidity, i),
			WindSpeedMS:  at(h.WindSpeed, i),
			PressureHpa:  at(h.Pressure, i),
			PrecipMm:     at(h.Precipitation, i),
			Condition:    mapOpenMeteoCondition(int(at(h.WeatherCode, i))),
		})
	}

	if cur.Time == "" && len(out.Hourly) == 0 {
		return weather.ProviderForecast{}, fmt.Errorf("openmeteo returned no forecast")
	}
	return out, nil
}

// at returns s[i] or zero when the column is shorter than the time axis.
func at[T int | float64](s []T, i int) float64 {
	if i < len(s) {
		return float64(s[i])
	}
	return 0
}

func parseOpenMeteoTime(s string) time.Time {
	for _, layout := range []string{openMeteoTimeLayout, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on WMO weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
